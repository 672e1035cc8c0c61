package domain

import "strings"

// ============================================================================
// Model identity
// ============================================================================

// ModelID identifies one of the networks served by the registry.
type ModelID string

const (
	ModelScreening  ModelID = "mole_detector"
	ModelMultiInput ModelID = "multi_input_skin"
	ModelImageOnly  ModelID = "image_only_skin"
)

// AllModels lists the served models in load order.
var AllModels = []ModelID{ModelScreening, ModelMultiInput, ModelImageOnly}

// InputRole keys a tensor by the part of the network it feeds.
type InputRole string

const (
	RoleImage    InputRole = "image"
	RoleMetadata InputRole = "metadata"
)

// BaseArchitecture is the vision backbone a model was trained on top of.
// It decides which input normalization the preprocessing engine applies.
type BaseArchitecture string

const (
	ArchEfficientNetB0 BaseArchitecture = "EfficientNetB0"
	ArchMobileNetV2    BaseArchitecture = "MobileNetV2"
	ArchResNet50       BaseArchitecture = "ResNet50"
	ArchVGG16          BaseArchitecture = "VGG16"
	ArchDenseNet121    BaseArchitecture = "DenseNet121"
)

// ============================================================================
// Class vocabulary
// ============================================================================

// ClassLabel pairs the label a model was trained with and the name shown to callers.
type ClassLabel struct {
	Internal string `json:"internal" mapstructure:"internal"`
	Display  string `json:"display" mapstructure:"display"`
}

// ClassVocabulary is ordered: index i names output i of the network.
type ClassVocabulary []ClassLabel

func (v ClassVocabulary) Len() int { return len(v) }

// DisplayNames returns display labels in output order.
func (v ClassVocabulary) DisplayNames() []string {
	names := make([]string, len(v))
	for i, c := range v {
		names[i] = c.Display
	}
	return names
}

// SkinLesionClasses is the vocabulary shared by both lesion classifiers.
func SkinLesionClasses() ClassVocabulary {
	return ClassVocabulary{
		{Internal: "melanoma", Display: "Melanoma"},
		{Internal: "nevus", Display: "Nevus"},
		{Internal: "basal_cell_carcinoma", Display: "Basal cell carcinoma"},
		{Internal: "actinic_keratosis", Display: "Actinic keratosis"},
		{Internal: "benign_keratosis", Display: "Benign keratosis-like lesions"},
		{Internal: "dermatofibroma", Display: "Dermatofibroma"},
		{Internal: "vascular_lesions", Display: "Vascular lesions"},
	}
}

// ScreeningClasses is the vocabulary of the mole detector. The network emits a single
// sigmoid value, the probability of the second class.
func ScreeningClasses() ClassVocabulary {
	return ClassVocabulary{
		{Internal: "not_mole", Display: "Not a mole"},
		{Internal: "mole", Display: "Mole"},
	}
}

// ============================================================================
// Model specification
// ============================================================================

// ModelSpec is everything needed to load, feed and interpret one model.
type ModelSpec struct {
	ID               ModelID
	Version          string
	Path             string // self-contained exported model
	WeightsPath      string // portable artifact used when Path cannot be opened
	ImageSize        int
	BaseArchitecture BaseArchitecture
	// DropoutRate is inert at inference time; kept so the architecture can be described
	// exactly when the rebuilt load path is used.
	DropoutRate float64
	Classes     ClassVocabulary
	// Node names of the saved export. Exporters rename graph inputs between versions,
	// which is why the rebuilt path does not rely on them.
	SavedInputNames map[InputRole]string
	SavedOutputName string
}

// ImageShape is the NHWC batch-of-one shape the model's image input expects.
func (s ModelSpec) ImageShape() []int64 {
	return []int64{1, int64(s.ImageSize), int64(s.ImageSize), 3}
}

// UploadLimits bounds what /predict accepts before any decoding happens.
type UploadLimits struct {
	MaxBytes            int64
	AllowedContentTypes []string
}

// Allows reports whether contentType is accepted. Parameters such as charset are ignored.
func (l UploadLimits) Allows(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, allowed := range l.AllowedContentTypes {
		if ct == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ============================================================================
// Catalog
// ============================================================================

const (
	DefaultScreeningThreshold = 0.5
	DefaultImageSize          = 224
	DefaultMaxUploadMB        = 10
	MetadataFeatureCount      = 3

	// Placeholder statistics, not derived from a real population.
	AgeMeanPlaceholder = 50.0
	AgeStdPlaceholder  = 15.0

	NotAMoleMessage = "The uploaded image is not classified as a mole by the initial screening model."
)

// Catalog is the static configuration registry. It is assembled once at startup and only
// read afterwards.
type Catalog struct {
	Models             map[ModelID]ModelSpec
	ScreeningThreshold float64
	Upload             UploadLimits
	SexEncoding        map[string]int
	SiteEncoding       map[string]int
	AgeMean            float64
	AgeStd             float64
	NotAMoleMessage    string
}

// Spec looks up the configuration of one model.
func (c Catalog) Spec(id ModelID) (ModelSpec, bool) {
	spec, ok := c.Models[id]
	return spec, ok
}

// DefaultCatalog returns the built-in tables with model paths left empty.
func DefaultCatalog() Catalog {
	return Catalog{
		Models: map[ModelID]ModelSpec{
			ModelScreening: {
				ID:               ModelScreening,
				Version:          "mole_detector",
				ImageSize:        DefaultImageSize,
				BaseArchitecture: ArchMobileNetV2,
				DropoutRate:      0.2,
				Classes:          ScreeningClasses(),
				SavedInputNames:  map[InputRole]string{RoleImage: "input_layer"},
				SavedOutputName:  "output_0",
			},
			ModelMultiInput: {
				ID:               ModelMultiInput,
				Version:          "1.0.2",
				ImageSize:        DefaultImageSize,
				BaseArchitecture: ArchEfficientNetB0,
				DropoutRate:      0.3,
				Classes:          SkinLesionClasses(),
				SavedInputNames:  map[InputRole]string{RoleImage: "image_input", RoleMetadata: "metadata_input"},
				SavedOutputName:  "output",
			},
			ModelImageOnly: {
				ID:               ModelImageOnly,
				Version:          "1.0.0_img_only",
				ImageSize:        DefaultImageSize,
				BaseArchitecture: ArchEfficientNetB0,
				DropoutRate:      0.3,
				Classes:          SkinLesionClasses(),
				SavedInputNames:  map[InputRole]string{RoleImage: "image_input"},
				SavedOutputName:  "output",
			},
		},
		ScreeningThreshold: DefaultScreeningThreshold,
		Upload: UploadLimits{
			MaxBytes:            DefaultMaxUploadMB * 1024 * 1024,
			AllowedContentTypes: []string{"image/jpeg", "image/png"},
		},
		SexEncoding: map[string]int{
			"male":   1,
			"female": 0,
			"other":  2,
		},
		SiteEncoding: map[string]int{
			"trunk":           0,
			"extremities":     1,
			"upper extremity": 2,
			"lower extremity": 1,
			"head/neck":       3,
			"palms/soles":     4,
			"oral/genital":    5,
			"unknown":         6,
		},
		AgeMean:         AgeMeanPlaceholder,
		AgeStd:          AgeStdPlaceholder,
		NotAMoleMessage: NotAMoleMessage,
	}
}
