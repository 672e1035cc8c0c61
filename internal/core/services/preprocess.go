package services

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"

	"lesion-inference-service/internal/core/domain"
)

// ImageTransform turns raw upload bytes into the image tensor of one model.
type ImageTransform func(data []byte) (*domain.Tensor, error)

// ScreeningImageTransform prepares an image for the mole detector.
func ScreeningImageTransform(spec domain.ModelSpec) ImageTransform {
	return newImageTransform(spec, "mole detector")
}

// ClassifierImageTransform prepares an image for a lesion classifier. It is kept separate
// from ScreeningImageTransform because the two backbones expect different scaling.
func ClassifierImageTransform(spec domain.ModelSpec) ImageTransform {
	return newImageTransform(spec, "skin classifier")
}

func newImageTransform(spec domain.ModelSpec, stage string) ImageTransform {
	size := spec.ImageSize
	normalize := normalizerFor(spec.BaseArchitecture)

	return func(data []byte) (*domain.Tensor, error) {
		if size <= 0 {
			return nil, fmt.Errorf("model %s: invalid image size %d", spec.ID, size)
		}

		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			log.WithError(err).WithField("model", spec.ID).Debug("image decode failed")
			return nil, domain.NewRequestError(domain.ErrInvalidImage, domain.CodeInvalidImage,
				fmt.Sprintf("Invalid image file for %s.", stage))
		}

		resized := imaging.Resize(toRGB(img), size, size, imaging.CatmullRom)
		return tensorFromNRGBA(resized, size, normalize), nil
	}
}

// toRGB drops the alpha channel the way a plain RGB conversion does: colour channels are
// kept as stored and every pixel becomes opaque. Grayscale and paletted sources expand to
// three equal channels through the NRGBA conversion.
func toRGB(img image.Image) *image.NRGBA {
	rgb := imaging.Clone(img)
	for i := 3; i < len(rgb.Pix); i += 4 {
		rgb.Pix[i] = 0xff
	}
	return rgb
}

func tensorFromNRGBA(img *image.NRGBA, size int, normalize normalizer) *domain.Tensor {
	out := make([]float32, size*size*3)
	for y := 0; y < size; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < size; x++ {
			p := row[x*4 : x*4+3]
			c0, c1, c2 := normalize(float32(p[0]), float32(p[1]), float32(p[2]))
			o := (y*size + x) * 3
			out[o], out[o+1], out[o+2] = c0, c1, c2
		}
	}
	return &domain.Tensor{
		Shape: []int64{1, int64(size), int64(size), 3},
		Data:  out,
	}
}

// ============================================================================
// Normalization per backbone
// ============================================================================

// normalizer maps one RGB pixel in [0,255] to the three channel values the model reads.
type normalizer func(r, g, b float32) (float32, float32, float32)

var (
	imagenetCaffeMean = [3]float32{103.939, 116.779, 123.68} // BGR
	imagenetTorchMean = [3]float32{0.485, 0.456, 0.406}
	imagenetTorchStd  = [3]float32{0.229, 0.224, 0.225}
)

func normalizerFor(arch domain.BaseArchitecture) normalizer {
	name := strings.ToLower(string(arch))
	switch {
	case strings.HasPrefix(name, "efficientnet"):
		// EfficientNet rescales inside the graph.
		return func(r, g, b float32) (float32, float32, float32) { return r, g, b }
	case strings.HasPrefix(name, "mobilenet"):
		return func(r, g, b float32) (float32, float32, float32) {
			return r/127.5 - 1, g/127.5 - 1, b/127.5 - 1
		}
	case name == "resnet50", name == "vgg16":
		return func(r, g, b float32) (float32, float32, float32) {
			return b - imagenetCaffeMean[0], g - imagenetCaffeMean[1], r - imagenetCaffeMean[2]
		}
	case strings.HasPrefix(name, "densenet"):
		return func(r, g, b float32) (float32, float32, float32) {
			return (r/255 - imagenetTorchMean[0]) / imagenetTorchStd[0],
				(g/255 - imagenetTorchMean[1]) / imagenetTorchStd[1],
				(b/255 - imagenetTorchMean[2]) / imagenetTorchStd[2]
		}
	default:
		log.WithField("architecture", arch).Warn("no preprocessing registered for base model, defaulting to x/255")
		return func(r, g, b float32) (float32, float32, float32) { return r / 255, g / 255, b / 255 }
	}
}

// ============================================================================
// Metadata
// ============================================================================

// PreprocessMetadata encodes validated metadata as a [1,3] tensor ordered
// [scaled age, sex, location].
func PreprocessMetadata(meta *domain.PatientMetadata, cat domain.Catalog) (*domain.Tensor, error) {
	if meta == nil {
		return nil, fmt.Errorf("%w: no metadata", domain.ErrMetadataPreprocessing)
	}
	if cat.AgeStd == 0 {
		return nil, fmt.Errorf("%w: age standard deviation is zero", domain.ErrMetadataPreprocessing)
	}

	sex, err := encodeSex(meta.Sex, cat.SexEncoding)
	if err != nil {
		return nil, err
	}
	site, err := encodeSite(meta.Location, cat.SiteEncoding)
	if err != nil {
		return nil, err
	}

	scaledAge := (float64(meta.Age) - cat.AgeMean) / cat.AgeStd
	return &domain.Tensor{
		Shape: []int64{1, domain.MetadataFeatureCount},
		Data:  []float32{float32(scaledAge), float32(sex), float32(site)},
	}, nil
}

// encodeSex falls back to "other" for unrecognized values. Request validation rejects such
// values before this point, so the fallback only matters for direct callers.
func encodeSex(sex string, table map[string]int) (int, error) {
	if code, ok := table[strings.ToLower(sex)]; ok {
		return code, nil
	}
	if code, ok := table["other"]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("%w: sex table has no fallback entry", domain.ErrMetadataPreprocessing)
}

func encodeSite(location string, table map[string]int) (int, error) {
	key := "unknown"
	switch loc := strings.ToLower(location); loc {
	case "trunk", "head/neck", "palms/soles", "oral/genital":
		key = loc
	case "extremities":
		if _, ok := table["extremities"]; ok {
			key = "extremities"
		} else {
			key = "lower extremity"
		}
	}

	if code, ok := table[key]; ok {
		return code, nil
	}
	if code, ok := table["unknown"]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("%w: site table has no entry for %q", domain.ErrMetadataPreprocessing, key)
}
