package domain

// ArtifactState is the load state of a model. It is set once at startup.
type ArtifactState string

const (
	ArtifactLoaded      ArtifactState = "LOADED"
	ArtifactUnavailable ArtifactState = "UNAVAILABLE"
)

// LoadPath records which strategy produced a loaded model.
type LoadPath string

const (
	LoadPathSaved   LoadPath = "saved"
	LoadPathRebuilt LoadPath = "rebuilt"
)

// ModelArtifact describes one network as the registry sees it.
type ModelArtifact struct {
	ID          ModelID               `json:"id"`
	Version     string                `json:"version"`
	InputShapes map[InputRole][]int64 `json:"input_shapes"`
	Classes     ClassVocabulary       `json:"classes"`
	State       ArtifactState         `json:"state"`
	LoadPath    LoadPath              `json:"load_path,omitempty"`
	LastError   string                `json:"last_error,omitempty"`
}

func (a ModelArtifact) Loaded() bool { return a.State == ArtifactLoaded }

// RegistryStatus summarizes the load state of all models.
type RegistryStatus struct {
	Models  map[ModelID]ModelArtifact
	Healthy bool
}

// Loaded reports whether id loaded successfully.
func (s RegistryStatus) Loaded(id ModelID) bool {
	a, ok := s.Models[id]
	return ok && a.Loaded()
}
