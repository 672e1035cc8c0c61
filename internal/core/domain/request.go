package domain

// Upload is the image part of a /predict request.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Data        []byte
}

// PredictRequest is the transport-independent input of the inference pipeline.
type PredictRequest struct {
	RequestID string
	Image     Upload
	// Metadata is the raw JSON string from the form. Empty means not supplied.
	Metadata string
}
