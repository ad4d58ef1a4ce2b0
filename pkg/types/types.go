package types

// MediaType represents different types of input files
type MediaType string

const (
	ImageMediaType MediaType = "image"
	PageMediaType  MediaType = "page"
	OtherMediaType MediaType = "other"
)

// OCRStrategy represents the OCR engine to use
type OCRStrategy string

const (
	OCRStrategyCloud     OCRStrategy = "cloud"
	OCRStrategyTesseract OCRStrategy = "tesseract"
	OCRStrategyAuto      OCRStrategy = "auto"
)

// FileInfo contains basic information about a file
type FileInfo struct {
	Path      string    `json:"path"`
	Extension string    `json:"extension"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	MediaType MediaType `json:"media_type"`
}
