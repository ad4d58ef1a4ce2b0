package constants

import "time"

// Application constants
const (
	AppName = "capture-ocr"
	// Note: AppVersion is managed via build-time ldflags injection in main.go
	// Use cmd.GetVersionInfo() to get the current version at runtime
)

// File processing constants
const (
	// Default file permissions
	DefaultFilePermission = 0644
	DefaultDirPermission  = 0755

	DefaultTextFileExtension = ".txt"
	StdinInput               = "-"

	DefaultTimeoutMinutes = 10
)

// File size limits (in bytes)
const (
	MaxImageSize      = 50 * 1024 * 1024 // 50MB, the Read API rejects larger uploads
	WarnFileSizeLimit = 10 * 1024 * 1024 // 10MB
)

// MaxImagePixels bounds decoded image dimensions; compressed formats can be
// tiny on disk and still expand to gigabytes in memory.
const MaxImagePixels = 50_000_000

// Cloud OCR (Azure Computer Vision Read v3.2)
const (
	CredentialsFileName = "azurevision.json"

	ReadAnalyzePath     = "vision/v3.2/read/analyze"
	DefaultCloudLang    = "ja"
	DefaultReadingOrder = "basic"

	SubscriptionKeyHeader   = "Ocp-Apim-Subscription-Key"
	OperationLocationHeader = "Operation-Location"
	ClientRequestIDHeader   = "x-ms-client-request-id"

	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"

	DefaultPollInterval = 1 * time.Second
	DefaultMaxPolls     = 120

	// Bytes of an error body kept in error messages
	ErrorBodyExcerpt = 512
)

// Local OCR (Tesseract)
const (
	TessdataDirName      = "tessdata"
	TraineddataExtension = ".traineddata"
	DefaultTessLanguage  = "eng"

	// Preprocessing applied before Tesseract sees the image
	DefaultUpscaleFactor = 2
)

// Tessdata download sources, tried in order
var TessdataSources = []string{
	"https://github.com/tesseract-ocr/tessdata/raw/main/%s.traineddata",
	"https://github.com/tesseract-ocr/tessdata_best/raw/main/%s.traineddata",
}

// File type groups
var (
	ImageExtensions = []string{
		"jpg", "jpeg", "png", "gif", "bmp",
		"webp", "tiff", "tif",
	}

	PageExtensions = []string{
		"html", "htm", "mhtml", "mht",
	}
)
