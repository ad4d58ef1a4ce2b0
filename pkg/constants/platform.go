package constants

import (
	"runtime"
)

// Platform-specific constants
var (
	// Current operating system
	CurrentOS = runtime.GOOS

	// Platform-specific line endings
	LineEnding = getLineEnding()
)

// PlatformConfig lists the locations searched for system-wide resources
type PlatformConfig struct {
	// Directories where a system Tesseract install keeps its language models
	TessdataPaths []string
	TempDirPrefix string
}

// GetPlatformConfig returns platform-specific configuration
func GetPlatformConfig() *PlatformConfig {
	switch runtime.GOOS {
	case "windows":
		return &PlatformConfig{
			TessdataPaths: []string{
				"C:\\Program Files\\Tesseract-OCR\\tessdata",
				"C:\\Program Files (x86)\\Tesseract-OCR\\tessdata",
			},
			TempDirPrefix: "capture-ocr-",
		}
	case "darwin":
		return &PlatformConfig{
			TessdataPaths: []string{
				"/opt/homebrew/share/tessdata",
				"/usr/local/share/tessdata",
			},
			TempDirPrefix: "capture-ocr-",
		}
	default: // Linux and other Unix-like systems
		return &PlatformConfig{
			TessdataPaths: []string{
				"/usr/share/tesseract-ocr/5/tessdata",
				"/usr/share/tesseract-ocr/4.00/tessdata",
				"/usr/share/tessdata",
				"/usr/local/share/tessdata",
			},
			TempDirPrefix: "capture-ocr-",
		}
	}
}

// getLineEnding returns the line ending for the current platform
func getLineEnding() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// IsWindows returns true if running on Windows
func IsWindows() bool {
	return runtime.GOOS == "windows"
}
