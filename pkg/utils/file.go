package utils

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/types"
)

// GetFileInfo gets basic file information
func GetFileInfo(filePath string) (*types.FileInfo, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory", filePath)
	}

	extension := strings.ToLower(filepath.Ext(filePath))
	if extension != "" && extension[0] == '.' {
		extension = extension[1:]
	}

	mimeType, err := getMimeType(filePath)
	if err != nil {
		mimeType = "application/octet-stream"
	}

	return &types.FileInfo{
		Path:      filePath,
		Extension: extension,
		MimeType:  mimeType,
		Size:      stat.Size(),
		MediaType: determineMediaType(extension, mimeType),
	}, nil
}

// getMimeType detects MIME type from file content
func getMimeType(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	return http.DetectContentType(buffer[:n]), nil
}

// IsImageFile checks if file is an image
func IsImageFile(extension string) bool {
	return containsExtension(constants.ImageExtensions, extension)
}

// IsPageFile checks if file is a saved web page
func IsPageFile(extension string) bool {
	return containsExtension(constants.PageExtensions, extension)
}

func containsExtension(list []string, extension string) bool {
	ext := strings.TrimPrefix(strings.ToLower(extension), ".")
	for _, candidate := range list {
		if ext == candidate {
			return true
		}
	}
	return false
}

// determineMediaType determines media type from extension and MIME type
func determineMediaType(extension, mimeType string) types.MediaType {
	if IsImageFile(extension) || strings.HasPrefix(mimeType, "image/") {
		return types.ImageMediaType
	}
	if IsPageFile(extension) || strings.HasPrefix(mimeType, "text/html") {
		return types.PageMediaType
	}
	return types.OtherMediaType
}
