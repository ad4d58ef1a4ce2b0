//go:build !tesseract

package engines

import (
	"testing"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

func TestStubBackendReportsEngineNotFound(t *testing.T) {
	backend, err := NewTesseractBackend()
	if backend != nil {
		t.Errorf("backend = %v, want nil", backend)
	}
	if !utils.IsErrorType(err, utils.ErrorTypeEngineNotFound) {
		t.Fatalf("err = %v, want engine_not_found", err)
	}

	if _, err := NewTesseractEngine(config.NewConfig(), logger.NewTestLogger()); !utils.IsErrorType(err, utils.ErrorTypeEngineNotFound) {
		t.Fatalf("NewTesseractEngine err = %v, want engine_not_found", err)
	}
}
