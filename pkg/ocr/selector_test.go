package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/interfaces"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/ocr/engines"
	"github.com/nodewee/capture-ocr/pkg/types"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

type fakeEngine struct {
	name      string
	available bool
	text      string
	err       error
	images    []string
}

func (e *fakeEngine) Name() string           { return e.name }
func (e *fakeEngine) IsAvailable() bool      { return e.available }
func (e *fakeEngine) GetDescription() string { return "fake " + e.name }

func (e *fakeEngine) ExtractTextFromImage(ctx context.Context, imagePath string) (string, error) {
	e.images = append(e.images, imagePath)
	return e.text, e.err
}

func engineFactory(e interfaces.OCREngine) EngineFactory {
	return func() (interfaces.OCREngine, error) { return e, nil }
}

func newTestSelector(cloud, tesseract interfaces.OCREngine) *DefaultOCRSelector {
	s := NewOCRSelector(config.NewConfig(), logger.NewTestLogger())
	s.RegisterEngine(types.OCRStrategyCloud, engineFactory(cloud))
	s.RegisterEngine(types.OCRStrategyTesseract, engineFactory(tesseract))
	return s
}

func TestAutoPrefersCloudWhenAvailable(t *testing.T) {
	s := newTestSelector(&fakeEngine{name: "cloud", available: true}, &fakeEngine{name: "tesseract", available: true})

	for _, strategy := range []types.OCRStrategy{types.OCRStrategyAuto, ""} {
		engine, err := s.SelectOCRStrategy(strategy)
		if err != nil {
			t.Fatalf("SelectOCRStrategy(%q): %v", strategy, err)
		}
		if engine.Name() != "cloud" {
			t.Errorf("SelectOCRStrategy(%q) = %s, want cloud", strategy, engine.Name())
		}
	}
}

func TestAutoFallsBackToTesseract(t *testing.T) {
	s := newTestSelector(&fakeEngine{name: "cloud"}, &fakeEngine{name: "tesseract", available: true})

	engine, err := s.SelectOCRStrategy(types.OCRStrategyAuto)
	if err != nil {
		t.Fatal(err)
	}
	if engine.Name() != "tesseract" {
		t.Errorf("engine = %s, want tesseract", engine.Name())
	}
}

func TestAutoWithNothingAvailable(t *testing.T) {
	s := newTestSelector(&fakeEngine{name: "cloud"}, &fakeEngine{name: "tesseract", available: true})
	s.RegisterEngine(types.OCRStrategyTesseract, func() (interfaces.OCREngine, error) {
		return nil, errors.New("libtesseract missing")
	})

	_, err := s.SelectOCRStrategy(types.OCRStrategyAuto)
	if !utils.IsErrorType(err, utils.ErrorTypeEngineNotFound) {
		t.Fatalf("err = %v, want engine_not_found", err)
	}
}

func TestExplicitUnavailableEngine(t *testing.T) {
	s := newTestSelector(&fakeEngine{name: "cloud"}, &fakeEngine{name: "tesseract", available: true})

	_, err := s.SelectOCRStrategy(types.OCRStrategyCloud)
	if !utils.IsErrorType(err, utils.ErrorTypeEngineNotFound) {
		t.Fatalf("err = %v, want engine_not_found", err)
	}
	if _, err := s.SelectOCRStrategy("gpu"); !utils.IsErrorType(err, utils.ErrorTypeEngineNotFound) {
		t.Fatalf("unknown strategy err = %v", err)
	}
}

func TestEnginesAreBuiltOnce(t *testing.T) {
	s := NewOCRSelector(config.NewConfig(), logger.NewTestLogger())
	built := 0
	s.RegisterEngine(types.OCRStrategyTesseract, func() (interfaces.OCREngine, error) {
		built++
		return &fakeEngine{name: "tesseract", available: true}, nil
	})

	for i := 0; i < 3; i++ {
		if _, err := s.SelectOCRStrategy(types.OCRStrategyTesseract); err != nil {
			t.Fatal(err)
		}
	}
	if built != 1 {
		t.Errorf("factory called %d times, want 1", built)
	}
}

func TestGetAvailableStrategies(t *testing.T) {
	s := newTestSelector(&fakeEngine{name: "cloud", available: true}, &fakeEngine{name: "tesseract", available: true})
	want := []types.OCRStrategy{types.OCRStrategyCloud, types.OCRStrategyTesseract}
	if got := s.GetAvailableStrategies(); !reflect.DeepEqual(got, want) {
		t.Errorf("GetAvailableStrategies = %v, want %v", got, want)
	}
}

func TestAutoUsesCredentialsFile(t *testing.T) {
	cfg := config.NewConfig()
	cfg.CredentialsPath = filepath.Join(t.TempDir(), "azurevision.json")
	if err := os.WriteFile(cfg.CredentialsPath, []byte(`{"Endpoint":"https://x.example/","ApiKey":"k"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewOCRSelector(cfg, logger.NewTestLogger())
	engine, err := s.SelectOCRStrategy(types.OCRStrategyAuto)
	if err != nil {
		t.Fatalf("SelectOCRStrategy: %v", err)
	}
	if _, ok := engine.(*engines.AzureReadEngine); !ok {
		t.Errorf("engine = %T, want *engines.AzureReadEngine", engine)
	}
}
