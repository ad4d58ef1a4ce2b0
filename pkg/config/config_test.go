package config

import (
	"testing"
	"time"

	"github.com/nodewee/capture-ocr/pkg/types"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := NewConfig()
	cfg.ApplyEnv(envMap(map[string]string{
		"CAPTURE_OCR_CREDENTIALS":     "/keys/a.json",
		"CAPTURE_OCR_ENGINE":          "tesseract",
		"CAPTURE_OCR_LANG":            "en",
		"CAPTURE_OCR_TESS_LANG":       "jpn_vert",
		"CAPTURE_OCR_FETCH_TESSDATA":  "true",
		"CAPTURE_OCR_JOIN_LINES":      "0",
		"CAPTURE_OCR_REMOVE_SPACES":   "1",
		"CAPTURE_OCR_MAX_POLLS":       "7",
		"CAPTURE_OCR_TIMEOUT_MINUTES": "3",
		"CAPTURE_OCR_POLL_INTERVAL":   "250",
	}))

	if cfg.CredentialsPath != "/keys/a.json" {
		t.Errorf("CredentialsPath = %q", cfg.CredentialsPath)
	}
	if cfg.OCRStrategy != types.OCRStrategyTesseract {
		t.Errorf("OCRStrategy = %q", cfg.OCRStrategy)
	}
	if cfg.Language != "en" || cfg.TessLanguage != "jpn_vert" {
		t.Errorf("Language = %q, TessLanguage = %q", cfg.Language, cfg.TessLanguage)
	}
	if !cfg.FetchTessdata || cfg.JoinLines || !cfg.RemoveSpaces {
		t.Errorf("bools = fetch %v join %v remove %v", cfg.FetchTessdata, cfg.JoinLines, cfg.RemoveSpaces)
	}
	if cfg.MaxPolls != 7 || cfg.TimeoutMinutes != 3 {
		t.Errorf("MaxPolls = %d, TimeoutMinutes = %d", cfg.MaxPolls, cfg.TimeoutMinutes)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.Timeout() != 3*time.Minute {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
}

func TestApplyEnvEngineIsCaseInsensitive(t *testing.T) {
	cfg := NewConfig()
	cfg.ApplyEnv(envMap(map[string]string{"CAPTURE_OCR_ENGINE": " Cloud "}))

	if cfg.OCRStrategy != types.OCRStrategyCloud {
		t.Errorf("OCRStrategy = %q, want cloud", cfg.OCRStrategy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestApplyEnvIgnoresBadValues(t *testing.T) {
	cfg := NewConfig()
	cfg.ApplyEnv(envMap(map[string]string{
		"CAPTURE_OCR_MAX_POLLS":     "many",
		"CAPTURE_OCR_VERBOSE":       "perhaps",
		"CAPTURE_OCR_POLL_INTERVAL": "2s",
		"CAPTURE_OCR_LANG":          "",
	}))

	def := NewConfig()
	if cfg.MaxPolls != def.MaxPolls || cfg.EnableVerbose != def.EnableVerbose || cfg.Language != def.Language {
		t.Errorf("bad values should be ignored: %+v", cfg)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
}

func TestValidate(t *testing.T) {
	if err := NewConfig().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	tests := map[string]func(*Config){
		"engine":        func(c *Config) { c.OCRStrategy = "gpu" },
		"poll interval": func(c *Config) { c.PollInterval = 0 },
		"max polls":     func(c *Config) { c.MaxPolls = 0 },
		"timeout":       func(c *Config) { c.TimeoutMinutes = 0 },
		"log level":     func(c *Config) { c.LogLevel = "loud" },
		"language":      func(c *Config) { c.Language = " " },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := NewConfig()
			mutate(cfg)
			if err := cfg.Validate(); !utils.IsErrorType(err, utils.ErrorTypeValidation) {
				t.Errorf("err = %v, want validation", err)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := NewConfig()
	clone := cfg.Clone()
	clone.Language = "en"
	if cfg.Language == "en" {
		t.Error("Clone shares state with its source")
	}
}
