package cmd

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nodewee/capture-ocr/pkg/config"
)

func TestTessdataTargetFollowsEngineLanguage(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name, flagLangs, language, tessLanguage string
		want                                    []string
	}{
		{"configured language", "", "ja,en", "", []string{"jpn", "eng"}},
		{"explicit tesseract language wins", "", "ja", "jpn_vert+eng", []string{"jpn_vert", "eng"}},
		{"flag overrides config", "ko", "ja", "jpn_vert", []string{"kor"}},
	}
	defer func() { tessdataLangs, tessdataDir = "", "" }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tessdataLangs = tt.flagLangs
			cfg := config.NewConfig()
			cfg.TessdataDir = dir
			cfg.Language, cfg.TessLanguage = tt.language, tt.tessLanguage

			gotDir, codes := tessdataTarget(cfg)
			if gotDir != dir {
				t.Errorf("dir = %q, want %q", gotDir, dir)
			}
			if !reflect.DeepEqual(codes, tt.want) {
				t.Errorf("codes = %v, want %v", codes, tt.want)
			}
		})
	}
}

func TestTessdataTargetDirFlag(t *testing.T) {
	defer func() { tessdataDir = "" }()
	tessdataDir = filepath.Join(t.TempDir(), "models")

	dir, _ := tessdataTarget(config.NewConfig())
	if dir != tessdataDir {
		t.Errorf("dir = %q, want %q", dir, tessdataDir)
	}
}

func TestVerboseFlagReachesSubcommands(t *testing.T) {
	if f := tessdataEnsureCmd.InheritedFlags().Lookup("verbose"); f == nil || f.Shorthand != "v" {
		t.Fatal("tessdata ensure does not inherit -v/--verbose")
	}
}
