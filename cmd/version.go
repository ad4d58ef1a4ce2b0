package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/lang"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/ocr"
	"github.com/nodewee/capture-ocr/pkg/ocr/engines"
	"github.com/nodewee/capture-ocr/pkg/tessdata"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// Build metadata, injected by main
var (
	version   = "dev"
	gitCommit = "none"
	buildTime = "unknown"
	buildBy   = "unknown"
)

// SetVersionInfo records build metadata from ldflags
func SetVersionInfo(v, commit, buildTimeParam, buildByParam string) {
	version = v
	gitCommit = commit
	buildTime = buildTimeParam
	buildBy = buildByParam
}

// GetVersionInfo returns version, commit, build time and builder
func GetVersionInfo() (string, string, string, string) {
	return version, gitCommit, buildTime, buildBy
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and which OCR engines can run here",
	Long: `Show build information and the OCR environment: where credentials and
traineddata are looked up, and which engines "auto" can choose from.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		showVersionInfo()
	},
}

func showVersionInfo() {
	fmt.Printf("📷 %s %s\n", constants.AppName, version)
	fmt.Printf("  Commit:      %s\n", gitCommit)
	fmt.Printf("  Built:       %s by %s\n", buildTime, buildBy)
	fmt.Printf("  Go:          %s %s/%s\n\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	cfg := config.LoadConfigWithEnvOverrides()
	log := logger.NewTestLogger()

	fmt.Printf("🔍 OCR environment:\n")
	fmt.Printf("  Credentials: %s %s\n", cfg.CredentialsPath, presence(utils.FileExists(cfg.CredentialsPath)))

	backend, err := engines.NewTesseractBackend()
	if err != nil {
		fmt.Printf("  Tesseract:   not compiled in (build with -tags tesseract)\n")
	} else {
		backend.Close()
		tessLang := engines.TesseractLanguage(cfg)
		missing := tessdata.Missing(lang.Split(tessLang), cfg.TessdataDir)
		fmt.Printf("  Tesseract:   %s in %s", tessLang, cfg.TessdataDir)
		if len(missing) > 0 {
			fmt.Printf(" (missing: %s)", strings.Join(missing, ", "))
		}
		fmt.Println()
	}

	var names []string
	for _, s := range ocr.NewOCRSelector(cfg, log).GetAvailableStrategies() {
		names = append(names, string(s))
	}
	if len(names) == 0 {
		names = []string{"none"}
	}
	fmt.Printf("  Engines:     %s (default: %s)\n", strings.Join(names, ", "), cfg.OCRStrategy)
}

func presence(ok bool) string {
	if ok {
		return "✅"
	}
	return "(not found)"
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
