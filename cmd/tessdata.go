package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/lang"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/ocr/engines"
	"github.com/nodewee/capture-ocr/pkg/tessdata"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

var (
	tessdataLangs string
	tessdataDir   string
)

var tessdataCmd = &cobra.Command{
	Use:   "tessdata",
	Short: "Manage Tesseract language models",
}

// tessdataTarget resolves the directory and Tesseract language codes to act on.
// Without --lang it uses the same codes the tesseract engine would load.
func tessdataTarget(cfg *config.Config) (string, []string) {
	dir := cfg.TessdataDir
	if tessdataDir != "" {
		dir = utils.ExpandHome(tessdataDir)
	}

	codes := lang.Split(lang.ToTesseractList(tessdataLangs))
	if len(codes) == 0 {
		codes = lang.Split(engines.TesseractLanguage(cfg))
	}
	return dir, codes
}

var tessdataEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Download missing traineddata files",
	Example: `  capture-ocr tessdata ensure --lang jpn,eng
  capture-ocr tessdata ensure --lang ja --dir ./tessdata`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfigWithEnvOverrides()
		log := logger.NewLogger("info", verbose || cfg.EnableVerbose)
		dir, codes := tessdataTarget(cfg)

		log.ProgressAlways("📥", "Ensuring %s in %s", strings.Join(codes, ", "), dir)
		ok, err := tessdata.NewFetcher(log).Ensure(cmd.Context(), codes, dir)
		if err != nil {
			exitWithError(err)
		}
		if !ok {
			exitWithError(utils.NewNetworkError(fmt.Sprintf(
				"could not obtain: %s", strings.Join(tessdata.Missing(codes, dir), ", ")), nil))
		}
		log.ProgressAlways("✅", "All traineddata present")
	},
}

var tessdataStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which traineddata files are present",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dir, codes := tessdataTarget(config.LoadConfigWithEnvOverrides())
		fmt.Printf("📁 Directory: %s\n", dir)
		if !utils.DirExists(dir) {
			fmt.Println("   (does not exist)")
		}

		missing := map[string]bool{}
		for _, m := range tessdata.Missing(codes, dir) {
			missing[m] = true
		}
		for _, code := range codes {
			mark := "✅"
			if missing[code] {
				mark = "❌"
			}
			fmt.Printf("  %s %s\n", mark, tessdata.FilePath(dir, code))
		}
	},
}

func init() {
	rootCmd.AddCommand(tessdataCmd)

	for _, c := range []*cobra.Command{tessdataEnsureCmd, tessdataStatusCmd} {
		c.Flags().StringVar(&tessdataLangs, "lang", "",
			"Comma separated languages (default: the configured language)")
		c.Flags().StringVar(&tessdataDir, "dir", "",
			"Target directory (default: the configured tessdata directory)")
		tessdataCmd.AddCommand(c)
	}
}
