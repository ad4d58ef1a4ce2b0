package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/core"
	"github.com/nodewee/capture-ocr/pkg/interfaces"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/types"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// Flags of the root command
var (
	outputPath      string
	engineFlag      string
	langFlag        string
	credentialsFlag string
	tessdataFlag    string
	fetchTessdata   bool
	pollInterval    time.Duration
	maxPolls        int
	timeoutMinutes  int
	noJoin          bool
	removeSpaces    bool
	skipExisting    bool
	verbose         bool
	showVersion     bool
)

// AppHandler encapsulates application main processing logic
type AppHandler struct {
	config    *config.Config
	logger    *logger.Logger
	processor interfaces.FileProcessor
}

// NewAppHandler creates an application handler
func NewAppHandler() *AppHandler {
	return &AppHandler{}
}

// ProcessFile is the main entry point for one capture
func (h *AppHandler) ProcessFile(cmd *cobra.Command, inputFile string) error {
	if err := h.initialize(cmd); err != nil {
		return err
	}

	outputFile, err := h.determineOutputPath(inputFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), h.config.Timeout())
	defer cancel()

	result, err := h.processor.ProcessFile(ctx, inputFile, outputFile)
	if err != nil {
		return err
	}

	h.displayResults(result, outputFile == "")
	return nil
}

// initialize loads configuration and builds the processor
func (h *AppHandler) initialize(cmd *cobra.Command) error {
	h.config = config.LoadConfigWithEnvOverrides()
	applyCommandLineOverrides(cmd, h.config)

	if err := h.config.Validate(); err != nil {
		return err
	}

	h.logger = logger.NewLogger(h.config.LogLevel, h.config.EnableVerbose)

	processor, err := core.NewFileProcessor(h.config, h.logger)
	if err != nil {
		return err
	}
	h.processor = processor
	return nil
}

// applyCommandLineOverrides copies explicitly set flags over cfg
func applyCommandLineOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("engine") {
		cfg.OCRStrategy = types.OCRStrategy(strings.ToLower(engineFlag))
	}
	if flags.Changed("lang") {
		cfg.Language = langFlag
		cfg.TessLanguage = ""
	}
	if flags.Changed("credentials") {
		cfg.CredentialsPath = utils.ExpandHome(credentialsFlag)
	}
	if flags.Changed("tessdata") {
		cfg.TessdataDir = utils.ExpandHome(tessdataFlag)
	}
	if flags.Changed("fetch-tessdata") {
		cfg.FetchTessdata = fetchTessdata
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = pollInterval
	}
	if flags.Changed("max-polls") {
		cfg.MaxPolls = maxPolls
	}
	if flags.Changed("timeout") {
		cfg.TimeoutMinutes = timeoutMinutes
	}
	if flags.Changed("no-join") {
		cfg.JoinLines = !noJoin
	}
	if flags.Changed("remove-spaces") {
		cfg.RemoveSpaces = removeSpaces
	}
	if flags.Changed("skip-existing") {
		cfg.SkipExisting = skipExisting
	}
	if verbose {
		cfg.EnableVerbose = true
	}
}

// determineOutputPath returns where to save the text; "" means stdout.
// Without -o the text goes next to the image as <name>.txt, or to stdout for stdin input.
func (h *AppHandler) determineOutputPath(inputFile string) (string, error) {
	switch {
	case outputPath == constants.StdinInput:
		return "", nil
	case outputPath != "":
		return filepath.Abs(utils.ExpandHome(outputPath))
	case inputFile == constants.StdinInput:
		return "", nil
	}

	abs, err := filepath.Abs(inputFile)
	if err != nil {
		return "", utils.WrapError(err, utils.ErrorTypeValidation, "error resolving file path")
	}
	return strings.TrimSuffix(abs, filepath.Ext(abs)) + constants.DefaultTextFileExtension, nil
}

// displayResults prints the text (stdout mode) or a summary
func (h *AppHandler) displayResults(result *interfaces.ExtractionResult, toStdout bool) {
	if toStdout {
		fmt.Fprintln(os.Stdout, result.Text)
		return
	}

	h.logger.ProgressAlways("✅", "Text extracted from %s", result.Source)
	if engine, ok := result.Metadata["engine"]; ok {
		h.logger.Progress("📊", "Extractor used: %s (%v)", result.ExtractorUsed, engine)
	} else {
		h.logger.Progress("📊", "Extractor used: %s", result.ExtractorUsed)
	}
	h.logger.Progress("⏱️", "Processing time: %dms", result.ProcessTime)
	h.logger.ProgressAlways("📝", "%d characters saved to %s", len([]rune(result.Text)), result.OutputPath)
	h.showTextPreview(result.Text)
}

// showTextPreview displays the first lines of the text in verbose mode
func (h *AppHandler) showTextPreview(text string) {
	runes := []rune(text)
	if len(runes) == 0 {
		return
	}
	if len(runes) > 200 {
		text = string(runes[:200]) + "..."
	}
	h.logger.Progress("📄", "Preview:---\n%s\n---", text)
}

// exitWithError prints "Error (<type>): <message>" and exits 1
func exitWithError(err error) {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(os.Stderr, "Error (%s): %s\n", appErr.Type, strings.TrimPrefix(appErr.Error(), string(appErr.Type)+": "))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "capture-ocr [image|-]",
	Short: "Extract text from captured images with cloud or local OCR",
	Long: `Extract text from a captured image (a browser screenshot, an image file, or a PNG
piped on stdin) and save it as UTF-8 text.

OCR engines:
- cloud:     Azure Computer Vision Read API; needs azurevision.json with Endpoint and ApiKey
- tesseract: local Tesseract via gosseract; needs a build with -tags tesseract and traineddata
- auto:      cloud when the credentials file exists, otherwise tesseract (default)

Saved web pages (.html, .mhtml) are read directly without OCR.

Examples:
  capture-ocr shot.png                                # Writes shot.txt next to the image
  capture-ocr shot.png -o out/dialog.txt              # Custom output path
  capture-ocr shot.png -o -                           # Print text to stdout
  pngpaste - | capture-ocr -                          # Read the image from stdin
  capture-ocr shot.png --engine tesseract --lang jpn --fetch-tessdata
  capture-ocr shot.png --engine cloud --credentials ~/azurevision.json -v`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Printf("%s %s\n", constants.AppName, version)
			return
		}

		if len(args) == 0 {
			cmd.Help()
			return
		}

		handler := NewAppHandler()
		if err := handler.ProcessFile(cmd, args[0]); err != nil {
			exitWithError(err)
		}
	},
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&outputPath, "output", "o", "",
		"Output file path; '-' prints to stdout (default: <image>.txt, stdout for stdin input)")
	flags.StringVar(&engineFlag, "engine", string(config.DefaultOCRStrategy),
		"OCR engine: cloud, tesseract or auto")
	flags.StringVar(&langFlag, "lang", config.DefaultLanguage,
		"Recognition language (BCP-47 like ja, or Tesseract codes like jpn+eng)")
	flags.StringVar(&credentialsFlag, "credentials", "",
		"Path to the cloud credentials JSON (default: azurevision.json next to the executable)")
	flags.StringVar(&tessdataFlag, "tessdata", "",
		"Tesseract traineddata directory (default: tessdata next to the executable)")
	flags.BoolVar(&fetchTessdata, "fetch-tessdata", false,
		"Download missing traineddata before local OCR")
	flags.DurationVar(&pollInterval, "poll-interval", constants.DefaultPollInterval,
		"Delay between cloud result polls")
	flags.IntVar(&maxPolls, "max-polls", constants.DefaultMaxPolls,
		"Maximum number of cloud result polls")
	flags.IntVar(&timeoutMinutes, "timeout", constants.DefaultTimeoutMinutes,
		"Overall timeout in minutes")
	flags.BoolVar(&noJoin, "no-join", false,
		"Keep line breaks after 、 かつ で の instead of joining the lines")
	flags.BoolVar(&removeSpaces, "remove-spaces", false,
		"Remove ASCII spaces from the result (useful for Japanese)")
	flags.BoolVar(&skipExisting, "skip-existing", false,
		"Return the existing output file instead of running OCR again")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output to show progress information")
	flags.BoolVarP(&showVersion, "version", "V", false,
		"Show version information")
}
