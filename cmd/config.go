package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodewee/capture-ocr/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage persisted settings",
	Long: `Manage persisted settings.

Settings are stored in ~/.capture-ocr/config.json (or $CAPTURE_OCR_CONFIG_DIR/config.json).
Command-line flags and CAPTURE_OCR_* environment variables take precedence.

Keys:
  credentials_path  Cloud credentials JSON file
  tessdata_dir      Tesseract traineddata directory
  default_engine    cloud, tesseract or auto
  language          Recognition language

Examples:
  capture-ocr config list
  capture-ocr config set credentials_path ~/keys/azurevision.json
  capture-ocr config set default_engine tesseract
  capture-ocr config check`,
}

// listConfig prints persisted values next to the effective ones
func listConfig() error {
	cfg := config.LoadConfigWithEnvOverrides()

	configPath, err := config.GetConfigFilePath()
	if err != nil {
		return err
	}
	fmt.Printf("📁 Config file: %s\n\n", configPath)

	effective := map[string]string{
		"credentials_path": cfg.CredentialsPath,
		"tessdata_dir":     cfg.TessdataDir,
		"default_engine":   string(cfg.OCRStrategy),
		"language":         cfg.Language,
	}

	for _, key := range config.ListConfigKeys() {
		stored, err := config.GetConfigValue(key)
		if err != nil {
			return err
		}
		fmt.Printf("  %-18s = %-40s (effective: %s)\n", key, getDisplayValue(stored), effective[key])
	}

	fmt.Println("\n💡 Tip: Use 'capture-ocr config set <key> <value>' to change a value")
	return nil
}

// getDisplayValue returns a display-friendly value for empty strings
func getDisplayValue(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

// checkCredentials validates the effective credentials file
func checkCredentials() error {
	cfg := config.LoadConfigWithEnvOverrides()
	if credentialsFlag != "" {
		cfg.CredentialsPath = credentialsFlag
	}

	creds, err := config.LoadCredentials(cfg.CredentialsPath)
	if err != nil {
		return err
	}
	fmt.Printf("✅ %s is valid: %s\n", cfg.CredentialsPath, creds)
	return nil
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := listConfig(); err != nil {
			exitWithError(err)
		}
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a persisted value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value, err := config.GetConfigValue(args[0])
		if err != nil {
			exitWithError(err)
		}
		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.SetConfigValue(args[0], args[1]); err != nil {
			exitWithError(err)
		}
		fmt.Printf("✅ Successfully set %s = %s\n", args[0], args[1])
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the cloud credentials file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := checkCredentials(); err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCheckCmd.Flags().StringVar(&credentialsFlag, "credentials", "",
		"Credentials file to check (default: the configured one)")

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configCheckCmd)
}
