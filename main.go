package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nodewee/capture-ocr/cmd"
)

// Version information - these will be set during build time via ldflags
var (
	Version   = "dev"     // Application version (e.g., "v1.2.3")
	GitCommit = "none"    // Git commit hash
	BuildTime = "unknown" // Build timestamp
	BuildBy   = "unknown" // Builder information
)

func main() {
	cmd.SetVersionInfo(Version, GitCommit, BuildTime, BuildBy)

	// Ctrl-C cancels an in-flight upload, poll or download.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
