package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/interfaces"
	"github.com/nodewee/capture-ocr/pkg/logger"
)

// SimpleTempManager manages temporary files that are cleaned up after processing.
// All files live under a single per-run directory inside the system temp dir.
type SimpleTempManager struct {
	baseDir   string
	tempFiles []string
	tempDirs  []string
	mu        sync.Mutex
	logger    *logger.Logger
}

var _ interfaces.TempFileManager = (*SimpleTempManager)(nil)

// NewSimpleTempManager creates a temp manager rooted at a fresh directory.
// An empty parent means os.TempDir().
func NewSimpleTempManager(parent string, log *logger.Logger) (*SimpleTempManager, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	if err := EnsureDir(parent); err != nil {
		return nil, NewIOError("failed to prepare temp parent directory", err)
	}

	baseDir, err := os.MkdirTemp(parent, constants.GetPlatformConfig().TempDirPrefix)
	if err != nil {
		return nil, NewIOError("failed to create temp directory", err)
	}

	tm := &SimpleTempManager{
		baseDir: NormalizePath(baseDir),
		logger:  log,
	}
	tm.tempDirs = append(tm.tempDirs, tm.baseDir)
	return tm, nil
}

// GetBasePath returns the base path for temp files
func (tm *SimpleTempManager) GetBasePath() string {
	return tm.baseDir
}

// CreateTempFile creates an empty temporary file and returns its path
func (tm *SimpleTempManager) CreateTempFile(prefix, suffix string) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	sanitizedPrefix := SanitizeFileName(prefix)
	if sanitizedPrefix == "" {
		sanitizedPrefix = "temp"
	}

	f, err := os.CreateTemp(tm.baseDir, sanitizedPrefix+"-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	tm.tempFiles = append(tm.tempFiles, name)
	tm.logger.Debug("Created temp file: %s", name)
	return name, nil
}

// SpoolReader copies r into a new temp file, e.g. for stdin input
func (tm *SimpleTempManager) SpoolReader(r io.Reader, prefix, suffix string) (string, error) {
	path, err := tm.CreateTempFile(prefix, suffix)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, constants.DefaultFilePermission)
	if err != nil {
		return "", NewIOError("failed to open temp file", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, constants.MaxImageSize+1))
	if err != nil {
		return "", NewIOError("failed to spool input", err)
	}
	if n > constants.MaxImageSize {
		return "", NewValidationError(
			fmt.Sprintf("input exceeds %d bytes", constants.MaxImageSize), nil)
	}

	tm.logger.Debug("Spooled %d bytes to %s", n, filepath.Base(path))
	return path, nil
}

// WithCleanup executes a function with automatic cleanup
func (tm *SimpleTempManager) WithCleanup(fn func() error) error {
	defer func() {
		if err := tm.Cleanup(); err != nil {
			tm.logger.Error("Temporary file cleanup failed: %v", err)
		}
	}()
	return fn()
}

// Cleanup removes every temp file and directory created so far
func (tm *SimpleTempManager) Cleanup() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	var errs []error

	for _, file := range tm.tempFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove temp file %s: %w", file, err))
		}
	}

	for _, dir := range tm.tempDirs {
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove temp dir %s: %w", dir, err))
		}
	}

	tm.tempFiles = tm.tempFiles[:0]
	tm.tempDirs = tm.tempDirs[:0]

	if len(errs) > 0 {
		return fmt.Errorf("cleanup failed with %d errors: %v", len(errs), errs)
	}
	return nil
}
