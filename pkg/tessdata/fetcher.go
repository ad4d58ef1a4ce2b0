// Package tessdata downloads Tesseract language models on demand.
package tessdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/httpc"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// Fetcher ensures traineddata files exist in a directory
type Fetcher struct {
	client  *http.Client
	sources []string // fmt patterns with one %s for the language code
	logger  *logger.Logger
}

// Option customises a Fetcher
type Option func(*Fetcher)

// WithClient replaces the shared download client
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithSources replaces the download URL patterns, tried in order
func WithSources(sources ...string) Option {
	return func(f *Fetcher) { f.sources = sources }
}

// NewFetcher creates a fetcher using the public tessdata repositories
func NewFetcher(log *logger.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  httpc.Downloader,
		sources: constants.TessdataSources,
		logger:  log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FilePath returns the traineddata path for language in dir
func FilePath(dir, language string) string {
	return filepath.Join(dir, language+constants.TraineddataExtension)
}

// Missing returns the languages whose traineddata file is absent from dir
func Missing(languages []string, dir string) []string {
	var missing []string
	for _, lang := range languages {
		if !utils.FileExists(FilePath(dir, lang)) {
			missing = append(missing, lang)
		}
	}
	return missing
}

// Ensure downloads every missing language into destDir.
// It reports true only when all requested files are present afterwards.
// Download failures are logged and reported through the boolean; the error
// is reserved for invalid arguments and an unusable destination directory.
func (f *Fetcher) Ensure(ctx context.Context, languages []string, destDir string) (bool, error) {
	if len(languages) == 0 {
		return false, utils.NewValidationError("at least one language is required", nil)
	}
	if destDir == "" {
		return false, utils.NewValidationError("destination directory is required", nil)
	}
	for _, lang := range languages {
		if lang == "" || strings.ContainsAny(lang, `/\`) || strings.Contains(lang, "..") {
			return false, utils.NewValidationError(fmt.Sprintf("invalid language code %q", lang), nil)
		}
	}

	if err := utils.EnsureDir(destDir); err != nil {
		return false, utils.WrapError(err, utils.ErrorTypeIO, "cannot create tessdata directory")
	}

	ok := true
	for _, lang := range languages {
		dest := FilePath(destDir, lang)
		if utils.FileExists(dest) {
			f.logger.Debug("Tessdata %s already present", lang)
			continue
		}
		if err := f.download(ctx, lang, dest); err != nil {
			f.logger.Warn("Could not obtain %s: %v", lang, err)
			ok = false
			if ctx.Err() != nil {
				break
			}
		}
	}

	return ok && len(Missing(languages, destDir)) == 0, nil
}

// download tries each source in order until one succeeds
func (f *Fetcher) download(ctx context.Context, lang, dest string) error {
	var lastErr error
	for _, pattern := range f.sources {
		url := fmt.Sprintf(pattern, lang)
		f.logger.Debug("Downloading %s", url)

		err := f.fetchTo(ctx, url, dest)
		if err == nil {
			f.logger.Info("Downloaded %s from %s", filepath.Base(dest), url)
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return utils.NewTimeoutError("download cancelled", ctx.Err())
		}
	}
	if lastErr == nil {
		lastErr = utils.NewConfigurationError("no tessdata sources configured", nil)
	}
	return lastErr
}

// fetchTo streams url into a temp file next to dest and renames it into place
func (f *Fetcher) fetchTo(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return utils.NewConfigurationError("invalid tessdata URL "+url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return utils.NewNetworkError("request failed", err)
	}
	defer httpc.Drain(resp)

	if !httpc.IsSuccess(resp.StatusCode) {
		return utils.NewHTTPStatusError(resp.StatusCode, url)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return utils.NewIOError("cannot create temp file", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return utils.NewNetworkError("download interrupted", err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return utils.NewNetworkError(
			fmt.Sprintf("short download: got %d of %d bytes", n, resp.ContentLength), nil)
	}
	if n == 0 {
		return utils.NewError(utils.ErrorTypeProtocol, "empty response body", nil)
	}
	if err := tmp.Close(); err != nil {
		return utils.NewIOError("cannot finish temp file", err)
	}
	if err := os.Chmod(tmpName, constants.DefaultFilePermission); err != nil {
		return utils.NewIOError("cannot set permissions", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return utils.NewIOError("cannot move traineddata into place", err)
	}
	committed = true
	return nil
}
