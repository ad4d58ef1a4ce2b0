package interfaces

import "io"

// TempFileManager owns the scratch files of one capture, such as spooled stdin.
// Everything it creates is removed by Cleanup.
type TempFileManager interface {
	// GetBasePath returns the per-run scratch directory
	GetBasePath() string

	// CreateTempFile creates an empty scratch file and returns its path
	CreateTempFile(prefix, suffix string) (string, error)

	// SpoolReader copies r into a new scratch file, enforcing the image size limit
	SpoolReader(r io.Reader, prefix, suffix string) (string, error)

	// WithCleanup runs fn and cleans up afterwards, whatever fn returns
	WithCleanup(fn func() error) error

	// Cleanup removes everything created so far
	Cleanup() error
}
