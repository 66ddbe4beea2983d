package targz

import (
	"errors"
	"fmt"
)

var (
	// ErrPathTraversal is returned if an archive entry would resolve to a
	// path outside the extraction destination.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrMaxFilesExceeded is returned if an archive contains more entries
	// than configured with [WithMaxFiles].
	ErrMaxFilesExceeded = errors.New("maximum files exceeded")

	// ErrMaxExtractionSizeExceeded is returned if the decompressed content
	// exceeds the maximum configured with [WithMaxExtractionSize].
	ErrMaxExtractionSizeExceeded = errors.New("maximum extraction size exceeded")
)

// handleError increases the error counter, sets the latest error and
// decides if the operation should continue.
func handleError(c *Config, td *TelemetryData, msg string, err error) error {
	td.Errors++
	td.LastError = fmt.Errorf("%s: %w", msg, err)

	// do not end on error
	if c.ContinueOnError() {
		c.Logger().Error(msg, "error", err)
		return nil
	}

	// end operation on error
	return td.LastError
}
