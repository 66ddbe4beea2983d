package targz

import "io"

// noopReaderCloser is a no-op io.Closer wrapper around an io.Reader, used to
// hand out archive entry streams that must not close the underlying reader.
type noopReaderCloser struct {
	io.Reader
}

// Close implements the io.Closer interface and does nothing.
func (n noopReaderCloser) Close() error {
	return nil
}
