package targz

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// maxHeaderLength is the number of bytes needed to identify a gzip stream.
const maxHeaderLength = 2

// magicBytesGZip are the magic bytes for gzip compressed files.
var magicBytesGZip = [][]byte{
	{0x1f, 0x8b},
}

// isGZip checks if the header matches the magic bytes for gzip compressed files.
func isGZip(header []byte) bool {
	return matchesMagicBytes(header, 0, magicBytesGZip)
}

// newGzipEncoder returns an io.WriteCloser that compresses data written to it
// with the gzip algorithm at the requested level before writing it to w.
func newGzipEncoder(w io.Writer, level Level) (*gzip.Writer, error) {
	enc, err := gzip.NewWriterLevel(w, level.gzipLevel())
	if err != nil {
		return nil, fmt.Errorf("cannot create gzip encoder: %w", err)
	}
	return enc, nil
}

// newGzipDecoder returns an io.ReadCloser that decompresses src with the gzip
// algorithm.
func newGzipDecoder(src io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(src)
}
