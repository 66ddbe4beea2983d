package targz_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

// archiveContent describes one entry of an in-memory test archive.
type archiveContent struct {
	Name     string
	Content  []byte
	Linkname string
	Mode     int64
	Filetype byte
}

// packTar creates an in-memory tar archive with the given contents.
func packTar(t *testing.T, content []archiveContent) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, c := range content {
		hdr := &tar.Header{
			Name:     c.Name,
			Mode:     c.Mode,
			Size:     int64(len(c.Content)),
			Typeflag: c.Filetype,
			Linkname: c.Linkname,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("packTar() cannot write header: %v", err)
		}
		if c.Filetype == tar.TypeReg {
			if _, err := tw.Write(c.Content); err != nil {
				t.Fatalf("packTar() cannot write content: %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("packTar() cannot close writer: %v", err)
	}
	return buf.Bytes()
}

// compressGzip compresses data with the standard library gzip implementation,
// so that the module is cross-checked against a conforming codec.
func compressGzip(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("compressGzip() cannot write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("compressGzip() cannot close: %v", err)
	}
	return buf.Bytes()
}

// writeTestFile creates a file at path with the given data.
func writeTestFile(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writeTestFile() cannot write %s: %v", path, err)
	}
}

// writeTestArchive creates a tar.gz file at path with the given contents and
// returns the path.
func writeTestArchive(t *testing.T, path string, content []archiveContent) string {
	t.Helper()

	writeTestFile(t, path, compressGzip(t, packTar(t, content)))
	return path
}

// listArchive decodes the tar.gz file at path with the standard library and
// returns the entry names in archive order, mapping regular file names to
// their content.
func listArchive(t *testing.T, path string) ([]string, map[string][]byte) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("listArchive() cannot open %s: %v", path, err)
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("listArchive() cannot decompress %s: %v", path, err)
	}
	defer gzr.Close()

	var names []string
	contents := map[string][]byte{}
	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
		if hdr.Typeflag == tar.TypeReg {
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(tr); err != nil {
				t.Fatalf("listArchive() cannot read %s: %v", hdr.Name, err)
			}
			contents[hdr.Name] = buf.Bytes()
		}
	}
	return names, contents
}

// listTree returns a map of all regular files below root, keyed by their
// slash-separated relative path, with their content as value.
func listTree(t *testing.T, root string) map[string][]byte {
	t.Helper()

	tree := map[string][]byte{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		t.Fatalf("listTree() cannot walk %s: %v", root, err)
	}
	return tree
}
