package targz

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Extractor unpacks a gzip compressed tar archive into a directory,
// recreating the relative directory structure of the archive. The input and
// output paths are fixed at construction time; errors for either path surface
// when [Extractor.Extract] runs.
type Extractor struct {
	src    string
	dst    string
	cfg    *Config
	target Target
}

// NewExtractor creates a new Extractor that unpacks the archive file src into
// the directory dst on the local filesystem.
func NewExtractor(src string, dst string, opts ...ConfigOption) *Extractor {
	return &Extractor{
		src:    src,
		dst:    dst,
		cfg:    NewConfig(opts...),
		target: NewTargetDisk(),
	}
}

// Extract unpacks the archive and returns the resulting [Stats]. The input
// size is the size of the archive file, the output size is the sum of the
// sizes of all extracted regular files.
//
// Entries that would resolve outside the destination fail with
// [ErrPathTraversal]. If the operation fails, a partially populated output
// directory may remain on disk and is not cleaned up.
func (e *Extractor) Extract(ctx context.Context) (Stats, error) {
	return extractArchive(ctx, e.target, e.src, e.dst, e.cfg)
}

// extractArchive opens the archive at src, layers the decompression decoder
// and the archive container reader on top of it and unpacks every entry
// into dst.
func extractArchive(ctx context.Context, t Target, src string, dst string, cfg *Config) (Stats, error) {

	// prepare telemetry capturing
	td := &TelemetryData{Operation: "extract"}
	defer cfg.TelemetryHook()(ctx, td)
	defer captureDuration(td, now())

	var stats Stats

	info, err := os.Stat(src)
	if err != nil {
		return stats, fmt.Errorf("cannot stat archive: %w", err)
	}
	td.InputSize = info.Size()

	archive, err := os.Open(src)
	if err != nil {
		return stats, fmt.Errorf("cannot open archive: %w", err)
	}
	defer archive.Close()

	// limit input size
	limitedReader := newLimitErrorReader(archive, cfg.MaxInputSize())

	// peek the header to fail with a clear error on non-gzip input
	headerReader, err := newHeaderReader(limitedReader, maxHeaderLength)
	if err != nil {
		return stats, fmt.Errorf("cannot read archive header: %w", err)
	}
	if !isGZip(headerReader.PeekHeader()) {
		return stats, fmt.Errorf("cannot read archive: not a gzip compressed stream")
	}

	dec, err := newGzipDecoder(headerReader)
	if err != nil {
		return stats, fmt.Errorf("cannot decompress archive: %w", err)
	}
	defer dec.Close()

	n, err := unpack(ctx, t, &tarWalker{tr: tar.NewReader(dec)}, dst, cfg, td)
	td.OutputSize = n
	if err != nil {
		return stats, err
	}

	stats = Stats{InputSize: td.InputSize, OutputSize: n}
	return stats, nil
}

// unpack checks ctx for cancellation, while it reads entries from src and
// extracts them to dst. It returns the number of bytes written for regular
// files.
func unpack(ctx context.Context, t Target, src archiveWalker, dst string, cfg *Config, td *TelemetryData) (int64, error) {

	// ensure the destination exists before the first entry, so that empty
	// archives still produce the output directory
	if err := createDir(t, dst, ".", cfg.CustomCreateDirMode(), cfg); err != nil {
		return 0, handleError(cfg, td, "cannot create destination", err)
	}

	// start extraction
	cfg.Logger().Info("start extraction", "type", src.Type())
	var objectCounter int64
	var extractedBytes int64

	for {
		// check if context is canceled
		if err := ctx.Err(); err != nil {
			return extractedBytes, err
		}

		// get next entry
		ae, err := src.Next()

		switch {

		// if no more entries are found exit loop
		case err == io.EOF:
			// extraction finished
			return extractedBytes, nil

		// return any other error
		case err != nil:
			return extractedBytes, handleError(cfg, td, "cannot read archive", err)

		// if the entry is nil, just skip it
		case ae == nil:
			continue
		}

		// check if maximum of objects is exceeded
		objectCounter++
		if err := cfg.CheckMaxFiles(objectCounter); err != nil {
			return extractedBytes, handleError(cfg, td, "max objects check failed", err)
		}

		// check if name is just the current working dir
		if filepath.Clean(ae.Name()) == "." {
			continue
		}

		// check if entry needs to match patterns
		match, err := checkPatterns(cfg.Patterns(), ae.Name())
		if err != nil {
			return extractedBytes, handleError(cfg, td, "cannot check pattern", err)
		}
		if !match {
			cfg.Logger().Info("skipping entry (pattern mismatch)", "name", ae.Name())
			td.PatternMismatches++
			continue
		}

		cfg.Logger().Debug("extract", "name", ae.Name())
		switch {

		// if its a dir and it doesn't exist create it
		case ae.IsDir():

			if err := createDir(t, dst, ae.Name(), ae.Mode().Perm(), cfg); err != nil {
				if err := handleError(cfg, td, "failed to create safe directory", err); err != nil {
					return extractedBytes, err
				}

				// do not end on error
				continue
			}

			td.Dirs++
			continue

		// if it's a file create it
		case ae.IsRegular():

			// check extraction size
			if err := cfg.CheckExtractionSize(extractedBytes + ae.Size()); err != nil {
				return extractedBytes, handleError(cfg, td, "max extraction size exceeded", err)
			}

			// open entry in archive
			fin, err := ae.Open()
			if err != nil {
				return extractedBytes, handleError(cfg, td, "failed to open entry", err)
			}

			// create file
			writtenBytes, err := createFile(t, dst, ae.Name(), fin, ae.Mode().Perm(), cfg.MaxExtractionSize()-extractedBytes, cfg)
			fin.Close()
			if err != nil {

				// increase error counter, set error and end if necessary
				if err := handleError(cfg, td, "failed to create safe file", err); err != nil {
					return extractedBytes, err
				}

				// do not end on error
				continue
			}
			extractedBytes += writtenBytes

			td.Files++
			continue

		// its a symlink
		case ae.IsSymlink():

			if err := createSymlink(t, dst, ae.Name(), ae.Linkname(), cfg); err != nil {

				// increase error counter, set error and end if necessary
				if err := handleError(cfg, td, "failed to create safe symlink", err); err != nil {
					return extractedBytes, err
				}

				// do not end on error
				continue
			}

			td.Symlinks++
			continue

		default:

			// tar specific: skip the git comment entry `pax_global_header`
			if ae.Name() == "pax_global_header" {
				continue
			}

			if err := handleError(cfg, td, "cannot extract entry", fmt.Errorf("unsupported filetype in archive (%x)", ae.Mode())); err != nil {
				return extractedBytes, err
			}

			// do not end on error
			continue
		}
	}
}
