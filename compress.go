package targz

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Archiver packages a file or a directory tree into a gzip compressed tar
// archive. The input and output paths are fixed at construction time; errors
// for either path surface when [Archiver.Compress] runs.
type Archiver struct {
	src string
	dst string
	cfg *Config
}

// NewArchiver creates a new Archiver that packs src, a file or directory,
// into the archive file dst.
func NewArchiver(src string, dst string, opts ...ConfigOption) *Archiver {
	return &Archiver{
		src: src,
		dst: dst,
		cfg: NewConfig(opts...),
	}
}

// Compress builds the archive and returns the resulting [Stats]. The input
// size is the sum of the sizes of all archived regular files, the output size
// is the size of the produced archive file.
//
// If the operation fails, a partially written archive file may remain at the
// output path and must be treated as unreliable by the caller.
func (a *Archiver) Compress(ctx context.Context) (Stats, error) {
	return compress(ctx, a.src, a.dst, a.cfg)
}

// compress reads src from the filesystem and writes it as a gzip compressed
// tar archive to dst.
func compress(ctx context.Context, src string, dst string, cfg *Config) (Stats, error) {

	// prepare telemetry capturing
	td := &TelemetryData{Operation: "compress"}
	defer cfg.TelemetryHook()(ctx, td)
	defer captureDuration(td, now())

	var stats Stats

	info, err := os.Stat(src)
	if err != nil {
		return stats, fmt.Errorf("cannot stat input path: %w", err)
	}

	archive, err := os.Create(dst)
	if err != nil {
		return stats, fmt.Errorf("cannot create archive: %w", err)
	}
	defer archive.Close()

	enc, err := newGzipEncoder(archive, cfg.CompressionLevel())
	if err != nil {
		return stats, err
	}
	defer enc.Close()

	tw := tar.NewWriter(enc)
	defer tw.Close()

	cfg.Logger().Info("start archiving", "src", src, "dst", dst, "level", cfg.CompressionLevel())
	if info.IsDir() {
		err = archiveDir(ctx, tw, src, cfg, td)
	} else {
		err = archiveFile(tw, src, filepath.Base(src), info, cfg, td)
	}
	if err != nil {
		return stats, err
	}

	// commit the archive layer before the codec layer before the file,
	// otherwise buffered data is lost
	if err := tw.Close(); err != nil {
		return stats, handleError(cfg, td, "cannot finalize archive", err)
	}
	if err := enc.Close(); err != nil {
		return stats, handleError(cfg, td, "cannot finalize compression", err)
	}
	if err := archive.Close(); err != nil {
		return stats, handleError(cfg, td, "cannot close archive", err)
	}

	out, err := os.Stat(dst)
	if err != nil {
		return stats, fmt.Errorf("cannot stat archive: %w", err)
	}
	td.OutputSize = out.Size()

	stats = Stats{InputSize: td.InputSize, OutputSize: td.OutputSize}
	return stats, nil
}

// archiveDir walks the directory tree rooted at root and appends every entry
// to tw. Entry names are slash-separated paths relative to root, so the walk
// order (lexicographic per directory) is reproduced on extraction. Symlinks
// are stored as symlink entries and never followed.
func archiveDir(ctx context.Context, tw *tar.Writer, root string, cfg *Config, td *TelemetryData) error {

	var objectCounter int64

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("cannot walk input directory: %w", err)
		}

		// check if context is canceled
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("cannot determine relative path: %w", err)
		}

		// the root itself is implied by the entries below it
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		// check if maximum of objects is exceeded
		objectCounter++
		if err := cfg.CheckMaxFiles(objectCounter); err != nil {
			return handleError(cfg, td, "max objects check failed", err)
		}

		info, err := d.Info()
		if err != nil {
			return handleError(cfg, td, "cannot stat entry", err)
		}

		cfg.Logger().Debug("archive", "name", name)
		switch {

		case d.IsDir():
			hdr, err := newTarHeader(info, name, "")
			if err != nil {
				return handleError(cfg, td, "cannot create directory header", err)
			}
			if err := tw.WriteHeader(hdr); err != nil {
				return handleError(cfg, td, "cannot write directory header", err)
			}
			td.Dirs++
			return nil

		case info.Mode()&fs.ModeSymlink != 0:
			if cfg.DenySymlinks() {
				cfg.Logger().Info("skipped symlink", "name", name)
				return nil
			}
			link, err := os.Readlink(path)
			if err != nil {
				return handleError(cfg, td, "cannot read symlink", err)
			}
			hdr, err := newTarHeader(info, name, link)
			if err != nil {
				return handleError(cfg, td, "cannot create symlink header", err)
			}
			if err := tw.WriteHeader(hdr); err != nil {
				return handleError(cfg, td, "cannot write symlink header", err)
			}
			td.Symlinks++
			return nil

		case info.Mode().IsRegular():

			// check if file needs to match patterns
			match, err := checkPatterns(cfg.Patterns(), name)
			if err != nil {
				return handleError(cfg, td, "cannot check pattern", err)
			}
			if !match {
				cfg.Logger().Info("skipping file (pattern mismatch)", "name", name)
				td.PatternMismatches++
				return nil
			}

			if err := archiveFile(tw, path, name, info, cfg, td); err != nil {
				return handleError(cfg, td, "cannot archive file", err)
			}
			return nil

		default:
			// sockets, devices and other special files are not representable
			cfg.Logger().Info("skipping unsupported file", "name", name, "mode", info.Mode())
			return nil
		}
	})
}

// archiveFile appends one regular file to tw, streaming its bytes from disk
// in bounded-memory chunks.
func archiveFile(tw *tar.Writer, path string, name string, info fs.FileInfo, cfg *Config, td *TelemetryData) error {
	hdr, err := newTarHeader(info, name, "")
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("cannot write file header: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(tw, f)
	if err != nil {
		return fmt.Errorf("cannot write file content: %w", err)
	}

	td.InputSize += n
	td.Files++
	return nil
}
