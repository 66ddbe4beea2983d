package targz

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Target specifies all functions that are needed to be implemented to extract
// contents from an archive to a destination.
type Target interface {
	// CreateFile creates a file at the specified path with src as content. The
	// mode parameter is the file mode that should be set on the file. If the
	// file already exists and overwrite is false, an error should be returned.
	// If the file does not exist, it should be created. The size of the file
	// should not exceed maxSize. If the file is created successfully, the
	// number of bytes written should be returned. If an error occurs, the
	// number of bytes written should be returned along with the error. If
	// maxSize < 0, the file size is not limited.
	CreateFile(path string, src io.Reader, mode fs.FileMode, overwrite bool, maxSize int64) (int64, error)

	// CreateDir creates a directory at the specified path with the specified
	// mode. If the directory already exists, nothing is done.
	CreateDir(path string, mode fs.FileMode) error

	// CreateSymlink creates a symbolic link from newname to oldname. If
	// newname already exists and overwrite is false, the function returns an
	// error.
	CreateSymlink(oldname string, newname string, overwrite bool) error

	// Lstat see docs for os.Lstat. Main purpose is to check for symlinks in
	// the extraction path and for zip-slip attacks.
	Lstat(path string) (fs.FileInfo, error)

	// Stat see docs for os.Stat. Main purpose is to check if a symlink is
	// pointing to a file or directory.
	Stat(path string) (fs.FileInfo, error)
}

// createFile is a wrapper around the CreateFile function
//
// If the name is empty, the function returns an error.
//
// If the directory for the file does not exist, it will be created with the
// config.CustomCreateDirMode().
//
// If the path contains path traversal or a symlink, the function returns an
// error.
//
// If the file is created successfully, the function returns the number of
// bytes written and nil.
func createFile(t Target, dst string, name string, src io.Reader, mode fs.FileMode, maxSize int64, cfg *Config) (int64, error) {
	// check if a name is provided
	if len(name) == 0 {
		return 0, fmt.Errorf("cannot create file without name")
	}

	// adjust path to be os specific
	parts := strings.Split(name, "/")
	name = filepath.Join(parts...)

	// check for traversal in file name, ensure the directory exists and is
	// safe to write to. If the directory does not exist, it will be created
	// with the config.CustomCreateDirMode().
	fDir := filepath.Dir(name)
	if err := createDir(t, dst, fDir, cfg.CustomCreateDirMode(), cfg); err != nil {
		return 0, fmt.Errorf("cannot create directory: %w", err)
	}

	// ensure that if the file exists it is not a symlink
	if err := securityCheck(t, dst, name, cfg); err != nil {
		return 0, fmt.Errorf("security check path failed: %w", err)
	}
	path := filepath.Join(dst, name)
	return t.CreateFile(path, src, mode, cfg.Overwrite(), maxSize)
}

// createDir is a wrapper around the CreateDir function
//
// If dst does not exist, it is created with the config.CustomCreateDirMode()
// when config.CreateDestination() is set, otherwise an error is returned.
//
// If the path contains path traversal or a symlink, the function returns an
// error.
func createDir(t Target, dst string, name string, mode fs.FileMode, cfg *Config) error {
	// check if dst exists
	if len(dst) > 0 {
		if _, err := t.Lstat(dst); os.IsNotExist(err) {
			if cfg.CreateDestination() {
				if err := t.CreateDir(dst, cfg.CustomCreateDirMode()); err != nil {
					return fmt.Errorf("failed to create destination directory: %w", err)
				}
				cfg.Logger().Info("created destination directory", "path", dst)
			} else {
				return fmt.Errorf("destination does not exist")
			}
		}
	}

	// no action needed
	if name == "." {
		return nil
	}

	// perform security check to ensure that the path is safe to write to
	if err := securityCheck(t, dst, name, cfg); err != nil {
		return fmt.Errorf("security check path failed: %w", err)
	}

	// combine the path
	parts := strings.Split(name, "/")
	path := filepath.Join(dst, filepath.Join(parts...))
	return t.CreateDir(path, mode)
}

// createSymlink is a wrapper around the CreateSymlink function
//
// It checks if symlink extraction is allowed and if the link target is an
// absolute path. If the symlink extraction is denied or the link target is an
// absolute path, the function returns an error.
//
// If the directory for the symlink does not exist, it will be created with the
// config.CustomCreateDirMode().
//
// If the path or the link target contains path traversal, the function
// returns an error.
func createSymlink(t Target, dst string, name string, linkTarget string, cfg *Config) error {
	// check if symlink extraction is denied
	if cfg.DenySymlinks() {
		return fmt.Errorf("symlinks are not allowed")
	}

	// check if a name is provided
	if len(name) == 0 {
		return fmt.Errorf("empty name")
	}

	// Check if link target is absolute path
	if filepath.IsAbs(linkTarget) {

		// continue on error?
		if cfg.ContinueOnError() {
			cfg.Logger().Info("skip link target with absolute path", "link target", linkTarget)
			return nil
		}

		// return error
		return fmt.Errorf("symlink with absolute path as target: %s", linkTarget)
	}

	// convert name to platform specific path
	parts := strings.Split(name, "/")
	name = filepath.Join(parts...)

	// get link directory
	linkDirectory := filepath.Dir(name)

	// create target dir && check for traversal in file name
	if err := createDir(t, dst, linkDirectory, cfg.CustomCreateDirMode(), cfg); err != nil {
		return fmt.Errorf("cannot create directory for symlink: %w", err)
	}

	// check link target for traversal
	targetCleaned := filepath.Join(linkDirectory, linkTarget)
	if err := securityCheck(t, dst, targetCleaned, cfg); err != nil {
		return fmt.Errorf("symlink target security check path failed: %w", err)
	}

	// create symlink
	return t.CreateSymlink(linkTarget, filepath.Join(dst, name), cfg.Overwrite())
}

// securityCheck checks if name contains path traversal and if the path
// contains a symlink.
//
// The function returns an error wrapping [ErrPathTraversal] if the path
// would escape dst.
//
// If the path contains a symlink and config.TraverseSymlinks() returns true,
// a warning is logged and the function continues. Otherwise an error is
// returned.
func securityCheck(t Target, dst string, path string, config *Config) error {
	// check if dst is empty, then path should not be an absolute path
	if len(dst) == 0 {
		if filepath.IsAbs(path) {
			return fmt.Errorf("%w: absolute path", ErrPathTraversal)
		}
	}

	// clean the target
	parts := strings.Split(path, "/")
	path = filepath.Join(parts...)

	// get relative path from base to new target
	rel, err := filepath.Rel(dst, filepath.Join(dst, path))
	if err != nil {
		return fmt.Errorf("failed to get relative path: %w", err)
	}
	// check if the relative path is local
	if !filepath.IsLocal(rel) {
		return ErrPathTraversal
	}

	// check each dir in path
	targetPathElements := strings.Split(path, string(os.PathSeparator))
	for i := 0; i < len(targetPathElements); i++ {

		// assemble path
		subDirs := filepath.Join(targetPathElements[0 : i+1]...)
		checkDir := filepath.Join(dst, subDirs)

		// check if its a proper path
		if len(checkDir) == 0 {
			continue
		}

		if checkDir == "." {
			continue
		}

		// perform check if its a proper dir
		if _, err := t.Lstat(checkDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("invalid path: %w", err)
			}
		}

		// check for symlink
		isSymlink, err := isSymlink(t, checkDir)
		if err != nil {
			return fmt.Errorf("failed to check symlink: %w", err)
		}
		if isSymlink {
			if config.TraverseSymlinks() {
				config.Logger().Warn("traverse symlink", "sub-dir", subDirs)
			} else {
				return fmt.Errorf("%w: symlink in path", ErrPathTraversal)
			}
		}
	}

	return nil
}

// isSymlink checks if path contains a symlink
//
// The function returns true if the path contains a symlink, otherwise false.
func isSymlink(t Target, path string) (bool, error) {
	// ignore empty checks
	if len(path) == 0 {
		return false, fmt.Errorf("empty path")
	}

	// don't check cwd
	if path == "." {
		return false, nil
	}

	// perform check
	if stat, err := t.Lstat(path); !os.IsNotExist(err) {
		// check if error occurred --> not a symlink
		if err != nil {
			return false, fmt.Errorf("failed to check path: %w", err)
		}

		// check if we got stats
		if stat == nil {
			return false, fmt.Errorf("failed to get stats")
		}

		// check if symlink
		if stat.Mode()&os.ModeSymlink == os.ModeSymlink {
			return true, nil
		}
	}

	// no symlink found within path
	return false, nil
}
