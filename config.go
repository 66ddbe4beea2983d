package targz

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// Level selects the speed/size tradeoff of the compression codec.
type Level int

const (
	// LevelDefault is the codec's default tradeoff.
	LevelDefault Level = iota

	// LevelFastest favors speed over output size.
	LevelFastest

	// LevelMaximum favors output size over speed.
	LevelMaximum
)

// gzipLevel maps a Level to the numeric gzip quality parameter.
func (l Level) gzipLevel() int {
	switch l {
	case LevelFastest:
		return gzip.BestSpeed
	case LevelMaximum:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

// String implements the [fmt.Stringer] interface.
func (l Level) String() string {
	switch l {
	case LevelFastest:
		return "fastest"
	case LevelMaximum:
		return "maximum"
	default:
		return "default"
	}
}

// ConfigOption is a function pointer to implement the option pattern
type ConfigOption func(*Config)

// Config provides a configuration struct and options to adjust the configuration.
//
// The configuration struct holds all configuration options for archiving and
// extraction. The configuration options can be adjusted using the option
// pattern style.
//
// The default configuration is designed to be secure by default and prevent
// exhaustion, path traversal and symlink attacks.
type Config struct {
	// compressionLevel is the speed/size tradeoff of the gzip encoder
	compressionLevel Level

	// continueOnError decides if the operation should be continued even if an error occurred
	continueOnError bool

	// create destination directory if it does not exist
	createDestination bool

	// customCreateDirMode is the file mode for created directories, that are not defined in the archive (respecting umask)
	customCreateDirMode fs.FileMode

	// denySymlinks offers the option to enable/disable the archiving and extraction of symlinks
	denySymlinks bool

	// traverseSymlinks traverses symlinks to directories during extraction
	traverseSymlinks bool

	// logger stream for the operation
	logger logger

	// maxExtractionSize is the maximum size over all decompressed files.
	// Set value to -1 to disable the check.
	maxExtractionSize int64

	// maxFiles is the maximum of entries (including folder and symlinks) in an archive.
	// Set value to -1 to disable the check.
	maxFiles int64

	// maxInputSize is the maximum size of the compressed input.
	// Set value to -1 to disable the check.
	maxInputSize int64

	// telemetryHook is a function to consume telemetry data after a finished operation
	// Important: do not adjust this value after the operation started
	telemetryHook TelemetryHook

	// Define if files should be overwritten in the destination
	overwrite bool

	// patterns is a list of file patterns to match entries against
	patterns []string
}

// CompressionLevel returns the configured compression level.
func (c *Config) CompressionLevel() Level {
	return c.compressionLevel
}

// ContinueOnError returns true if the operation should continue on error.
func (c *Config) ContinueOnError() bool {
	return c.continueOnError
}

// CreateDestination returns true if the destination directory should be
// created if it does not exist.
func (c *Config) CreateDestination() bool {
	return c.createDestination
}

// CustomCreateDirMode returns the file mode for created directories,
// that are not defined in the archive. (respecting umask)
func (c *Config) CustomCreateDirMode() fs.FileMode {
	return c.customCreateDirMode
}

// DenySymlinks returns true if symlinks are NOT allowed.
func (c *Config) DenySymlinks() bool {
	return c.denySymlinks
}

// TraverseSymlinks returns true if symlinks should be traversed during extraction.
func (c *Config) TraverseSymlinks() bool {
	return c.traverseSymlinks
}

// Logger returns the logger.
func (c *Config) Logger() logger {
	return c.logger
}

// MaxExtractionSize returns the maximum size over all decompressed and extracted files.
func (c *Config) MaxExtractionSize() int64 {
	return c.maxExtractionSize
}

// MaxFiles returns the maximum of entries (including folder and symlinks) in an archive.
func (c *Config) MaxFiles() int64 {
	return c.maxFiles
}

// MaxInputSize returns the maximum size of the compressed input.
func (c *Config) MaxInputSize() int64 {
	return c.maxInputSize
}

// Overwrite returns true if files should be overwritten in the destination.
func (c *Config) Overwrite() bool {
	return c.overwrite
}

// Patterns returns a list of unix-filepath patterns to match entries against.
// Patterns are matched using [filepath.Match].
func (c *Config) Patterns() []string {
	return c.patterns
}

// TelemetryHook returns the telemetry hook.
func (c *Config) TelemetryHook() TelemetryHook {
	if c.telemetryHook == nil {
		return func(ctx context.Context, td *TelemetryData) {
			// noop
		}
	}
	return c.telemetryHook
}

// CheckMaxFiles checks if counter exceeds the configured maximum. If the maximum
// is exceeded, a [ErrMaxFilesExceeded] error is returned.
func (c *Config) CheckMaxFiles(counter int64) error {

	// check if disabled
	if c.MaxFiles() == -1 {
		return nil
	}

	// check value
	if counter > c.MaxFiles() {
		return ErrMaxFilesExceeded
	}
	return nil
}

// CheckExtractionSize checks if fileSize exceeds the configured maximum. If the
// maximum is exceeded, a [ErrMaxExtractionSizeExceeded] error is returned.
func (c *Config) CheckExtractionSize(fileSize int64) error {

	// check if disabled
	if c.MaxExtractionSize() == -1 {
		return nil
	}

	// check value
	if fileSize > c.MaxExtractionSize() {
		return ErrMaxExtractionSizeExceeded
	}
	return nil
}

// checkPatterns checks if the given path matches any of the given patterns.
// If no patterns are given, the function returns true.
func checkPatterns(patterns []string, path string) (bool, error) {

	// no patterns given
	if len(patterns) == 0 {
		return true, nil
	}

	// check if path matches any pattern
	for _, pattern := range patterns {
		if match, err := filepath.Match(pattern, path); err != nil {
			return false, fmt.Errorf("failed to match pattern: %w", err)
		} else if match {
			return true, nil
		}
	}
	return false, nil
}

const (
	defaultCompressionLevel    = LevelDefault  // gzip default quality
	defaultContinueOnError     = false         // stop on error and return error
	defaultCreateDestination   = true          // create destination directory
	defaultCustomCreateDirMode = 0750          // default directory permissions rwxr-x---
	defaultDenySymlinks        = false         // allow symlink archiving and extraction
	defaultMaxFiles            = 100000        // 100k entries
	defaultMaxExtractionSize   = 1 << (10 * 3) // 1 Gb
	defaultMaxInputSize        = 1 << (10 * 3) // 1 Gb
	defaultOverwrite           = true          // overwrite existing files in the destination
	defaultTraverseSymlinks    = false         // don't traverse symlinks
)

var (
	// slog to discard
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	// no operation telemetry hook
	defaultTelemetryHook = func(ctx context.Context, td *TelemetryData) {
		// noop
	}
)

// NewConfig is a generator option that takes opts as adjustments of the
// default configuration in an option pattern style.
func NewConfig(opts ...ConfigOption) *Config {

	// setup default values
	config := &Config{
		compressionLevel:    defaultCompressionLevel,
		continueOnError:     defaultContinueOnError,
		createDestination:   defaultCreateDestination,
		customCreateDirMode: defaultCustomCreateDirMode,
		denySymlinks:        defaultDenySymlinks,
		logger:              defaultLogger,
		maxFiles:            defaultMaxFiles,
		maxExtractionSize:   defaultMaxExtractionSize,
		maxInputSize:        defaultMaxInputSize,
		overwrite:           defaultOverwrite,
		telemetryHook:       defaultTelemetryHook,
		traverseSymlinks:    defaultTraverseSymlinks,
	}

	// Loop through each option
	for _, opt := range opts {
		opt(config)
	}

	return config
}

// WithCompressionLevel options pattern function to set the compression level.
func WithCompressionLevel(level Level) ConfigOption {
	return func(c *Config) {
		c.compressionLevel = level
	}
}

// WithContinueOnError options pattern function to continue on error during the
// operation. If set to true, the error is logged and the operation continues.
// If set to false, the operation stops and returns the error.
func WithContinueOnError(yes bool) ConfigOption {
	return func(c *Config) {
		c.continueOnError = yes
	}
}

// WithCreateDestination options pattern function to create
// the destination directory if it does not exist.
func WithCreateDestination(create bool) ConfigOption {
	return func(c *Config) {
		c.createDestination = create
	}
}

// WithCustomCreateDirMode options pattern function to set the file mode
// for created directories, that are not defined in the archive. (respecting umask)
func WithCustomCreateDirMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.customCreateDirMode = mode
	}
}

// WithDenySymlinks options pattern function to deny the archiving and
// extraction of symlinks.
func WithDenySymlinks(deny bool) ConfigOption {
	return func(c *Config) {
		c.denySymlinks = deny
	}
}

// WithInsecureTraverseSymlinks options pattern function to traverse symlinks
// during extraction.
func WithInsecureTraverseSymlinks(traverse bool) ConfigOption {
	return func(c *Config) {
		c.traverseSymlinks = traverse
	}
}

// WithLogger options pattern function to set a custom logger.
func WithLogger(logger logger) ConfigOption {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithMaxExtractionSize options pattern function to set the maximum size over
// all decompressed and extracted files. (-1 to disable check)
func WithMaxExtractionSize(maxExtractionSize int64) ConfigOption {
	return func(c *Config) {
		c.maxExtractionSize = maxExtractionSize
	}
}

// WithMaxFiles options pattern function to set the maximum number of archived
// and extracted files, directories and symlinks. (-1 to disable check)
func WithMaxFiles(maxFiles int64) ConfigOption {
	return func(c *Config) {
		c.maxFiles = maxFiles
	}
}

// WithMaxInputSize options pattern function to set the maximum size of the
// compressed input. (-1 to disable check)
func WithMaxInputSize(maxInputSize int64) ConfigOption {
	return func(c *Config) {
		c.maxInputSize = maxInputSize
	}
}

// WithOverwrite options pattern function to specify if files should be
// overwritten in the destination.
func WithOverwrite(enable bool) ConfigOption {
	return func(c *Config) {
		c.overwrite = enable
	}
}

// WithPatterns options pattern function to set filepath patterns, that entries
// need to match to be archived or extracted. Patterns are matched using
// [filepath.Match].
func WithPatterns(pattern ...string) ConfigOption {
	return func(c *Config) {
		c.patterns = append(c.patterns, pattern...)
	}
}

// WithTelemetryHook options pattern function to set a [TelemetryHook], which
// is called after the operation finished.
func WithTelemetryHook(hook TelemetryHook) ConfigOption {
	return func(c *Config) {
		c.telemetryHook = hook
	}
}
