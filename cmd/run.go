package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-targz/targz"
)

// CompressCmd are the cli parameters for the compress subcommand.
type CompressCmd struct {
	Path    string `arg:"" name:"path" help:"File or directory to pack." type:"path"`
	Archive string `arg:"" name:"archive" help:"Destination archive file (.tar.gz)." type:"path"`
	Level   string `short:"l" default:"default" enum:"fastest,default,max" help:"Compression level (fastest, default, max)."`
}

// Run performs the compression operation.
func (c *CompressCmd) Run(g *globals) error {
	level := targz.LevelDefault
	switch c.Level {
	case "fastest":
		level = targz.LevelFastest
	case "max":
		level = targz.LevelMaximum
	}

	archiver := targz.NewArchiver(c.Path, c.Archive,
		targz.WithCompressionLevel(level),
		targz.WithContinueOnError(g.continueOnError),
		targz.WithDenySymlinks(g.denySymlinks),
		targz.WithLogger(g.logger),
		targz.WithMaxFiles(g.maxFiles),
		targz.WithTelemetryHook(g.telemetryHook),
	)

	stats, err := archiver.Compress(g.ctx)
	if err != nil {
		return fmt.Errorf("error during compression: %w", err)
	}

	printStats(stats)
	return nil
}

// ExtractCmd are the cli parameters for the extract subcommand.
type ExtractCmd struct {
	Archive           string   `arg:"" name:"archive" help:"Path to the archive file." type:"existingfile"`
	Destination       string   `arg:"" name:"destination" default:"." help:"Output directory." type:"path"`
	MaxExtractionSize int64    `optional:"" default:"1073741824" help:"Maximum extraction size in bytes. (disable check: -1)"`
	MaxInputSize      int64    `optional:"" default:"1073741824" help:"Maximum input size in bytes. (disable check: -1)"`
	NoOverwrite       bool     `short:"n" help:"Do not overwrite existing files in the destination."`
	Pattern           []string `short:"p" optional:"" help:"Extract only entries that match the pattern."`
	TraverseSymlinks  bool     `short:"F" help:"[Dangerous!] Follow symlinks to directories during extraction."`
}

// Run performs the extraction operation.
func (e *ExtractCmd) Run(g *globals) error {
	extractor := targz.NewExtractor(e.Archive, e.Destination,
		targz.WithContinueOnError(g.continueOnError),
		targz.WithDenySymlinks(g.denySymlinks),
		targz.WithInsecureTraverseSymlinks(e.TraverseSymlinks),
		targz.WithLogger(g.logger),
		targz.WithMaxExtractionSize(e.MaxExtractionSize),
		targz.WithMaxFiles(g.maxFiles),
		targz.WithMaxInputSize(e.MaxInputSize),
		targz.WithOverwrite(!e.NoOverwrite),
		targz.WithPatterns(e.Pattern...),
		targz.WithTelemetryHook(g.telemetryHook),
	)

	stats, err := extractor.Extract(g.ctx)
	if err != nil {
		return fmt.Errorf("error during extraction: %w", err)
	}

	printStats(stats)
	return nil
}

// CLI are the cli parameters for the targz binary.
type CLI struct {
	Compress CompressCmd `cmd:"" help:"Pack a file or directory into a gzip compressed tar archive."`
	Extract  ExtractCmd  `cmd:"" help:"Unpack a gzip compressed tar archive into a directory."`

	ContinueOnError bool             `short:"C" help:"Continue the operation on error."`
	DenySymlinks    bool             `short:"D" help:"Deny symlink archiving and extraction."`
	MaxFiles        int64            `optional:"" default:"100000" help:"Maximum entries that are processed before stop. (disable check: -1)"`
	Telemetry       bool             `short:"T" optional:"" default:"false" help:"Print telemetry data to log after the operation."`
	Timeout         int64            `optional:"" default:"-1" help:"Maximum time the operation may take (in seconds). (disable: -1)"`
	Verbose         bool             `short:"v" optional:"" help:"Verbose logging."`
	Version         kong.VersionFlag `short:"V" optional:"" help:"Print release version information."`
}

// globals carries the shared cli state into the subcommands.
type globals struct {
	ctx             context.Context
	logger          *slog.Logger
	continueOnError bool
	denySymlinks    bool
	maxFiles        int64
	telemetryHook   targz.TelemetryHook
}

// printStats reports the operation result the way the library callers see it.
func printStats(stats targz.Stats) {
	fmt.Printf("Input size: %s\n", stats.HumanInputSize())
	fmt.Printf("Output size: %s\n", stats.HumanOutputSize())
	fmt.Printf("Compression ratio: %.3f\n", stats.Ratio(3))
}

// Run is the entrypoint into targz as a cli tool.
func Run(version, commit, date string) {
	ctx := context.Background()
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Description("A tar.gz archiving and extraction utility"),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s), commit %s, built at %s", filepath.Base(os.Args[0]), version, commit, date),
		},
	)

	// Check for verbose output
	logLevel := slog.LevelError
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}

	// setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// setup telemetry hook
	telemetryToLog := func(ctx context.Context, td *targz.TelemetryData) {
		if cli.Telemetry {
			logger.Info("operation finished", "telemetry", td)
		}
	}

	if cli.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Second*time.Duration(cli.Timeout))
		defer cancel()
	}

	err := kctx.Run(&globals{
		ctx:             ctx,
		logger:          logger,
		continueOnError: cli.ContinueOnError,
		denySymlinks:    cli.DenySymlinks,
		maxFiles:        cli.MaxFiles,
		telemetryHook:   telemetryToLog,
	})
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
