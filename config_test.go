package targz_test

import (
	"errors"
	"testing"

	"github.com/go-targz/targz"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := targz.NewConfig()

	if cfg.CompressionLevel() != targz.LevelDefault {
		t.Errorf("NewConfig() compression level = %v, want %v", cfg.CompressionLevel(), targz.LevelDefault)
	}
	if !cfg.Overwrite() {
		t.Errorf("NewConfig() overwrite = false, want true")
	}
	if !cfg.CreateDestination() {
		t.Errorf("NewConfig() create destination = false, want true")
	}
	if cfg.DenySymlinks() {
		t.Errorf("NewConfig() deny symlinks = true, want false")
	}
	if cfg.MaxFiles() != 100000 {
		t.Errorf("NewConfig() max files = %d, want 100000", cfg.MaxFiles())
	}
	if cfg.MaxExtractionSize() != 1<<30 {
		t.Errorf("NewConfig() max extraction size = %d, want %d", cfg.MaxExtractionSize(), 1<<30)
	}
	if cfg.MaxInputSize() != 1<<30 {
		t.Errorf("NewConfig() max input size = %d, want %d", cfg.MaxInputSize(), 1<<30)
	}
}

func TestNewConfigOptions(t *testing.T) {
	cfg := targz.NewConfig(
		targz.WithCompressionLevel(targz.LevelMaximum),
		targz.WithContinueOnError(true),
		targz.WithCreateDestination(false),
		targz.WithDenySymlinks(true),
		targz.WithMaxExtractionSize(-1),
		targz.WithMaxFiles(10),
		targz.WithMaxInputSize(-1),
		targz.WithOverwrite(false),
		targz.WithPatterns("*.txt", "*.md"),
	)

	if cfg.CompressionLevel() != targz.LevelMaximum {
		t.Errorf("WithCompressionLevel() not applied")
	}
	if !cfg.ContinueOnError() {
		t.Errorf("WithContinueOnError() not applied")
	}
	if cfg.CreateDestination() {
		t.Errorf("WithCreateDestination() not applied")
	}
	if !cfg.DenySymlinks() {
		t.Errorf("WithDenySymlinks() not applied")
	}
	if cfg.MaxExtractionSize() != -1 {
		t.Errorf("WithMaxExtractionSize() not applied")
	}
	if cfg.MaxFiles() != 10 {
		t.Errorf("WithMaxFiles() not applied")
	}
	if cfg.MaxInputSize() != -1 {
		t.Errorf("WithMaxInputSize() not applied")
	}
	if cfg.Overwrite() {
		t.Errorf("WithOverwrite() not applied")
	}
	if len(cfg.Patterns()) != 2 {
		t.Errorf("WithPatterns() not applied")
	}
}

func TestConfigChecks(t *testing.T) {
	cfg := targz.NewConfig(targz.WithMaxFiles(2), targz.WithMaxExtractionSize(100))

	if err := cfg.CheckMaxFiles(2); err != nil {
		t.Errorf("CheckMaxFiles(2) = %v, want nil", err)
	}
	if err := cfg.CheckMaxFiles(3); !errors.Is(err, targz.ErrMaxFilesExceeded) {
		t.Errorf("CheckMaxFiles(3) = %v, want ErrMaxFilesExceeded", err)
	}
	if err := cfg.CheckExtractionSize(100); err != nil {
		t.Errorf("CheckExtractionSize(100) = %v, want nil", err)
	}
	if err := cfg.CheckExtractionSize(101); !errors.Is(err, targz.ErrMaxExtractionSizeExceeded) {
		t.Errorf("CheckExtractionSize(101) = %v, want ErrMaxExtractionSizeExceeded", err)
	}

	// -1 disables the checks
	unlimited := targz.NewConfig(targz.WithMaxFiles(-1), targz.WithMaxExtractionSize(-1))
	if err := unlimited.CheckMaxFiles(1 << 40); err != nil {
		t.Errorf("CheckMaxFiles() with disabled check = %v, want nil", err)
	}
	if err := unlimited.CheckExtractionSize(1 << 40); err != nil {
		t.Errorf("CheckExtractionSize() with disabled check = %v, want nil", err)
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level targz.Level
		want  string
	}{
		{targz.LevelFastest, "fastest"},
		{targz.LevelDefault, "default"},
		{targz.LevelMaximum, "maximum"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.want {
			t.Errorf("Level.String() = %q, want %q", got, test.want)
		}
	}
}
