package filegen

import (
	"fmt"
	"time"

	"github.com/rayozzie/filegen/pkg/errors"
	"github.com/rayozzie/filegen/pkg/gen"
	"github.com/rayozzie/filegen/pkg/rng"
)

// Mode selects whether a run writes or verifies files.
type Mode int

const (
	// ModeWrite creates the files.
	ModeWrite Mode = iota
	// ModeVerify re-reads and checks files written earlier.
	ModeVerify
)

func (m Mode) String() string {
	switch m {
	case ModeWrite:
		return "write"
	case ModeVerify:
		return "verify"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Defaults used when the corresponding Config field is left zero.
const (
	DefaultTotalBytes  = 1 << 30
	DefaultMaxFileSize = 1 << 24
	DefaultThreshold   = gen.DefaultThreshold
)

// Config holds everything a run needs. It is not modified once a run has
// started. Verify runs must use the same Seed, Source, Randomise, Threshold,
// TotalBytes, MaxFileSize and Prefix as the write run they check.
type Config struct {
	Dir         string        // directory holding the files
	Prefix      string        // prepended to every file name
	TotalBytes  int64         // bytes written or verified over all files
	MaxFileSize int64         // upper bound of a single file
	Threshold   int           // largest single read or write; 0 means DefaultThreshold
	Randomise   bool          // pseudo-random content instead of the repeated file index
	Seed        uint64        // 0 means derive one from the clock
	Source      string        // rng source name; "" means rng.DefaultName
	Interval    time.Duration // pause between writes
	Sync        bool          // flush file data to stable storage before close
	Mode        Mode
	Observer    Observer // optional progress hooks
}

func (cfg Config) withDefaults() Config {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Source == "" {
		cfg.Source = rng.DefaultName
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return cfg
}

// Validate reports the first problem with cfg as a fatal error. Zero values
// that have defaults are accepted.
func (cfg Config) Validate() error {
	cfg = cfg.withDefaults()

	if cfg.TotalBytes < 1 {
		return errors.Fatalf("total bytes must be at least 1, got %d", cfg.TotalBytes)
	}
	if cfg.MaxFileSize < 1 {
		return errors.Fatalf("max file size must be at least 1, got %d", cfg.MaxFileSize)
	}
	if cfg.MaxFileSize > cfg.TotalBytes {
		return errors.Fatal("max file size bigger than total size")
	}
	if cfg.Threshold < 2 {
		return errors.Fatalf("chunk threshold must be at least 2, got %d", cfg.Threshold)
	}
	if cfg.Interval < 0 {
		return errors.Fatalf("interval must not be negative, got %v", cfg.Interval)
	}
	switch cfg.Mode {
	case ModeWrite:
	case ModeVerify:
		if cfg.Interval != 0 {
			return errors.Fatal("interval when verifying doesn't make sense")
		}
	default:
		return errors.Fatalf("unknown mode %v", cfg.Mode)
	}
	if _, err := rng.New(cfg.Source, 1); err != nil {
		return errors.Fatalf("%v", err)
	}
	return nil
}
