package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/rayozzie/filegen/pkg/errors"
	"github.com/rayozzie/filegen/pkg/filegen"
	"github.com/rayozzie/filegen/pkg/rng"
)

// Options bundles the flags of the filegen command.
type Options struct {
	Verify      bool
	TotalBytes  string
	MaxFileSize string
	Threshold   string
	Prefix      string
	Seed        uint64
	Interval    time.Duration
	Random      bool
	Source      string
	Sync        bool
	DryRun      bool
	Quiet       bool
	Verbose     int
}

// AddFlags registers the options on f.
func (opts *Options) AddFlags(f *pflag.FlagSet) {
	f.BoolVarP(&opts.Verify, "verify", "v", false, "verify files written by an earlier run instead of writing")
	f.StringVarP(&opts.TotalBytes, "total", "t", "1GiB", "total `size` to write or verify, e.g. 500M or 1GiB")
	f.StringVarP(&opts.MaxFileSize, "max-file-size", "f", "16MiB", "maximum `size` of a single file")
	f.StringVar(&opts.Threshold, "threshold", "64KiB", "maximum `size` of a single read or write")
	f.StringVarP(&opts.Prefix, "prefix", "p", "", "`prefix` for file names")
	f.Uint64VarP(&opts.Seed, "seed", "s", 0, "random `seed`, 0 derives one from the clock")
	f.DurationVarP(&opts.Interval, "interval", "i", 0, "pause between writes, e.g. 500us")
	f.BoolVarP(&opts.Random, "random", "r", false, "write pseudo-random content instead of the file index")
	f.StringVar(&opts.Source, "source", rng.DefaultName, "random `source`, one of mt19937, pcg, chacha20")
	f.BoolVar(&opts.Sync, "sync", false, "flush every file to stable storage before closing it")
	f.BoolVar(&opts.DryRun, "dry-run", false, "print the files a run would use without touching them")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "only print problems and errors")
	f.CountVar(&opts.Verbose, "verbose", "print every file (repeat for every chunk)")
}

func parseSize(name, value string) (int64, error) {
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, errors.Fatalf("--%s: invalid size %q: %v", name, value, err)
	}
	if n > 1<<62 {
		return 0, errors.Fatalf("--%s: size %q too large", name, value)
	}
	return int64(n), nil
}

// Config turns the options into a run configuration for dir.
func (opts *Options) Config(dir string) (filegen.Config, error) {
	total, err := parseSize("total", opts.TotalBytes)
	if err != nil {
		return filegen.Config{}, err
	}
	maxSize, err := parseSize("max-file-size", opts.MaxFileSize)
	if err != nil {
		return filegen.Config{}, err
	}
	threshold, err := parseSize("threshold", opts.Threshold)
	if err != nil {
		return filegen.Config{}, err
	}
	if threshold > 1<<30 {
		return filegen.Config{}, errors.Fatalf("--threshold: %s is larger than 1GiB", opts.Threshold)
	}
	if threshold < 2 {
		return filegen.Config{}, errors.Fatalf("--threshold: must be at least 2 bytes, got %q", opts.Threshold)
	}

	cfg := filegen.Config{
		Dir:         dir,
		Prefix:      opts.Prefix,
		TotalBytes:  total,
		MaxFileSize: maxSize,
		Threshold:   int(threshold),
		Randomise:   opts.Random,
		Seed:        opts.Seed,
		Source:      opts.Source,
		Interval:    opts.Interval,
		Sync:        opts.Sync,
		Mode:        filegen.ModeWrite,
	}
	if opts.Verify {
		cfg.Mode = filegen.ModeVerify
	}
	return cfg, cfg.Validate()
}
