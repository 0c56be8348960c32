// Package filegen writes a run of files with reproducible content and later
// verifies them.
//
// One seeded generator decides, in order, every file size, every chunk size
// and every content word of a run. A verify run with the same configuration
// replays the same decisions and compares what it reads against them, so no
// reference data is ever stored. Files are processed one after another on the
// calling goroutine.
package filegen

import (
	"context"

	"github.com/dustin/go-humanize"

	"github.com/rayozzie/filegen/pkg/errors"
	"github.com/rayozzie/filegen/pkg/file"
	"github.com/rayozzie/filegen/pkg/gen"
	"github.com/rayozzie/filegen/pkg/rng"
	"github.com/rayozzie/filegen/pkg/trace"
)

// Run writes or verifies the files described by cfg.
//
// In write mode the first error aborts the run and is returned together with
// the results so far; files already written are left in place. In verify mode
// problems with individual files are collected in the result and the run goes
// on; check Result.OK. A canceled context stops either mode between chunks.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	if err := file.ValidateTargetDirectory(ctx, cfg.Dir); err != nil {
		return nil, err
	}

	g, seed, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}
	return run(ctx, cfg, g, seed)
}

// run drives a validated, defaulted cfg with generator g.
func run(ctx context.Context, cfg Config, g *gen.Generator, seed uint64) (*Result, error) {
	log := trace.FromContext(ctx).WithPrefix("FILEGEN")

	log.Infof("using random seed: %d (%s)", seed, cfg.Source)
	log.Infof("max file size: %s", humanize.IBytes(uint64(cfg.MaxFileSize)))
	log.Infof("total being %s: %s", doneVerb(cfg.Mode), humanize.IBytes(uint64(cfg.TotalBytes)))

	res := &Result{Mode: cfg.Mode, Seed: seed, Source: cfg.Source}
	s := newSession(cfg, g)

	err := forEachFile(cfg, g, func(plan FilePlan, last bool) error {
		log.Debugf("%s %s (%d bytes)", actionVerb(cfg.Mode), plan.Path, plan.Size)
		cfg.Observer.FileStarted(plan)

		var fr FileResult
		var err error
		if cfg.Mode == ModeVerify {
			fr, err = s.verify(ctx, plan)
		} else {
			fr, err = s.write(ctx, plan, last)
		}

		res.Files = append(res.Files, fr)
		res.BytesDone += fr.BytesDone
		for _, p := range fr.Problems {
			log.Warnf("%s: %v", plan.Path, p)
		}
		if err != nil {
			return err
		}

		cfg.Observer.FileFinished(fr)
		return nil
	})
	if err != nil {
		return res, err
	}

	if cfg.Mode == ModeVerify {
		if failed := len(res.Failed()); failed > 0 {
			log.Infof("%d of %d files failed verification", failed, len(res.Files))
		} else {
			log.Debugf("all %d files verified", len(res.Files))
		}
	}
	return res, nil
}

// Plan returns the files a run with cfg would produce, without touching the
// disk. When cfg.Seed is 0 a seed is derived from the clock, as Run does, and
// returned so that the run can be reproduced.
func Plan(cfg Config) ([]FilePlan, uint64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}
	cfg = cfg.withDefaults()

	g, seed, err := newGenerator(cfg)
	if err != nil {
		return nil, 0, err
	}

	// The session replays chunk sizes and content so that every file size
	// after the first comes out as in a real run.
	s := newSession(cfg, g)

	var plans []FilePlan
	err = forEachFile(cfg, g, func(plan FilePlan, _ bool) error {
		plans = append(plans, plan)
		s.skip(plan.Index, plan.Size)
		return nil
	})
	return plans, seed, err
}

func newGenerator(cfg Config) (*gen.Generator, uint64, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = gen.TimeSeed()
	}
	src, err := rng.New(cfg.Source, seed)
	if err != nil {
		return nil, 0, errors.Fatalf("%v", err)
	}
	return gen.New(src, cfg.Randomise), seed, nil
}

// forEachFile draws the size of each file in turn until the byte budget is
// used up. The size of a file is never drawn above the remaining budget, so
// the sizes add up to exactly cfg.TotalBytes. last is set for the file that
// uses up the budget.
func forEachFile(cfg Config, g *gen.Generator, fn func(plan FilePlan, last bool) error) error {
	remaining := cfg.TotalBytes
	for index := uint64(0); remaining > 0; index++ {
		limit := min(cfg.MaxFileSize, remaining)
		plan := FilePlan{
			Index: index,
			Path:  file.Path(cfg.Dir, cfg.Prefix, index),
			Size:  int64(g.Between(1, uint64(limit))),
		}
		remaining -= plan.Size
		if err := fn(plan, remaining == 0); err != nil {
			return err
		}
	}
	return nil
}

func actionVerb(m Mode) string {
	if m == ModeVerify {
		return "verifying"
	}
	return "writing"
}

func doneVerb(m Mode) string {
	if m == ModeVerify {
		return "verified"
	}
	return "written"
}
