package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rayozzie/filegen/pkg/errors"
	"github.com/rayozzie/filegen/pkg/filegen"
	"github.com/rayozzie/filegen/pkg/trace"
)

// ErrVerifyFailed is returned when a verify run found damaged files.
var ErrVerifyFailed = errors.New("verification failed")

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "filegen [flags] directory",
		Short: "Write files with reproducible content and verify them later",
		Long: `
filegen fills a directory with files of pseudo-random size whose content is
derived from a seed. Running it again with --verify and the same seed and
sizes re-reads the files and reports every file that is missing, truncated,
longer than expected or corrupt. No reference data is stored anywhere.

Files are named after their index in hex, optionally prefixed. Writing never
overwrites an existing file.

EXIT STATUS
===========

Exit status is 0 if the run succeeded, and 1 if a file failed verification or
an error stopped the run.
`,
		Args:              cobra.ExactArgs(1),
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilegen(cmd.Context(), opts, args[0], stdout, stderr)
		},
	}

	opts.AddFlags(cmd.Flags())
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

func newTracer(opts Options, w io.Writer) *trace.Tracer {
	level := trace.LogLevelNormal
	switch {
	case opts.Quiet:
		level = trace.LogLevelQuiet
	case opts.Verbose == 1:
		level = trace.LogLevelVerbose
	case opts.Verbose > 1:
		level = trace.LogLevelTrace
	}
	tracer := trace.NewTracer("", level)
	tracer.SetOutput(w)
	return tracer
}

func runFilegen(ctx context.Context, opts Options, dir string, stdout, stderr io.Writer) error {
	tracer := newTracer(opts, stdout)
	ctx = trace.WithContext(ctx, tracer)

	cfg, err := opts.Config(dir)
	if err != nil {
		return err
	}

	if opts.DryRun {
		plans, seed, err := filegen.Plan(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "using random seed: %d\n", seed)
		for _, p := range plans {
			fmt.Fprintf(stdout, "%s %d\n", p.Path, p.Size)
		}
		return nil
	}

	var progress *progressObserver
	if tracer.Level() == trace.LogLevelNormal {
		progress = newProgressObserver(stderr, cfg.TotalBytes, cfg.Mode)
		cfg.Observer = progress
	}

	res, err := filegen.Run(ctx, cfg)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	if cfg.Mode == filegen.ModeVerify && !res.OK() {
		// each problem has already been logged by the run
		return errors.Wrapf(ErrVerifyFailed, "%d of %d files", len(res.Failed()), len(res.Files))
	}

	tracer.Infof("%s %d files, %s (seed %d)", doneVerb(cfg.Mode), len(res.Files),
		humanize.IBytes(uint64(res.BytesDone)), res.Seed)
	return nil
}

func doneVerb(m filegen.Mode) string {
	if m == filegen.ModeVerify {
		return "verified"
	}
	return "wrote"
}

func exitMessage(err error) string {
	switch {
	case errors.Is(err, ErrVerifyFailed):
		return err.Error()
	case errors.IsFatal(err):
		return err.Error()
	case errors.Is(err, context.Canceled):
		return "interrupted"
	}
	return fmt.Sprintf("%+v", err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, exitMessage(err))
		os.Exit(1)
	}
}
