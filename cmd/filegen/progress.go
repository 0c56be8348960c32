package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/rayozzie/filegen/pkg/filegen"
)

// progressObserver drives a byte progress bar over the whole run.
type progressObserver struct {
	bar *progressbar.ProgressBar
}

func newProgressObserver(w io.Writer, total int64, mode filegen.Mode) *progressObserver {
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(mode.String()),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &progressObserver{bar: bar}
}

func (p *progressObserver) FileStarted(plan filegen.FilePlan) {
	p.bar.Describe(plan.Path)
}

func (p *progressObserver) BytesDone(n int64) {
	_ = p.bar.Add64(n)
}

func (p *progressObserver) FileFinished(filegen.FileResult) {}

func (p *progressObserver) Finish() {
	_ = p.bar.Finish()
}
