package filegen

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rayozzie/filegen/pkg/errors"
	"github.com/rayozzie/filegen/pkg/gen"
	"github.com/rayozzie/filegen/pkg/rng"
	"github.com/rayozzie/filegen/pkg/trace"
)

func testContext() context.Context {
	tracer := trace.NewTracer("TEST", trace.LogLevelVerbose)
	return trace.WithContext(context.Background(), tracer)
}

func mustRun(t *testing.T, ctx context.Context, cfg Config) *Result {
	t.Helper()
	res, err := Run(ctx, cfg)
	if err != nil {
		t.Fatalf("%v run failed: %v", cfg.Mode, err)
	}
	return res
}

func plans(res *Result) []FilePlan {
	out := make([]FilePlan, len(res.Files))
	for i, f := range res.Files {
		out[i] = f.Plan
	}
	return out
}

func totalSize(ps []FilePlan) int64 {
	var sum int64
	for _, p := range ps {
		sum += p.Size
	}
	return sum
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"constant", Config{TotalBytes: 100000, MaxFileSize: 30000, Threshold: 4096, Seed: 1}},
		{"random mt19937", Config{TotalBytes: 100000, MaxFileSize: 30000, Threshold: 4096, Seed: 2, Randomise: true}},
		{"random pcg", Config{TotalBytes: 50000, MaxFileSize: 9999, Threshold: 333, Seed: 3, Randomise: true, Source: rng.NamePCG}},
		{"random chacha20", Config{TotalBytes: 50000, MaxFileSize: 50000, Threshold: 1000, Seed: 4, Randomise: true, Source: rng.NameChaCha20}},
		{"prefix and sync", Config{TotalBytes: 20000, MaxFileSize: 5000, Seed: 5, Randomise: true, Prefix: "fg-", Sync: true}},
		{"tiny threshold", Config{TotalBytes: 777, MaxFileSize: 100, Threshold: 2, Seed: 6, Randomise: true}},
		{"single byte", Config{TotalBytes: 1, MaxFileSize: 1, Seed: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext()
			cfg := tt.cfg
			cfg.Dir = t.TempDir()

			cfg.Mode = ModeWrite
			written := mustRun(t, ctx, cfg)
			if !written.OK() {
				t.Fatalf("write reported problems: %v", written.Failed())
			}
			if written.BytesDone != cfg.TotalBytes {
				t.Errorf("wrote %d bytes, want %d", written.BytesDone, cfg.TotalBytes)
			}
			if got := totalSize(plans(written)); got != cfg.TotalBytes {
				t.Errorf("file sizes add up to %d, want %d", got, cfg.TotalBytes)
			}
			for _, f := range written.Files {
				info, err := os.Stat(f.Plan.Path)
				if err != nil {
					t.Fatalf("stat %s: %v", f.Plan.Path, err)
				}
				if info.Size() != f.Plan.Size {
					t.Errorf("%s is %d bytes, want %d", f.Plan.Path, info.Size(), f.Plan.Size)
				}
			}

			cfg.Mode = ModeVerify
			verified := mustRun(t, ctx, cfg)
			if !verified.OK() {
				t.Fatalf("verify reported problems: %v", verified.Failed())
			}
			if verified.BytesDone != cfg.TotalBytes {
				t.Errorf("verified %d bytes, want %d", verified.BytesDone, cfg.TotalBytes)
			}
			if diff := cmp.Diff(plans(written), plans(verified)); diff != "" {
				t.Errorf("verify planned different files (-write +verify):\n%s", diff)
			}
		})
	}
}

// TestSingleConstantFile writes a 10 byte budget with a source whose first
// size draw gives exactly 10 bytes, so the run is a single file holding the
// constant word of index 0.
func TestSingleConstantFile(t *testing.T) {
	ctx := testContext()
	cfg := Config{Dir: t.TempDir(), TotalBytes: 10, MaxFileSize: 10, Seed: 1}.withDefaults()

	// Between(1, 10) masks draws with 15: 9 gives a size of 10.
	res, err := run(ctx, cfg, gen.New(rng.NewFixed(9), false), 1)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(res.Files))
	}

	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "00000000" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Dir, "00000000"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(data, make([]byte, 10)) {
		t.Errorf("file 0 holds %x, want ten zero bytes", data)
	}

	cfg.Mode = ModeVerify
	res, err = run(ctx, cfg, gen.New(rng.NewFixed(9), false), 1)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !res.OK() || len(res.Files) != 1 {
		t.Fatalf("verify of single file: ok=%v files=%d problems=%v", res.OK(), len(res.Files), res.Failed())
	}
}

// TestConstantModeSeedOne pins the layout the default source gives for seed 1
// with a 10 byte budget. The first size draw is 9, so the budget takes two
// files.
func TestConstantModeSeedOne(t *testing.T) {
	ctx := testContext()
	cfg := Config{Dir: t.TempDir(), TotalBytes: 10, MaxFileSize: 10, Seed: 1}

	res := mustRun(t, ctx, cfg)
	want := []FilePlan{
		{Index: 0, Path: filepath.Join(cfg.Dir, "00000000"), Size: 9},
		{Index: 1, Path: filepath.Join(cfg.Dir, "00000001"), Size: 1},
	}
	if diff := cmp.Diff(want, plans(res)); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}
	for _, f := range res.Files {
		data, err := os.ReadFile(f.Plan.Path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		content := bytes.Repeat([]byte{byte(f.Plan.Index)}, int(f.Plan.Size))
		if !bytes.Equal(data, content) {
			t.Errorf("%s holds %x, want %x", f.Plan.Path, data, content)
		}
	}

	cfg.Mode = ModeVerify
	if res := mustRun(t, ctx, cfg); !res.OK() {
		t.Fatalf("verify failed: %v", res.Failed())
	}
}

func TestDeterministicContent(t *testing.T) {
	ctx := testContext()
	cfg := Config{TotalBytes: 40000, MaxFileSize: 20000, Threshold: 1024, Seed: 42, Randomise: true}

	cfg.Dir = t.TempDir()
	first := mustRun(t, ctx, cfg)
	cfg.Dir = t.TempDir()
	second := mustRun(t, ctx, cfg)

	if len(first.Files) != len(second.Files) {
		t.Fatalf("runs produced %d and %d files", len(first.Files), len(second.Files))
	}
	for i := range first.Files {
		a, err := os.ReadFile(first.Files[i].Plan.Path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		b, err := os.ReadFile(second.Files[i].Plan.Path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("file %d differs between runs with the same seed", i)
		}
	}
}

// writeFixture writes a randomised run with several files and chunks per file
// and returns its config switched to verify mode.
func writeFixture(t *testing.T) (Config, *Result) {
	t.Helper()
	cfg := Config{
		Dir:         t.TempDir(),
		TotalBytes:  20000,
		MaxFileSize: 5000,
		Threshold:   64,
		Seed:        1234,
		Randomise:   true,
	}
	res := mustRun(t, testContext(), cfg)
	if len(res.Files) < 2 {
		t.Fatalf("fixture needs at least 2 files, got %d", len(res.Files))
	}
	cfg.Mode = ModeVerify
	return cfg, res
}

// checkOnlyFirstFails asserts file 0 has exactly one problem of one of the
// given kinds and every other file verified.
func checkOnlyFirstFails(t *testing.T, res *Result, kinds ...ProblemKind) Problem {
	t.Helper()
	if res.OK() {
		t.Fatalf("expected verification to fail")
	}
	for _, f := range res.Files[1:] {
		if !f.OK() {
			t.Errorf("file %d failed after a problem in file 0: %v", f.Plan.Index, f.Problems)
		}
	}
	probs := res.Files[0].Problems
	if len(probs) != 1 {
		t.Fatalf("expected exactly one problem in file 0, got %v", probs)
	}
	for _, k := range kinds {
		if probs[0].Kind == k {
			return probs[0]
		}
	}
	t.Fatalf("problem %v is not one of %v", probs[0], kinds)
	return Problem{}
}

func TestVerifyDetectsFlippedByte(t *testing.T) {
	cfg, written := writeFixture(t)
	target := written.Files[0].Plan
	off := target.Size / 2

	data, err := os.ReadFile(target.Path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	data[off] ^= 0x01
	if err := os.WriteFile(target.Path, data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	res := mustRun(t, testContext(), cfg)
	p := checkOnlyFirstFails(t, res, ProblemCorrupt)
	if p.Offset != off || p.Count != 1 {
		t.Errorf("got offset %d count %d, want offset %d count 1", p.Offset, p.Count, off)
	}
	if res.Files[0].BytesDone != target.Size {
		t.Errorf("corrupt file: checked %d bytes, want all %d", res.Files[0].BytesDone, target.Size)
	}
}

func TestVerifyDetectsTruncation(t *testing.T) {
	cfg, written := writeFixture(t)
	target := written.Files[0].Plan
	cut := (target.Size + 1) / 2

	if err := os.Truncate(target.Path, target.Size-cut); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}

	res := mustRun(t, testContext(), cfg)
	p := checkOnlyFirstFails(t, res, ProblemShortRead, ProblemTruncated)
	if p.Offset != target.Size-cut {
		t.Errorf("problem at offset %d, want %d", p.Offset, target.Size-cut)
	}
}

func TestVerifyDetectsEmptyFile(t *testing.T) {
	cfg, written := writeFixture(t)
	if err := os.Truncate(written.Files[0].Plan.Path, 0); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}

	res := mustRun(t, testContext(), cfg)
	p := checkOnlyFirstFails(t, res, ProblemTruncated)
	if p.Offset != 0 || p.Chunk != 0 {
		t.Errorf("got offset %d chunk %d, want 0 and 0", p.Offset, p.Chunk)
	}
}

func TestVerifyDetectsExtraData(t *testing.T) {
	cfg, written := writeFixture(t)
	target := written.Files[0].Plan

	f, err := os.OpenFile(target.Path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if _, err := f.Write([]byte("tail")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	res := mustRun(t, testContext(), cfg)
	p := checkOnlyFirstFails(t, res, ProblemTooLong)
	if p.Offset != target.Size {
		t.Errorf("problem at offset %d, want %d", p.Offset, target.Size)
	}
}

func TestVerifyMissingFile(t *testing.T) {
	cfg, written := writeFixture(t)
	if err := os.Remove(written.Files[0].Plan.Path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	res := mustRun(t, testContext(), cfg)
	p := checkOnlyFirstFails(t, res, ProblemOpen)
	if !errors.Is(p.Err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", p.Err)
	}
}

func TestVerifyWrongSeed(t *testing.T) {
	cfg, _ := writeFixture(t)
	cfg.Seed++

	res := mustRun(t, testContext(), cfg)
	if res.OK() {
		t.Fatalf("verify with a different seed passed")
	}
}

func TestWriteRefusesExistingFile(t *testing.T) {
	ctx := testContext()
	cfg := Config{Dir: t.TempDir(), TotalBytes: 1000, MaxFileSize: 100, Seed: 9}

	if err := os.WriteFile(filepath.Join(cfg.Dir, "00000000"), []byte("old"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	res, err := Run(ctx, cfg)
	if err == nil {
		t.Fatalf("expected write into a populated directory to fail")
	}
	if !errors.IsFatal(err) || !errors.Is(err, fs.ErrExist) {
		t.Errorf("expected fatal fs.ErrExist, got %v", err)
	}
	if res == nil || len(res.Files) != 1 {
		t.Fatalf("expected the failed file in the result, got %+v", res)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Dir, "00000000"))
	if err != nil || string(data) != "old" {
		t.Errorf("existing file was modified: %q, %v", data, err)
	}
}

func TestPlanMatchesRun(t *testing.T) {
	cfg := Config{Dir: t.TempDir(), TotalBytes: 300000, MaxFileSize: 70000, Threshold: 1000, Seed: 77, Randomise: true}

	planned, seed, err := Plan(cfg)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if seed != 77 {
		t.Errorf("Plan used seed %d, want 77", seed)
	}

	res := mustRun(t, testContext(), cfg)
	if diff := cmp.Diff(planned, plans(res)); diff != "" {
		t.Errorf("Plan differs from the run (-plan +run):\n%s", diff)
	}
}

func TestPlanBudgetExact(t *testing.T) {
	tests := []struct {
		total, max int64
	}{
		{1, 1},
		{10, 10},
		{10, 3},
		{1000, 1},
		{1 << 20, 1 << 20},
		{1<<20 + 17, 4096},
	}

	for _, tt := range tests {
		for seed := uint64(1); seed <= 5; seed++ {
			cfg := Config{TotalBytes: tt.total, MaxFileSize: tt.max, Threshold: 512, Seed: seed}
			ps, _, err := Plan(cfg)
			if err != nil {
				t.Fatalf("Plan(%d, %d) failed: %v", tt.total, tt.max, err)
			}

			remaining := tt.total
			for i, p := range ps {
				if p.Index != uint64(i) {
					t.Fatalf("plan %d has index %d", i, p.Index)
				}
				if p.Size < 1 || p.Size > min(tt.max, remaining) {
					t.Fatalf("total=%d max=%d seed=%d: file %d size %d with %d remaining",
						tt.total, tt.max, seed, i, p.Size, remaining)
				}
				remaining -= p.Size
			}
			if remaining != 0 {
				t.Errorf("total=%d max=%d seed=%d: %d bytes left over", tt.total, tt.max, seed, remaining)
			}
		}
	}
}

func TestPlanTimeSeed(t *testing.T) {
	_, seed, err := Plan(Config{TotalBytes: 10, MaxFileSize: 10})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if seed == 0 {
		t.Fatalf("expected a derived seed")
	}
}

type countingObserver struct {
	started, finished, chunks int
	bytes                     int64
}

func (o *countingObserver) FileStarted(FilePlan) { o.started++ }

func (o *countingObserver) BytesDone(n int64) {
	o.bytes += n
	o.chunks++
}

func (o *countingObserver) FileFinished(FileResult) { o.finished++ }

func TestObserver(t *testing.T) {
	cfg, written := writeFixture(t)
	if err := os.Remove(written.Files[0].Plan.Path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	obs := &countingObserver{}
	cfg.Observer = obs
	mustRun(t, testContext(), cfg)

	if obs.started != len(written.Files) || obs.finished != len(written.Files) {
		t.Errorf("observer saw %d starts and %d finishes, want %d", obs.started, obs.finished, len(written.Files))
	}
	if obs.bytes != cfg.TotalBytes {
		t.Errorf("observer counted %d bytes, want %d", obs.bytes, cfg.TotalBytes)
	}
}

func TestWriteInterval(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"single chunk files", Config{TotalBytes: 2000, MaxFileSize: 100, Seed: 3, Interval: 5 * time.Millisecond}},
		{"multi chunk files", Config{TotalBytes: 2000, MaxFileSize: 2000, Threshold: 200, Seed: 3, Interval: 2 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &countingObserver{}
			cfg := tt.cfg
			cfg.Dir = t.TempDir()
			cfg.Observer = obs

			start := time.Now()
			res := mustRun(t, testContext(), cfg)
			elapsed := time.Since(start)

			if res.BytesDone != cfg.TotalBytes {
				t.Errorf("wrote %d bytes, want %d", res.BytesDone, cfg.TotalBytes)
			}
			if obs.chunks < 2 {
				t.Fatalf("only %d chunks written", obs.chunks)
			}
			if floor := time.Duration(obs.chunks-1) * cfg.Interval; elapsed < floor {
				t.Errorf("%d chunks took %v, want at least %v", obs.chunks, elapsed, floor)
			}
		})
	}
}

func TestWriteNoPauseAfterLastChunk(t *testing.T) {
	ctx, cancel := context.WithTimeout(testContext(), 10*time.Second)
	defer cancel()

	cfg := Config{Dir: t.TempDir(), TotalBytes: 10, MaxFileSize: 10, Seed: 1, Interval: time.Hour}.withDefaults()
	// The first size draw uses up the budget: one file of one chunk.
	res, err := run(ctx, cfg, gen.New(rng.NewFixed(9), false), 1)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if len(res.Files) != 1 || res.BytesDone != 10 {
		t.Fatalf("expected one 10 byte file, got %d files and %d bytes", len(res.Files), res.BytesDone)
	}
}

func TestWriteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext())
	cancel()

	cfg := Config{Dir: t.TempDir(), TotalBytes: 2000, MaxFileSize: 2000, Seed: 3}
	if _, err := Run(ctx, cfg); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
