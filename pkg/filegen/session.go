package filegen

import (
	"context"
	"io"
	"time"

	"github.com/rayozzie/filegen/pkg/errors"
	"github.com/rayozzie/filegen/pkg/file"
	"github.com/rayozzie/filegen/pkg/gen"
	"github.com/rayozzie/filegen/pkg/trace"
)

// session writes or verifies one file at a time. It owns the I/O buffer,
// which is reused for every chunk of every file.
type session struct {
	cfg     Config
	gen     *gen.Generator
	planner *gen.Planner
	buf     []byte
}

func newSession(cfg Config, g *gen.Generator) *session {
	return &session{
		cfg:     cfg,
		gen:     g,
		planner: gen.NewPlanner(g, cfg.Threshold),
		buf:     make([]byte, cfg.Threshold),
	}
}

// write creates plan.Path and fills it, pausing for cfg.Interval after each
// chunk unless it is the final chunk of the last file. Every error it returns
// other than a context error is fatal to the run.
func (s *session) write(ctx context.Context, plan FilePlan, last bool) (FileResult, error) {
	log := trace.FromContext(ctx).WithPrefix("WRITE")
	res := FileResult{Plan: plan}

	f, err := file.CreateExclusive(ctx, plan.Path)
	if err != nil {
		return res, errors.Fatalf("unable to create file: %v", err)
	}

	chunk := 0
	for remaining := plan.Size; remaining > 0; chunk++ {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return res, err
		}

		n := s.planner.NextChunkSize(remaining)
		buf := s.buf[:n]
		s.gen.Fill(buf, plan.Index)
		if _, err := f.Write(buf); err != nil {
			_ = f.Close()
			return res, errors.Fatalf("write %v: %v", plan.Path, err)
		}
		log.Tracef("%s: chunk %d, %d bytes", plan.Path, chunk, n)

		remaining -= int64(n)
		res.BytesDone += int64(n)
		s.cfg.Observer.BytesDone(int64(n))

		if s.cfg.Interval > 0 && (remaining > 0 || !last) {
			if err := pause(ctx, s.cfg.Interval); err != nil {
				_ = f.Close()
				return res, err
			}
		}
	}

	if s.cfg.Sync {
		if err := file.Sync(f); err != nil {
			_ = f.Close()
			return res, errors.Fatalf("sync %v: %v", plan.Path, err)
		}
	}
	if err := f.Close(); err != nil {
		return res, errors.Fatalf("close %v: %v", plan.Path, err)
	}
	return res, nil
}

// verify reads plan.Path back and checks it. Problems with the file are
// recorded in the result; only a context error is returned.
func (s *session) verify(ctx context.Context, plan FilePlan) (FileResult, error) {
	log := trace.FromContext(ctx).WithPrefix("VERIFY")
	res := FileResult{Plan: plan}

	f, err := file.OpenRead(ctx, plan.Path)
	if err != nil {
		res.Problems = append(res.Problems, Problem{Kind: ProblemOpen, Err: err})
		s.skip(plan.Index, plan.Size)
		return res, nil
	}
	defer f.Close()

	var off int64
	for chunk := 0; off < plan.Size; chunk++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		n := s.planner.NextChunkSize(plan.Size - off)
		buf := s.buf[:n]
		got, err := io.ReadFull(f, buf)
		if err != nil {
			p := Problem{Offset: off + int64(got), Chunk: chunk, Err: err}
			switch {
			case errors.Is(err, io.EOF):
				p.Kind = ProblemTruncated
			case errors.Is(err, io.ErrUnexpectedEOF):
				p.Kind = ProblemShortRead
			default:
				p.Kind = ProblemRead
			}
			res.Problems = append(res.Problems, p)

			// keep the generator where the writer had it after this file
			s.gen.Skip(n, plan.Index)
			s.cfg.Observer.BytesDone(int64(n))
			off += int64(n)
			s.skip(plan.Index, plan.Size-off)
			return res, nil
		}

		if m := s.gen.Check(buf, plan.Index); !m.OK() {
			res.Problems = append(res.Problems, Problem{
				Kind:   ProblemCorrupt,
				Offset: off + int64(m.First),
				Chunk:  chunk,
				Count:  m.Count,
			})
		}
		log.Tracef("%s: chunk %d, %d bytes", plan.Path, chunk, n)

		off += int64(n)
		res.BytesDone += int64(n)
		s.cfg.Observer.BytesDone(int64(n))
	}

	var extra [1]byte
	n, err := f.Read(extra[:])
	switch {
	case n > 0:
		res.Problems = append(res.Problems, Problem{Kind: ProblemTooLong, Offset: plan.Size})
	case err != nil && err != io.EOF:
		res.Problems = append(res.Problems, Problem{Kind: ProblemRead, Offset: plan.Size, Err: err})
	}
	return res, nil
}

// skip consumes the draws of the next size bytes of a file, chunk sizes
// included, without any I/O.
func (s *session) skip(index uint64, size int64) {
	s.planner.Walk(size, func(n int) bool {
		s.gen.Skip(n, index)
		s.cfg.Observer.BytesDone(int64(n))
		return true
	})
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
