package filegen

import "fmt"

// FilePlan describes one file of a run.
type FilePlan struct {
	Index uint64
	Path  string
	Size  int64
}

// ProblemKind classifies what went wrong while verifying a file.
type ProblemKind int

const (
	ProblemOpen      ProblemKind = iota + 1 // file could not be opened
	ProblemRead                             // read returned an error
	ProblemShortRead                        // a chunk came back incomplete
	ProblemTruncated                        // a chunk read returned nothing
	ProblemCorrupt                          // a chunk's content differed
	ProblemTooLong                          // data follows the planned end
)

func (k ProblemKind) String() string {
	switch k {
	case ProblemOpen:
		return "open failed"
	case ProblemRead:
		return "read failed"
	case ProblemShortRead:
		return "short read"
	case ProblemTruncated:
		return "file truncated"
	case ProblemCorrupt:
		return "file corrupt"
	case ProblemTooLong:
		return "file longer than expected"
	}
	return fmt.Sprintf("ProblemKind(%d)", int(k))
}

// Problem is one verification failure within a file.
type Problem struct {
	Kind   ProblemKind
	Offset int64 // byte offset in the file where the problem shows
	Chunk  int   // index of the chunk being read
	Count  int   // differing bytes, for ProblemCorrupt
	Err    error // underlying error, if any
}

func (p Problem) String() string {
	switch p.Kind {
	case ProblemOpen, ProblemRead:
		return fmt.Sprintf("%v: %v", p.Kind, p.Err)
	case ProblemCorrupt:
		return fmt.Sprintf("%v: chunk %d, %d bytes differ, first at offset %d", p.Kind, p.Chunk, p.Count, p.Offset)
	case ProblemTooLong:
		return p.Kind.String()
	}
	return fmt.Sprintf("%v: chunk %d at offset %d", p.Kind, p.Chunk, p.Offset)
}

// FileResult is the outcome of writing or verifying one file.
type FileResult struct {
	Plan      FilePlan
	BytesDone int64 // bytes written, or read and checked
	Problems  []Problem
}

// OK reports whether the file passed.
func (r FileResult) OK() bool {
	return len(r.Problems) == 0
}

// Result is the outcome of a whole run.
type Result struct {
	Mode      Mode
	Seed      uint64 // seed actually used
	Source    string
	Files     []FileResult
	BytesDone int64
}

// OK reports whether every file passed.
func (r *Result) OK() bool {
	for _, f := range r.Files {
		if !f.OK() {
			return false
		}
	}
	return true
}

// Failed returns the results of the files that did not pass.
func (r *Result) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if !f.OK() {
			failed = append(failed, f)
		}
	}
	return failed
}

// Observer receives progress as a run goes. All calls come from the goroutine
// executing Run.
type Observer interface {
	FileStarted(plan FilePlan)
	BytesDone(n int64)
	FileFinished(res FileResult)
}

type nopObserver struct{}

func (nopObserver) FileStarted(FilePlan)    {}
func (nopObserver) BytesDone(int64)         {}
func (nopObserver) FileFinished(FileResult) {}
