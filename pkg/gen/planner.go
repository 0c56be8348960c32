package gen

// DefaultThreshold is the default largest single I/O, in bytes.
const DefaultThreshold = 64 * 1024

// Planner picks the size of each I/O within a file.
type Planner struct {
	g         *Generator
	threshold int
}

// NewPlanner returns a Planner drawing from g. threshold must be at least 2.
func NewPlanner(g *Generator, threshold int) *Planner {
	if threshold < 2 {
		panic("gen: chunk threshold must be at least 2")
	}
	return &Planner{g: g, threshold: threshold}
}

// Threshold returns the largest chunk the planner will hand out.
func (p *Planner) Threshold() int {
	return p.threshold
}

// NextChunkSize returns the size of the next chunk given the bytes still
// remaining in the file. A file tail that fits under the threshold is
// returned whole, without a draw. Otherwise the size is drawn from
// [1, threshold-1].
func (p *Planner) NextChunkSize(remaining int64) int {
	if remaining <= int64(p.threshold) {
		return int(remaining)
	}
	return int(p.g.Between(1, uint64(p.threshold-1)))
}

// Walk plans the chunks of a file of the given size and calls fn with each
// chunk size in order. It stops early if fn returns false and reports the
// bytes handed out.
func (p *Planner) Walk(size int64, fn func(n int) bool) int64 {
	var done int64
	for done < size {
		n := p.NextChunkSize(size - done)
		done += int64(n)
		if !fn(n) {
			break
		}
	}
	return done
}
