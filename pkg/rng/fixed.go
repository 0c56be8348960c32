package rng

// Fixed is a deterministic Source for tests. It returns its values in order
// and starts over after the last one. It also counts draws, which lets tests
// check how many words an operation consumed.
type Fixed struct {
	values []uint64
	pos    int
	draws  int
}

// NewFixed creates a Fixed source. It panics if no values are given.
func NewFixed(values ...uint64) *Fixed {
	if len(values) == 0 {
		panic("rng: NewFixed needs at least one value")
	}
	return &Fixed{values: values}
}

// Uint64 implements Source.
func (f *Fixed) Uint64() uint64 {
	v := f.values[f.pos]
	f.pos = (f.pos + 1) % len(f.values)
	f.draws++
	return v
}

// Draws returns the number of values handed out so far.
func (f *Fixed) Draws() int {
	return f.draws
}
