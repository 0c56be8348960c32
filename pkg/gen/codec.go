package gen

// Mismatch summarises a Check.
type Mismatch struct {
	// Count is the number of bytes that differed.
	Count int
	// First is the offset of the first differing byte, or -1.
	First int
}

// OK reports whether the checked buffer matched.
func (m Mismatch) OK() bool {
	return m.Count == 0
}

// Fill populates every byte of buf with content for the file at index.
func (g *Generator) Fill(buf []byte, index uint64) {
	g.Advance(index, len(buf), func(off int, b []byte) {
		copy(buf[off:], b)
	})
}

// Check compares buf with the content Fill would have produced for it. The
// whole buffer is always scanned, so the generator ends up where a Fill of
// the same length would have left it.
func (g *Generator) Check(buf []byte, index uint64) Mismatch {
	m := Mismatch{First: -1}
	g.Advance(index, len(buf), func(off int, b []byte) {
		for i, want := range b {
			if buf[off+i] != want {
				if m.Count == 0 {
					m.First = off + i
				}
				m.Count++
			}
		}
	})
	return m
}

// Skip consumes the draws of n bytes of content without producing them.
func (g *Generator) Skip(n int, index uint64) {
	g.Advance(index, n, nil)
}
