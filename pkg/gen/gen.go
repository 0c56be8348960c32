// Package gen is filegen's deterministic content engine.
//
// A Generator turns a seeded rng.Source into the words that make up file
// content, and into the bounded draws that pick file and chunk sizes. All of
// these come from one ordered sequence: a verify pass reproduces a write pass
// only if it makes the same calls, with the same lengths, in the same order.
// The codec functions in this package all go through Advance so that filling,
// checking and skipping a buffer of a given length consume the same draws.
package gen

import (
	"encoding/binary"
	"math/bits"
	"time"

	"github.com/rayozzie/filegen/pkg/rng"
)

// WordSize is the number of bytes produced per generator draw.
const WordSize = 8

// Word is one unit of generator output.
type Word uint64

// repeatByte spreads one byte over all bytes of a word.
const repeatByte = 0x0101010101010101

// Generator produces file content and bounded draws from a single source.
type Generator struct {
	src       rng.Source
	randomise bool
}

// New returns a Generator drawing from src. In constant mode (randomise
// false) content words depend only on the file index, but sizes are still
// drawn from src.
func New(src rng.Source, randomise bool) *Generator {
	return &Generator{src: src, randomise: randomise}
}

// Randomised reports whether content words are drawn from the source.
func (g *Generator) Randomised() bool {
	return g.randomise
}

// Next returns the next content word for the file at index.
func (g *Generator) Next(index uint64) Word {
	if !g.randomise {
		return Word(uint64(byte(index)) * repeatByte)
	}
	return Word(g.src.Uint64())
}

// Below returns a uniformly distributed value in [0, limit). Draws are masked
// down to the smallest power of two covering limit and re-drawn while they
// fall at or above limit, so the result is unbiased and depends only on the
// source state. It panics if limit is 0.
func (g *Generator) Below(limit uint64) uint64 {
	if limit == 0 {
		panic("gen: Below called with limit 0")
	}
	mask := uint64(1)<<bits.Len64(limit-1) - 1
	for {
		if r := g.src.Uint64() & mask; r < limit {
			return r
		}
	}
}

// Between returns a uniformly distributed value in [lo, hi].
func (g *Generator) Between(lo, hi uint64) uint64 {
	if hi < lo {
		panic("gen: Between called with hi < lo")
	}
	return lo + g.Below(hi-lo+1)
}

// Visitor receives the bytes of one word at offset off of an Advance call.
// b holds WordSize bytes, fewer for the final partial word. It is only valid
// during the call.
type Visitor func(off int, b []byte)

// Advance draws exactly ceil(n/WordSize) words for the file at index and
// hands each one to visit, which may be nil. Full words are laid out in
// native byte order; a trailing partial word contributes its low-order bytes,
// lowest first.
func (g *Generator) Advance(index uint64, n int, visit Visitor) {
	var word [WordSize]byte
	off := 0
	for ; off+WordSize <= n; off += WordSize {
		w := g.Next(index)
		if visit != nil {
			binary.NativeEndian.PutUint64(word[:], uint64(w))
			visit(off, word[:])
		}
	}
	if rest := n - off; rest > 0 {
		w := uint64(g.Next(index))
		if visit != nil {
			for i := 0; i < rest; i++ {
				word[i] = byte(w >> (8 * i))
			}
			visit(off, word[:rest])
		}
	}
}

// TimeSeed derives a non-zero seed from the current time, for runs that were
// not given one.
func TimeSeed() uint64 {
	now := time.Now()
	seed := uint64(now.Unix()) ^ uint64(now.Nanosecond())
	if seed == 0 {
		seed = 1
	}
	return seed
}
