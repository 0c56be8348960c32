// Package rng provides the seeded pseudo-random sources behind filegen's
// content generator. Every source is fully determined by its seed: two
// sources built from the same name and seed yield the same sequence, which is
// what lets a verify pass re-derive what an earlier write pass put on disk.
//
// None of these sources are safe for concurrent use. filegen draws from one
// source on one goroutine, in a fixed order.
package rng

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/seehuhn/mt19937"
)

// Source is the minimal interface consumed by the generator.
type Source interface {
	// Uint64 returns the next 64 pseudo-random bits of the sequence.
	Uint64() uint64
}

// Names of the registered sources.
const (
	NameMT19937  = "mt19937"
	NamePCG      = "pcg"
	NameChaCha20 = "chacha20"
)

// DefaultName is the source used when none is configured.
const DefaultName = NameMT19937

var factories = map[string]func(seed uint64) (Source, error){
	NameMT19937:  func(seed uint64) (Source, error) { return NewMT19937(seed), nil },
	NamePCG:      func(seed uint64) (Source, error) { return NewPCG(seed), nil },
	NameChaCha20: func(seed uint64) (Source, error) { return NewChaCha20(seed) },
}

// New returns the source registered under name, seeded with seed.
func New(name string, seed uint64) (Source, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown random source %q (known: %v)", name, Names())
	}
	return f(seed)
}

// Names returns the sorted list of registered source names.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MT19937 is the 64-bit Mersenne Twister. It is the default source.
type MT19937 struct {
	mt *mt19937.MT19937
}

// NewMT19937 creates a Mersenne Twister seeded with seed.
func NewMT19937(seed uint64) *MT19937 {
	mt := mt19937.New()
	mt.Seed(int64(seed))
	return &MT19937{mt: mt}
}

// Uint64 implements Source.
func (m *MT19937) Uint64() uint64 {
	return m.mt.Uint64()
}

// pcgIncrement decorrelates the second PCG state word from the first.
const pcgIncrement = 0x9e3779b97f4a7c15

// NewPCG creates a PCG generator from math/rand/v2 seeded with seed.
func NewPCG(seed uint64) *rand.PCG {
	return rand.NewPCG(seed, seed^pcgIncrement)
}

// SplitMix64 expands a single seed into a stream of well-mixed words. It is
// used to derive key material for sources that need more than 64 bits of seed.
type SplitMix64 struct {
	state uint64
}

// NewSplitMix64 creates a SplitMix64 stream starting at seed.
func NewSplitMix64(seed uint64) *SplitMix64 {
	return &SplitMix64{state: seed}
}

// Uint64 implements Source.
func (s *SplitMix64) Uint64() uint64 {
	s.state += pcgIncrement
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
