// Package rng provides domain.RNG implementations backed by math/rand/v2.
package rng

import "math/rand/v2"

// Std delegates to the auto-seeded global source. It is safe for concurrent use.
type Std struct{}

func (Std) Intn(n int) int { return rand.IntN(n) }

func (Std) Float64() float64 { return rand.Float64() }

// Seeded is a reproducible PCG source. It is not safe for concurrent use.
type Seeded struct {
	r *rand.Rand
}

// NewSeeded returns a source that yields the same sequence for the same seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Seeded) Intn(n int) int { return s.r.IntN(n) }

func (s *Seeded) Float64() float64 { return s.r.Float64() }
