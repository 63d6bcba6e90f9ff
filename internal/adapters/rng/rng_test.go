package rng_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bradstire/wst-reader/internal/adapters/rng"
	"github.com/bradstire/wst-reader/internal/domain"
)

func TestSeeded_Reproducible(t *testing.T) {
	a, b := rng.NewSeeded(42), rng.NewSeeded(42)
	for range 20 {
		assert.Equal(t, a.Intn(78), b.Intn(78))
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestSeeded_DrawsSameSpread(t *testing.T) {
	deck := domain.StandardDeck()
	first, err := domain.DrawSpread(deck, rng.NewSeeded(9), 0.5)
	assert.NoError(t, err)
	second, err := domain.DrawSpread(deck, rng.NewSeeded(9), 0.5)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStd_InRange(t *testing.T) {
	var r domain.RNG = rng.Std{}
	for range 100 {
		n := r.Intn(5)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 5)
		f := r.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
}
