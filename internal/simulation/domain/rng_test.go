package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aysen-hub/glpsim/internal/simulation/domain"
)

func TestStream_SameSeedSameSequence(t *testing.T) {
	a := domain.NewStream(42)
	b := domain.NewStream(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Uniform01(), b.Uniform01())
	}
}

func TestStream_DifferentSeedsDiverge(t *testing.T) {
	a := domain.NewStream(1)
	b := domain.NewStream(2)
	assert.NotEqual(t, a.Uniform01(), b.Uniform01())
}

func TestStream_ExponentialNonNegative(t *testing.T) {
	s := domain.NewStream(7)
	for i := 0; i < 100; i++ {
		assert.GreaterOrEqual(t, s.Exponential(10), 0.0)
	}
}

func TestStream_ExponentialZeroMean(t *testing.T) {
	s := domain.NewStream(7)
	assert.Equal(t, 0.0, s.Exponential(0))
}

func TestStream_TriangularDegenerateReturnsConstant(t *testing.T) {
	s := domain.NewStream(7)
	assert.Equal(t, 7.0, s.Triangular(7, 7, 7))
}

func TestStream_TriangularWithinBounds(t *testing.T) {
	s := domain.NewStream(7)
	for i := 0; i < 200; i++ {
		v := s.Triangular(3, 7, 21)
		assert.GreaterOrEqual(t, v, 3.0)
		assert.LessOrEqual(t, v, 21.0)
	}
}

func TestStream_NormalZeroSigmaReturnsMean(t *testing.T) {
	s := domain.NewStream(7)
	assert.Equal(t, 5.0, s.Normal(5, 0))
}

func TestStream_UniformIntWithinRange(t *testing.T) {
	s := domain.NewStream(7)
	for i := 0; i < 50; i++ {
		v := s.UniformInt(3, 5)
		assert.GreaterOrEqual(t, v, 3)
		assert.LessOrEqual(t, v, 5)
	}
}
