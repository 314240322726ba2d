package solver

import (
	"errors"
	"testing"

	"github.com/inverseproblem/goeit/utils"
	"github.com/stretchr/testify/assert"
)

// tridiagonal SPD test system: the 1D Laplacian stencil
func laplacian1D(n int) MatVec {
	return func(dst, x []float64) {
		for i := 0; i < n; i++ {
			dst[i] = 2. * x[i]
			if i > 0 {
				dst[i] -= x[i-1]
			}
			if i < n-1 {
				dst[i] -= x[i+1]
			}
		}
	}
}

func TestCG(t *testing.T) {
	var (
		n  = 20
		mv = laplacian1D(n)
		b  = make([]float64, n)
	)
	b[n/2] = 1.
	x, stats, err := CG(mv, b, nil)
	assert.NoError(t, err)
	assert.Greater(t, stats.Iterations, 0)
	assert.LessOrEqual(t, stats.Iterations, 2*n)

	// residual check
	r := make([]float64, n)
	mv(r, x)
	for i := range r {
		r[i] -= b[i]
	}
	assert.InDelta(t, 0., utils.DotSlices(r, r), 1.e-18)

	// zero rhs short-circuits to the zero solution
	x, stats, err = CG(mv, make([]float64, n), nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.MatVecs)
	assert.Equal(t, make([]float64, n), x)
}

func TestCGBudget(t *testing.T) {
	// An impossible budget must surface a SolveError, not a wrong answer
	var (
		n  = 50
		mv = laplacian1D(n)
		b  = utils.ConstSlice(1, n)
	)
	_, _, err := CG(mv, b, &Settings{MaxIterations: 2})
	var se *SolveError
	assert.Error(t, err)
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Iterations)
}

func TestCGIndefinite(t *testing.T) {
	// A negative definite matrix breaks the CG recursion immediately
	mv := func(dst, x []float64) {
		for i := range x {
			dst[i] = -x[i]
		}
	}
	_, _, err := CG(mv, []float64{1, 2}, nil)
	var se *SolveError
	assert.True(t, errors.As(err, &se))
	assert.True(t, se.Breakdown)
}

func TestCGMatrix(t *testing.T) {
	var (
		n  = 10
		mv = laplacian1D(n)
		B  = utils.NewMatrix(n, 3)
	)
	B.Set(0, 0, 1.)
	B.Set(n/2, 1, 2.)
	B.Set(n-1, 2, -1.)
	X, stats, err := CGMatrix(mv, B, nil)
	assert.NoError(t, err)
	assert.Greater(t, stats.MatVecs, 0)
	// every column solves its own system
	for j := 0; j < 3; j++ {
		x := X.Col(j).DataP
		r := make([]float64, n)
		mv(r, x)
		for i := range r {
			r[i] -= B.At(i, j)
		}
		assert.InDelta(t, 0., utils.DotSlices(r, r), 1.e-18)
	}
}
