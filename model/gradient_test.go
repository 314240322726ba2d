package model

import (
	"math"
	"testing"

	"github.com/curioloop/optimizer/numdiff"
	"github.com/inverseproblem/goeit/utils"
	"github.com/stretchr/testify/assert"
)

// squaredLoss evaluates L(p) = Σ_ij (M(p) - truth)²_ij and its upstream
// gradient 2(M - truth).
func squaredLoss(md *Model, truth utils.Matrix) (loss func(p []float64) float64, upstream func(p []float64) utils.Matrix) {
	loss = func(p []float64) float64 {
		meas, err := md.Evaluate(p)
		if err != nil {
			panic(err)
		}
		return meas.Copy().Subtract(truth).SumSq()
	}
	upstream = func(p []float64) utils.Matrix {
		meas, err := md.Evaluate(p)
		if err != nil {
			panic(err)
		}
		return meas.Copy().Subtract(truth).Scale(2.)
	}
	return
}

func TestGradientMatchesFiniteDifferences(t *testing.T) {
	var (
		md = diskModel(t, 2, 3, 2)
		np = md.NumParams()
	)
	truth := utils.NewMatrix(3, 2).Apply(func(float64) float64 { return 0.05 })

	// a smooth non-constant starting coefficient, bounded away from zero
	p0 := make([]float64, np)
	for k := 0; k < np; k++ {
		p0[k] = 1. + 0.3*math.Sin(float64(k))
	}

	loss, upstream := squaredLoss(md, truth)
	grad, err := md.Gradient(p0, upstream(p0))
	assert.NoError(t, err)
	assert.Equal(t, np, len(grad))

	fd := make([]float64, np)
	spec := numdiff.ApproxSpec{
		N:      np,
		M:      1,
		Method: numdiff.Central,
		Object: func(x, y []float64) { y[0] = loss(x) },
	}
	assert.NoError(t, spec.Diff(p0, fd))

	var scale float64 = 1.
	for _, g := range fd {
		if math.Abs(g) > scale {
			scale = math.Abs(g)
		}
	}
	for k := 0; k < np; k++ {
		assert.InDelta(t, fd[k], grad[k], 1.e-4*scale, "component %d", k)
	}
}

func TestGradientField(t *testing.T) {
	// The projected gradient is the Riesz representative: on the P0 space
	// the mass matrix is the diagonal of areas, so field = grad / area.
	var (
		md = diskModel(t, 2, 2, 2)
		p  = twoRegion(md, 0.5, 0.5, 1.5)
	)
	meas, err := md.Evaluate(p)
	assert.NoError(t, err)
	dLdM := meas.Copy().Scale(2.)

	grad, err := md.Gradient(p, dLdM)
	assert.NoError(t, err)
	field, err := md.GradientField(p, dLdM)
	assert.NoError(t, err)
	assert.Equal(t, len(grad), len(field))
	for k := range grad {
		assert.InDelta(t, grad[k]/md.M.Msh.Area[k], field[k], 1.e-8*(1.+math.Abs(field[k])))
	}
	assert.Equal(t, field, md.LastGradientField())
	assert.False(t, md.LastSecondAdjoint().IsEmpty())
}
