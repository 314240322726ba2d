package model

import (
	"errors"
	"math"
	"testing"

	"github.com/inverseproblem/goeit/fem"
	"github.com/inverseproblem/goeit/mesh"
	"github.com/inverseproblem/goeit/utils"
	"github.com/stretchr/testify/assert"
)

func diskModel(t *testing.T, nRings, nExc, nExt int) *Model {
	msh, err := mesh.NewUnitDisk(nRings)
	assert.NoError(t, err)
	md, err := New(msh, EquispacedWindows(nExc, 0.7), EquispacedWindows(nExt, 0.7))
	assert.NoError(t, err)
	return md
}

// twoRegion is the synthetic target coefficient: low inside radius r, high
// outside.
func twoRegion(md *Model, r, inside, outside float64) (p []float64) {
	var (
		msh = md.M.Msh
	)
	p = make([]float64, md.NumParams())
	for k := 0; k < msh.K; k++ {
		if math.Hypot(msh.CX[k], msh.CY[k]) < r {
			p[k] = inside
		} else {
			p[k] = outside
		}
	}
	return
}

func TestSelfAdjointConsistency(t *testing.T) {
	// B^T·Λ must equal (C^T·X)^T = X^T·C for any coefficient field
	var (
		md = diskModel(t, 3, 4, 3)
		p  = twoRegion(md, 0.5, 0.1, 0.9)
	)
	X, err := md.Forward(p)
	assert.NoError(t, err)
	Lambda, err := md.Adjoint(p)
	assert.NoError(t, err)

	viaAdjoint := md.B.Transpose().Mul(Lambda)
	viaForward := X.Transpose().Mul(md.C)
	assert.InDeltaSlice(t, viaForward.DataP, viaAdjoint.DataP, 1.e-8)
}

func TestSetParamsIdempotent(t *testing.T) {
	var (
		md = diskModel(t, 2, 2, 2)
		p  = twoRegion(md, 0.5, 0.2, 1.3)
	)
	assert.NoError(t, md.SetParams(p))
	var (
		nAssembled = md.Counts.Assemblies
		aData      = append([]float64(nil), md.A.Data()...)
		atData     = append([]float64(nil), md.AT.Data()...)
	)
	assert.NoError(t, md.SetParams(p))
	assert.Equal(t, nAssembled, md.Counts.Assemblies) // second call is a no-op
	assert.Equal(t, aData, md.A.Data())
	assert.Equal(t, atData, md.AT.Data())

	// and AT tracks A exactly through a real update
	p[0] *= 2.
	assert.NoError(t, md.SetParams(p))
	n := md.U.NumDofs()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.Equal(t, md.A.At(i, j), md.AT.At(j, i))
		}
	}
}

func TestConstantDirichletField(t *testing.T) {
	// Trivial scenario: m = 1, g = 1 on the whole boundary. The Nitsche
	// discretization reproduces the constant-1 solution exactly (up to the
	// solver tolerance).
	msh, err := mesh.NewUnitDisk(3)
	assert.NoError(t, err)
	md, err := New(msh,
		[]fem.BoundaryFunc{ConstantBoundary(1.)},
		[]fem.BoundaryFunc{ConstantBoundary(1.)})
	assert.NoError(t, err)

	X, err := md.Forward(utils.ConstSlice(1, md.NumParams()))
	assert.NoError(t, err)
	for _, v := range X.DataP {
		assert.InDelta(t, 1., v, 1.e-6)
	}

	// the single measurement is then ∫_Γ 1 ds, the boundary length
	meas, err := md.Evaluate(utils.ConstSlice(1, md.NumParams()))
	assert.NoError(t, err)
	assert.InDelta(t, msh.BoundaryLength(), meas.At(0, 0), 1.e-6)
}

func TestMeasurementRotationSymmetry(t *testing.T) {
	// The structured disk mesh is invariant under 60 degree rotation and the
	// coefficient is radial, so rotating excitation and extraction together
	// by one window spacing must leave the measurements unchanged: M is
	// circulant.
	var (
		md = diskModel(t, 4, 6, 6)
		p  = twoRegion(md, 0.5, 0.1, 0.9)
	)
	meas, err := md.Evaluate(p)
	assert.NoError(t, err)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			assert.InDelta(t, meas.At(i, j), meas.At((i+1)%6, (j+1)%6), 1.e-8)
		}
	}
}

func TestSolveCountInvariant(t *testing.T) {
	// One evaluation plus one gradient must cost exactly one adjoint batch
	// (shared through the cache) and one second-adjoint batch, independent
	// of the number of coefficient parameters.
	for _, nRings := range []int{2, 4} {
		var (
			md = diskModel(t, nRings, 3, 3)
			p  = twoRegion(md, 0.5, 0.4, 1.1)
		)
		meas, err := md.Evaluate(p)
		assert.NoError(t, err)

		dLdM := meas.Copy().Scale(2.) // as if L = Σ M², truth 0
		_, err = md.Gradient(p, dLdM)
		assert.NoError(t, err)

		assert.Equal(t, 1, md.Counts.AdjointBatches)
		assert.Equal(t, 1, md.Counts.SecondBatches)
		assert.Equal(t, 0, md.Counts.ForwardBatches)
		assert.Equal(t, 1, md.Counts.Assemblies)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	md := diskModel(t, 2, 2, 2)

	// parameter length mismatch is a SetupError
	err := md.SetParams(make([]float64, 3))
	var se *SetupError
	assert.True(t, errors.As(err, &se))

	// wrong upstream gradient shape is a DimensionError
	p := utils.ConstSlice(1, md.NumParams())
	_, err = md.Gradient(p, utils.NewMatrix(3, 5))
	var de *DimensionError
	assert.True(t, errors.As(err, &de))
}
