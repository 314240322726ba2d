package fem

import (
	"testing"

	"github.com/inverseproblem/goeit/mesh"
	"github.com/inverseproblem/goeit/utils"
	"github.com/stretchr/testify/assert"
)

func testSpaces(t *testing.T, nRings int) (U, M Space) {
	msh, err := mesh.NewUnitDisk(nRings)
	assert.NoError(t, err)
	U, err = NewSpace(msh, 1)
	assert.NoError(t, err)
	M, err = NewSpace(msh, 0)
	assert.NoError(t, err)
	return
}

func TestOperatorAssembly(t *testing.T) {
	var (
		U, M = testSpaces(t, 3)
		m    = utils.ConstSlice(1, M.NumDofs())
		prm  = DefaultFormParams()
	)
	A, AT, err := AssembleOperator(U, m, prm)
	assert.NoError(t, err)

	n := U.NumDofs()
	nr, nc := A.Dims()
	assert.Equal(t, n, nr)
	assert.Equal(t, n, nc)

	// The Nitsche form is symmetric, and AT must be the exact transpose
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.InDelta(t, A.At(j, i), AT.At(i, j), 0) // exact
			assert.InDelta(t, A.At(i, j), A.At(j, i), 1.e-13)
		}
	}
}

func TestNitscheExactness(t *testing.T) {
	// With m = 1 and Dirichlet datum g = 1, the constant-1 field satisfies
	// the discrete system exactly: A·1 must equal -b.
	var (
		U, M = testSpaces(t, 4)
		m    = utils.ConstSlice(1, M.NumDofs())
		prm  = DefaultFormParams()
		one  = func(x, y float64) float64 { return 1. }
	)
	A, _, err := AssembleOperator(U, m, prm)
	assert.NoError(t, err)
	b, err := AssembleLoad(U, m, one, prm)
	assert.NoError(t, err)

	var (
		n  = U.NumDofs()
		u1 = utils.ConstSlice(1, n)
		Au = make([]float64, n)
	)
	A.MulVecTo(Au, u1)
	for i := 0; i < n; i++ {
		assert.InDelta(t, -b[i], Au[i], 1.e-12)
	}
}

func TestSensitivityLinearity(t *testing.T) {
	// ȧ(u,v;ṁ) must be linear in ṁ and symmetric in (u,v)
	var (
		U, M = testSpaces(t, 3)
	)
	var (
		n = U.NumDofs()
		u = make([]float64, n)
		v = make([]float64, n)
	)
	for i := 0; i < n; i++ {
		x, y := U.Msh.VX.AtVec(i), U.Msh.VY.AtVec(i)
		u[i] = x*x - y
		v[i] = 3.*x*y + 0.5*y
	}
	suv, err := AssembleSensitivity(M, U, u, v)
	assert.NoError(t, err)
	svu, err := AssembleSensitivity(M, U, v, u)
	assert.NoError(t, err)
	assert.InDeltaSlice(t, suv, svu, 1.e-13)

	var (
		nd    = M.NumDofs()
		md1   = make([]float64, nd)
		md2   = make([]float64, nd)
		mdSum = make([]float64, nd)
	)
	for k := 0; k < nd; k++ {
		md1[k] = float64(k%5) - 2.
		md2[k] = 0.25 * float64(k%3)
		mdSum[k] = md1[k] + md2[k]
	}
	assert.InDelta(t,
		utils.DotSlices(suv, md1)+utils.DotSlices(suv, md2),
		utils.DotSlices(suv, mdSum), 1.e-12)
}

func TestExtractionAndMass(t *testing.T) {
	var (
		U, M = testSpaces(t, 4)
		one  = func(x, y float64) float64 { return 1. }
	)
	// c(1;1) = ∫_Γ ds, the boundary length
	c, err := AssembleExtraction(U, one)
	assert.NoError(t, err)
	var sum float64
	for _, v := range c {
		sum += v
	}
	assert.InDelta(t, U.Msh.BoundaryLength(), sum, 1.e-12)

	// Mass diagonal sums to the total area
	mass, err := AssembleMass(M)
	assert.NoError(t, err)
	var tr float64
	for k := 0; k < M.NumDofs(); k++ {
		tr += mass.At(k, k)
	}
	assert.InDelta(t, U.Msh.TotalArea(), tr, 1.e-12)
}

func TestDimensionChecks(t *testing.T) {
	U, M := testSpaces(t, 2)
	_, _, err := AssembleOperator(U, make([]float64, 3), DefaultFormParams())
	assert.Error(t, err)
	_, _, err = AssembleOperator(M, utils.ConstSlice(1, M.NumDofs()), DefaultFormParams())
	assert.Error(t, err)
	_, err = AssembleSensitivity(M, U, make([]float64, 1), make([]float64, 1))
	assert.Error(t, err)
}

func TestEvalField(t *testing.T) {
	U, M := testSpaces(t, 3)
	// P1 interpolation reproduces a linear field exactly
	var (
		n = U.NumDofs()
		f = make([]float64, n)
	)
	for i := 0; i < n; i++ {
		f[i] = 2.*U.Msh.VX.AtVec(i) - 3.*U.Msh.VY.AtVec(i) + 1.
	}
	val, err := U.EvalField(f, 0.21, -0.13)
	assert.NoError(t, err)
	assert.InDelta(t, 2.*0.21-3.*(-0.13)+1., val, 1.e-12)

	// P0 lookup returns the element value
	g := make([]float64, M.NumDofs())
	k := U.Msh.FindElement(0.21, -0.13)
	g[k] = 7.
	val, err = M.EvalField(g, 0.21, -0.13)
	assert.NoError(t, err)
	assert.InDelta(t, 7., val, 0)

	_, err = U.EvalField(f, 5, 5)
	assert.Error(t, err)
}
