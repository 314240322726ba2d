/*
Package model owns the discretized forward operator of the calibration
problem and its adjoint-adjoint gradient.

The forward map is linear in the state: A(m)·x_i = -b_i for each boundary
excitation b_i, with measurements M[i,j] = b_i^T λ_j = c_j^T x_i against the
extraction functionals c_j. Because of that structure the gradient of any
scalar loss over M with respect to the coefficient field m costs one extra
batched solve plus one weak assembly, independent of dim(m); see Gradient.
*/
package model

import (
	"math"

	"github.com/inverseproblem/goeit/fem"
	"github.com/inverseproblem/goeit/mesh"
	"github.com/inverseproblem/goeit/solver"
	"github.com/inverseproblem/goeit/utils"
)

// Counters tracks assembly and solve batches for cost accounting. The
// adjoint-adjoint complexity guarantee is asserted against these in tests.
type Counters struct {
	Assemblies     int // operator (re)assemblies
	ForwardBatches int // solves of A·X = -B
	AdjointBatches int // solves of AT·Λ = -C
	SecondBatches  int // solves of A·Ū = -S inside Gradient
	MassSolves     int // L2 projections onto the coefficient space
}

// Model is the discretized forward operator. It is single-owner mutable
// state: SetParams is the only mutation entry point, and concurrent use of
// one Model must be serialized by the caller.
type Model struct {
	U fem.Space // P1 solution/test space
	M fem.Space // P0 coefficient space

	Params fem.FormParams
	Solver solver.Settings

	mfield []float64 // current coefficient dofs, owned by the model
	stale  bool      // true until the first SetParams

	A, AT utils.CSR
	Mass  utils.CSR
	B, C  utils.Matrix // n x NExc excitations, n x NExt extractions

	// last computed solution sets, read-only for diagnostics
	x, lambda, ubar utils.Matrix
	lambdaValid     bool
	gradField       []float64

	Counts Counters
}

// New constructs a Model on msh with one excitation pattern per boundary
// datum in excitations and one extraction functional per entry of
// extractions. B and C are assembled once here; the coefficient field starts
// at the constant 1. An optional FormParams overrides the defaults (B bakes
// in the penalty weight, so it cannot change after construction).
func New(msh *mesh.Mesh, excitations, extractions []fem.BoundaryFunc, paramsO ...fem.FormParams) (md *Model, err error) {
	if len(excitations) == 0 || len(extractions) == 0 {
		return nil, setupErr("New", "need at least one excitation and one extraction, have %d and %d",
			len(excitations), len(extractions))
	}
	md = &Model{
		Params: fem.DefaultFormParams(),
		stale:  true,
	}
	if len(paramsO) != 0 {
		md.Params = paramsO[0]
	}
	if md.U, err = fem.NewSpace(msh, 1); err != nil {
		return nil, &SetupError{Op: "New", Err: err}
	}
	if md.M, err = fem.NewSpace(msh, 0); err != nil {
		return nil, &SetupError{Op: "New", Err: err}
	}
	md.mfield = utils.ConstSlice(1, md.M.NumDofs())
	if md.Mass, err = fem.AssembleMass(md.M); err != nil {
		return nil, &SetupError{Op: "New", Err: err}
	}
	var (
		n = md.U.NumDofs()
	)
	md.B = utils.NewMatrix(n, len(excitations))
	for i, g := range excitations {
		var col []float64
		if col, err = fem.AssembleLoad(md.U, md.mfield, g, md.Params); err != nil {
			return nil, &SetupError{Op: "New", Err: err}
		}
		md.B.SetCol(i, col)
	}
	md.C = utils.NewMatrix(n, len(extractions))
	for j, mu := range extractions {
		var col []float64
		if col, err = fem.AssembleExtraction(md.U, mu); err != nil {
			return nil, &SetupError{Op: "New", Err: err}
		}
		md.C.SetCol(j, col)
	}
	return md, nil
}

// NumParams is the length of the coefficient parameter vector.
func (md *Model) NumParams() int { return md.M.NumDofs() }

// NumExcitations and NumExtractions give the measurement matrix shape.
func (md *Model) NumExcitations() int { _, nc := md.B.Dims(); return nc }
func (md *Model) NumExtractions() int { _, nc := md.C.Dims(); return nc }

// SetParams overwrites the coefficient field and reassembles A and AT. This
// is the only mutation entry point. A repeated call with the same values is
// a no-op, so A and AT stay bit-identical.
func (md *Model) SetParams(p []float64) (err error) {
	if len(p) != md.M.NumDofs() {
		return setupErr("SetParams", "parameter vector has %d entries, coefficient space has %d",
			len(p), md.M.NumDofs())
	}
	if !md.stale && equalSlices(p, md.mfield) {
		return nil
	}
	copy(md.mfield, p)
	if md.A, md.AT, err = fem.AssembleOperator(md.U, md.mfield, md.Params); err != nil {
		return &SetupError{Op: "SetParams", Err: err}
	}
	md.Counts.Assemblies++
	md.stale = false
	md.lambdaValid = false
	md.x = utils.Matrix{}
	md.ubar = utils.Matrix{}
	return nil
}

func (md *Model) ensureCurrent(p []float64) error {
	if md.stale || !equalSlices(p, md.mfield) {
		return md.SetParams(p)
	}
	return nil
}

// Forward solves A·x_i = -b_i for every excitation column and returns the
// solution set, one column per excitation.
func (md *Model) Forward(p []float64) (X utils.Matrix, err error) {
	if err = md.ensureCurrent(p); err != nil {
		return
	}
	if X, err = md.solveBatch(md.A, md.B); err != nil {
		return utils.Matrix{}, err
	}
	md.Counts.ForwardBatches++
	md.x = X
	return
}

// Adjoint solves AT·λ_j = -c_j for every extraction column.
func (md *Model) Adjoint(p []float64) (Lambda utils.Matrix, err error) {
	if err = md.ensureCurrent(p); err != nil {
		return
	}
	if Lambda, err = md.solveBatch(md.AT, md.C); err != nil {
		return utils.Matrix{}, err
	}
	md.Counts.AdjointBatches++
	md.lambda = Lambda
	md.lambdaValid = true
	return
}

// Evaluate computes the measurement matrix M[i,j] = b_i^T λ_j = c_j^T x_i.
// Both paths are algebraically identical (B^T A^{-T} C is the transpose of
// C^T A^{-1} B); the cheaper one is picked by column count. The adjoint path
// additionally leaves Λ cached for a following Gradient call.
func (md *Model) Evaluate(p []float64) (meas utils.Matrix, err error) {
	if err = md.ensureCurrent(p); err != nil {
		return
	}
	var (
		nExc = md.NumExcitations()
		nExt = md.NumExtractions()
	)
	if nExt <= nExc {
		var Lambda utils.Matrix
		if Lambda, err = md.Adjoint(p); err != nil {
			return
		}
		meas = md.B.Transpose().Mul(Lambda)
	} else {
		var X utils.Matrix
		if X, err = md.Forward(p); err != nil {
			return
		}
		meas = X.Transpose().Mul(md.C)
	}
	return
}

// solveBatch runs X = solve(op, -RHS) with the model's solver settings.
func (md *Model) solveBatch(op utils.CSR, rhs utils.Matrix) (X utils.Matrix, err error) {
	negRHS := rhs.Copy().Scale(-1)
	X, _, err = solver.CGMatrix(op.MulVecTo, negRHS, &md.Solver)
	return
}

// LastForward, LastAdjoint and LastSecondAdjoint expose the most recent
// solution sets for inspection and plotting. They alias internal storage and
// must be treated as read-only.
func (md *Model) LastForward() utils.Matrix       { return md.x }
func (md *Model) LastAdjoint() utils.Matrix       { return md.lambda }
func (md *Model) LastSecondAdjoint() utils.Matrix { return md.ubar }

// LastGradientField returns the most recent L2-projected gradient field.
func (md *Model) LastGradientField() []float64 { return md.gradField }

// Coefficient returns a copy of the current coefficient dof values.
func (md *Model) Coefficient() []float64 {
	out := make([]float64, len(md.mfield))
	copy(out, md.mfield)
	return out
}

func equalSlices(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if v != b[i] || math.IsNaN(v) {
			return false
		}
	}
	return true
}
