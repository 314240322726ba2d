package model

import (
	"fmt"

	"github.com/inverseproblem/goeit/fem"
	"github.com/inverseproblem/goeit/solver"
	"github.com/inverseproblem/goeit/utils"
)

/*
Gradient applies the adjoint technique twice.

For measurements M[i,j] = b_i^T λ_j with A^T(m)·λ_j = -c_j, the derivative of
a scalar loss L(M) with respect to the coefficient dof m_k is

	dL/dm_k = Σ_j λ_j^T (∂A/∂m_k) ū_j,   A·ū_j = -B·(∂L/∂M)[:,j]

so the whole gradient costs one batched "second adjoint" solve for Ū plus one
sensitivity assembly per extraction column, never a solve per parameter.
∂A/∂m_k is the ȧ form of package fem, which is linear in the coefficient, so
the per-element contraction λ^T (∂A/∂m_k) ū is exactly the assembled
sensitivity functional.
*/

// Gradient returns dL/dp for the coefficient dofs p, given the upstream
// gradient dLdM of the loss with respect to the measurement matrix (shape
// NumExcitations x NumExtractions). A cached adjoint solution from a
// preceding Evaluate or Adjoint call at the same p is reused. Partial
// results are discarded on any solve failure.
func (md *Model) Gradient(p []float64, dLdM utils.Matrix) (grad []float64, err error) {
	if err = md.ensureCurrent(p); err != nil {
		return
	}
	var (
		nExc, nExt = md.NumExcitations(), md.NumExtractions()
		gr, gc     = dLdM.Dims()
	)
	if gr != nExc {
		return nil, &DimensionError{What: "upstream gradient rows", Got: gr, Want: nExc}
	}
	if gc != nExt {
		return nil, &DimensionError{What: "upstream gradient cols", Got: gc, Want: nExt}
	}

	// First adjoint set: AT·Λ = -C, possibly already cached
	if !md.lambdaValid {
		if _, err = md.Adjoint(p); err != nil {
			return nil, err
		}
	}

	// Second adjoint set: A·Ū = -S with source S = B·(∂L/∂M)
	S := md.B.Mul(dLdM)
	var Ubar utils.Matrix
	if Ubar, err = md.solveBatch(md.A, S); err != nil {
		return nil, err
	}
	md.Counts.SecondBatches++
	md.ubar = Ubar

	// Accumulate the weak sensitivity over extraction columns
	grad = make([]float64, md.M.NumDofs())
	for j := 0; j < nExt; j++ {
		var sens []float64
		if sens, err = fem.AssembleSensitivity(md.M, md.U, Ubar.Col(j).DataP, md.lambda.Col(j).DataP); err != nil {
			return nil, &SetupError{Op: "Gradient", Err: err}
		}
		for k, v := range sens {
			grad[k] += v
		}
	}
	return grad, nil
}

// GradientField projects the accumulated sensitivity functional onto the
// coefficient space through an L2 mass-matrix solve, yielding the Riesz
// representative of the gradient, the mesh-independent field to visualize.
// The mass matrix is SPD by construction, so a failure here indicates a
// setup bug and is returned as a fatal error, never retried.
func (md *Model) GradientField(p []float64, dLdM utils.Matrix) (field []float64, err error) {
	var grad []float64
	if grad, err = md.Gradient(p, dLdM); err != nil {
		return
	}
	if field, _, err = solver.CG(md.Mass.MulVecTo, grad, &md.Solver); err != nil {
		return nil, fmt.Errorf("mass projection must not fail on a conforming space: %w", err)
	}
	md.Counts.MassSolves++
	md.gradField = field
	return
}
