// Package solver provides the sparse linear solves for the forward and
// adjoint systems: a conjugate gradient method with an iteration budget tied
// to the problem size. Non-convergence is reported as a SolveError, never as
// a silently wrong solution.
package solver

import (
	"fmt"
	"math"

	"github.com/inverseproblem/goeit/utils"
)

// MatVec computes dst = A*x for the system matrix.
type MatVec func(dst, x []float64)

// Settings holds the solve controls. Zero values select the defaults: a
// relative residual tolerance of 1e-12 and a budget of 2*dim iterations.
type Settings struct {
	Tolerance     float64
	MaxIterations int
}

func (s *Settings) withDefaults(dim int) Settings {
	out := Settings{Tolerance: 1.e-12, MaxIterations: 2 * dim}
	if s != nil {
		if s.Tolerance > 0 {
			out.Tolerance = s.Tolerance
		}
		if s.MaxIterations > 0 {
			out.MaxIterations = s.MaxIterations
		}
	}
	return out
}

// Stats counts the work done by a solve.
type Stats struct {
	Iterations int
	MatVecs    int
}

func (s *Stats) add(o Stats) {
	s.Iterations += o.Iterations
	s.MatVecs += o.MatVecs
}

// SolveError reports a solve that exhausted its iteration budget before
// reaching the residual tolerance, or a breakdown of the recursion.
type SolveError struct {
	Iterations int
	Residual   float64
	Target     float64
	Breakdown  bool
}

func (e *SolveError) Error() string {
	if e.Breakdown {
		return fmt.Sprintf("cg breakdown after %d iterations (matrix not SPD?), residual %g",
			e.Iterations, e.Residual)
	}
	return fmt.Sprintf("cg did not converge in %d iterations: residual %g, target %g",
		e.Iterations, e.Residual, e.Target)
}

// CG solves A·x = b for a symmetric positive definite matrix given through
// its action mv. The returned x is only valid when err is nil.
func CG(mv MatVec, b []float64, s *Settings) (x []float64, stats Stats, err error) {
	var (
		n   = len(b)
		set = s.withDefaults(n)
		r   = make([]float64, n)
		p   = make([]float64, n)
		ap  = make([]float64, n)
	)
	x = make([]float64, n)
	copy(r, b) // x0 = 0, so r0 = b
	copy(p, r)
	var (
		rr     = utils.DotSlices(r, r)
		normB  = math.Sqrt(rr)
		target = set.Tolerance * normB
	)
	if normB == 0 {
		return // zero right hand side, zero solution
	}
	for iter := 1; iter <= set.MaxIterations; iter++ {
		mv(ap, p)
		stats.MatVecs++
		stats.Iterations = iter
		pap := utils.DotSlices(p, ap)
		if pap <= 0 {
			err = &SolveError{Iterations: iter, Residual: math.Sqrt(rr), Breakdown: true}
			return nil, stats, err
		}
		alpha := rr / pap
		for i := range x {
			x[i] += alpha * p[i]
			r[i] -= alpha * ap[i]
		}
		rrNew := utils.DotSlices(r, r)
		if math.Sqrt(rrNew) <= target {
			return
		}
		beta := rrNew / rr
		rr = rrNew
		for i := range p {
			p[i] = r[i] + beta*p[i]
		}
	}
	err = &SolveError{
		Iterations: set.MaxIterations,
		Residual:   math.Sqrt(rr),
		Target:     target,
	}
	return nil, stats, err
}

// CGMatrix solves A·X = B column by column for a dense right hand side
// matrix. Each column is an independent system for the same operator; any
// failing column aborts the whole batch.
func CGMatrix(mv MatVec, B utils.Matrix, s *Settings) (X utils.Matrix, stats Stats, err error) {
	var (
		nr, nc = B.Dims()
	)
	X = utils.NewMatrix(nr, nc)
	for j := 0; j < nc; j++ {
		var (
			x  []float64
			st Stats
		)
		if x, st, err = CG(mv, B.Col(j).DataP, s); err != nil {
			return utils.Matrix{}, stats, fmt.Errorf("column %d: %w", j, err)
		}
		stats.add(st)
		X.SetCol(j, x)
	}
	return
}
