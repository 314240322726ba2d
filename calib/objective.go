package calib

import (
	"fmt"
	"math"

	"github.com/inverseproblem/goeit/model"
	"github.com/inverseproblem/goeit/utils"
)

// Objective is the sum-of-squares misfit between the model measurements
// and a target matrix, optimized over reparametrized coefficients.
//
// Eval satisfies the L-BFGS-B Evaluation signature. A solver failure at
// some theta is not fatal to the optimization: the objective records the
// error and reports +Inf so the line search backs off.
type Objective struct {
	Model *model.Model
	Rep   Reparam
	Truth utils.Matrix

	Evals int   // objective evaluations so far
	Err   error // last solver failure, nil when the last Eval succeeded

	m, mbar []float64
}

func NewObjective(md *model.Model, rep Reparam, truth utils.Matrix) (*Objective, error) {
	nr, nc := truth.Dims()
	if nr != md.NumExcitations() || nc != md.NumExtractions() {
		return nil, fmt.Errorf("calib: truth is %dx%d, model measures %dx%d",
			nr, nc, md.NumExcitations(), md.NumExtractions())
	}
	return &Objective{
		Model: md,
		Rep:   rep,
		Truth: truth,
		m:     make([]float64, md.NumParams()),
		mbar:  make([]float64, md.NumParams()),
	}, nil
}

// NumParams reports the dimension of theta for this objective.
func (o *Objective) NumParams() int {
	return o.Rep.NumParams(o.Model.M)
}

// Eval computes the misfit at theta and accumulates its gradient into g.
func (o *Objective) Eval(theta, g []float64) (f float64) {
	o.Evals++
	o.Err = nil
	for i := range g {
		g[i] = 0
	}

	fail := func(err error) float64 {
		o.Err = err
		return math.Inf(1)
	}

	if err := o.Rep.Coefficient(theta, o.Model.M, o.m); err != nil {
		return fail(err)
	}
	meas, err := o.Model.Evaluate(o.m)
	if err != nil {
		return fail(err)
	}

	resid := meas.Copy().Subtract(o.Truth)
	f = resid.SumSq()

	mbar, err := o.Model.Gradient(o.m, resid.Scale(2.))
	if err != nil {
		return fail(err)
	}
	copy(o.mbar, mbar)
	if err = o.Rep.Pullback(theta, o.Model.M, o.mbar, g); err != nil {
		return fail(err)
	}
	return
}

// LastCoefficient returns the coefficient field from the most recent Eval.
func (o *Objective) LastCoefficient() []float64 {
	return o.m
}
