package calib

import (
	"fmt"
	"math"

	"github.com/curioloop/optimizer/lbfgsb"
	"github.com/inverseproblem/goeit/fem"
	"github.com/inverseproblem/goeit/model"
	"github.com/inverseproblem/goeit/utils"
)

// Options configures the L-BFGS-B calibration driver. Zero values pick
// the defaults below.
type Options struct {
	MaxIterations int            // default 200
	GradTolerance float64        // projected-gradient stop, default 1e-8
	Corrections   int            // BFGS memory, default 8
	Bounds        []lbfgsb.Bound // optional box constraints on theta
	Logger        *lbfgsb.Logger // nil runs silent
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 200
	}
	if o.GradTolerance <= 0 {
		o.GradTolerance = 1.e-8
	}
	if o.Corrections <= 0 {
		o.Corrections = 8
	}
	return o
}

// Result reports the outcome of a calibration run.
type Result struct {
	Theta       []float64 // optimized parameters
	Coefficient []float64 // coefficient field at Theta
	Loss        float64
	Converged   bool
	NumIter     int
	NumEval     int
}

// InitialTheta returns a neutral starting point for rep on the parameter
// space sp: the constant-one coefficient for field variants, a centered
// mid-contrast ellipse, and small symmetry-breaking weights for the MLP.
func InitialTheta(rep Reparam, sp fem.Space) (theta []float64) {
	theta = make([]float64, rep.NumParams(sp))
	switch rep.(type) {
	case Identity:
		for i := range theta {
			theta[i] = 1
		}
	case Ellipse:
		copy(theta, []float64{0, 0, 0.5, 0.5, 0.5, 1})
	case MLP:
		// zero weights stall the backprop, so start slightly off-center
		for i := range theta {
			theta[i] = 0.1 * math.Sin(1.7*float64(i)+0.3)
		}
	}
	return
}

// Calibrate fits theta so the reparametrized coefficient reproduces the
// truth measurements, starting from theta0.
func Calibrate(md *model.Model, rep Reparam, truth utils.Matrix, theta0 []float64, opt Options) (res *Result, err error) {
	opt = opt.withDefaults()

	obj, err := NewObjective(md, rep, truth)
	if err != nil {
		return
	}
	if len(theta0) != obj.NumParams() {
		err = fmt.Errorf("calib: theta0 has %d entries, %s wants %d",
			len(theta0), rep.Name(), obj.NumParams())
		return
	}

	problem := lbfgsb.Problem{
		N:    obj.NumParams(),
		M:    opt.Corrections,
		Eval: obj.Eval,
		Stop: lbfgsb.Termination{
			MaxIterations:     opt.MaxIterations,
			EpsAccuracyFactor: 1.e7,
			ProjGradTolerance: opt.GradTolerance,
		},
		Bounds: opt.Bounds,
	}
	optimizer, err := problem.New(opt.Logger)
	if err != nil {
		return
	}

	fit := optimizer.Fit(theta0, optimizer.Init())
	if obj.Err != nil {
		// the optimizer stopped on a poisoned evaluation
		err = fmt.Errorf("calib: objective failed: %w", obj.Err)
		return
	}

	coeff := make([]float64, md.NumParams())
	if err = rep.Coefficient(fit.X, md.M, coeff); err != nil {
		return
	}
	res = &Result{
		Theta:       fit.X,
		Coefficient: coeff,
		Loss:        fit.F,
		Converged:   fit.OK,
		NumIter:     fit.NumIter,
		NumEval:     fit.NumEval,
	}
	return
}
