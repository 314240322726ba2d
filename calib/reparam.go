package calib

import (
	"fmt"
	"math"

	"github.com/inverseproblem/goeit/fem"
)

/*
A Reparam maps an optimization vector theta to a coefficient field on the
parameter space, and pulls coefficient cotangents back to theta. Both
directions are explicit closed forms so the chain rule through the model
gradient needs no autodiff machinery:

	dL/dtheta = (dm/dtheta)^T (dL/dm)

Field-valued variants (Identity, Exp) act dof-wise; geometric variants
(Ellipse, MLP) evaluate at the element centroids of the parameter mesh.
*/
type Reparam interface {
	// Name identifies the variant in configs and logs.
	Name() string
	// NumParams reports the length of theta for the parameter space sp.
	NumParams(sp fem.Space) int
	// Coefficient writes the coefficient field m(theta) into dst,
	// one value per dof of sp.
	Coefficient(theta []float64, sp fem.Space, dst []float64) error
	// Pullback accumulates (dm/dtheta)^T · mbar into grad.
	Pullback(theta []float64, sp fem.Space, mbar, grad []float64) error
}

func checkReparamArgs(r Reparam, theta []float64, sp fem.Space, field []float64) error {
	if len(theta) != r.NumParams(sp) {
		return fmt.Errorf("%s: theta has %d entries, want %d", r.Name(), len(theta), r.NumParams(sp))
	}
	if len(field) != sp.NumDofs() {
		return fmt.Errorf("%s: field has %d entries, want %d dofs", r.Name(), len(field), sp.NumDofs())
	}
	return nil
}

// Identity uses the coefficient dofs directly as optimization variables.
type Identity struct{}

func (Identity) Name() string               { return "identity" }
func (Identity) NumParams(sp fem.Space) int { return sp.NumDofs() }

func (r Identity) Coefficient(theta []float64, sp fem.Space, dst []float64) (err error) {
	if err = checkReparamArgs(r, theta, sp, dst); err != nil {
		return
	}
	copy(dst, theta)
	return
}

func (r Identity) Pullback(theta []float64, sp fem.Space, mbar, grad []float64) (err error) {
	if err = checkReparamArgs(r, theta, sp, mbar); err != nil {
		return
	}
	for k, mb := range mbar {
		grad[k] += mb
	}
	return
}

// Exp maps theta dof-wise through the exponential, keeping the
// coefficient strictly positive for any unconstrained theta.
type Exp struct{}

func (Exp) Name() string               { return "exp" }
func (Exp) NumParams(sp fem.Space) int { return sp.NumDofs() }

func (r Exp) Coefficient(theta []float64, sp fem.Space, dst []float64) (err error) {
	if err = checkReparamArgs(r, theta, sp, dst); err != nil {
		return
	}
	for k, th := range theta {
		dst[k] = math.Exp(th)
	}
	return
}

func (r Exp) Pullback(theta []float64, sp fem.Space, mbar, grad []float64) (err error) {
	if err = checkReparamArgs(r, theta, sp, mbar); err != nil {
		return
	}
	for k, mb := range mbar {
		grad[k] += math.Exp(theta[k]) * mb
	}
	return
}

/*
Ellipse is a six-parameter smooth two-region field

	theta = [cx, cy, ax, ay, vin, vout]
	q(x,y) = ((x-cx)/ax)² + ((y-cy)/ay)²
	s      = sigmoid(kappa·(1-q))
	m(x,y) = vout + (vin-vout)·s

so m tends to vin strictly inside the ellipse and vout outside, with a
logistic transition of fixed sharpness kappa.
*/
type Ellipse struct{}

const ellipseKappa = 8.

func (Ellipse) Name() string            { return "ellipse" }
func (Ellipse) NumParams(fem.Space) int { return 6 }

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1. / (1. + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1. + e)
}

func (r Ellipse) Coefficient(theta []float64, sp fem.Space, dst []float64) (err error) {
	if err = checkReparamArgs(r, theta, sp, dst); err != nil {
		return
	}
	var (
		cx, cy    = theta[0], theta[1]
		ax, ay    = theta[2], theta[3]
		vin, vout = theta[4], theta[5]
	)
	if ax == 0 || ay == 0 {
		return fmt.Errorf("ellipse: degenerate semi-axes [%g %g]", ax, ay)
	}
	for k := range dst {
		var (
			dx = (sp.Msh.CX[k] - cx) / ax
			dy = (sp.Msh.CY[k] - cy) / ay
			s  = sigmoid(ellipseKappa * (1. - dx*dx - dy*dy))
		)
		dst[k] = vout + (vin-vout)*s
	}
	return
}

func (r Ellipse) Pullback(theta []float64, sp fem.Space, mbar, grad []float64) (err error) {
	if err = checkReparamArgs(r, theta, sp, mbar); err != nil {
		return
	}
	var (
		cx, cy    = theta[0], theta[1]
		ax, ay    = theta[2], theta[3]
		vin, vout = theta[4], theta[5]
	)
	if ax == 0 || ay == 0 {
		return fmt.Errorf("ellipse: degenerate semi-axes [%g %g]", ax, ay)
	}
	for k, mb := range mbar {
		var (
			ux = sp.Msh.CX[k] - cx
			uy = sp.Msh.CY[k] - cy
			dx = ux / ax
			dy = uy / ay
			s  = sigmoid(ellipseKappa * (1. - dx*dx - dy*dy))
			// dm/dq through the logistic transition
			dmdq = -(vin - vout) * ellipseKappa * s * (1. - s)
		)
		grad[0] += mb * dmdq * (-2. * ux / (ax * ax))
		grad[1] += mb * dmdq * (-2. * uy / (ay * ay))
		grad[2] += mb * dmdq * (-2. * ux * ux / (ax * ax * ax))
		grad[3] += mb * dmdq * (-2. * uy * uy / (ay * ay * ay))
		grad[4] += mb * s
		grad[5] += mb * (1. - s)
	}
	return
}

/*
MLP parametrizes the coefficient by a small feed-forward network

	m(x,y) = softplus( W2·tanh(W1·[x y] + b1) + b2 )

with a single hidden layer of width mlpHidden. The softplus output keeps
the coefficient positive. theta packs [W1 | b1 | W2 | b2] row-major.
*/
type MLP struct{}

const mlpHidden = 8

func (MLP) Name() string            { return "mlp" }
func (MLP) NumParams(fem.Space) int { return 4*mlpHidden + 1 }

func softplus(u float64) float64 {
	if u > 30 {
		return u
	}
	return math.Log1p(math.Exp(u))
}

// mlpForward runs the network at one point, filling the hidden
// activations so the backward pass can reuse them.
func mlpForward(theta []float64, x, y float64, act []float64) (u float64) {
	var (
		w1 = theta[:2*mlpHidden]
		b1 = theta[2*mlpHidden : 3*mlpHidden]
		w2 = theta[3*mlpHidden : 4*mlpHidden]
		b2 = theta[4*mlpHidden]
	)
	u = b2
	for i := 0; i < mlpHidden; i++ {
		act[i] = math.Tanh(w1[2*i]*x + w1[2*i+1]*y + b1[i])
		u += w2[i] * act[i]
	}
	return
}

func (r MLP) Coefficient(theta []float64, sp fem.Space, dst []float64) (err error) {
	if err = checkReparamArgs(r, theta, sp, dst); err != nil {
		return
	}
	var act [mlpHidden]float64
	for k := range dst {
		dst[k] = softplus(mlpForward(theta, sp.Msh.CX[k], sp.Msh.CY[k], act[:]))
	}
	return
}

func (r MLP) Pullback(theta []float64, sp fem.Space, mbar, grad []float64) (err error) {
	if err = checkReparamArgs(r, theta, sp, mbar); err != nil {
		return
	}
	var (
		w2  = theta[3*mlpHidden : 4*mlpHidden]
		act [mlpHidden]float64
	)
	for k, mb := range mbar {
		if mb == 0 {
			continue
		}
		var (
			x, y = sp.Msh.CX[k], sp.Msh.CY[k]
			u    = mlpForward(theta, x, y, act[:])
			du   = mb * sigmoid(u) // d softplus
		)
		grad[4*mlpHidden] += du
		for i := 0; i < mlpHidden; i++ {
			var (
				a  = act[i]
				dz = du * w2[i] * (1. - a*a)
			)
			grad[3*mlpHidden+i] += du * a
			grad[2*mlpHidden+i] += dz
			grad[2*i] += dz * x
			grad[2*i+1] += dz * y
		}
	}
	return
}

// ByName returns the reparametrization registered under name.
func ByName(name string) (Reparam, error) {
	switch name {
	case "identity", "":
		return Identity{}, nil
	case "exp":
		return Exp{}, nil
	case "ellipse":
		return Ellipse{}, nil
	case "mlp":
		return MLP{}, nil
	}
	return nil, fmt.Errorf("unknown reparametrization %q", name)
}
