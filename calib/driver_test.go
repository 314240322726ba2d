package calib

import (
	"math"
	"testing"

	"github.com/inverseproblem/goeit/mesh"
	"github.com/inverseproblem/goeit/model"
	"github.com/stretchr/testify/assert"
)

func diskModel(t *testing.T, nRings, nExc, nExt int) *model.Model {
	msh, err := mesh.NewUnitDisk(nRings)
	assert.NoError(t, err)
	md, err := model.New(msh,
		model.EquispacedWindows(nExc, 0.8),
		model.EquispacedWindows(nExt, 0.8))
	assert.NoError(t, err)
	return md
}

func TestObjectiveGradientAtTruth(t *testing.T) {
	var (
		md  = diskModel(t, 2, 3, 3)
		rep = Exp{}
	)
	mTrue := TwoRegion(md.M, 0, 0, 0.5, 0.6, 1.4)
	truth, err := SyntheticTruth(md, mTrue)
	assert.NoError(t, err)

	obj, err := NewObjective(md, rep, truth)
	assert.NoError(t, err)
	assert.Equal(t, md.NumParams(), obj.NumParams())

	// at the exact reparametrized truth the misfit and gradient vanish
	theta := make([]float64, obj.NumParams())
	for k, mk := range mTrue {
		theta[k] = math.Log(mk)
	}
	g := make([]float64, len(theta))
	f := obj.Eval(theta, g)
	assert.NoError(t, obj.Err)
	assert.InDelta(t, 0., f, 1.e-15)
	for i := range g {
		assert.InDelta(t, 0., g[i], 1.e-7)
	}
	assert.Equal(t, 1, obj.Evals)
}

func TestCalibrateReducesMisfit(t *testing.T) {
	var (
		md  = diskModel(t, 2, 4, 4)
		rep = Exp{}
	)
	mTrue := TwoRegion(md.M, 0.2, 0, 0.4, 0.5, 1.5)
	truth, err := SyntheticTruth(md, mTrue)
	assert.NoError(t, err)

	// homogeneous start: theta = 0 means m = 1 everywhere
	theta0 := make([]float64, md.NumParams())

	obj, err := NewObjective(md, rep, truth)
	assert.NoError(t, err)
	g := make([]float64, len(theta0))
	f0 := obj.Eval(theta0, g)
	assert.NoError(t, obj.Err)
	assert.Greater(t, f0, 0.)

	res, err := Calibrate(md, rep, truth, theta0, Options{MaxIterations: 60})
	assert.NoError(t, err)
	assert.Less(t, res.Loss, 0.1*f0)
	assert.True(t, res.NumIter > 0)
	assert.True(t, res.NumEval >= res.NumIter)
	assert.Equal(t, md.NumParams(), len(res.Coefficient))
	for k, mk := range res.Coefficient {
		assert.Greater(t, mk, 0., "dof %d", k)
	}
	// theta0 must not be clobbered by the driver
	for i := range theta0 {
		assert.Equal(t, 0., theta0[i])
	}
}

func TestCalibrateEllipse(t *testing.T) {
	var (
		md  = diskModel(t, 3, 4, 4)
		rep = Ellipse{}
	)
	thetaTrue := []float64{0.15, -0.1, 0.45, 0.45, 0.4, 1.2}
	mTrue := make([]float64, md.NumParams())
	assert.NoError(t, rep.Coefficient(thetaTrue, md.M, mTrue))
	truth, err := SyntheticTruth(md, mTrue)
	assert.NoError(t, err)

	theta0 := []float64{0, 0, 0.5, 0.5, 0.6, 1.}
	obj, err := NewObjective(md, rep, truth)
	assert.NoError(t, err)
	g := make([]float64, len(theta0))
	f0 := obj.Eval(theta0, g)
	assert.NoError(t, obj.Err)

	res, err := Calibrate(md, rep, truth, theta0, Options{MaxIterations: 100})
	assert.NoError(t, err)
	assert.Less(t, res.Loss, 0.5*f0)
}

func TestCalibrateArgChecks(t *testing.T) {
	md := diskModel(t, 1, 2, 2)
	truth, err := SyntheticTruth(md, TwoRegion(md.M, 0, 0, 0.5, 1., 1.))
	assert.NoError(t, err)

	_, err = Calibrate(md, Ellipse{}, truth, make([]float64, 5), Options{})
	assert.Error(t, err)

	_, err = NewObjective(md, Exp{}, truth.Transpose())
	assert.NoError(t, err) // square truth transposes onto itself shape-wise

	bad, err2 := SyntheticTruth(diskModel(t, 1, 3, 2), TwoRegion(md.M, 0, 0, 0.5, 1., 1.))
	assert.NoError(t, err2)
	_, err = NewObjective(md, Exp{}, bad)
	assert.Error(t, err)
}
