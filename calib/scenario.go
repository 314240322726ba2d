package calib

import (
	"math"

	"github.com/inverseproblem/goeit/fem"
	"github.com/inverseproblem/goeit/model"
	"github.com/inverseproblem/goeit/utils"
)

// TwoRegion builds a piecewise-constant coefficient on the parameter
// space: inside within radius r of (cx, cy), outside elsewhere, decided
// at element centroids.
func TwoRegion(sp fem.Space, cx, cy, r, inside, outside float64) (m []float64) {
	m = make([]float64, sp.NumDofs())
	for k := range m {
		if math.Hypot(sp.Msh.CX[k]-cx, sp.Msh.CY[k]-cy) < r {
			m[k] = inside
		} else {
			m[k] = outside
		}
	}
	return
}

// SyntheticTruth evaluates the model at a known coefficient field to
// produce target measurements for calibration experiments.
func SyntheticTruth(md *model.Model, m []float64) (truth utils.Matrix, err error) {
	meas, err := md.Evaluate(m)
	if err != nil {
		return
	}
	truth = meas.Copy()
	return
}
