package model

import (
	"math"

	"github.com/inverseproblem/goeit/fem"
)

// AngularWindow is a smooth periodic bump on the boundary centered at angle
// theta0 with angular width w: exp((cos(θ-θ0)-1)/w²), a von Mises profile
// that behaves like exp(-Δθ²/2w²) near its center. Used for both excitation
// patterns and detector responses.
func AngularWindow(theta0, w float64) fem.BoundaryFunc {
	return func(x, y float64) float64 {
		theta := math.Atan2(y, x)
		return math.Exp((math.Cos(theta-theta0) - 1.) / (w * w))
	}
}

// EquispacedWindows places n angular windows uniformly around the boundary.
func EquispacedWindows(n int, w float64) (funcs []fem.BoundaryFunc) {
	funcs = make([]fem.BoundaryFunc, n)
	for i := 0; i < n; i++ {
		funcs[i] = AngularWindow(2.*math.Pi*float64(i)/float64(n), w)
	}
	return
}

// ConstantBoundary is the uniform boundary pattern, handy for the trivial
// Dirichlet scenarios.
func ConstantBoundary(val float64) fem.BoundaryFunc {
	return func(x, y float64) float64 { return val }
}
