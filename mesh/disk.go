package mesh

import (
	"fmt"
	"math"

	"github.com/pradeep-pyro/triangle"
)

// NewUnitDisk builds a structured triangulation of the unit disk from
// concentric rings: ring k of nRings carries 6k equally spaced points at
// radius k/nRings, starting at angle zero. The mesh is exactly invariant
// under rotation by 60 degrees, which the domain-symmetry tests rely on.
func NewUnitDisk(nRings int) (msh *Mesh, err error) {
	if nRings < 1 {
		return nil, fmt.Errorf("nRings must be at least 1, have %d", nRings)
	}
	var (
		vx, vy []float64
		etov   [][3]int
	)
	vx = append(vx, 0)
	vy = append(vy, 0)
	ringStart := make([]int, nRings+1) // ringStart[k] indexes the first point of ring k
	for k := 1; k <= nRings; k++ {
		ringStart[k] = len(vx)
		n := 6 * k
		r := float64(k) / float64(nRings)
		for j := 0; j < n; j++ {
			theta := 2. * math.Pi * float64(j) / float64(n)
			vx = append(vx, r*math.Cos(theta))
			vy = append(vy, r*math.Sin(theta))
		}
	}
	// Innermost fan around the center vertex
	for j := 0; j < 6; j++ {
		etov = append(etov, [3]int{0, ringStart[1] + j, ringStart[1] + (j+1)%6})
	}
	// Annulus strips, advanced by exact rational angle comparison so the
	// triangulation inherits the rings' six-fold symmetry.
	for k := 1; k < nRings; k++ {
		var (
			n1, n2 = 6 * k, 6 * (k + 1)
			s1, s2 = ringStart[k], ringStart[k+1]
			i, j   int
		)
		for i < n1 || j < n2 {
			var (
				inner = s1 + i%n1
				outer = s2 + j%n2
			)
			// Advance the ring whose next point comes first in angle:
			// (j+1)/n2 <= (i+1)/n1 exactly iff (j+1)*n1 <= (i+1)*n2.
			if j < n2 && (i >= n1 || (j+1)*n1 <= (i+1)*n2) {
				etov = append(etov, [3]int{inner, outer, s2 + (j+1)%n2})
				j++
			} else {
				etov = append(etov, [3]int{inner, outer, s1 + (i+1)%n1})
				i++
			}
		}
	}
	return New(vx, vy, etov)
}

// DelaunayUnitDisk meshes the unit disk by Delaunay triangulation of a
// boundary ring plus a hex-packed interior lattice with target spacing h.
// Unstructured alternative to NewUnitDisk for externally uneven resolutions.
func DelaunayUnitDisk(h float64) (msh *Mesh, err error) {
	if h <= 0 || h >= 1 {
		return nil, fmt.Errorf("target spacing h must lie in (0,1), have %v", h)
	}
	var pts [][2]float64
	nb := int(math.Round(2. * math.Pi / h))
	if nb < 8 {
		nb = 8
	}
	for j := 0; j < nb; j++ {
		theta := 2. * math.Pi * float64(j) / float64(nb)
		pts = append(pts, [2]float64{math.Cos(theta), math.Sin(theta)})
	}
	// Hex lattice interior, clipped away from the boundary ring
	var (
		dy   = h * math.Sqrt(3.) / 2.
		rmax = 1. - 0.55*h
		row  int
	)
	for y := -1.; y <= 1.; y += dy {
		offset := 0.
		if row%2 == 1 {
			offset = h / 2.
		}
		for x := -1. + offset; x <= 1.; x += h {
			if math.Hypot(x, y) < rmax {
				pts = append(pts, [2]float64{x, y})
			}
		}
		row++
	}
	faces := triangle.Delaunay(pts)
	var (
		vx   = make([]float64, len(pts))
		vy   = make([]float64, len(pts))
		etov = make([][3]int, len(faces))
	)
	for i, p := range pts {
		vx[i], vy[i] = p[0], p[1]
	}
	for i, f := range faces {
		etov[i] = [3]int{int(f[0]), int(f[1]), int(f[2])}
	}
	return New(vx, vy, etov)
}
