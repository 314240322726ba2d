package mesh

import (
	"fmt"
	"math"
	"sort"

	"github.com/inverseproblem/goeit/utils"
)

// Mesh is a conforming triangulation of a planar domain. Element vertices
// are stored counterclockwise. Boundary edges are recovered topologically:
// an edge belonging to exactly one element lies on the boundary.
type Mesh struct {
	Nv, K         int // number of vertices, number of elements
	VX, VY        utils.Vector
	EToV          [][3]int
	Area          []float64 // element areas
	CX, CY        []float64 // element centroids
	BoundaryEdges []BoundaryEdge
}

// BoundaryEdge is one boundary segment together with its owning element and
// outward geometry, everything the Nitsche terms need.
type BoundaryEdge struct {
	V      [2]int // vertex indices, in the owning element's traversal order
	Elem   int
	Nx, Ny float64 // outward unit normal
	Length float64
	MX, MY float64 // edge midpoint
}

// New builds a Mesh from raw vertex coordinates and element connectivity,
// validating indices and orientation. Elements with negative signed area are
// reordered in place to counterclockwise.
func New(vx, vy []float64, etov [][3]int) (msh *Mesh, err error) {
	var (
		nv = len(vx)
		k  = len(etov)
	)
	if len(vy) != nv {
		return nil, fmt.Errorf("coordinate arrays disagree: len(vx) = %d, len(vy) = %d", nv, len(vy))
	}
	if k == 0 || nv < 3 {
		return nil, fmt.Errorf("degenerate mesh: %d vertices, %d elements", nv, k)
	}
	msh = &Mesh{
		Nv:   nv,
		K:    k,
		VX:   utils.NewVector(nv, vx),
		VY:   utils.NewVector(nv, vy),
		EToV: etov,
		Area: make([]float64, k),
		CX:   make([]float64, k),
		CY:   make([]float64, k),
	}
	for n, tri := range etov {
		for _, v := range tri {
			if v < 0 || v >= nv {
				return nil, fmt.Errorf("element %d references vertex %d, have %d vertices", n, v, nv)
			}
		}
		x1, y1 := vx[tri[0]], vy[tri[0]]
		x2, y2 := vx[tri[1]], vy[tri[1]]
		x3, y3 := vx[tri[2]], vy[tri[2]]
		signed := 0.5 * ((x2-x1)*(y3-y1) - (x3-x1)*(y2-y1))
		if signed < 0 {
			etov[n][1], etov[n][2] = etov[n][2], etov[n][1]
			signed = -signed
		}
		if signed == 0 {
			return nil, fmt.Errorf("element %d is degenerate (zero area)", n)
		}
		msh.Area[n] = signed
		msh.CX[n] = (x1 + x2 + x3) / 3.
		msh.CY[n] = (y1 + y2 + y3) / 3.
	}
	msh.buildBoundary()
	return
}

func (msh *Mesh) buildBoundary() {
	type edgeUse struct {
		elem  int
		verts [2]int
		count int
	}
	var (
		vx, vy = msh.VX.DataP, msh.VY.DataP
		uses   = make(map[EdgeKey]*edgeUse, 3*msh.K/2)
	)
	for n, tri := range msh.EToV {
		for f := 0; f < 3; f++ {
			verts := [2]int{tri[f], tri[(f+1)%3]}
			key := NewEdgeKey(verts)
			if u, ok := uses[key]; ok {
				u.count++
			} else {
				uses[key] = &edgeUse{elem: n, verts: verts, count: 1}
			}
		}
	}
	for _, u := range uses {
		if u.count != 1 {
			continue
		}
		var (
			ax, ay = vx[u.verts[0]], vy[u.verts[0]]
			bx, by = vx[u.verts[1]], vy[u.verts[1]]
			dx, dy = bx - ax, by - ay
		)
		length := math.Hypot(dx, dy)
		be := BoundaryEdge{
			V:      u.verts,
			Elem:   u.elem,
			Nx:     dy / length,
			Ny:     -dx / length,
			Length: length,
			MX:     0.5 * (ax + bx),
			MY:     0.5 * (ay + by),
		}
		// Outward means away from the owning element's centroid.
		if be.Nx*(be.MX-msh.CX[u.elem])+be.Ny*(be.MY-msh.CY[u.elem]) < 0 {
			be.Nx, be.Ny = -be.Nx, -be.Ny
		}
		msh.BoundaryEdges = append(msh.BoundaryEdges, be)
	}
	// Deterministic ordering for reproducible assembly
	sortBoundaryEdges(msh.BoundaryEdges)
}

func sortBoundaryEdges(edges []BoundaryEdge) {
	// Order by midpoint angle, the natural traversal for a closed boundary
	// around the origin.
	sort.Slice(edges, func(i, j int) bool {
		return math.Atan2(edges[i].MY, edges[i].MX) < math.Atan2(edges[j].MY, edges[j].MX)
	})
}

// TotalArea sums the element areas.
func (msh *Mesh) TotalArea() (sum float64) {
	for _, a := range msh.Area {
		sum += a
	}
	return
}

// BoundaryLength sums the boundary edge lengths.
func (msh *Mesh) BoundaryLength() (sum float64) {
	for _, be := range msh.BoundaryEdges {
		sum += be.Length
	}
	return
}

// MaxEdgeLength is a mesh-size proxy over the boundary.
func (msh *Mesh) MaxEdgeLength() (h float64) {
	for _, be := range msh.BoundaryEdges {
		if be.Length > h {
			h = be.Length
		}
	}
	return
}

// FindElement locates the element containing point (x,y) by barycentric
// test, linear scan. Returns -1 when outside the mesh.
func (msh *Mesh) FindElement(x, y float64) int {
	var (
		vx, vy = msh.VX.DataP, msh.VY.DataP
		tol    = -1.e-12
	)
	for n, tri := range msh.EToV {
		l1, l2, l3 := Barycentric(
			vx[tri[0]], vy[tri[0]],
			vx[tri[1]], vy[tri[1]],
			vx[tri[2]], vy[tri[2]], x, y)
		if l1 >= tol && l2 >= tol && l3 >= tol {
			return n
		}
	}
	return -1
}

// Barycentric returns the barycentric coordinates of (x,y) in the triangle
// (x1,y1),(x2,y2),(x3,y3).
func Barycentric(x1, y1, x2, y2, x3, y3, x, y float64) (l1, l2, l3 float64) {
	det := (y2-y3)*(x1-x3) + (x3-x2)*(y1-y3)
	l1 = ((y2-y3)*(x-x3) + (x3-x2)*(y-y3)) / det
	l2 = ((y3-y1)*(x-x3) + (x1-x3)*(y-y3)) / det
	l3 = 1. - l1 - l2
	return
}
