package fem

import (
	"math"

	"github.com/inverseproblem/goeit/mesh"
)

/*
Weak forms for the diffusion problem -div(m grad u) = 0 with Dirichlet data
enforced weakly by Nitsche's method:

	a(u,v;m)   = ∫ m ∇u·∇v dx
	           - ∫_Γ m (∇u·n) v ds  - ∫_Γ m (∇v·n) u ds  + ∫_Γ α_h u v ds
	b(v;m,g)   = the Dirichlet load for datum g, stored with the sign
	             convention that the forward solve A·x = -b returns the
	             Nitsche solution
	c(u;μ)     = ∫_Γ μ u ds, the detector response
	ȧ(u,v;ṁ)   = ∫ ṁ ∇u·∇v dx - ∫_Γ ṁ (∇u·n) v ds - ∫_Γ ṁ (∇v·n) u ds,
	             the Gateaux derivative of a with respect to the coefficient
	             in direction ṁ (the penalty term does not depend on m)

The penalty coefficient scales like O(1/h): α_h = Alpha / h_e with h_e the
local boundary edge length. ȧ keeps the Nitsche consistency and
symmetrization derivatives: dropping them leaves a coefficient-sensitivity
error on boundary elements that finite difference checks flag immediately.
*/

// BoundaryFunc is a scalar function of position on the boundary, used for
// excitation data g and extraction weights μ.
type BoundaryFunc func(x, y float64) float64

// FormParams carries the Nitsche penalty scaling Alpha, with α_h = Alpha/h_e
// per boundary edge.
type FormParams struct {
	Alpha float64
}

func DefaultFormParams() FormParams {
	return FormParams{Alpha: 10.}
}

// ElementGradients returns the constant gradients of the three P1 basis
// functions on element k, along with the element area.
func ElementGradients(msh *mesh.Mesh, k int) (g [3][2]float64, area float64) {
	var (
		tri    = msh.EToV[k]
		vx, vy = msh.VX.DataP, msh.VY.DataP
	)
	area = msh.Area[k]
	x1, y1 := vx[tri[0]], vy[tri[0]]
	x2, y2 := vx[tri[1]], vy[tri[1]]
	x3, y3 := vx[tri[2]], vy[tri[2]]
	d := 2. * area
	g[0] = [2]float64{(y2 - y3) / d, (x3 - x2) / d}
	g[1] = [2]float64{(y3 - y1) / d, (x1 - x3) / d}
	g[2] = [2]float64{(y1 - y2) / d, (x2 - x1) / d}
	return
}

// P1Gradient evaluates the (constant) gradient of a P1 field on element k.
func P1Gradient(msh *mesh.Mesh, k int, field []float64) (grad [2]float64) {
	g, _ := ElementGradients(msh, k)
	tri := msh.EToV[k]
	for i := 0; i < 3; i++ {
		grad[0] += field[tri[i]] * g[i][0]
		grad[1] += field[tri[i]] * g[i][1]
	}
	return
}

// DotAElement is the elementwise integrand of ȧ: for unit coefficient
// direction on element k, ∫_k ∇u·∇v dx = area · ∇u·∇v.
func DotAElement(gradU, gradV [2]float64, area float64) float64 {
	return area * (gradU[0]*gradV[0] + gradU[1]*gradV[1])
}

// edgeQuadrature returns the two Gauss points of a boundary edge together
// with the per-point weight and the P1 trace values of the edge's two
// endpoint basis functions at each point.
func edgeQuadrature(msh *mesh.Mesh, be mesh.BoundaryEdge) (qx, qy [2]float64, w float64, phi [2][2]float64) {
	var (
		vx, vy = msh.VX.DataP, msh.VY.DataP
		ax, ay = vx[be.V[0]], vy[be.V[0]]
		bx, by = vx[be.V[1]], vy[be.V[1]]
		s      = 0.5 / math.Sqrt(3.)
	)
	// points at parameter 1/2 ± 1/(2√3) along the edge
	for q, t := range [2]float64{0.5 - s, 0.5 + s} {
		qx[q] = ax + t*(bx-ax)
		qy[q] = ay + t*(by-ay)
		phi[q][0] = 1. - t // trace of the basis at V[0]
		phi[q][1] = t      // trace of the basis at V[1]
	}
	w = be.Length / 2.
	return
}

// localEdgeIndices maps the edge's two vertices to local indices of the
// owning element.
func localEdgeIndices(msh *mesh.Mesh, be mesh.BoundaryEdge) (la, lb int) {
	la, lb = -1, -1
	tri := msh.EToV[be.Elem]
	for i := 0; i < 3; i++ {
		if tri[i] == be.V[0] {
			la = i
		}
		if tri[i] == be.V[1] {
			lb = i
		}
	}
	if la < 0 || lb < 0 {
		panic("boundary edge vertices not found on owning element")
	}
	return
}
