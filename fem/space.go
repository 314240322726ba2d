package fem

import (
	"fmt"

	"github.com/inverseproblem/goeit/mesh"
)

// Space is a scalar finite element space over a triangular mesh. Order 1 is
// the nodal P1 space (one dof per vertex) used for the PDE solution; order 0
// is the elementwise-constant space (one dof per element) used for the
// diffusion coefficient.
type Space struct {
	Msh *mesh.Mesh
	P   int
}

func NewSpace(msh *mesh.Mesh, p int) (sp Space, err error) {
	if msh == nil {
		return Space{}, fmt.Errorf("nil mesh")
	}
	if p != 0 && p != 1 {
		return Space{}, fmt.Errorf("unsupported polynomial order %d, have P0 and P1", p)
	}
	sp = Space{Msh: msh, P: p}
	return
}

func (sp Space) NumDofs() int {
	if sp.P == 0 {
		return sp.Msh.K
	}
	return sp.Msh.Nv
}

// EvalField evaluates a dof vector of this space at a point. Errors when the
// point lies outside the mesh or the field has the wrong length.
func (sp Space) EvalField(field []float64, x, y float64) (val float64, err error) {
	if len(field) != sp.NumDofs() {
		return 0, fmt.Errorf("field has %d dofs, space has %d", len(field), sp.NumDofs())
	}
	k := sp.Msh.FindElement(x, y)
	if k < 0 {
		return 0, fmt.Errorf("point (%v,%v) lies outside the mesh", x, y)
	}
	if sp.P == 0 {
		return field[k], nil
	}
	var (
		tri    = sp.Msh.EToV[k]
		vx, vy = sp.Msh.VX.DataP, sp.Msh.VY.DataP
	)
	l1, l2, l3 := mesh.Barycentric(
		vx[tri[0]], vy[tri[0]],
		vx[tri[1]], vy[tri[1]],
		vx[tri[2]], vy[tri[2]], x, y)
	val = l1*field[tri[0]] + l2*field[tri[1]] + l3*field[tri[2]]
	return
}
