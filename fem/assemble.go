package fem

import (
	"fmt"

	"github.com/inverseproblem/goeit/utils"
)

// AssembleOperator assembles the Nitsche bilinear form a(·,·;m) over the P1
// space U with elementwise-constant coefficient m, returning the sparse
// operator and its exact transpose. Both matrices are built from the same
// entry stream, so AT is the transpose of A bit for bit.
func AssembleOperator(U Space, m []float64, prm FormParams) (A, AT utils.CSR, err error) {
	if err = checkOperatorArgs(U, m); err != nil {
		return
	}
	var (
		msh  = U.Msh
		n    = U.NumDofs()
		d    = utils.NewDOK(n, n)
		dT   = utils.NewDOK(n, n)
		add  = func(i, j int, v float64) { d.Accumulate(i, j, v); dT.Accumulate(j, i, v) }
	)
	// Volume diffusion term
	for k := 0; k < msh.K; k++ {
		g, area := ElementGradients(msh, k)
		tri := msh.EToV[k]
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				add(tri[i], tri[j], m[k]*area*(g[i][0]*g[j][0]+g[i][1]*g[j][1]))
			}
		}
	}
	// Nitsche boundary terms: consistency, symmetrization, penalty
	for _, be := range msh.BoundaryEdges {
		var (
			k        = be.Elem
			tri      = msh.EToV[k]
			g, _     = ElementGradients(msh, k)
			mk       = m[k]
			alphaH   = prm.Alpha / be.Length
			la, lb   = localEdgeIndices(msh, be)
			halfLen  = be.Length / 2.
		)
		for i := 0; i < 3; i++ {
			dn := g[i][0]*be.Nx + g[i][1]*be.Ny
			for _, e := range [2]int{la, lb} {
				// consistency: -∫ m (∇u·n) v, test v = edge basis
				add(tri[e], tri[i], -mk*dn*halfLen)
				// symmetrization: -∫ m (∇v·n) u
				add(tri[i], tri[e], -mk*dn*halfLen)
			}
		}
		// penalty: α_h ∫ u v over the edge (2x2 edge mass matrix)
		va, vb := tri[la], tri[lb]
		add(va, va, alphaH*be.Length/3.)
		add(vb, vb, alphaH*be.Length/3.)
		add(va, vb, alphaH*be.Length/6.)
		add(vb, va, alphaH*be.Length/6.)
	}
	A, AT = d.ToCSR(), dT.ToCSR()
	return
}

// AssembleLoad assembles the Dirichlet excitation functional b(v;m,g). The
// sign convention matches the forward solve A·x = -b: negating the standard
// Nitsche right hand side here makes x the Dirichlet solution for datum g.
func AssembleLoad(U Space, m []float64, g BoundaryFunc, prm FormParams) (b []float64, err error) {
	if err = checkOperatorArgs(U, m); err != nil {
		return
	}
	if g == nil {
		return nil, fmt.Errorf("nil excitation function")
	}
	var (
		msh = U.Msh
	)
	b = make([]float64, U.NumDofs())
	for _, be := range msh.BoundaryEdges {
		var (
			k      = be.Elem
			tri    = msh.EToV[k]
			grads, _ = ElementGradients(msh, k)
			mk     = m[k]
			alphaH = prm.Alpha / be.Length
			la, lb = localEdgeIndices(msh, be)
		)
		qx, qy, w, phi := edgeQuadrature(msh, be)
		g0, g1 := g(qx[0], qy[0]), g(qx[1], qy[1])
		// flux part: +∫ g m (∇v·n), the negated Nitsche symmetrization load
		for i := 0; i < 3; i++ {
			dn := grads[i][0]*be.Nx + grads[i][1]*be.Ny
			b[tri[i]] += mk * dn * w * (g0 + g1)
		}
		// penalty part: -α_h ∫ g v
		b[tri[la]] -= alphaH * w * (g0*phi[0][0] + g1*phi[1][0])
		b[tri[lb]] -= alphaH * w * (g0*phi[0][1] + g1*phi[1][1])
	}
	return
}

// AssembleExtraction assembles the detector functional c(u;μ) = ∫_Γ μ u ds.
func AssembleExtraction(U Space, mu BoundaryFunc) (c []float64, err error) {
	if U.P != 1 {
		return nil, fmt.Errorf("extraction functionals require the P1 solution space")
	}
	if mu == nil {
		return nil, fmt.Errorf("nil extraction function")
	}
	var (
		msh = U.Msh
	)
	c = make([]float64, U.NumDofs())
	for _, be := range msh.BoundaryEdges {
		qx, qy, w, phi := edgeQuadrature(msh, be)
		mu0, mu1 := mu(qx[0], qy[0]), mu(qx[1], qy[1])
		c[be.V[0]] += w * (mu0*phi[0][0] + mu1*phi[1][0])
		c[be.V[1]] += w * (mu0*phi[0][1] + mu1*phi[1][1])
	}
	return
}

// AssembleMass assembles the L2 mass matrix of the coefficient space. For
// the P0 space this is the diagonal of element areas; it stays a general
// sparse solve so the projection path does not special-case the basis.
func AssembleMass(M Space) (mass utils.CSR, err error) {
	if M.P != 0 {
		return utils.CSR{}, fmt.Errorf("coefficient space must be P0, have P%d", M.P)
	}
	var (
		n = M.NumDofs()
		d = utils.NewDOK(n, n)
	)
	for k := 0; k < M.Msh.K; k++ {
		d.Accumulate(k, k, M.Msh.Area[k])
	}
	mass = d.ToCSR()
	return
}

// AssembleSensitivity assembles the linear functional ṁ ↦ ȧ(ubar, lambda; ṁ)
// over the P0 coefficient dofs: the volume part area_k · ∇ubar|_k · ∇lambda|_k
// plus the Nitsche consistency/symmetrization derivative on boundary
// elements. The penalty term carries no coefficient dependence and drops out.
func AssembleSensitivity(M, U Space, ubar, lambda []float64) (out []float64, err error) {
	if M.Msh != U.Msh {
		return nil, fmt.Errorf("coefficient and solution spaces live on different meshes")
	}
	if len(ubar) != U.NumDofs() || len(lambda) != U.NumDofs() {
		return nil, fmt.Errorf("solution fields have %d and %d dofs, space has %d",
			len(ubar), len(lambda), U.NumDofs())
	}
	var (
		msh = U.Msh
	)
	out = make([]float64, M.NumDofs())
	for k := 0; k < msh.K; k++ {
		gu := P1Gradient(msh, k, ubar)
		gl := P1Gradient(msh, k, lambda)
		out[k] = DotAElement(gu, gl, msh.Area[k])
	}
	for _, be := range msh.BoundaryEdges {
		var (
			k  = be.Elem
			gu = P1Gradient(msh, k, ubar)
			gl = P1Gradient(msh, k, lambda)
		)
		dnU := gu[0]*be.Nx + gu[1]*be.Ny
		dnL := gl[0]*be.Nx + gl[1]*be.Ny
		// P1 traces integrate exactly by the trapezoid rule
		intL := be.Length / 2. * (lambda[be.V[0]] + lambda[be.V[1]])
		intU := be.Length / 2. * (ubar[be.V[0]] + ubar[be.V[1]])
		out[k] -= dnU*intL + dnL*intU
	}
	return
}

func checkOperatorArgs(U Space, m []float64) error {
	if U.P != 1 {
		return fmt.Errorf("operator assembly requires the P1 solution space, have P%d", U.P)
	}
	if len(m) != U.Msh.K {
		return fmt.Errorf("coefficient has %d dofs, mesh has %d elements", len(m), U.Msh.K)
	}
	return nil
}
