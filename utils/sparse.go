package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK wraps a sparse dictionary-of-keys matrix used during assembly.
// Entries accumulate with Accumulate and the result converts to CSR once.
type DOK struct {
	M *sparse.DOK
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{sparse.NewDOK(nr, nc)}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix      { return m.M.T() }

// Accumulate adds val into entry (i,j), the usual FEM assembly operation.
func (m DOK) Accumulate(i, j int, val float64) {
	if val == 0 {
		return
	}
	m.M.Set(i, j, m.M.At(i, j)+val)
}

func (m DOK) ToCSR() CSR {
	return CSR{M: m.M.ToCSR()}
}

// CSR wraps a compressed sparse row matrix, the operator storage format.
type CSR struct {
	M *sparse.CSR
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }

func (m CSR) IsEmpty() bool { return m.M == nil }

func (m CSR) NNZ() int { return m.M.NNZ() }

// Data returns the nonzero values backing the matrix.
func (m CSR) Data() []float64 {
	return m.RawMatrix().Data
}

// MulVecTo computes dst = m*x using the raw CSR storage. This is the matrix
// action handed to the iterative solver.
func (m CSR) MulVecTo(dst, x []float64) {
	var (
		nr, nc = m.Dims()
		raw    = m.RawMatrix()
	)
	if len(x) != nc || len(dst) != nr {
		panic(fmt.Errorf("dimension mismatch in MulVecTo: dims = %d x %d, len(x) = %d, len(dst) = %d",
			nr, nc, len(x), len(dst)))
	}
	for i := 0; i < nr; i++ {
		var sum float64
		for p := raw.Indptr[i]; p < raw.Indptr[i+1]; p++ {
			sum += raw.Data[p] * x[raw.Ind[p]]
		}
		dst[i] = sum
	}
}
