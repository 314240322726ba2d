package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix(t *testing.T) {
	// Transpose
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		A := M.Transpose()
		aNr, aNc := A.Dims()
		assert.Equal(t, 3, aNr)
		assert.Equal(t, 2, aNc)
		assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, A.DataP)
	}
	// Mul and MulVec agree
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		b := []float64{1, -1, 2}
		x := M.MulVec(b)
		assert.InDeltaSlice(t, []float64{5, 11}, x, 1e-14)

		B := NewMatrix(3, 1, b)
		X := M.Mul(B)
		assert.InDeltaSlice(t, x, X.DataP, 1e-14)
	}
	// Col / Row views copy out the right data
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		assert.Equal(t, []float64{2, 5}, M.Col(1).DataP)
		assert.Equal(t, []float64{4, 5, 6}, M.Row(1).DataP)
	}
	// Chained mutators
	{
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		M.Scale(2).Apply(math.Sqrt)
		assert.InDeltaSlice(t, []float64{math.Sqrt2, 2, math.Sqrt(6), math.Sqrt(8)}, M.DataP, 1e-14)
		assert.InDelta(t, math.Sqrt2, M.Min(), 1e-14)
		assert.InDelta(t, math.Sqrt(8), M.Max(), 1e-14)
	}
	// SumSq is the squared Frobenius norm
	{
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		assert.InDelta(t, 30., M.SumSq(), 1e-14)
	}
}

func TestVector(t *testing.T) {
	{
		v := NewVector(3, []float64{3, -4, 0})
		assert.InDelta(t, 5., v.Norm2(), 1e-14)
		assert.InDelta(t, -4., v.Min(), 1e-14)
		assert.InDelta(t, 3., v.Max(), 1e-14)
	}
	{
		v := NewVector(4).Set(2).Scale(0.5)
		assert.Equal(t, []float64{1, 1, 1, 1}, v.DataP)
		w := v.Copy().Apply(func(x float64) float64 { return x + 1 })
		assert.InDelta(t, 8., v.Dot(w), 1e-14)
	}
	{
		assert.InDelta(t, 11., DotSlices([]float64{1, 2, 3}, []float64{3, 1, 2}), 1e-14)
		assert.Equal(t, []float64{7, 7}, ConstSlice(7, 2))
	}
}
