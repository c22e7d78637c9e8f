// Package linalg provides the dense matrix and vector primitives shared by
// the OLS and Bayesian regression paths. The engine never builds anything
// larger than a 3x3 precision matrix, but the kernel is written for general n.
package linalg

import (
	"fmt"
	"math"

	"baymv/domain/core"
)

// pivotTol is the magnitude below which a pivot is treated as zero and the
// matrix reported as singular.
const pivotTol = 1e-14

// choleskyFloor replaces non-positive diagonal terms that arise from rounding
// in near-degenerate covariance matrices, so the factorization never emits NaN.
const choleskyFloor = 1e-12

// Matrix is a dense row-major matrix.
type Matrix [][]float64

// Vector is a dense column vector.
type Vector []float64

// Zeros returns a rows x cols matrix of zeros.
func Zeros(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// Identity returns the n x n identity matrix.
func Identity(n int) Matrix {
	m := Zeros(n, n)
	for i := 0; i < n; i++ {
		m[i][i] = 1
	}
	return m
}

// Diagonal returns a square matrix with diag on the main diagonal.
func Diagonal(diag Vector) Matrix {
	m := Zeros(len(diag), len(diag))
	for i, d := range diag {
		m[i][i] = d
	}
	return m
}

// Rows returns the number of rows.
func (m Matrix) Rows() int { return len(m) }

// Cols returns the number of columns.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Clone returns a deep copy of m.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	return append(Vector(nil), v...)
}

// Transpose returns the transpose of m.
func (m Matrix) Transpose() Matrix {
	out := Zeros(m.Cols(), m.Rows())
	for i, row := range m {
		for j, val := range row {
			out[j][i] = val
		}
	}
	return out
}

// Add returns m + n. Dimension mismatches are programming errors and panic.
func (m Matrix) Add(n Matrix) Matrix {
	if m.Rows() != n.Rows() || m.Cols() != n.Cols() {
		panic(fmt.Sprintf("linalg: Add dimension mismatch %dx%d vs %dx%d", m.Rows(), m.Cols(), n.Rows(), n.Cols()))
	}
	out := Zeros(m.Rows(), m.Cols())
	for i, row := range m {
		for j, val := range row {
			out[i][j] = val + n[i][j]
		}
	}
	return out
}

// Scale returns s * m.
func (m Matrix) Scale(s float64) Matrix {
	out := Zeros(m.Rows(), m.Cols())
	for i, row := range m {
		for j, val := range row {
			out[i][j] = s * val
		}
	}
	return out
}

// Mul returns the matrix product m * n.
func (m Matrix) Mul(n Matrix) Matrix {
	if m.Cols() != n.Rows() {
		panic(fmt.Sprintf("linalg: Mul dimension mismatch %dx%d vs %dx%d", m.Rows(), m.Cols(), n.Rows(), n.Cols()))
	}
	out := Zeros(m.Rows(), n.Cols())
	for i := 0; i < m.Rows(); i++ {
		for k := 0; k < m.Cols(); k++ {
			mik := m[i][k]
			if mik == 0 {
				continue
			}
			for j := 0; j < n.Cols(); j++ {
				out[i][j] += mik * n[k][j]
			}
		}
	}
	return out
}

// MulVec returns the matrix-vector product m * v.
func (m Matrix) MulVec(v Vector) Vector {
	if m.Cols() != len(v) {
		panic(fmt.Sprintf("linalg: MulVec dimension mismatch %dx%d vs %d", m.Rows(), m.Cols(), len(v)))
	}
	out := make(Vector, m.Rows())
	for i, row := range m {
		sum := 0.0
		for j, val := range row {
			sum += val * v[j]
		}
		out[i] = sum
	}
	return out
}

// Dot returns the inner product of a and b.
func Dot(a, b Vector) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("linalg: Dot dimension mismatch %d vs %d", len(a), len(b)))
	}
	sum := 0.0
	for i, val := range a {
		sum += val * b[i]
	}
	return sum
}

// QuadraticForm returns v' * m * v.
func QuadraticForm(m Matrix, v Vector) float64 {
	return Dot(v, m.MulVec(v))
}

// Inverse inverts a square matrix by Gauss-Jordan elimination with partial
// pivoting. A pivot below the tolerance returns core.ErrSingularSystem so the
// caller can drop the offending candidate instead of unwinding the run.
func (m Matrix) Inverse() (Matrix, error) {
	n := m.Rows()
	if n == 0 || n != m.Cols() {
		panic(fmt.Sprintf("linalg: Inverse of non-square %dx%d matrix", m.Rows(), m.Cols()))
	}

	work := m.Clone()
	inv := Identity(n)

	for col := 0; col < n; col++ {
		// Partial pivoting: swap in the largest remaining pivot.
		pivotRow := col
		for r := col + 1; r < n; r++ {
			if math.Abs(work[r][col]) > math.Abs(work[pivotRow][col]) {
				pivotRow = r
			}
		}
		if math.Abs(work[pivotRow][col]) < pivotTol {
			return nil, core.ErrSingularSystem
		}
		work[col], work[pivotRow] = work[pivotRow], work[col]
		inv[col], inv[pivotRow] = inv[pivotRow], inv[col]

		pivot := work[col][col]
		for j := 0; j < n; j++ {
			work[col][j] /= pivot
			inv[col][j] /= pivot
		}

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := work[r][col]
			if factor == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				work[r][j] -= factor * work[col][j]
				inv[r][j] -= factor * inv[col][j]
			}
		}
	}

	return inv, nil
}

// Det returns the determinant. Orders 1 through 3 use the closed forms; larger
// matrices fall back to LU decomposition with partial pivoting.
func (m Matrix) Det() float64 {
	n := m.Rows()
	if n == 0 || n != m.Cols() {
		panic(fmt.Sprintf("linalg: Det of non-square %dx%d matrix", m.Rows(), m.Cols()))
	}

	switch n {
	case 1:
		return m[0][0]
	case 2:
		return m[0][0]*m[1][1] - m[0][1]*m[1][0]
	case 3:
		return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
			m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
			m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	}

	// LU with partial pivoting; the determinant is the signed product of the
	// diagonal of U.
	work := m.Clone()
	det := 1.0
	for col := 0; col < n; col++ {
		pivotRow := col
		for r := col + 1; r < n; r++ {
			if math.Abs(work[r][col]) > math.Abs(work[pivotRow][col]) {
				pivotRow = r
			}
		}
		if math.Abs(work[pivotRow][col]) < pivotTol {
			return 0
		}
		if pivotRow != col {
			work[col], work[pivotRow] = work[pivotRow], work[col]
			det = -det
		}
		det *= work[col][col]
		for r := col + 1; r < n; r++ {
			factor := work[r][col] / work[col][col]
			for j := col; j < n; j++ {
				work[r][j] -= factor * work[col][j]
			}
		}
	}
	return det
}

// Cholesky returns the lower-triangular factor L with m = L * L'. The input
// must be symmetric positive semi-definite; diagonal terms driven non-positive
// by rounding are floored so the factor stays finite.
func (m Matrix) Cholesky() Matrix {
	n := m.Rows()
	if n != m.Cols() {
		panic(fmt.Sprintf("linalg: Cholesky of non-square %dx%d matrix", m.Rows(), m.Cols()))
	}

	lower := Zeros(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := m[i][j]
			for k := 0; k < j; k++ {
				sum -= lower[i][k] * lower[j][k]
			}
			if i == j {
				if sum < choleskyFloor {
					sum = choleskyFloor
				}
				lower[i][i] = math.Sqrt(sum)
			} else {
				lower[i][j] = sum / lower[j][j]
			}
		}
	}
	return lower
}
