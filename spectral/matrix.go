package spectral

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is the non-negative intensity matrix (bins x scans) of one
// ScanWindow. Rows correspond to m/z bins, columns to scans. All
// entries are >= 0; construction rejects anything else.
//
// Matrix is read-only after construction. Consumers that need a
// mutable copy (e.g. to zero held-out entries before fitting) must
// work on Dense() clones.
type Matrix struct {
	window  ScanWindow
	data    *mat.Dense
	centers []float64
}

// NewMatrix wraps data as the spectral matrix of window. centers maps
// bin (row) index to the m/z bin center; it may be nil when no bin
// mapping is available (synthetic data in tests). The data is not
// copied; the caller must not mutate it afterwards.
func NewMatrix(window ScanWindow, data *mat.Dense, centers []float64) (*Matrix, error) {
	rows, cols := data.Dims()
	if cols != window.Scans() {
		return nil, fmt.Errorf("spectral: matrix has %d columns, window has %d scans", cols, window.Scans())
	}
	if centers != nil && len(centers) != rows {
		return nil, fmt.Errorf("spectral: %d bin centers for %d bins", len(centers), rows)
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := data.At(i, j); v < 0 {
				return nil, fmt.Errorf("spectral: negative intensity %g at bin %d, scan %d", v, i, j)
			}
		}
	}

	return &Matrix{window: window, data: data, centers: centers}, nil
}

// Window returns the ScanWindow this matrix was built from.
func (m *Matrix) Window() ScanWindow { return m.window }

// Dims returns (bins, scans).
func (m *Matrix) Dims() (bins, scans int) { return m.data.Dims() }

// At returns the intensity at bin i, scan column j.
func (m *Matrix) At(i, j int) float64 { return m.data.At(i, j) }

// Dense returns the underlying dense matrix. Callers must treat it as
// read-only; use Clone for a mutable copy.
func (m *Matrix) Dense() *mat.Dense { return m.data }

// Clone returns a mutable deep copy of the intensity data.
func (m *Matrix) Clone() *mat.Dense {
	var c mat.Dense
	c.CloneFrom(m.data)
	return &c
}

// BinCenter returns the m/z center of bin i, or 0 if no bin mapping
// was provided.
func (m *Matrix) BinCenter(i int) float64 {
	if m.centers == nil {
		return 0
	}
	return m.centers[i]
}

// NonZero returns the number of entries with intensity > 0.
func (m *Matrix) NonZero() int {
	rows, cols := m.data.Dims()
	n := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if m.data.At(i, j) > 0 {
				n++
			}
		}
	}
	return n
}
