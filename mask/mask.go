package mask

import (
	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/mat"
)

// Mask marks a set of matrix entries. Entries are addressed by their
// row-major flattened index (row*cols + col) in a roaring bitmap.
//
// A Mask is immutable once returned by the Splitter.
type Mask struct {
	rows int
	cols int
	set  *roaring.Bitmap
}

// newMask wraps a bitmap as a mask over a rows x cols matrix.
func newMask(rows, cols int, set *roaring.Bitmap) *Mask {
	return &Mask{rows: rows, cols: cols, set: set}
}

// Dims returns the matrix shape this mask addresses.
func (m *Mask) Dims() (rows, cols int) { return m.rows, m.cols }

// Contains reports whether entry (i, j) is in the mask.
func (m *Mask) Contains(i, j int) bool {
	return m.set.Contains(uint32(i*m.cols + j))
}

// Cardinality returns the number of entries in the mask.
func (m *Mask) Cardinality() int {
	return int(m.set.GetCardinality())
}

// Intersects reports whether the two masks share any entry.
func (m *Mask) Intersects(other *Mask) bool {
	return m.set.Intersects(other.set)
}

// Range calls fn for every entry in the mask, in ascending flattened
// order. fn returning false stops the iteration.
func (m *Mask) Range(fn func(i, j int) bool) {
	it := m.set.Iterator()
	for it.HasNext() {
		idx := int(it.Next())
		if !fn(idx/m.cols, idx%m.cols) {
			return
		}
	}
}

// Zero returns a copy of data with every masked entry set to zero.
// This is how held-out entries are hidden from the fitter while the
// matrix keeps its shape.
func (m *Mask) Zero(data *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.CloneFrom(data)
	m.Range(func(i, j int) bool {
		out.Set(i, j, 0)
		return true
	})
	return &out
}
