package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Discretizer maps m/z values onto a geometric bin grid over
// [MzLow, MzHigh). Bin widths are relative: each bin spans
// Tolerance/Steps ppm, so the mapped center of any m/z value is
// guaranteed to lie within Tolerance ppm of the input. Steps > 1
// sub-divides the nominal Tolerance-wide bins, which is how the
// binning stage trades resolution against matrix density.
type Discretizer struct {
	MzLow     float64
	MzHigh    float64
	Tolerance float64 // ppm
	Steps     int
}

// NewDiscretizer validates and returns a Discretizer.
func NewDiscretizer(mzLow, mzHigh, tolerancePPM float64, steps int) (*Discretizer, error) {
	switch {
	case mzLow <= 0 || mzHigh <= mzLow:
		return nil, fmt.Errorf("spectral: invalid m/z range [%g, %g)", mzLow, mzHigh)
	case tolerancePPM <= 0:
		return nil, fmt.Errorf("spectral: tolerance must be positive, got %g ppm", tolerancePPM)
	case steps < 1:
		return nil, fmt.Errorf("spectral: steps must be >= 1, got %d", steps)
	}
	return &Discretizer{MzLow: mzLow, MzHigh: mzHigh, Tolerance: tolerancePPM, Steps: steps}, nil
}

// ratio is the multiplicative width of one bin.
func (d *Discretizer) ratio() float64 {
	return 1 + d.Tolerance*1e-6/float64(d.Steps)
}

// NumBins returns the number of bins covering [MzLow, MzHigh).
func (d *Discretizer) NumBins() int {
	return int(math.Ceil(math.Log(d.MzHigh/d.MzLow) / math.Log(d.ratio())))
}

// Bin returns the bin index for mz, or -1 if mz lies outside the range.
func (d *Discretizer) Bin(mz float64) int {
	if mz < d.MzLow || mz >= d.MzHigh {
		return -1
	}
	return int(math.Log(mz/d.MzLow) / math.Log(d.ratio()))
}

// Center returns the m/z center (geometric midpoint) of bin i.
func (d *Discretizer) Center(i int) float64 {
	r := d.ratio()
	return d.MzLow * math.Pow(r, float64(i)+0.5)
}

// Centers returns the m/z centers of all bins.
func (d *Discretizer) Centers() []float64 {
	n := d.NumBins()
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Center(i)
	}
	return out
}

// Peak is one centroided (m/z, intensity) pair of a scan.
type Peak struct {
	Mz        float64
	Intensity float64
}

// Binner accumulates per-scan peak lists into the spectral matrix of
// one window. Peaks falling into the same bin within a scan are summed.
type Binner struct {
	disc   *Discretizer
	window ScanWindow
	data   *mat.Dense
}

// NewBinner creates a Binner for window using disc's bin grid.
func NewBinner(disc *Discretizer, window ScanWindow) *Binner {
	return &Binner{
		disc:   disc,
		window: window,
		data:   mat.NewDense(disc.NumBins(), window.Scans(), nil),
	}
}

// AddScan bins the peaks of the absolute scan index into the matrix.
// Scans outside the window and peaks outside the m/z range are ignored.
func (b *Binner) AddScan(scan int, peaks []Peak) {
	if !b.window.Contains(scan) {
		return
	}
	col := scan - b.window.Start()
	for _, p := range peaks {
		if p.Intensity <= 0 {
			continue
		}
		bin := b.disc.Bin(p.Mz)
		if bin < 0 {
			continue
		}
		b.data.Set(bin, col, b.data.At(bin, col)+p.Intensity)
	}
}

// Matrix finalizes the accumulated data into an immutable Matrix.
func (b *Binner) Matrix() (*Matrix, error) {
	return NewMatrix(b.window, b.data, b.disc.Centers())
}
