package spectral

import "fmt"

// ScanWindow identifies a contiguous slice of acquisition scans that is
// factorized as one unit. Windows produced by a sliding scan filter may
// overlap; EdgeExclusion marks a margin of scans at both boundaries that
// the mask splitter must never sample from.
type ScanWindow struct {
	start         int
	end           int
	overlap       int
	edgeExclusion int
}

// NewScanWindow creates a window covering scans [start, end).
func NewScanWindow(start, end int, opts ...WindowOption) (ScanWindow, error) {
	if start < 0 || end <= start {
		return ScanWindow{}, fmt.Errorf("spectral: invalid scan range [%d, %d)", start, end)
	}

	w := ScanWindow{start: start, end: end}
	for _, opt := range opts {
		opt(&w)
	}

	if w.edgeExclusion < 0 || 2*w.edgeExclusion >= w.Scans() {
		return ScanWindow{}, fmt.Errorf("spectral: edge exclusion %d leaves no scans in window of width %d", w.edgeExclusion, w.Scans())
	}

	return w, nil
}

// WindowOption configures optional ScanWindow properties.
type WindowOption func(*ScanWindow)

// WithOverlap records the number of scans this window shares with its
// neighbours. Informational; it does not change window membership.
func WithOverlap(overlap int) WindowOption {
	return func(w *ScanWindow) { w.overlap = overlap }
}

// WithEdgeExclusion excludes a margin of n scans at both window
// boundaries from mask sampling.
func WithEdgeExclusion(n int) WindowOption {
	return func(w *ScanWindow) { w.edgeExclusion = n }
}

// Start returns the first scan index of the window (inclusive).
func (w ScanWindow) Start() int { return w.start }

// End returns the scan index one past the last scan of the window.
func (w ScanWindow) End() int { return w.end }

// Scans returns the number of scans in the window.
func (w ScanWindow) Scans() int { return w.end - w.start }

// Overlap returns the configured scan overlap with neighbouring windows.
func (w ScanWindow) Overlap() int { return w.overlap }

// EdgeExclusion returns the number of boundary scans excluded from
// mask sampling on each side.
func (w ScanWindow) EdgeExclusion() int { return w.edgeExclusion }

// Contains reports whether the absolute scan index lies in the window.
func (w ScanWindow) Contains(scan int) bool {
	return scan >= w.start && scan < w.end
}

// Interior reports whether the window-relative column col lies outside
// the excluded edge margins.
func (w ScanWindow) Interior(col int) bool {
	return col >= w.edgeExclusion && col < w.Scans()-w.edgeExclusion
}
