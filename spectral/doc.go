// Package spectral defines the input data model for windowed NMF tuning:
// scan windows, non-negative spectral matrices, and the ppm-based m/z
// discretizer that produces matrix rows (bins) from raw m/z values.
//
// ScanWindow and Matrix are immutable once constructed. A Matrix is the
// (bins x scans) intensity slice for exactly one ScanWindow; zero entries
// are legitimate structural zeros, not missing data. Held-out (masked)
// entries are tracked separately by the mask package.
package spectral
