// Package objective scores fitted NMF models against held-out data.
//
// A single fit is judged by several disagreeing objectives at once:
// reconstruction fidelity on masked entries, overfit ratio between
// train and test error, orthogonality of the component profiles, their
// sparsity, and how window-local the components are. No scalar wins by
// itself; the full vector travels with every trial and is only
// scalarized (distance-to-target scores, min-max scaled, harmonic mean)
// where a single ranking is unavoidable: for Bayesian proposals and for
// final selection.
package objective
