// Package selection picks the winning hyperparameter configuration
// from a completed search history and refits it on the full,
// unmasked window matrix.
//
// Ranking is pluggable via the Policy interface. The harmonic-mean
// policy scalarizes the configured objective fields across the viable
// trial population; the lexicographic policy compares target scores
// field by field.
package selection
