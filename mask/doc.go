// Package mask implements entry-level cross-validation splitting for
// non-negative spectral matrices.
//
// Ordinary row- or column-wise cross-validation is unsafe for matrix
// factorization: removing whole scans or bins changes the problem the
// factorization solves. The splitter here instead partitions individual
// matrix entries into K disjoint test sets, and training proceeds on the
// full-shape matrix with the held-out entries zeroed. Masks distinguish
// held-out entries from structural zeros, which the matrix treats as
// real (zero-intensity) signal.
//
// Entry sets are held in roaring bitmaps over row-major flattened cell
// indices, which keeps masks cheap to store, intersect and iterate even
// for large windows.
package mask
