// Package blobstore abstracts where tuning artifacts live.
//
// Artifacts (trial histories, fitted factor matrices, run manifests)
// are small immutable blobs written once and read back whole, so the
// Store interface is deliberately coarse: Put, Get, List, Delete.
// Backends cover local disk, process memory, S3 and MinIO; the
// CompressedStore wrapper adds transparent zstd or lz4 compression on
// top of any of them.
//
// Implementations must be safe for concurrent use.
package blobstore
