// Package artifact persists tuning runs to a blob store.
//
// A run is stored under runs/<id>/ as individual blobs (trial history,
// refit model, configuration) plus a manifest. The manifest is written
// last and names every blob and the codec they were encoded with, so a
// run is visible to readers only once it is complete: a crashed save
// leaves stray blobs but never a readable half-run.
package artifact
