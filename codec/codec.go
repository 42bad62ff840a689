// Package codec centralizes artifact encoding.
//
// Codec selection is a breaking-change boundary: persisted run
// artifacts record the codec name in their manifest, and bytes written
// by one codec may not decode under another.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Run manifests store the codec name, so histories and models written
// by older runs decode with the codec they were written with.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	default:
		return nil, false
	}
}
