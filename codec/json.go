package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Histories, hyperparameters and manifests are plain structs with JSON
// tags, so JSON keeps persisted runs portable and diffable. Factor
// matrices are float64 slices and round-trip exactly; JSON numbers are
// only lossy beyond float64 precision, which nothing here exceeds.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec new run artifacts are written with. Manifests
// are self-describing, so changing the default never breaks loads of
// existing runs.
var Default Codec = JSON{}
