package storage

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Codec converts values to and from their persisted form.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// JSONCodec is the default codec.
type JSONCodec struct{}

// Marshal encodes v as compact JSON.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes JSON data into v.
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns "json".
func (JSONCodec) Name() string { return "json" }

// YAMLCodec stores values as YAML documents, which keeps file-backed state
// readable by hand.
type YAMLCodec struct{}

// Marshal encodes v as YAML.
func (YAMLCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

// Unmarshal decodes YAML data into v.
func (YAMLCodec) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// Name returns "yaml".
func (YAMLCodec) Name() string { return "yaml" }

// CodecByName resolves "json" or "yaml". Unknown names return false.
func CodecByName(name string) (Codec, bool) {
	switch name {
	case "", "json":
		return JSONCodec{}, true
	case "yaml", "yml":
		return YAMLCodec{}, true
	default:
		return nil, false
	}
}
