package codec

import jsoniter "github.com/json-iterator/go"

var jsoniterAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Jsoniter is a JSON codec backed by github.com/json-iterator/go.
type Jsoniter struct{}

// Marshal encodes the value to JSON.
func (Jsoniter) Marshal(v any) ([]byte, error) { return jsoniterAPI.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (Jsoniter) Unmarshal(data []byte, v any) error { return jsoniterAPI.Unmarshal(data, v) }

// Name returns the unique name of the codec ("jsoniter").
func (Jsoniter) Name() string { return "jsoniter" }
