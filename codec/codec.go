// Package codec centralizes index document encoding and compression.
//
// Persisted index blobs are self-describing through their manifest, which
// records the codec name and compression used to write them. Changing the
// default codec never breaks existing catalogs.
package codec

import (
	"errors"
	"fmt"
)

// ErrUnknownCodec is returned when a codec or compression name is not recognized.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "jsoniter":
		return Jsoniter{}, true
	default:
		return nil, false
	}
}

// Lookup is ByName returning ErrUnknownCodec for unknown names.
// An empty name selects Default.
func Lookup(name string) (Codec, error) {
	if name == "" {
		return Default, nil
	}
	c, ok := ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	return c, nil
}

// Names lists the built-in codec names.
func Names() []string {
	return []string{"json", "go-json", "jsoniter"}
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
