package memory

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/go-faster/jx"
)

// ReadRecords decodes records from r. The input is either a JSON array of
// objects or newline-delimited JSON objects.
func ReadRecords(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		return readArray(trimmed)
	}
	return readLines(trimmed)
}

func readArray(data []byte) ([]Record, error) {
	var records []Record
	d := jx.DecodeBytes(data)
	err := d.Arr(func(d *jx.Decoder) error {
		rec, err := decodeRecord(d)
		if err != nil {
			return fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func readLines(data []byte) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		rec, err := decodeRecord(jx.DecodeBytes(b))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeRecord(d *jx.Decoder) (Record, error) {
	if d.Next() != jx.Object {
		return nil, fmt.Errorf("expected object, got %s", d.Next())
	}
	rec := make(Record)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		v, err := decodeValue(d)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		rec[key] = v
		return nil
	})
	return rec, err
}

func decodeValue(d *jx.Decoder) (any, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		return d.Float64()
	case jx.Bool:
		return d.Bool()
	case jx.Null:
		return nil, d.Null()
	case jx.Array:
		var out []any
		err := d.Arr(func(d *jx.Decoder) error {
			v, err := decodeValue(d)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		})
		return out, err
	case jx.Object:
		m := make(map[string]any)
		err := d.Obj(func(d *jx.Decoder, key string) error {
			v, err := decodeValue(d)
			if err != nil {
				return err
			}
			m[key] = v
			return nil
		})
		return m, err
	default:
		return nil, d.Skip()
	}
}
