// Package codec serialises record values for storage in byte-ordered buckets.
//
// Values are encoded as JSON and framed with a one-byte format tag. Payloads
// above CompressThreshold are snappy-compressed.
package codec

import (
	"github.com/golang/snappy"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const (
	formatJSON   byte = 'j'
	formatSnappy byte = 's'
)

// CompressThreshold is the encoded JSON size above which values are compressed.
const CompressThreshold = 256

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal encodes v.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "codec: marshal")
	}
	if len(raw) <= CompressThreshold {
		return append([]byte{formatJSON}, raw...), nil
	}
	out := make([]byte, 1, 1+snappy.MaxEncodedLen(len(raw)))
	out[0] = formatSnappy
	return append(out, snappy.Encode(nil, raw)...), nil
}

// Unmarshal decodes a value produced by Marshal. Objects decode as
// map[string]any, arrays as []any and numbers as float64.
func Unmarshal(b []byte) (any, error) {
	var v any
	if err := UnmarshalInto(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// UnmarshalInto decodes a value produced by Marshal into ptr.
func UnmarshalInto(b []byte, ptr any) error {
	if len(b) == 0 {
		return errors.New("codec: empty value")
	}
	raw := b[1:]
	switch b[0] {
	case formatJSON:
	case formatSnappy:
		var err error
		if raw, err = snappy.Decode(nil, raw); err != nil {
			return errors.Wrap(err, "codec: snappy")
		}
	default:
		return errors.Errorf("codec: unknown format 0x%02x", b[0])
	}
	if err := json.Unmarshal(raw, ptr); err != nil {
		return errors.Wrap(err, "codec: unmarshal")
	}
	return nil
}
