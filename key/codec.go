package key

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/pkg/errors"
)

const (
	tagEnd    = 0x00
	tagNumber = 0x10
	tagDate   = 0x20
	tagText   = 0x30
	tagArray  = 0x50
	escape    = 0xFF
)

// Encode returns the order-preserving encoding of k:
// bytes.Compare(Encode(a), Encode(b)) == Compare(a, b) for all valid keys.
//
// The encoding is self-delimiting, so encodings can be concatenated and
// decoded back one key at a time with DecodeOne. Encode panics on an
// invalid key; validate with Normalize first.
func Encode(k Key) []byte {
	return appendKey(nil, k, true)
}

// AppendEncode appends the encoding of k to dst.
func AppendEncode(dst []byte, k Key) []byte {
	return appendKey(dst, k, true)
}

// EncodePrefix returns the encoding of k without its terminator, so that the
// encoding of every key with k as prefix (see HasPrefix) starts with it.
// Numbers and dates have no terminator and encode in full.
func EncodePrefix(k Key) []byte {
	return appendKey(nil, k, false)
}

// Successor returns the smallest byte string greater than every encoding
// that begins with b. It is used as the exclusive upper bound of a prefix
// scan: no encoding contains the byte 0xFF right after a complete element.
func Successor(b []byte) []byte {
	out := make([]byte, len(b), len(b)+1)
	copy(out, b)
	return append(out, escape)
}

func appendKey(dst []byte, k Key, terminate bool) []byte {
	switch kindOf(k) {
	case number:
		f, _ := toFloat(k)
		return appendFloat(append(dst, tagNumber), f)
	case date:
		n := uint64(k.(time.Time).UnixNano()) ^ (1 << 63)
		return binary.BigEndian.AppendUint64(append(dst, tagDate), n)
	case text:
		dst = append(dst, tagText)
		s := k.(string)
		for i := 0; i < len(s); i++ {
			dst = append(dst, s[i])
			if s[i] == tagEnd {
				dst = append(dst, escape)
			}
		}
		if terminate {
			dst = append(dst, tagEnd)
		}
		return dst
	case array:
		dst = append(dst, tagArray)
		for _, e := range elements(k) {
			dst = appendKey(dst, e, true)
		}
		if terminate {
			dst = append(dst, tagEnd)
		}
		return dst
	}
	panic(errors.Wrapf(ErrArgument, "key: cannot encode %T", k))
}

func appendFloat(dst []byte, f float64) []byte {
	if f == 0 {
		f = 0 // -0 encodes as 0
	}
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits ^= 1 << 63
	}
	return binary.BigEndian.AppendUint64(dst, bits)
}

// Decode decodes a single key that spans all of b.
func Decode(b []byte) (Key, error) {
	k, rest, err := DecodeOne(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.Errorf("key: %d trailing bytes", len(rest))
	}
	return k, nil
}

// DecodeOne decodes the key at the start of b and returns the remaining bytes.
func DecodeOne(b []byte) (Key, []byte, error) {
	if len(b) == 0 {
		return nil, nil, errors.New("key: empty encoding")
	}
	switch b[0] {
	case tagNumber:
		if len(b) < 9 {
			return nil, nil, errors.New("key: short number")
		}
		bits := binary.BigEndian.Uint64(b[1:9])
		if bits&(1<<63) != 0 {
			bits ^= 1 << 63
		} else {
			bits = ^bits
		}
		return math.Float64frombits(bits), b[9:], nil
	case tagDate:
		if len(b) < 9 {
			return nil, nil, errors.New("key: short date")
		}
		n := int64(binary.BigEndian.Uint64(b[1:9]) ^ (1 << 63))
		return time.Unix(0, n).UTC(), b[9:], nil
	case tagText:
		var s []byte
		for i := 1; i < len(b); i++ {
			if b[i] != tagEnd {
				s = append(s, b[i])
				continue
			}
			if i+1 < len(b) && b[i+1] == escape {
				s = append(s, tagEnd)
				i++
				continue
			}
			return string(s), b[i+1:], nil
		}
		return nil, nil, errors.New("key: unterminated string")
	case tagArray:
		out := []any{}
		rest := b[1:]
		for len(rest) > 0 {
			if rest[0] == tagEnd {
				return out, rest[1:], nil
			}
			e, r, err := DecodeOne(rest)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, e)
			rest = r
		}
		return nil, nil, errors.New("key: unterminated array")
	}
	return nil, nil, errors.Errorf("key: unknown tag 0x%02x", b[0])
}
