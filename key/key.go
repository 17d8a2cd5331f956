// Package key defines the keys the engine orders, the comparator over them,
// key ranges, and an order-preserving byte encoding for byte-ordered backends.
package key

import (
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Key is a number, string, date or array of keys.
//
// Numbers are held as float64, dates as time.Time, strings as string and
// arrays as []any. Normalize converts the other accepted Go representations
// (integers, []string, []int, ...) into these canonical forms.
type Key = any

type kind uint8

const (
	invalid kind = iota
	number
	date
	text
	array
)

func kindOf(k Key) kind {
	switch v := k.(type) {
	case float64:
		if math.IsNaN(v) {
			return invalid
		}
		return number
	case float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return number
	case time.Time:
		return date
	case string:
		return text
	case []any, []string, []float64, []int, []int64, []time.Time:
		return array
	}
	return invalid
}

// Normalize validates k and returns its canonical form.
func Normalize(k Key) (Key, error) {
	switch v := k.(type) {
	case float64:
		if math.IsNaN(v) {
			return nil, errors.Wrap(ErrArgument, "key: NaN is not a valid key")
		}
		if v == 0 {
			return float64(0), nil
		}
		return v, nil
	case string:
		return v, nil
	case time.Time:
		return v, nil
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			n, err := Normalize(e)
			if err != nil {
				return nil, errors.WithMessagef(err, "key: array element %d", i)
			}
			out[i] = n
		}
		return out, nil
	case []string:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, nil
	case []float64:
		out := make([]any, len(v))
		for i, e := range v {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case []int:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = float64(e)
		}
		return out, nil
	case []int64:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = float64(e)
		}
		return out, nil
	case []time.Time:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, nil
	}
	if f, ok := toFloat(k); ok {
		return Normalize(f)
	}
	return nil, errors.Wrapf(ErrArgument, "key: unsupported key type %T", k)
}

// Valid reports whether k is a permitted key.
func Valid(k Key) bool {
	_, err := Normalize(k)
	return err == nil
}

func toFloat(k Key) (float64, bool) {
	switch v := k.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func elements(k Key) []any {
	switch v := k.(type) {
	case []any:
		return v
	}
	n, err := Normalize(k)
	if err != nil {
		return nil
	}
	out, _ := n.([]any)
	return out
}

// Compare returns -1, 0 or 1 as a sorts before, equal to, or after b.
//
// Numbers sort before dates, dates before strings and strings before arrays.
// Arrays compare element-wise; an array that is a prefix of another sorts
// first. Compare panics if either argument is not a valid key.
func Compare(a, b Key) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka == invalid || kb == invalid {
		panic(errors.Wrapf(ErrArgument, "key: cannot compare %T with %T", a, b))
	}
	if ka != kb {
		if ka < kb {
			return -1
		}
		return 1
	}
	switch ka {
	case number:
		x, _ := toFloat(a)
		y, _ := toFloat(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case date:
		return a.(time.Time).Compare(b.(time.Time))
	case text:
		return strings.Compare(a.(string), b.(string))
	}
	x, y := elements(a), elements(b)
	for i := 0; i < len(x) && i < len(y); i++ {
		if c := Compare(x[i], y[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(x) < len(y):
		return -1
	case len(x) > len(y):
		return 1
	}
	return 0
}

// Equal reports whether a and b are valid keys that compare equal.
// Unlike Compare it never panics.
func Equal(a, b Key) bool {
	if a == nil || b == nil || !Valid(a) || !Valid(b) {
		return false
	}
	return Compare(a, b) == 0
}

// HasPrefix reports whether k starts with prefix: a string prefix for strings,
// an element-wise prefix for arrays and equality for numbers and dates.
func HasPrefix(k, prefix Key) bool {
	kk, kp := kindOf(k), kindOf(prefix)
	if kk == invalid || kk != kp {
		return false
	}
	switch kk {
	case text:
		return strings.HasPrefix(k.(string), prefix.(string))
	case array:
		x, p := elements(k), elements(prefix)
		if len(x) < len(p) {
			return false
		}
		for i := range p {
			if Compare(x[i], p[i]) != 0 {
				return false
			}
		}
		return true
	}
	return Compare(k, prefix) == 0
}

// Len returns the number of elements of an array key, or -1 for other keys.
func Len(k Key) int {
	if kindOf(k) != array {
		return -1
	}
	return len(elements(k))
}

// Slice returns elements [from:] of an array key as a new array key.
// Non-array keys are returned unchanged when from is zero, nil otherwise.
func Slice(k Key, from int) Key {
	if kindOf(k) != array {
		if from == 0 {
			return k
		}
		return nil
	}
	x := elements(k)
	if from > len(x) {
		return []any{}
	}
	return append([]any(nil), x[from:]...)
}

// Join appends the elements of suffix to the array key prefix. A non-array
// suffix is appended as a single element.
func Join(prefix, suffix Key) Key {
	out := append([]any(nil), elements(prefix)...)
	if kindOf(suffix) == array {
		return append(out, elements(suffix)...)
	}
	return append(out, suffix)
}
