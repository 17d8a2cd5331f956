package key

import (
	"fmt"

	"github.com/pkg/errors"
)

// Range is an immutable interval over keys. A nil *Range is unbounded.
type Range struct {
	lower, upper         Key
	lowerOpen, upperOpen bool
	prefix               Key
}

// Only returns the range containing exactly k.
func Only(k Key) (*Range, error) {
	return Bound(k, k, false, false)
}

// Bound returns the range between lower and upper.
// Either bound may be nil, meaning unbounded on that side.
func Bound(lower, upper Key, lowerOpen, upperOpen bool) (*Range, error) {
	r := &Range{lowerOpen: lowerOpen, upperOpen: upperOpen}
	if lower != nil {
		k, err := Normalize(lower)
		if err != nil {
			return nil, errors.WithMessage(err, "lower bound")
		}
		r.lower = k
	} else {
		r.lowerOpen = false
	}
	if upper != nil {
		k, err := Normalize(upper)
		if err != nil {
			return nil, errors.WithMessage(err, "upper bound")
		}
		r.upper = k
	} else {
		r.upperOpen = false
	}
	if r.lower != nil && r.upper != nil {
		c := Compare(r.lower, r.upper)
		if c > 0 {
			return nil, errors.Wrapf(ErrInvalidRange, "lower bound %v is above upper bound %v", r.lower, r.upper)
		}
		if c == 0 && (lowerOpen || upperOpen) {
			return nil, errors.Wrapf(ErrInvalidRange, "empty range around %v", r.lower)
		}
	}
	return r, nil
}

// LowerBound returns the range of keys above k (or at k when open is false).
func LowerBound(k Key, open bool) (*Range, error) {
	if k == nil {
		return nil, errors.Wrap(ErrArgument, "key: nil lower bound")
	}
	return Bound(k, nil, open, false)
}

// UpperBound returns the range of keys below k (or at k when open is false).
func UpperBound(k Key, open bool) (*Range, error) {
	if k == nil {
		return nil, errors.Wrap(ErrArgument, "key: nil upper bound")
	}
	return Bound(nil, k, false, open)
}

// Starts returns the range of keys that begin with prefix. See HasPrefix.
func Starts(prefix Key) (*Range, error) {
	k, err := Normalize(prefix)
	if err != nil {
		return nil, errors.WithMessage(err, "prefix")
	}
	if kindOf(k) == number || kindOf(k) == date {
		return Only(k)
	}
	return &Range{lower: k, prefix: k}, nil
}

// Where builds a range from a comparison operator: one of
// "=", "<", "<=", ">", ">=" or "^" (starts with).
func Where(op string, v Key) (*Range, error) {
	switch op {
	case "=", "==":
		return Only(v)
	case "<":
		return UpperBound(v, true)
	case "<=":
		return UpperBound(v, false)
	case ">":
		return LowerBound(v, true)
	case ">=":
		return LowerBound(v, false)
	case "^":
		return Starts(v)
	}
	return nil, errors.Wrapf(ErrArgument, "key: unknown operator %q", op)
}

// Between builds a range from a lower operator (">" or ">=") and an upper
// operator ("<" or "<=").
func Between(lowOp string, low Key, highOp string, high Key) (*Range, error) {
	var lowerOpen, upperOpen bool
	switch lowOp {
	case ">":
		lowerOpen = true
	case ">=":
	default:
		return nil, errors.Wrapf(ErrArgument, "key: %q is not a lower bound operator", lowOp)
	}
	switch highOp {
	case "<":
		upperOpen = true
	case "<=":
	default:
		return nil, errors.Wrapf(ErrArgument, "key: %q is not an upper bound operator", highOp)
	}
	if low == nil || high == nil {
		return nil, errors.Wrap(ErrArgument, "key: nil bound")
	}
	return Bound(low, high, lowerOpen, upperOpen)
}

func (r *Range) Lower() Key {
	if r == nil {
		return nil
	}
	return r.lower
}

func (r *Range) Upper() Key {
	if r == nil {
		return nil
	}
	return r.upper
}

func (r *Range) LowerOpen() bool { return r != nil && r.lowerOpen }
func (r *Range) UpperOpen() bool { return r != nil && r.upperOpen }

// Prefix returns the prefix of a Starts range, or nil.
func (r *Range) Prefix() Key {
	if r == nil {
		return nil
	}
	return r.prefix
}

// Locate returns -1 if k lies below the range, 1 if above and 0 if inside.
func (r *Range) Locate(k Key) int {
	if r == nil {
		return 0
	}
	if r.prefix != nil {
		if HasPrefix(k, r.prefix) {
			return 0
		}
		if Compare(k, r.prefix) < 0 {
			return -1
		}
		return 1
	}
	if r.lower != nil {
		c := Compare(k, r.lower)
		if c < 0 || (c == 0 && r.lowerOpen) {
			return -1
		}
	}
	if r.upper != nil {
		c := Compare(k, r.upper)
		if c > 0 || (c == 0 && r.upperOpen) {
			return 1
		}
	}
	return 0
}

// Contains reports whether k lies inside the range.
func (r *Range) Contains(k Key) bool {
	return Valid(k) && r.Locate(k) == 0
}

// PrefixLen returns the number of leading array elements fixed by the range:
// the prefix length of a Starts range over arrays, or the length of the common
// leading elements of array lower and upper bounds. It is zero otherwise.
func (r *Range) PrefixLen() int {
	if r == nil {
		return 0
	}
	if r.prefix != nil {
		return max(Len(r.prefix), 0)
	}
	if Len(r.lower) < 0 || Len(r.upper) < 0 {
		return 0
	}
	lo, hi := elements(r.lower), elements(r.upper)
	n := 0
	for n < len(lo) && n < len(hi) && Compare(lo[n], hi[n]) == 0 {
		n++
	}
	return n
}

// LowerBytes returns the encoded position a forward scan starts from,
// or nil when the range has no lower bound.
func (r *Range) LowerBytes() []byte {
	if r == nil || r.lower == nil {
		return nil
	}
	return Encode(r.lower)
}

// UpperBytes returns the encoded position a reverse scan starts from: every
// encoding inside the range sorts at or below it. It returns nil when the
// range has no upper bound.
func (r *Range) UpperBytes() []byte {
	switch {
	case r == nil:
		return nil
	case r.prefix != nil:
		return Successor(EncodePrefix(r.prefix))
	case r.upper == nil:
		return nil
	case r.upperOpen:
		return Encode(r.upper)
	}
	return Successor(Encode(r.upper))
}

func (r *Range) String() string {
	if r == nil {
		return "(-inf, +inf)"
	}
	if r.prefix != nil {
		return fmt.Sprintf("^%v", r.prefix)
	}
	lb, ub := "[", "]"
	if r.lowerOpen || r.lower == nil {
		lb = "("
	}
	if r.upperOpen || r.upper == nil {
		ub = ")"
	}
	lo, hi := any("-inf"), any("+inf")
	if r.lower != nil {
		lo = r.lower
	}
	if r.upper != nil {
		hi = r.upper
	}
	return fmt.Sprintf("%s%v, %v%s", lb, lo, hi, ub)
}
