package key

import "github.com/dacapoday/zigzag"

var (
	ErrArgument     = zigzag.ErrArgument
	ErrInvalidRange = zigzag.ErrInvalidRange
)
