package scan

import "github.com/dacapoday/zigzag"

var (
	ErrArgument         = zigzag.ErrArgument
	ErrInvalidOperation = zigzag.ErrInvalidOperation
	ErrInternal         = zigzag.ErrInternal
)
