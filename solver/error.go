package solver

import "github.com/dacapoday/zigzag"

var (
	ErrArgument = zigzag.ErrArgument
	ErrInternal = zigzag.ErrInternal
)
