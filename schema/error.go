package schema

import "github.com/dacapoday/zigzag"

var (
	ErrArgument = zigzag.ErrArgument
	ErrNotFound = zigzag.ErrNotFound
)
