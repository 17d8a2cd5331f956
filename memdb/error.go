package memdb

import "github.com/dacapoday/zigzag"

var (
	ErrClosed   = zigzag.ErrClosed
	ErrReadOnly = zigzag.ErrReadOnly
	ErrArgument = zigzag.ErrArgument
)
