package boltdb

import "github.com/dacapoday/zigzag"

var (
	ErrClosed   = zigzag.ErrClosed
	ErrReadOnly = zigzag.ErrReadOnly
)
