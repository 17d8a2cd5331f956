package store

import "github.com/dacapoday/zigzag"

var (
	ErrArgument         = zigzag.ErrArgument
	ErrInvalidOperation = zigzag.ErrInvalidOperation
	ErrInternal         = zigzag.ErrInternal
	ErrReadOnly         = zigzag.ErrReadOnly
	ErrConstraint       = zigzag.ErrConstraint
	ErrClosed           = zigzag.ErrClosed
	ErrNotFound         = zigzag.ErrNotFound
)
