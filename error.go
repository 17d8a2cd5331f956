package zigzag

import "github.com/pkg/errors"

var (
	ErrArgument         = errors.New("invalid argument")
	ErrInvalidRange     = errors.New("invalid key range")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInternal         = errors.New("internal error")
	ErrReadOnly         = errors.New("read-only")
	ErrConstraint       = errors.New("constraint violation")
	ErrClosed           = errors.New("closed")
	ErrNotFound         = errors.New("not found")
)
