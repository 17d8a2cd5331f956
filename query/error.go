package query

import "github.com/dacapoday/zigzag"

var ErrArgument = zigzag.ErrArgument
