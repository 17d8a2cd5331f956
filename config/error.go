package config

import "github.com/dacapoday/zigzag"

var ErrArgument = zigzag.ErrArgument
