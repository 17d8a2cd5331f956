package main

import (
	"fmt"
	"unicode"

	jsoniter "github.com/json-iterator/go"

	"github.com/dacapoday/zigzag/key"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// formatKey renders a key the way it is written on the command line.
func formatKey(k key.Key) string {
	switch v := k.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	s, err := json.MarshalToString(k)
	if err != nil {
		return fmt.Sprint(k)
	}
	return s
}

// formatValue renders a record as compact JSON.
func formatValue(v any) string {
	if v == nil {
		return ""
	}
	s, err := json.MarshalToString(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// display truncates s to maxLen runes, replacing control characters.
func display(s string, maxLen int) string {
	if s == "" {
		return "(empty)"
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsPrint(r) {
			runes[i] = '.'
		}
	}
	if len(runes) > maxLen-3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes)
}
