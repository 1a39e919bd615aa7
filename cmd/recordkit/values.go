package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/recordkit/schema"
)

// parseValue reads text typed by a user as a value of kind k.
func parseValue(k schema.Kind, text string) (schema.Value, error) {
	text = strings.TrimSpace(text)
	switch {
	case k == schema.KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return schema.Value{}, fmt.Errorf("%q is not a bool", text)
		}
		return schema.Bool(b), nil
	case k == schema.KindChar:
		r, size := utf8.DecodeRuneInString(text)
		if r == utf8.RuneError || size != len(text) {
			return schema.Value{}, fmt.Errorf("%q is not a single character", text)
		}
		return schema.Char(r), nil
	case k.IsFloat():
		bits := 64
		if k == schema.KindF32 {
			bits = 32
		}
		f, err := strconv.ParseFloat(text, bits)
		if err != nil {
			return schema.Value{}, fmt.Errorf("%q is not a %s", text, k)
		}
		return schema.Float(k, f), nil
	case k.IsSigned():
		n, err := strconv.ParseInt(text, 0, int(k.Width()*8))
		if err != nil {
			return schema.Value{}, fmt.Errorf("%q is not a %s", text, k)
		}
		return schema.Int(k, n), nil
	case k.IsNumeric():
		n, err := strconv.ParseUint(text, 0, int(k.Width()*8))
		if err != nil {
			return schema.Value{}, fmt.Errorf("%q is not a %s", text, k)
		}
		return schema.Uint(k, n), nil
	}
	return schema.Value{}, fmt.Errorf("%s fields cannot be edited", k)
}

// parseElements reads a comma separated list of up to n values.
func parseElements(k schema.Kind, text string, n int) ([]schema.Value, error) {
	parts := strings.Split(text, ",")
	if len(parts) > n {
		return nil, fmt.Errorf("got %d values, the field holds %d", len(parts), n)
	}
	out := make([]schema.Value, len(parts))
	for i, p := range parts {
		v, err := parseValue(k, p)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
