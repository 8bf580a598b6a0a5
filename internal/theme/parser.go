package theme

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"reflect"
	"strconv"
	"strings"
)

// Parse reads a theme definition: one palette entry per line, either
// "Key: #RRGGBB" or "key = #RRGGBBAA". Keys match struct fields without
// regard to case or underscores, and unknown keys are ignored so older
// releases can read newer files.
func Parse(r io.Reader) (*Theme, error) {
	t := Default()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		key, value, ok := splitEntry(line)
		if !ok {
			continue
		}
		if normalizeKey(key) == "name" {
			t.Name = value
			continue
		}
		if err := t.SetField(key, value); err != nil {
			return nil, err
		}
	}
	return t, scanner.Err()
}

// SetField assigns one palette field by name. Unknown fields are ignored;
// a malformed color is an error.
func (t *Theme) SetField(key, value string) error {
	want := normalizeKey(key)
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).Type != reflect.TypeOf(color.RGBA{}) {
			continue
		}
		if normalizeKey(typ.Field(i).Name) != want {
			continue
		}
		col, err := ParseColor(value)
		if err != nil {
			return fmt.Errorf("theme key %s: %w", key, err)
		}
		val.Field(i).Set(reflect.ValueOf(col))
		return nil
	}
	return nil
}

func splitEntry(line string) (key, value string, ok bool) {
	sep := strings.IndexAny(line, ":=")
	if sep < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:sep]), strings.TrimSpace(line[sep+1:]), true
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", ""))
}

// ParseColor decodes #RGB, #RRGGBB or #RRGGBBAA hex notation. Alpha
// defaults to opaque.
func ParseColor(s string) (color.RGBA, error) {
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("color %q must start with #", s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		// #RGB doubles each nibble.
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	switch len(hex) {
	case 6:
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
	case 8:
		return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
	}
	return color.RGBA{}, fmt.Errorf("color %q: bad hex length", s)
}
