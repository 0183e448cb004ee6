package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args is a loosely typed tool argument object as decoded from JSON.
type Args map[string]any

// DecodeArgs decodes a JSON object, keeping numbers as json.Number. Empty
// input yields an empty Args.
func DecodeArgs(raw []byte) (Args, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Args{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var args Args
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}

// String returns the named argument with surrounding space trimmed. The
// text is otherwise untouched; rules that classify input fold it themselves.
// Numbers are formatted without a fraction when integral. Missing, null and
// blank values report false.
func (a Args) String(name string) (string, bool) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case json.Number:
		s = val.String()
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		s = strconv.Itoa(val)
	case bool:
		s = strconv.FormatBool(val)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Int returns the named argument as an integer. Numeric strings are
// accepted and magnitudes beyond 32 bits saturate. Fractions and
// non-numeric values report false.
func (a Args) Int(name string) (int, bool) {
	v, ok := a[name]
	if !ok || v == nil {
		return 0, false
	}
	var text string
	switch val := v.(type) {
	case int:
		return saturate(float64(val)), true
	case float64:
		text = strconv.FormatFloat(val, 'g', -1, 64)
	case json.Number:
		text = val.String()
	case string:
		text = Fold(val)
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	switch {
	case err != nil && !errors.Is(err, strconv.ErrRange):
		return 0, false
	case err == nil && (math.IsNaN(f) || math.IsInf(f, 0)):
		return 0, false
	case !math.IsInf(f, 0) && f != math.Trunc(f):
		return 0, false
	}
	return saturate(f), true
}

func saturate(f float64) int {
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// Strings returns the named argument as a list. A single string is split on
// commas, so "YEAR,COUNTRY_ID" and ["YEAR","COUNTRY_ID"] are equivalent.
func (a Args) Strings(name string) []string {
	v, ok := a[name]
	if !ok || v == nil {
		return nil
	}
	var items []string
	switch val := v.(type) {
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := Fold(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
