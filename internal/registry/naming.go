package registry

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jinzhu/inflection"
)

// DefaultQueryName derives the upstream list field name for a resolver key,
// following the gateway's convention: the first rune is lower-cased and the
// name is pluralized. Keys written entirely in upper case only gain a
// trailing "s" (UNION_REF_HSCODE -> uNION_REF_HSCODEs).
func DefaultQueryName(key string) string {
	if key == "" {
		return ""
	}

	var plural string
	if strings.ToUpper(key) == key {
		plural = key + "s"
	} else {
		plural = inflection.Plural(key)
	}

	r, size := utf8.DecodeRuneInString(plural)
	return string(unicode.ToLower(r)) + plural[size:]
}
