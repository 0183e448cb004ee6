package querybuilder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// bareTokens are enum values the gateway expects unquoted.
var bareTokens = map[string]struct{}{
	"ASC":  {},
	"DESC": {},
}

// Literal renders v as an inline GraphQL argument value.
//
//	nil            -> null
//	number, bool   -> verbatim
//	"ASC", "DESC"  -> bare enum token
//	other strings  -> JSON-quoted
//	slices         -> [a, b]
//	maps, Filter   -> { key: value, ... }
//
// Map keys are emitted in lexical order so the output does not depend on
// map iteration order.
func Literal(v any) string {
	var b strings.Builder
	writeLiteral(&b, v)
	return b.String()
}

func writeLiteral(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		writeString(b, val)
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case int:
		b.WriteString(strconv.Itoa(val))
	case int32:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case float32:
		writeFloat(b, float64(val))
	case float64:
		writeFloat(b, val)
	case json.Number:
		b.WriteString(val.String())
	case Direction:
		b.WriteString(string(val))
	case Filter:
		writeFilter(b, &val)
	case *Filter:
		writeFilter(b, val)
	case OrderSpec:
		writeOrder(b, val)
	case []string:
		b.WriteByte('[')
		for i, s := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			writeString(b, s)
		}
		b.WriteByte(']')
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			writeLiteral(b, item)
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("{ ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			writeLiteral(b, val[k])
		}
		b.WriteString(" }")
	default:
		writeReflect(b, v)
	}
}

// writeReflect covers the remaining integer widths and typed slices.
func writeReflect(b *strings.Builder, v any) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		writeFloat(b, rv.Float())
	case reflect.String:
		writeString(b, rv.String())
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(rv.Bool()))
	case reflect.Slice, reflect.Array:
		b.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			writeLiteral(b, rv.Index(i).Interface())
		}
		b.WriteByte(']')
	case reflect.Pointer:
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		writeLiteral(b, rv.Elem().Interface())
	default:
		writeString(b, fmt.Sprint(v))
	}
}

func writeFloat(b *strings.Builder, f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		b.WriteString("null")
		return
	}
	b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
}

func writeString(b *strings.Builder, s string) {
	if _, ok := bareTokens[s]; ok {
		b.WriteString(s)
		return
	}
	b.WriteString(quote(s))
}

// quote produces a JSON string literal, which is also a valid GraphQL string.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
