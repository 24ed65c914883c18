package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// keyEscaper protects the separators used by the canonical case key encoding
var keyEscaper = strings.NewReplacer(`\`, `\\`, `,`, `\,`, `=`, `\=`, `"`, `\"`)

// int64Range bounds the floats that are formatted as integers
const int64Range = 1 << 63

// CanonicalValue formats a parameter value for use in a CaseKey. Integers and
// integral floats share one form, so 1, int64(1) and 1.0 agree. Strings that
// would read as a number, bool or null are quoted so "1" and 1 stay distinct.
func CanonicalValue(v any) string {
	if s, ok := formatNumber(v, 'g'); ok {
		return s
	}
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case string:
		if looksLiteral(val) {
			return `"` + keyEscaper.Replace(val) + `"`
		}
		return keyEscaper.Replace(val)
	default:
		return keyEscaper.Replace(fmt.Sprintf("%v", val))
	}
}

// DisplayValue formats a parameter value for humans and for model rendering
func DisplayValue(v any) string {
	if s, ok := formatNumber(v, 'f'); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// Number converts any Go numeric kind to int64 (integer kinds) or float64.
// Unsigned values beyond the int64 range are not numbers here.
func Number(v any) (any, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		return unsigned(uint64(val))
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		return unsigned(val)
	case float32:
		// shortest float32 text, so float32(0.1) becomes 0.1 and not 0.10000000149011612
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(val), 'g', -1, 32), 64)
		return f, true
	case float64:
		return val, true
	default:
		return nil, false
	}
}

// IsScalarValue reports whether v can be a single parameter value
func IsScalarValue(v any) bool {
	if n, ok := Number(v); ok {
		f, isFloat := n.(float64)
		return !isFloat || IsFinite(f)
	}
	switch v.(type) {
	case bool, string:
		return true
	}
	return false
}

// IsFinite reports whether f can be stored as JSON
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RestoreNumbers rewrites the json.Number leaves of a value decoded with
// UseNumber. With keepInts, integer literals become int64; everything else
// becomes float64.
func RestoreNumbers(v any, keepInts bool) any {
	switch val := v.(type) {
	case json.Number:
		if keepInts {
			if i, err := val.Int64(); err == nil {
				return i
			}
		}
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return f
	case map[string]any:
		for k, item := range val {
			val[k] = RestoreNumbers(item, keepInts)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = RestoreNumbers(item, keepInts)
		}
		return val
	default:
		return v
	}
}

func unsigned(u uint64) (any, bool) {
	if u > math.MaxInt64 {
		return nil, false
	}
	return int64(u), true
}

func formatNumber(v any, floatFormat byte) (string, bool) {
	n, ok := Number(v)
	if !ok {
		return "", false
	}
	switch val := n.(type) {
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < int64Range {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, floatFormat, -1, 64), true
	}
	return "", false
}

// looksLiteral reports whether a string reads as a non-string scalar
func looksLiteral(s string) bool {
	switch s {
	case "true", "false", "null":
		return true
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
