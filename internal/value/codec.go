// internal/value/codec.go
package value

import (
	"fmt"
	"strings"
	"time"
)

// Codec decodes one backend's native column values into Values. Decode is
// total: it never fails for a value its backend actually returned, degrading
// to KindUnparsed instead. typeName is the native type name reported by the
// driver; raw is the dynamic value scanned from it.
type Codec interface {
	Decode(typeName string, raw any) Value
}

// decodeDynamic maps a raw driver value by its Go type alone. Backends use
// it when the native type name gives no better hint. database/sql guarantees
// raw is one of the types handled here, so the default arm is unreachable
// for driver-produced values.
func decodeDynamic(typeName string, raw any) Value {
	switch rv := raw.(type) {
	case nil:
		return Null()
	case bool:
		return NewBool(rv)
	case int64:
		return NewInt(rv)
	case float64:
		return NewFloat(rv)
	case string:
		return NewText(rv)
	case []byte:
		return NewText(string(rv))
	case time.Time:
		return NewTimestamp(rv)
	default:
		return NewUnparsed(typeName, fmt.Sprint(raw))
	}
}

// rawText extracts the textual form of a driver value for type-directed
// parsing. ok is false when raw has no usable text form.
func rawText(raw any) (string, bool) {
	switch rv := raw.(type) {
	case string:
		return rv, true
	case []byte:
		return string(rv), true
	default:
		return "", false
	}
}

// looksNumeric reports whether s is a plain decimal literal, optionally
// signed, optionally fractional, optionally with an exponent.
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	digits, dot, exp := 0, false, false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot && !exp:
			dot = true
		case (c == 'e' || c == 'E') && digits > 0 && !exp:
			exp = true
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				i++
			}
		default:
			return false
		}
	}
	return digits > 0
}

// normalizeTypeName upper-cases and trims a native type name so both
// backends can switch on one spelling.
func normalizeTypeName(typeName string) string {
	return strings.ToUpper(strings.TrimSpace(typeName))
}
