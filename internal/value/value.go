// internal/value/value.go
package value

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDecimal
	KindFloat
	KindText
	KindBytes
	KindTimestamp
	KindTimestampTz
	KindUUID
	KindJSON
	KindArray
	KindUnparsed
)

// String returns the kind name used in logs and tests.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindTimestamp:
		return "timestamp"
	case KindTimestampTz:
		return "timestamptz"
	case KindUUID:
		return "uuid"
	case KindJSON:
		return "json"
	case KindArray:
		return "array"
	case KindUnparsed:
		return "unparsed"
	default:
		return "unknown"
	}
}

// Value is the normalized representation of a single column value. Exactly
// one payload field is meaningful per Kind: Bool for KindBool, Int for
// KindInt, Float for KindFloat, Bytes for KindBytes, Time for KindTimestamp
// and KindTimestampTz, Elems for KindArray, and Text for KindDecimal,
// KindText, KindUUID, KindJSON and KindUnparsed. KindNull carries nothing.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Text  string
	Bytes []byte
	Time  time.Time
	Elems []Value

	// ByteLen caches len(Bytes) so display stays bounded for large blobs.
	ByteLen int
	// ElemKind is the uniform element kind of an array. Nested arrays use
	// KindArray here.
	ElemKind Kind
	// TypeName is the backend's native type name for KindUnparsed values.
	TypeName string
}

// Null returns the null value. It is a distinct variant, never an empty
// string or zero of another kind.
func Null() Value { return Value{Kind: KindNull} }

// NewBool returns a boolean value.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewInt returns a 64-bit integer value.
func NewInt(i int64) Value { return Value{Kind: KindInt, Int: i} }

// NewDecimal returns an exact decimal value. The digits are kept as text and
// never pass through binary floating point.
func NewDecimal(digits string) Value { return Value{Kind: KindDecimal, Text: digits} }

// NewFloat returns a 64-bit float value.
func NewFloat(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// NewText returns a text value.
func NewText(s string) Value { return Value{Kind: KindText, Text: s} }

// NewBytes returns an opaque binary value with its length cached.
func NewBytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b, ByteLen: len(b)} }

// NewTimestamp returns a timestamp without timezone information.
func NewTimestamp(t time.Time) Value { return Value{Kind: KindTimestamp, Time: t} }

// NewTimestampTz returns a timezone-aware timestamp.
func NewTimestampTz(t time.Time) Value { return Value{Kind: KindTimestampTz, Time: t} }

// NewUUID returns a UUID value from its canonical text form.
func NewUUID(canonical string) Value { return Value{Kind: KindUUID, Text: canonical} }

// NewJSON returns a JSON value carrying the source text verbatim.
func NewJSON(raw string) Value { return Value{Kind: KindJSON, Text: raw} }

// NewArray returns an array value. Elements must share elem as their kind;
// an empty array is distinct from Null.
func NewArray(elem Kind, elems []Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: KindArray, ElemKind: elem, Elems: elems}
}

// NewUnparsed returns the raw-text fallback for a native type the codec does
// not recognize. The row survives; only this cell degrades.
func NewUnparsed(typeName, raw string) Value {
	return Value{Kind: KindUnparsed, TypeName: typeName, Text: raw}
}

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// HasTimezone reports whether a timestamp value carries timezone
// information. It is false for every non-timestamp kind.
func (v Value) HasTimezone() bool { return v.Kind == KindTimestampTz }

const (
	naiveLayout = "2006-01-02 15:04:05.999999999"
	tzLayout    = "2006-01-02T15:04:05.999999999-07:00"
)

// Display renders the value for a table cell. The rendering is lossless for
// every supported kind: decimals keep their exact digits, floats use the
// shortest round-trip form, timestamps keep their timezone presence.
func (v Value) Display() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindDecimal:
		return v.Text
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindText, KindUUID, KindJSON:
		return v.Text
	case KindBytes:
		return fmt.Sprintf("<%d bytes>", v.ByteLen)
	case KindTimestamp:
		return v.Time.Format(naiveLayout)
	case KindTimestampTz:
		return v.Time.Format(tzLayout)
	case KindArray:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindUnparsed:
		if v.Text == "" && v.TypeName != "" {
			return "<" + v.TypeName + ">"
		}
		return v.Text
	default:
		return ""
	}
}

// Key returns a stable identity string used to track row selection across
// refreshes. It matches Display except for binary values, which need more
// than their length to stay distinct.
func (v Value) Key() string {
	if v.Kind == KindBytes {
		n := len(v.Bytes)
		if n > 32 {
			n = 32
		}
		return fmt.Sprintf("bytes:%d:%s", v.ByteLen, hex.EncodeToString(v.Bytes[:n]))
	}
	return v.Display()
}
