// internal/value/postgres.go
package value

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostgresCodec decodes values scanned through the pgx stdlib driver.
// Postgres columns are statically typed, so the native type name reported by
// the driver picks the decode path; the dynamic Go type only disambiguates
// within it.
type PostgresCodec struct{}

func (PostgresCodec) Decode(typeName string, raw any) Value {
	if raw == nil {
		return Null()
	}
	name := normalizeTypeName(typeName)
	if elem, ok := pgArrayElemName(name); ok {
		text, textOK := rawText(raw)
		if !textOK {
			return NewUnparsed(typeName, "")
		}
		return decodePGArray(elem, text)
	}
	return decodePGScalar(name, typeName, raw)
}

// pgArrayElemName strips the array marker from a native type name. The
// driver reports arrays either with a leading underscore ("_INT4") or a
// bracket suffix ("INT4[]").
func pgArrayElemName(name string) (string, bool) {
	if strings.HasPrefix(name, "_") {
		return name[1:], true
	}
	if strings.HasSuffix(name, "[]") {
		return name[:len(name)-2], true
	}
	return "", false
}

func decodePGScalar(name, typeName string, raw any) Value {
	switch name {
	case "BOOL", "BOOLEAN":
		if b, ok := raw.(bool); ok {
			return NewBool(b)
		}
		if i, ok := raw.(int64); ok {
			return NewBool(i != 0)
		}

	case "INT2", "INT4", "INT8", "SMALLINT", "INTEGER", "BIGINT", "OID", "CHAR":
		if i, ok := raw.(int64); ok {
			return NewInt(i)
		}

	case "FLOAT4", "FLOAT8", "REAL", "DOUBLE PRECISION":
		if f, ok := raw.(float64); ok {
			return NewFloat(f)
		}

	case "NUMERIC", "DECIMAL":
		switch rv := raw.(type) {
		case int64:
			return NewDecimal(strconv.FormatInt(rv, 10))
		case float64:
			return NewDecimal(strconv.FormatFloat(rv, 'f', -1, 64))
		}

	case "BYTEA":
		if b, ok := raw.([]byte); ok {
			return NewBytes(b)
		}

	case "TIMESTAMP":
		if t, ok := raw.(time.Time); ok {
			return NewTimestamp(t)
		}

	case "TIMESTAMPTZ":
		if t, ok := raw.(time.Time); ok {
			return NewTimestampTz(t)
		}

	case "DATE":
		if t, ok := raw.(time.Time); ok {
			return NewText(t.Format("2006-01-02"))
		}

	case "TIME", "TIMETZ":
		if t, ok := raw.(time.Time); ok {
			return NewText(t.Format("15:04:05.999999999"))
		}

	case "UUID":
		if b, ok := raw.([]byte); ok && len(b) == 16 {
			u, err := uuid.FromBytes(b)
			if err == nil {
				return NewUUID(u.String())
			}
		}
	}

	if text, ok := rawText(raw); ok {
		return decodePGText(name, typeName, text)
	}
	if _, recognized := pgRecognized(name); recognized {
		return decodeDynamic(typeName, raw)
	}
	return NewUnparsed(typeName, decodeDynamic(typeName, raw).Display())
}

// decodePGText decodes the text form of a scalar, used both for string
// scans and for array elements.
func decodePGText(name, typeName, text string) Value {
	switch name {
	case "BOOL", "BOOLEAN":
		switch strings.ToLower(text) {
		case "t", "true", "1":
			return NewBool(true)
		case "f", "false", "0":
			return NewBool(false)
		}
		return NewUnparsed(typeName, text)

	case "INT2", "INT4", "INT8", "SMALLINT", "INTEGER", "BIGINT", "OID", "CHAR":
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return NewUnparsed(typeName, text)
		}
		return NewInt(i)

	case "FLOAT4", "FLOAT8", "REAL", "DOUBLE PRECISION":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return NewUnparsed(typeName, text)
		}
		return NewFloat(f)

	case "NUMERIC", "DECIMAL":
		if looksNumeric(text) {
			return NewDecimal(text)
		}
		return NewUnparsed(typeName, text)

	case "BYTEA":
		if strings.HasPrefix(text, `\x`) {
			b, err := hex.DecodeString(text[2:])
			if err == nil {
				return NewBytes(b)
			}
		}
		return NewBytes([]byte(text))

	case "TIMESTAMP", "TIMESTAMPTZ":
		t, hasTZ, ok := parsePGTimestamp(text)
		if !ok {
			return NewUnparsed(typeName, text)
		}
		if name == "TIMESTAMPTZ" || hasTZ {
			return NewTimestampTz(t)
		}
		return NewTimestamp(t)

	case "DATE":
		if _, err := time.Parse("2006-01-02", text); err != nil {
			return NewUnparsed(typeName, text)
		}
		return NewText(text)

	case "UUID":
		u, err := uuid.Parse(text)
		if err != nil {
			return NewUnparsed(typeName, text)
		}
		return NewUUID(u.String())

	case "JSON", "JSONB":
		return NewJSON(text)
	}

	if _, recognized := pgRecognized(name); recognized {
		return NewText(text)
	}
	return NewUnparsed(typeName, text)
}

// pgRecognized lists native types that decode as plain text. Everything
// outside this set and the switches above degrades to KindUnparsed.
func pgRecognized(name string) (Kind, bool) {
	switch name {
	case "TEXT", "VARCHAR", "BPCHAR", "NAME", "CITEXT",
		"TIME", "TIMETZ", "INTERVAL",
		"INET", "CIDR", "MACADDR", "MACADDR8",
		"XML", "MONEY", "BIT", "VARBIT",
		"TSVECTOR", "TSQUERY", "JSONPATH",
		"POINT", "LSEG", "PATH", "BOX", "POLYGON", "LINE", "CIRCLE",
		"INT4RANGE", "INT8RANGE", "NUMRANGE", "TSRANGE", "TSTZRANGE", "DATERANGE",
		"PG_LSN":
		return KindText, true
	}
	return KindUnparsed, false
}

// pgKind maps a native type name to the Value kind its elements decode to.
func pgKind(name string) Kind {
	switch name {
	case "BOOL", "BOOLEAN":
		return KindBool
	case "INT2", "INT4", "INT8", "SMALLINT", "INTEGER", "BIGINT", "OID", "CHAR":
		return KindInt
	case "FLOAT4", "FLOAT8", "REAL", "DOUBLE PRECISION":
		return KindFloat
	case "NUMERIC", "DECIMAL":
		return KindDecimal
	case "BYTEA":
		return KindBytes
	case "TIMESTAMP":
		return KindTimestamp
	case "TIMESTAMPTZ":
		return KindTimestampTz
	case "DATE":
		return KindText
	case "UUID":
		return KindUUID
	case "JSON", "JSONB":
		return KindJSON
	}
	if k, ok := pgRecognized(name); ok {
		return k
	}
	return KindUnparsed
}

// pg timestamp text forms: naive "2006-01-02 15:04:05.999999", with offset
// "+07" or "+07:30", or RFC 3339 from intermediate layers.
var pgTimestampLayouts = []struct {
	layout string
	hasTZ  bool
}{
	{"2006-01-02 15:04:05.999999999-07:00", true},
	{"2006-01-02 15:04:05.999999999-07", true},
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02 15:04:05.999999999", false},
}

func parsePGTimestamp(text string) (time.Time, bool, bool) {
	for _, l := range pgTimestampLayouts {
		if t, err := time.Parse(l.layout, text); err == nil {
			return t, l.hasTZ, true
		}
	}
	return time.Time{}, false, false
}

// decodePGArray parses a Postgres array literal ("{1,2,NULL}", nested
// "{{1},{2}}", quoted elements with backslash escapes) and decodes each
// element with the scalar text path. An unparsable literal degrades to a
// single unparsed value rather than failing the row.
func decodePGArray(elemName, text string) Value {
	parts, ok := splitArrayLiteral(text)
	if !ok {
		return NewUnparsed(elemName+"[]", text)
	}
	elemKind := pgKind(elemName)
	elems := make([]Value, 0, len(parts))
	nested := false
	for _, p := range parts {
		switch {
		case p.sub:
			nested = true
			elems = append(elems, decodePGArray(elemName, p.text))
		case !p.quoted && strings.EqualFold(p.text, "NULL"):
			elems = append(elems, Null())
		default:
			elems = append(elems, decodePGText(elemName, elemName, p.text))
		}
	}
	if nested {
		elemKind = KindArray
	}
	return NewArray(elemKind, elems)
}

type arrayPart struct {
	text   string
	quoted bool
	sub    bool
}

// splitArrayLiteral splits the body of an array literal into raw element
// parts. It tolerates the optional dimension prefix ("[1:3]={...}") by
// starting at the first brace.
func splitArrayLiteral(s string) ([]arrayPart, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, false
	}
	i := start + 1
	parts := []arrayPart{}
	for {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			return nil, false
		}
		if s[i] == '}' {
			if len(parts) == 0 {
				return parts, true
			}
			return nil, false
		}

		var part arrayPart
		switch s[i] {
		case '{':
			end, ok := matchBrace(s, i)
			if !ok {
				return nil, false
			}
			part = arrayPart{text: s[i : end+1], sub: true}
			i = end + 1
		case '"':
			text, end, ok := readQuoted(s, i)
			if !ok {
				return nil, false
			}
			part = arrayPart{text: text, quoted: true}
			i = end
		default:
			j := i
			for j < len(s) && s[j] != ',' && s[j] != '}' {
				j++
			}
			if j >= len(s) {
				return nil, false
			}
			part = arrayPart{text: strings.TrimSpace(s[i:j])}
			i = j
		}
		parts = append(parts, part)

		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			return nil, false
		}
		switch s[i] {
		case ',':
			i++
		case '}':
			return parts, true
		default:
			return nil, false
		}
	}
}

// matchBrace returns the index of the brace closing s[open], skipping
// quoted sections.
func matchBrace(s string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		case '"':
			_, end, ok := readQuoted(s, i)
			if !ok {
				return 0, false
			}
			i = end - 1
		}
	}
	return 0, false
}

// readQuoted consumes a double-quoted element starting at s[open],
// resolving backslash escapes. end is the index just past the closing
// quote.
func readQuoted(s string, open int) (text string, end int, ok bool) {
	var b strings.Builder
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return "", 0, false
			}
			b.WriteByte(s[i+1])
			i++
		case '"':
			return b.String(), i + 1, true
		default:
			b.WriteByte(s[i])
		}
	}
	return "", 0, false
}
