// internal/value/sqlite.go
package value

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQLiteCodec decodes values scanned through mattn/go-sqlite3. SQLite types
// cells, not columns, so the dynamic Go type leads and the declared column
// type only refines it (BOOLEAN stored as 0/1, DECIMAL stored as text,
// datetimes stored as text the driver did not already convert).
type SQLiteCodec struct{}

func (SQLiteCodec) Decode(typeName string, raw any) Value {
	decl := normalizeTypeName(typeName)
	switch rv := raw.(type) {
	case nil:
		return Null()

	case bool:
		return NewBool(rv)

	case int64:
		if strings.Contains(decl, "BOOL") {
			return NewBool(rv != 0)
		}
		if declaredDecimal(decl) {
			return NewDecimal(strconv.FormatInt(rv, 10))
		}
		return NewInt(rv)

	case float64:
		if declaredDecimal(decl) {
			return NewDecimal(strconv.FormatFloat(rv, 'f', -1, 64))
		}
		return NewFloat(rv)

	case string:
		return decodeSQLiteText(decl, typeName, rv)

	case []byte:
		return NewBytes(rv)

	case time.Time:
		// The driver converts declared datetime columns itself. SQLite has
		// no timezone-aware storage, so the result is a naive timestamp.
		return NewTimestamp(rv)

	default:
		return NewUnparsed(typeName, decodeDynamic(typeName, raw).Display())
	}
}

func decodeSQLiteText(decl, typeName, text string) Value {
	switch {
	case declaredDecimal(decl):
		if looksNumeric(text) {
			return NewDecimal(text)
		}
		return NewUnparsed(typeName, text)

	case strings.Contains(decl, "BOOL"):
		switch strings.ToLower(text) {
		case "1", "true", "t":
			return NewBool(true)
		case "0", "false", "f":
			return NewBool(false)
		}
		return NewUnparsed(typeName, text)

	case strings.Contains(decl, "JSON"):
		return NewJSON(text)

	case strings.Contains(decl, "UUID"):
		u, err := uuid.Parse(text)
		if err != nil {
			return NewUnparsed(typeName, text)
		}
		return NewUUID(u.String())

	case strings.Contains(decl, "TIMESTAMP") || strings.Contains(decl, "DATETIME"):
		if t, hasTZ, ok := parsePGTimestamp(text); ok {
			if hasTZ {
				return NewTimestampTz(t)
			}
			return NewTimestamp(t)
		}
		return NewUnparsed(typeName, text)
	}
	return NewText(text)
}

func declaredDecimal(decl string) bool {
	return strings.Contains(decl, "DECIMAL") || strings.Contains(decl, "NUMERIC")
}
