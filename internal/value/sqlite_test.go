// internal/value/sqlite_test.go
package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSQLiteDecode(t *testing.T) {
	codec := SQLiteCodec{}

	tests := []struct {
		name     string
		typeName string
		raw      any
		want     Value
	}{
		{"null", "TEXT", nil, Null()},
		{"integer cell", "INTEGER", int64(42), NewInt(42)},
		{"integer in untyped column", "", int64(9), NewInt(9)},
		{"boolean declaration refines 1", "BOOLEAN", int64(1), NewBool(true)},
		{"boolean declaration refines 0", "BOOLEAN", int64(0), NewBool(false)},
		{"real cell", "REAL", float64(2.5), NewFloat(2.5)},
		{"decimal declared, stored as text", "DECIMAL(10,2)", "1234.50", NewDecimal("1234.50")},
		{"numeric declared, stored as integer", "NUMERIC", int64(12), NewDecimal("12")},
		{"text cell", "VARCHAR(50)", "pending", NewText("pending")},
		{"blob cell", "BLOB", []byte{1, 2, 3}, NewBytes([]byte{1, 2, 3})},
		{"json declaration", "JSON", `{"tags": ["a","b"]}`, NewJSON(`{"tags": ["a","b"]}`)},
		{"uuid declaration", "UUID", "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", NewUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{"datetime text", "DATETIME", "2024-03-15 10:30:00", NewTimestamp(time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC))},
		{"timestamp text with offset keeps zone presence", "TIMESTAMP", "2024-03-15T10:30:00+02:00", NewTimestampTz(time.Date(2024, 3, 15, 10, 30, 0, 0, time.FixedZone("", 2*3600)))},
		{"unparseable datetime degrades", "DATETIME", "not a date", NewUnparsed("DATETIME", "not a date")},
		{"plain text in datetime-free column", "TEXT", "2024-03-15", NewText("2024-03-15")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codec.Decode(tt.typeName, tt.raw))
		})
	}
}

func TestSQLiteDecodeDriverTime(t *testing.T) {
	// mattn/go-sqlite3 converts declared datetime columns to time.Time on
	// its own; the codec must not double-convert.
	codec := SQLiteCodec{}
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	v := codec.Decode("TIMESTAMP", ts)
	assert.Equal(t, NewTimestamp(ts), v)
	assert.False(t, v.HasTimezone())
}

func TestSQLiteDecimalNeverThroughFloat(t *testing.T) {
	codec := SQLiteCodec{}
	v := codec.Decode("DECIMAL(30,10)", "0.1000000000000000000000000001")
	assert.Equal(t, KindDecimal, v.Kind)
	assert.Equal(t, "0.1000000000000000000000000001", v.Display())
}

func TestSQLiteDecodeIsTotal(t *testing.T) {
	codec := SQLiteCodec{}
	raws := []any{nil, true, int64(0), float64(0), "", []byte{}, time.Now(), make(chan int)}
	for _, raw := range raws {
		v := codec.Decode("WHATEVER", raw)
		_ = v.Display()
	}
}
