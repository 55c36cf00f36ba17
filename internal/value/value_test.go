// internal/value/value_test.go
package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplay(t *testing.T) {
	naive := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	zoned := time.Date(2024, 3, 15, 10, 30, 0, 0, time.FixedZone("", 2*3600))

	tests := []struct {
		name string
		val  Value
		want string
	}{
		{"null", Null(), "NULL"},
		{"bool true", NewBool(true), "true"},
		{"bool false", NewBool(false), "false"},
		{"int", NewInt(-42), "-42"},
		{"decimal keeps exact digits", NewDecimal("12345.678900000000012"), "12345.678900000000012"},
		{"decimal trailing zeros survive", NewDecimal("10.00"), "10.00"},
		{"float shortest round trip", NewFloat(0.1), "0.1"},
		{"text", NewText("hello"), "hello"},
		{"empty text is not NULL", NewText(""), ""},
		{"bytes show length only", NewBytes([]byte{1, 2, 3, 4, 5}), "<5 bytes>"},
		{"timestamp without zone", NewTimestamp(naive), "2024-03-15 10:30:00"},
		{"timestamp keeps fraction", NewTimestamp(naive.Add(123 * time.Millisecond)), "2024-03-15 10:30:00.123"},
		{"timestamptz keeps offset", NewTimestampTz(zoned), "2024-03-15T10:30:00+02:00"},
		{"timestamptz utc", NewTimestampTz(naive), "2024-03-15T10:30:00+00:00"},
		{"uuid", NewUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"json verbatim", NewJSON(`{"a": 1,  "b":null}`), `{"a": 1,  "b":null}`},
		{"array", NewArray(KindInt, []Value{NewInt(1), NewInt(2)}), "[1, 2]"},
		{"empty array is not NULL", NewArray(KindText, nil), "[]"},
		{"array with null element", NewArray(KindText, []Value{NewText("a"), Null()}), "[a, NULL]"},
		{"unparsed keeps raw text", NewUnparsed("tsrange", "[2024-01-01,2024-02-01)"), "[2024-01-01,2024-02-01)"},
		{"unparsed without text labels the type", NewUnparsed("pg_snapshot", ""), "<pg_snapshot>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.val.Display())
		})
	}
}

func TestNullStaysDistinct(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.False(t, NewText("").IsNull())
	assert.False(t, NewInt(0).IsNull())
	assert.False(t, NewBool(false).IsNull())
	assert.False(t, NewArray(KindInt, nil).IsNull())
	assert.NotEqual(t, Null(), NewText(""))
	assert.NotEqual(t, Null(), NewInt(0))
}

func TestHasTimezone(t *testing.T) {
	now := time.Now()
	assert.True(t, NewTimestampTz(now).HasTimezone())
	assert.False(t, NewTimestamp(now).HasTimezone())
	assert.False(t, NewText("2024-01-01").HasTimezone())
}

func TestKeyDistinguishesBytes(t *testing.T) {
	a := NewBytes([]byte{1, 2, 3})
	b := NewBytes([]byte{4, 5, 6})
	assert.Equal(t, a.Display(), b.Display())
	assert.NotEqual(t, a.Key(), b.Key())

	// Non-binary kinds key by their display form.
	assert.Equal(t, "42", NewInt(42).Key())
	assert.Equal(t, "NULL", Null().Key())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "decimal", KindDecimal.String())
	assert.Equal(t, "timestamptz", KindTimestampTz.String())
	assert.Equal(t, "unparsed", KindUnparsed.String())
}
