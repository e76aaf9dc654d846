package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindNull is an empty cell.
	KindNull Kind = iota
	// KindString is a text cell.
	KindString
	// KindNumber is a numeric cell.
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "null"
	}
}

// Value is a single raw cell: null, a string, or a number.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// Null returns the empty cell value.
func Null() Value { return Value{} }

// String returns a text cell value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric cell value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is an empty cell.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string payload and whether v is a string cell.
func (v Value) Text() (string, bool) { return v.str, v.kind == KindString }

// Num returns the numeric payload and whether v is a number cell.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Key is the stable string form of v used for grouping and display.
// Numbers use the shortest representation that round-trips, so 1 and 1.0
// share a key, as do the number 1 and the string "1".
func (v Value) Key() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	default:
		return "null"
	}
}

// String implements fmt.Stringer with the same form as Key.
func (v Value) String() string { return v.Key() }

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// MarshalJSON encodes v as null, a JSON string, or a JSON number.
// Non-finite numbers encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null, strings, numbers and booleans. Booleans are
// kept as the strings "true" and "false".
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = String(strconv.FormatBool(b))
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("cell value %s: %w", data, err)
		}
		*v = Number(n)
	}
	return nil
}
