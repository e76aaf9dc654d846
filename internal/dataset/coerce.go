package dataset

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Coerce converts a cell into a finite number. Text is read up to the end
// of its leading number, so "10%" is 10 and "1,200" is 1. Null cells, text
// without a leading number, and non-finite results fail.
func Coerce(v Value) (float64, bool) {
	var n float64
	switch v.kind {
	case KindNumber:
		n = v.num
	case KindString:
		prefix := numericPrefix(strings.TrimLeftFunc(v.str, unicode.IsSpace))
		if prefix == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(prefix, 64)
		if err != nil && !isRange(err) {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// numericPrefix returns the longest leading [+-]?(d+(.d*)?|.d+)([eE][+-]?d+)?
// of s, or "" when s does not start with a number.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intDigits := digits(s, i)
	i += intDigits
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		fracDigits = digits(s, i+1)
		if intDigits > 0 || fracDigits > 0 {
			i += 1 + fracDigits
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if d := digits(s, j); d > 0 {
			i = j + d
		}
	}
	return s[:i]
}

func digits(s string, from int) int {
	n := 0
	for from+n < len(s) && s[from+n] >= '0' && s[from+n] <= '9' {
		n++
	}
	return n
}

// isRange reports an overflow, which ParseFloat returns alongside ±Inf.
func isRange(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// CoerceOrZero is Coerce with 0 substituted on failure. Chart series use it
// so every row has a plotted value; statistics must use Coerce instead.
func CoerceOrZero(v Value) float64 {
	n, ok := Coerce(v)
	if !ok {
		return 0
	}
	return n
}
