package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParameterValue renders a feed parameter value as the string that is
// stored. Floats use the shortest round-trip form and keep a trailing ".0"
// when integral; bools are "True"/"False" and null is "None". Dates print
// as 2006-01-02, timestamps as 2006-01-02 15:04:05, and lists and mappings
// in literal form: ['red', 'blue'], {'a': 1}.
func ParameterValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case time.Time:
		return formatTime(x), nil
	}
	return literal(v)
}

// literal renders v the way it appears inside a list or mapping, where
// strings are quoted.
func literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "None", nil
	case string:
		return quote(x), nil
	case bool:
		if x {
			return "True", nil
		}
		return "False", nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return formatFloat(float64(x), 32), nil
	case float64:
		return formatFloat(x, 64), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		f, err := x.Float64()
		if err != nil {
			return "", ErrInvalidParameter.With(x.String())
		}
		return formatFloat(f, 64), nil
	case time.Time:
		if isDate(x) {
			return fmt.Sprintf("datetime.date(%d, %d, %d)", x.Year(), x.Month(), x.Day()), nil
		}
		return fmt.Sprintf("datetime.datetime(%d, %d, %d, %d, %d, %d)",
			x.Year(), x.Month(), x.Day(), x.Hour(), x.Minute(), x.Second()), nil
	case []any:
		return join("[", "]", x)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			val, err := literal(x[k])
			if err != nil {
				return "", err
			}
			pairs[i] = quote(k) + ": " + val
		}
		return "{" + strings.Join(pairs, ", ") + "}", nil
	case map[any]any:
		pairs := make([]string, 0, len(x))
		for k, val := range x {
			ks, err := literal(k)
			if err != nil {
				return "", err
			}
			vs, err := literal(val)
			if err != nil {
				return "", err
			}
			pairs = append(pairs, ks+": "+vs)
		}
		sort.Strings(pairs)
		return "{" + strings.Join(pairs, ", ") + "}", nil
	}
	return "", ErrInvalidParameter.With(fmt.Sprintf("unsupported type %T", v))
}

func join(open, end string, items []any) (string, error) {
	parts := make([]string, len(items))
	for i, it := range items {
		s, err := literal(it)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return open + strings.Join(parts, ", ") + end, nil
}

// quote prefers single quotes and switches to double quotes only when the
// string holds a single quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteByte(q)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

func isDate(t time.Time) bool {
	return t.Location() == time.UTC && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func formatTime(t time.Time) string {
	if isDate(t) {
		return t.Format("2006-01-02")
	}
	s := t.Format("2006-01-02 15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	if t.Location() != time.UTC {
		s += t.Format("-07:00")
	}
	return s
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, bits)
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if f == math.Trunc(f) {
		s += ".0"
	}
	return s
}
