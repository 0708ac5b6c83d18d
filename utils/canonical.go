package utils

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Value is a descriptor field. It holds either a string or an integer, never both.
type Value struct {
	str   string
	num   int64
	isNum bool
}

func String(s string) Value { return Value{str: s} }

func Int(n int64) Value { return Value{num: n, isNum: true} }

func (v Value) IsInt() bool { return v.isNum }

func (v Value) Int() int64 { return v.num }

// String returns the value's text form, integers as plain decimal.
func (v Value) String() string {
	if v.isNum {
		return strconv.FormatInt(v.num, 10)
	}
	return v.str
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNum {
		return []byte(strconv.FormatInt(v.num, 10)), nil
	}
	return MarshalCompact(v.str)
}

// MarshalCompact is json.Marshal without HTML escaping or a trailing newline.
func MarshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalNumber decodes keeping numbers as json.Number.
func UnmarshalNumber(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// Canonicalize flattens v into the string the fingerprint service hashes for "tn".
// Maps emit their values in sorted key order (keys themselves are dropped),
// numbers are scaled by 10000 and truncated, strings pass through.
func Canonicalize(v any) string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := ""
		for _, k := range keys {
			out += Canonicalize(t[k])
		}
		return out
	case map[string]Value:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := ""
		for _, k := range keys {
			out += Canonicalize(t[k])
		}
		return out
	case Value:
		if t.isNum {
			return scaleNumber(float64(t.num))
		}
		return t.str
	case string:
		return t
	case float64:
		return scaleNumber(t)
	case float32:
		return scaleNumber(float64(t))
	case int:
		return scaleNumber(float64(t))
	case int64:
		return scaleNumber(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return ""
		}
		return scaleNumber(f)
	default:
		return ""
	}
}

// Integers are scaled in float64 too; millisecond timestamps exceed 2^53
// after scaling and must round like the service's double arithmetic.
func scaleNumber(f float64) string {
	return strconv.FormatInt(int64(f*10000.0), 10)
}
