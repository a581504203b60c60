// Package normalize holds the tolerant lookup helpers shared by every
// connector that maps loosely-shaped provider payloads onto canonical records.
// Lookups take dot paths ("guest.firstName") and a chain of aliases; the
// first non-empty hit wins and a miss is never an error.
package normalize

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Lookup: safe nested lookup with dot paths on maps. A numeric segment
// indexes into an array ("reservationIdList.0.id").
func Lookup(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		switch obj := cur.(type) {
		case map[string]any:
			v, ok := obj[part]
			if !ok {
				return nil
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(obj) {
				return nil
			}
			cur = obj[i]
		default:
			return nil
		}
	}
	return cur
}

// Str returns the value at path as a string, or "". Numbers are formatted
// without exponent so numeric ids survive.
func Str(m map[string]any, path string) string {
	switch v := Lookup(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	}
	return ""
}

// FirstStr: first non-empty string along the alias chain.
func FirstStr(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := Str(m, p); s != "" {
			return s
		}
	}
	return ""
}

// FirstStrPtr is FirstStr with nil for a miss.
func FirstStrPtr(m map[string]any, paths ...string) *string {
	if s := FirstStr(m, paths...); s != "" {
		return &s
	}
	return nil
}

// FirstInt: int from several paths (float64/int/string), else def.
func FirstInt(m map[string]any, def int, paths ...string) int {
	for _, p := range paths {
		switch v := Lookup(m, p).(type) {
		case float64:
			return int(v)
		case int:
			return v
		case int64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return def
}

// FirstFloat accepts "8,5" style decimals too.
func FirstFloat(m map[string]any, paths ...string) (float64, bool) {
	for _, p := range paths {
		switch v := Lookup(m, p).(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// FirstDecimal reads money without going through float formatting for strings.
func FirstDecimal(m map[string]any, paths ...string) (decimal.Decimal, bool) {
	for _, p := range paths {
		switch v := Lookup(m, p).(type) {
		case float64:
			return decimal.NewFromFloat(v), true
		case int:
			return decimal.NewFromInt(int64(v)), true
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if d, err := decimal.NewFromString(s); err == nil {
				return d, true
			}
		case map[string]any:
			// {"Value": 12.5, "Currency": "EUR"} style amounts
			if d, ok := FirstDecimal(v, "value", "Value", "amount", "Amount", "GrossValue"); ok {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}

func FirstBool(m map[string]any, def bool, paths ...string) bool {
	for _, p := range paths {
		switch v := Lookup(m, p).(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b
			}
		}
	}
	return def
}

// FirstObjects returns the first array of objects found along the chain.
func FirstObjects(m map[string]any, paths ...string) []map[string]any {
	for _, p := range paths {
		raw, ok := Lookup(m, p).([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(raw))
		for _, it := range raw {
			if obj, ok := it.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	}
	return nil
}

// FirstStrings: accept []any with either strings or {name/title}.
func FirstStrings(m map[string]any, paths ...string) []string {
	for _, p := range paths {
		raw, ok := Lookup(m, p).([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, it := range raw {
			switch t := it.(type) {
			case string:
				if t != "" {
					out = append(out, t)
				}
			case map[string]any:
				if n := FirstStr(t, "name", "Name", "title", "Title"); n != "" {
					out = append(out, n)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Unwrap returns the object under the first envelope key present
// ("data", "reservation", ...), or m itself.
func Unwrap(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if obj, ok := m[k].(map[string]any); ok {
			return obj
		}
	}
	return m
}

// UnwrapList finds a list of objects either at the root of raw or under one
// of the envelope keys.
func UnwrapList(raw any, keys ...string) []map[string]any {
	switch v := raw.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, it := range v {
			if obj, ok := it.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	case map[string]any:
		return FirstObjects(v, keys...)
	}
	return nil
}

func JoinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, " ")
}

// ToMap round-trips v through JSON so canonical structs can be fed back into
// the normalizers.
func ToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
