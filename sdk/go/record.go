package julsdk

import (
	"github.com/spf13/cast"
)

// record is a decoded JSON object read by the mappers. Every accessor takes
// the candidate keys in precedence order: the underscore form first, then
// the compact form. A key holding JSON null counts as absent.
type record map[string]any

func asRecord(v any) record {
	switch m := v.(type) {
	case map[string]any:
		return m
	case record:
		return m
	}
	return record{}
}

func (r record) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// sub returns the nested object under keys, or nil when it is absent or
// not an object.
func (r record) sub(keys ...string) record {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	switch m := v.(type) {
	case map[string]any:
		return m
	case record:
		return m
	}
	return nil
}

func (r record) list(keys ...string) any {
	v, _ := r.lookup(keys...)
	return v
}

func (r record) str(keys ...string) string {
	if p := r.optStr(keys...); p != nil {
		return *p
	}
	return ""
}

func (r record) optStr(keys ...string) *string {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil
	}
	return &s
}

func (r record) integer(keys ...string) int {
	if p := r.optInt(keys...); p != nil {
		return *p
	}
	return 0
}

func (r record) optInt(keys ...string) *int {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil
	}
	return &n
}

func (r record) float(keys ...string) float64 {
	if p := r.optFloat(keys...); p != nil {
		return *p
	}
	return 0
}

func (r record) optFloat(keys ...string) *float64 {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}

func (r record) boolean(keys ...string) bool {
	v, ok := r.lookup(keys...)
	if !ok {
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false
	}
	return b
}

func (r record) strings(keys ...string) []string {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	if _, isList := v.([]any); !isList {
		return nil
	}
	out, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil
	}
	return out
}

// lineMap reads an object of file path to line numbers.
func (r record) lineMap(keys ...string) map[string][]int {
	m := r.sub(keys...)
	if m == nil {
		return nil
	}
	out := make(map[string][]int, len(m))
	for path, lines := range m {
		if _, isList := lines.([]any); !isList {
			continue
		}
		nums, err := cast.ToIntSliceE(lines)
		if err != nil {
			continue
		}
		out[path] = nums
	}
	return out
}

// number reports a JSON number under key, the way the pagination envelope
// treats only numeric totals as present.
func (r record) number(key string) (int, bool) {
	switch v := r[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}
