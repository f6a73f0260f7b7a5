package instrument

import (
	"encoding/json"
	"strings"
)

const masked = "***"

// Masker hides the values of sensitive keys (case insensitive) in log payloads.
type Masker struct {
	keys map[string]struct{}
}

// NewMasker builds a Masker for the given field names.
func NewMasker(fields []string) Masker {
	keys := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToLower(strings.TrimSpace(field))
		if field != "" {
			keys[field] = struct{}{}
		}
	}
	return Masker{keys: keys}
}

// Empty reports whether no key is masked.
func (m Masker) Empty() bool {
	return len(m.keys) == 0
}

// Hides reports whether values under key are masked.
func (m Masker) Hides(key string) bool {
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Value walks decoded JSON (maps and slices) and masks matching keys.
func (m Masker) Value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.Hides(k) {
				out[k] = masked
				continue
			}
			out[k] = m.Value(inner)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = inner
		}
		return m.Value(out)
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = m.Value(inner)
		}
		return out
	default:
		return v
	}
}

// JSON masks a JSON document. ok is false when payload is not a JSON object or array.
func (m Masker) JSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", false
	}

	out, err := json.Marshal(m.Value(doc))
	if err != nil {
		return "", false
	}
	return string(out), true
}
