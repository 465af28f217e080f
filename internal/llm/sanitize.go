package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"
)

// SanitizeTeamJSON normalizes a raw model response before validation:
//   - trims string values and drops unknown keys (additionalProperties=false
//     friendliness)
//   - fills absent or empty OPTIONAL fields with the NotMentioned sentinel,
//     for models that omit rather than sentinel-fill
//
// Required fields are never touched: their absence must remain a validation
// failure. Returns the cleaned document plus the list of adjusted keys.
func SanitizeTeamJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	adjusted := make([]string, 0, 4)

	// 1) drop unknown keys
	known := make(map[string]struct{}, len(fieldOrder))
	for _, name := range fieldOrder {
		known[name] = struct{}{}
	}
	for k := range maps.Clone(m) {
		if _, ok := known[k]; !ok {
			delete(m, k)
			adjusted = append(adjusted, k+"(unknown)")
		}
	}

	// 2) trim strings; non-string values for our all-text schema are dropped
	for k, v := range maps.Clone(m) {
		switch t := v.(type) {
		case string:
			m[k] = strings.TrimSpace(t)
		default:
			delete(m, k)
			adjusted = append(adjusted, k+"(type)")
		}
	}

	// 3) sentinel-fill empty or missing optionals; teamName is exempt because
	// it has its own fallback chain (document content, then file name, then a
	// positional label at render time)
	for _, name := range OptionalFields() {
		if name == "teamName" {
			continue
		}
		if s, ok := m[name].(string); !ok || s == "" {
			m[name] = NotMentioned
			adjusted = append(adjusted, name+"(sentinel)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, adjusted, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(adjusted) > 0 {
		logger.Warn("llm.extract.sanitize", "adjusted", adjusted)
	}
	return out, adjusted, nil
}
