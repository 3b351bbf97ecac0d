package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

var assignmentStringFields = []string{"name", "description", "due_date", "start_time", "end_time", "color"}

// SanitizeCourseJSON loosens the model payload before schema validation:
// - Trims course_name and assignment string fields
// - Drops nulls and wrongly-typed optionals
// - Coerces id/reminder from numeric strings or integral floats to integers
// The top-level shape is left alone so that structural problems still fail validation.
func SanitizeCourseJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	if s, ok := m["course_name"].(string); ok {
		m["course_name"] = strings.TrimSpace(s)
	}

	if items, ok := m["assignments"].([]any); ok {
		for i, item := range items {
			a, ok := item.(map[string]any)
			if !ok {
				continue
			}
			prefix := fmt.Sprintf("assignments[%d].", i)
			for k, v := range a {
				if v == nil {
					delete(a, k)
					dropped = append(dropped, prefix+k+"(null)")
				}
			}
			for _, k := range []string{"id", "reminder"} {
				v, present := a[k]
				if !present {
					continue
				}
				if n, ok := coerceInt(v); ok {
					a[k] = n
				} else {
					delete(a, k)
					dropped = append(dropped, prefix+k+"(type)")
				}
			}
			for _, k := range assignmentStringFields {
				v, present := a[k]
				if !present {
					continue
				}
				s, ok := v.(string)
				if !ok {
					delete(a, k)
					dropped = append(dropped, prefix+k+"(type)")
					continue
				}
				a[k] = strings.TrimSpace(s)
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func coerceInt(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil {
			return integral(f)
		}
	case float64:
		return integral(t)
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return integral(f)
		}
	}
	return 0, false
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > float64(math.MaxInt64>>1) {
		return 0, false
	}
	return int64(f), true
}
