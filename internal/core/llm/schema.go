package llm

// BuildCourseJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Extra keys are tolerated; the normalizer decides what survives.
func BuildCourseJSONSchema() map[string]any {
	assignment := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":          map[string]any{"type": "integer"},
			"name":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"due_date":    map[string]any{"type": "string"},
			"start_time":  map[string]any{"type": "string"},
			"end_time":    map[string]any{"type": "string"},
			"color":       map[string]any{"type": "string"},
			"reminder":    map[string]any{"type": "integer"},
		},
	}
	return map[string]any{
		"type":     "object",
		"required": []string{"course_name", "assignments"},
		"properties": map[string]any{
			"course_name": map[string]any{"type": "string", "minLength": 1},
			"assignments": map[string]any{"type": "array", "items": assignment},
		},
	}
}
