package llm

import (
	"strconv"
	"strings"

	"github.com/joseph-ayodele/syllabus-sync/constants"
)

// MaxPromptChars caps the syllabus text sent to the model.
const MaxPromptChars = 60000

// BuildSystemPrompt fixes the output contract: formats, defaults, unique ids and literal extraction.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a precise course information extraction assistant.",
		"Extract only explicitly stated information from the syllabus. Follow these rules:",
		"1. Only extract assignments, exams, and deadlines that have specific dates.",
		"2. Dates must be in YYYY-MM-DD format.",
		"3. Times must be in 24-hour HH:mm format.",
		"4. If no specific time is mentioned, use \"" + constants.DefaultTime + "\".",
		"5. If only a start time is mentioned, the end time is the same as the start time.",
		"6. Give each assignment a unique integer id within this response.",
		"7. Set reminder to " + strconv.Itoa(constants.DefaultReminderMinutes) + " (minutes, one day) if not specified.",
		"8. Use a color from this list: " + strings.Join(constants.Colors, ", ") + ".",
		"Do not infer or generate any data not directly present in the source text.",
		"Return exactly one JSON object and nothing else.",
	}
	return strings.Join(parts, "\n")
}

const courseShape = `{
  "course_name": "Course Name",
  "assignments": [
    {
      "id": number,
      "name": "Assignment Name",
      "description": "Description",
      "due_date": "YYYY-MM-DD",
      "color": "hex color from the provided list",
      "start_time": "HH:mm",
      "end_time": "HH:mm",
      "reminder": number (minutes)
    }
  ]
}`

// BuildUserPrompt carries the exact output shape and the syllabus text.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	b.WriteString("Extract course information and assignments from this syllabus in this exact format:\n")
	b.WriteString(courseShape)
	b.WriteString("\n\n")
	if name := strings.TrimSpace(req.FilenameHint); name != "" {
		b.WriteString("Filename: ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString("Syllabus text:\n")
	b.WriteString(truncateRunes(req.Text, MaxPromptChars))
	return b.String()
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
