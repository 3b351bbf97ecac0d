package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-sync/internal/core/llm"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

var _ llm.CourseExtractor = (*Client)(nil)

// ExtractCourseData implements llm.CourseExtractor using text-only chat/completions.
func (c *Client) ExtractCourseData(ctx context.Context, req llm.ExtractRequest) (entity.CourseData, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := c.logger.With("req_id", rid)

	log.Info("llm.extract.start",
		"provider", "openai",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"filename", req.FilenameHint,
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req)},
		},
	}
	if c.cfg.MaxTokens > 0 {
		body["max_tokens"] = c.cfg.MaxTokens
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, rid, c.logger)
	if err != nil {
		log.Error("llm.extract.http_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.CourseData{}, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		log.Error("llm.extract.decode_error", "error", err, "raw_bytes", len(raw))
		return entity.CourseData{}, nil, fmt.Errorf("%w: decode chat response: %v", llm.ErrUnexpectedResponseShape, err)
	}
	if len(cc.Choices) == 0 || strings.TrimSpace(cc.Choices[0].Message.Content) == "" {
		log.Error("llm.extract.no_content", "choices", len(cc.Choices), "elapsed_ms", time.Since(start).Milliseconds())
		return entity.CourseData{}, nil, fmt.Errorf("%w: no text content in choices", llm.ErrUnexpectedResponseShape)
	}
	if cc.Choices[0].FinishReason == "length" {
		log.Warn("llm.extract.truncated", "max_tokens", c.cfg.MaxTokens)
	}

	out, rawJSON, err := llm.BuildCourseData(cc.Choices[0].Message.Content, c.normalizer, log)
	if err != nil {
		return entity.CourseData{}, rawJSON, err
	}

	log.Info("llm.extract.ok",
		"course_name", out.CourseName,
		"assignments", len(out.Assignments),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawJSON, nil
}
