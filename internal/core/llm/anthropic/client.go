package anthropic

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

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// ExtractCourseData implements llm.CourseExtractor with a single Messages API call.
func (c *Client) ExtractCourseData(ctx context.Context, req llm.ExtractRequest) (entity.CourseData, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := c.logger.With("req_id", rid)

	log.Info("llm.extract.start",
		"provider", "anthropic",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"filename", req.FilenameHint,
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
		"system":      llm.BuildSystemPrompt(),
		"messages": []map[string]any{
			{"role": "user", "content": llm.BuildUserPrompt(req)},
		},
	}
	headers := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": c.cfg.Version,
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/messages"
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, rid, c.logger)
	if err != nil {
		log.Error("llm.extract.http_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.CourseData{}, nil, err
	}

	var msg messagesResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Error("llm.extract.decode_error", "error", err, "raw_bytes", len(raw))
		return entity.CourseData{}, nil, fmt.Errorf("%w: decode messages response: %v", llm.ErrUnexpectedResponseShape, err)
	}
	if len(msg.Content) == 0 || msg.Content[0].Type != "text" {
		blockType := ""
		if len(msg.Content) > 0 {
			blockType = msg.Content[0].Type
		}
		log.Error("llm.extract.unexpected_block", "block_type", blockType, "blocks", len(msg.Content))
		return entity.CourseData{}, nil, fmt.Errorf("%w: first block type %q", llm.ErrUnexpectedResponseShape, blockType)
	}
	if msg.StopReason == "max_tokens" {
		log.Warn("llm.extract.truncated", "max_tokens", c.cfg.MaxTokens)
	}

	out, rawJSON, err := llm.BuildCourseData(msg.Content[0].Text, c.normalizer, log)
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
