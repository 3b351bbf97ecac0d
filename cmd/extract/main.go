package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/llm/provider"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/normalize"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/pipeline"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/textextract"
)

// extract prints the course extracted from a local PDF or Word file as JSON.
// Nothing is persisted.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: extract <file.pdf|file.doc|file.docx>")
		os.Exit(2)
	}
	path := os.Args[1]

	mimeType := constants.MapExtToMime(filepath.Ext(path))
	if mimeType == "" {
		logger.Error("unsupported file type", "path", path)
		os.Exit(2)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file failed", "path", path, "err", err)
		os.Exit(1)
	}

	cfg, err := common.LoadConfig()
	if err == nil {
		err = cfg.ValidateLLM()
	}
	if err != nil {
		logger.Error("config invalid", "err", err)
		os.Exit(2)
	}
	normalizer, err := normalize.NewFromConfig(cfg.Normalize)
	if err != nil {
		logger.Error("normalizer config invalid", "err", err)
		os.Exit(2)
	}
	model, err := provider.New(cfg.LLM, normalizer, logger)
	if err != nil {
		logger.Error("llm config invalid", "err", err)
		os.Exit(2)
	}
	text := textextract.NewExtractor(textextract.Config{
		Pdftotext: cfg.TextExtract.Pdftotext,
		Timeout:   cfg.TextExtract.Timeout,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LLM.Timeout+cfg.TextExtract.Timeout)
	defer cancel()

	out, err := pipeline.NewExtractionPipeline(text, model, nil, logger).Run(ctx, pipeline.Upload{
		Filename: path,
		MimeType: mimeType,
		Data:     data,
	})
	if err != nil {
		logger.Error("extraction failed", "path", path, "code", common.AppCode(err), "err", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out.Course); err != nil {
		logger.Error("encode failed", "err", err)
		os.Exit(1)
	}
	logger.Info("extraction done", "pages", out.Pages, "method", out.Method, "assignments", len(out.Course.Assignments))
}
