package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/calendar"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/llm/provider"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/normalize"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/pipeline"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/textextract"
	"github.com/joseph-ayodele/syllabus-sync/internal/export"
	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
	"github.com/joseph-ayodele/syllabus-sync/internal/server"
	"github.com/joseph-ayodele/syllabus-sync/internal/services/course"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("config.load_failed", "err", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config.invalid", "err", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("syllabusd.exit", "err", err)
		os.Exit(1)
	}
}

func run(cfg *common.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return err
	}
	defer db.Close(logger)

	if err := db.HealthCheck(ctx, cfg.Database.DialTimeout); err != nil {
		return err
	}
	if err := repository.Migrate(ctx, db, logger); err != nil {
		return err
	}

	normalizer, err := normalize.NewFromConfig(cfg.Normalize)
	if err != nil {
		return err
	}
	model, err := provider.New(cfg.LLM, normalizer, logger)
	if err != nil {
		return err
	}

	courses := repository.NewCourseRepository(db, logger)
	text := textextract.NewExtractor(textextract.Config{
		Pdftotext: cfg.TextExtract.Pdftotext,
		Timeout:   cfg.TextExtract.Timeout,
	}, logger)
	syncer := calendar.NewSynchronizer(calendar.GoogleInserterFactory(), logger,
		calendar.WithWorkers(cfg.Calendar.Workers),
		calendar.WithCalendarID(cfg.Calendar.CalendarID),
		calendar.WithReminderMethod(cfg.Calendar.ReminderMethod),
		calendar.WithItemTimeout(cfg.Calendar.RequestTimeout),
	)

	router := server.NewRouter(server.Deps{
		Extraction:     pipeline.NewExtractionPipeline(text, model, courses, logger),
		Courses:        course.NewService(courses, normalizer, logger),
		Calendar:       pipeline.NewSyncPipeline(courses, syncer, logger),
		Export:         export.NewService(courses, logger),
		DB:             db,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health for orchestrators
	grpcSrv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, hs)
	reflection.Register(grpcSrv)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("grpc.serve", "addr", cfg.Server.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("http.serve", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("syllabusd.shutdown")
	case err = <-errCh:
		logger.Error("syllabusd.serve_failed", "err", err)
	}

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if serr := httpSrv.Shutdown(shutCtx); serr != nil {
		logger.Warn("http.shutdown_failed", "err", serr)
	}
	grpcSrv.GracefulStop()
	return err
}
