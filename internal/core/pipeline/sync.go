package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

var ErrNothingToSync = common.NewAppError("NOTHING_TO_SYNC", "no assignments or course id given", common.ErrInvalidInput)

// CourseReader loads a persisted course with its assignments.
type CourseReader interface {
	GetCourse(ctx context.Context, courseID uuid.UUID) (*entity.Course, error)
}

// Syncer is satisfied by *calendar.Synchronizer.
type Syncer interface {
	Sync(ctx context.Context, assignments []entity.Assignment, credential, timezone string) (entity.SyncResult, error)
}

// SyncRequest names the assignments to push either directly or by course.
// Explicit assignments win over CourseID.
type SyncRequest struct {
	CourseID    uuid.UUID
	Assignments []entity.Assignment
	Credential  string
	Timezone    string
}

type SyncPipeline struct {
	courses CourseReader
	syncer  Syncer
	logger  *slog.Logger
}

func NewSyncPipeline(courses CourseReader, syncer Syncer, logger *slog.Logger) *SyncPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncPipeline{courses: courses, syncer: syncer, logger: logger}
}

func (p *SyncPipeline) Run(ctx context.Context, req SyncRequest) (entity.SyncResult, error) {
	start := time.Now()
	items := req.Assignments
	if len(items) == 0 {
		if req.CourseID == uuid.Nil {
			return entity.SyncResult{}, ErrNothingToSync
		}
		course, err := p.courses.GetCourse(ctx, req.CourseID)
		if err != nil {
			return entity.SyncResult{}, err
		}
		items = course.Assignments
		if len(items) == 0 {
			return entity.SyncResult{}, fmt.Errorf("%w: course %s has no assignments", ErrNothingToSync, req.CourseID)
		}
	}

	res, err := p.syncer.Sync(ctx, items, req.Credential, req.Timezone)
	p.logger.Info("pipeline.sync.done",
		"course_id", req.CourseID,
		"attempted", res.Attempted,
		"added", len(res.Successes),
		"error", err,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, err
}
