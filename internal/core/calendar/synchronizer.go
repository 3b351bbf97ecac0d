// Package calendar pushes canonical assignments into the user's external
// calendar, one independent provider call per assignment.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

var (
	ErrReauthRequired      = common.NewAppError("REAUTH_REQUIRED", "calendar credential missing or expired", common.ErrReauthRequired)
	ErrInvalidTimezone     = common.NewAppError("INVALID_TIMEZONE", "timezone is not a known IANA zone", common.ErrInvalidInput)
	ErrInvalidEventTime    = common.NewAppError("INVALID_EVENT_TIME", "assignment date or time cannot be scheduled", common.ErrInvalidInput)
	ErrMissingEventID      = common.NewAppError("MISSING_EVENT_ID", "provider accepted the event without an id", common.ErrUpstream)
	ErrProviderRejected    = common.NewAppError("CALENDAR_REJECTED", "calendar provider rejected the event", common.ErrUpstream)
	ErrProviderUnavailable = common.NewAppError("CALENDAR_UNAVAILABLE", "calendar provider unavailable", common.ErrUpstream)
)

// EventInserter is the single provider call the synchronizer needs.
type EventInserter interface {
	InsertEvent(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error)
}

// InserterFactory binds an inserter to one user's access token.
type InserterFactory func(ctx context.Context, accessToken string) (EventInserter, error)

type Synchronizer struct {
	factory        InserterFactory
	logger         *slog.Logger
	workers        int
	calendarID     string
	reminderMethod string
	itemTimeout    time.Duration
}

type Option func(*Synchronizer)

func WithWorkers(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithCalendarID(id string) Option {
	return func(s *Synchronizer) {
		if id != "" {
			s.calendarID = id
		}
	}
}

func WithReminderMethod(m string) Option {
	return func(s *Synchronizer) {
		if m != "" {
			s.reminderMethod = m
		}
	}
}

func WithItemTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.itemTimeout = d
		}
	}
}

func NewSynchronizer(factory InserterFactory, logger *slog.Logger, opts ...Option) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Synchronizer{
		factory:        factory,
		logger:         logger,
		workers:        4,
		calendarID:     constants.PrimaryCalendarID,
		reminderMethod: constants.DefaultReminderMethod,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type outcome struct {
	eventID string
	err     error
	done    bool
}

// Sync submits every assignment independently and accounts for each one in the
// result. Partial failure is not an error. When ctx ends mid-batch the items
// never submitted are recorded as failures and the result is returned with
// ctx.Err(). A batch in which every item was refused for an expired credential
// returns the result with ErrReauthRequired.
func (s *Synchronizer) Sync(ctx context.Context, assignments []entity.Assignment, credential, timezone string) (entity.SyncResult, error) {
	start := time.Now()
	res := entity.SyncResult{
		Attempted: len(assignments),
		Successes: []entity.SyncSuccess{},
		Failures:  []entity.SyncFailure{},
	}

	if strings.TrimSpace(credential) == "" {
		s.logger.Warn("calendar.sync.reauth_required", "reason", "missing credential")
		return entity.SyncResult{Successes: []entity.SyncSuccess{}, Failures: []entity.SyncFailure{}}, ErrReauthRequired
	}
	loc, err := loadLocation(timezone)
	if err != nil {
		return entity.SyncResult{Successes: []entity.SyncSuccess{}, Failures: []entity.SyncFailure{}}, err
	}
	if len(assignments) == 0 {
		return res, nil
	}

	inserter, err := s.factory(ctx, credential)
	if err != nil {
		s.logger.Error("calendar.sync.inserter_error", "error", err)
		return entity.SyncResult{Successes: []entity.SyncSuccess{}, Failures: []entity.SyncFailure{}}, common.WrapError(err, "calendar: create inserter")
	}

	s.logger.Info("calendar.sync.start",
		"attempted", len(assignments),
		"timezone", loc.String(),
		"calendar_id", s.calendarID,
		"workers", s.workers,
	)

	outcomes := make([]outcome, len(assignments))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range assignments {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcomes[i] = s.submit(ctx, inserter, assignments[i], loc)
			return nil
		})
	}
	_ = g.Wait()

	reauth := 0
	for i, o := range outcomes {
		a := assignments[i]
		if !o.done {
			o.err = ctx.Err()
			if o.err == nil {
				o.err = context.Canceled
			}
		}
		if o.err != nil {
			if errors.Is(o.err, common.ErrReauthRequired) {
				reauth++
			}
			s.logger.Warn("calendar.sync.item_failed", "assignment_id", a.ID, "name", a.Name, "error", o.err)
			res.Failures = append(res.Failures, entity.SyncFailure{AssignmentID: a.ID, Error: o.err.Error(), Err: o.err})
			continue
		}
		res.Successes = append(res.Successes, entity.SyncSuccess{AssignmentID: a.ID, ProviderEventID: o.eventID})
	}

	s.logger.Info("calendar.sync.done",
		"attempted", res.Attempted,
		"added", len(res.Successes),
		"failed", len(res.Failures),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if reauth == res.Attempted {
		return res, ErrReauthRequired
	}
	return res, nil
}

func (s *Synchronizer) submit(ctx context.Context, ins EventInserter, a entity.Assignment, loc *time.Location) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{err: err, done: true}
	}
	ev, err := BuildEvent(a, loc, EventOptions{ReminderMethod: s.reminderMethod})
	if err != nil {
		return outcome{err: err, done: true}
	}

	ictx := ctx
	if s.itemTimeout > 0 {
		var cancel context.CancelFunc
		ictx, cancel = context.WithTimeout(ctx, s.itemTimeout)
		defer cancel()
	}
	created, err := ins.InsertEvent(ictx, s.calendarID, ev)
	if err != nil {
		return outcome{err: err, done: true}
	}
	if created == nil || created.Id == "" {
		return outcome{err: ErrMissingEventID, done: true}
	}
	return outcome{eventID: created.Id, done: true}
}

// loadLocation accepts IANA names only; "Local" would silently mean the server's zone.
func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}
