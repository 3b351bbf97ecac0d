package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

type fakeInserter struct {
	mu     sync.Mutex
	calls  []*gcal.Event
	insert func(ev *gcal.Event) (*gcal.Event, error)
}

func (f *fakeInserter) InsertEvent(_ context.Context, _ string, ev *gcal.Event) (*gcal.Event, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ev)
	f.mu.Unlock()
	return f.insert(ev)
}

func factoryFor(ins EventInserter) InserterFactory {
	return func(context.Context, string) (EventInserter, error) { return ins, nil }
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func batch(names ...string) []entity.Assignment {
	out := make([]entity.Assignment, 0, len(names))
	for i, n := range names {
		out = append(out, entity.Assignment{
			ID: int64(i + 1), Name: n, DueDate: "2025-03-15",
			StartTime: "23:59", EndTime: "23:59", Color: "#7986cb", Reminder: 1440,
		})
	}
	return out
}

func TestSync_PartialFailure(t *testing.T) {
	ins := &fakeInserter{insert: func(ev *gcal.Event) (*gcal.Event, error) {
		if ev.Summary == "HW 2" {
			return nil, fmt.Errorf("%w: status 400: bad", ErrProviderRejected)
		}
		return &gcal.Event{Id: "evt-" + ev.Summary}, nil
	}}
	s := NewSynchronizer(factoryFor(ins), quiet(), WithWorkers(2))

	res, err := s.Sync(context.Background(), batch("HW 1", "HW 2", "HW 3"), "token", "UTC")
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if res.Attempted != 3 || len(res.Successes)+len(res.Failures) != 3 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Failures) != 1 || res.Failures[0].AssignmentID != 2 {
		t.Fatalf("failures = %+v", res.Failures)
	}
	for _, s := range res.Successes {
		if s.AssignmentID == 2 {
			t.Fatalf("failed assignment also recorded as success")
		}
	}
	if res.Successes[0].AssignmentID != 1 || res.Successes[0].ProviderEventID != "evt-HW 1" {
		t.Fatalf("successes not in input order: %+v", res.Successes)
	}
	if got := res.Summary(); got != "2 of 3 added" {
		t.Fatalf("summary = %q", got)
	}
}

func TestSync_MissingEventID(t *testing.T) {
	ins := &fakeInserter{insert: func(*gcal.Event) (*gcal.Event, error) { return &gcal.Event{}, nil }}
	res, err := NewSynchronizer(factoryFor(ins), quiet()).Sync(context.Background(), batch("A"), "token", "UTC")
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if len(res.Failures) != 1 || !errors.Is(res.Failures[0].Err, ErrMissingEventID) {
		t.Fatalf("failures = %+v", res.Failures)
	}
}

func TestSync_Preconditions(t *testing.T) {
	ins := &fakeInserter{insert: func(*gcal.Event) (*gcal.Event, error) { return &gcal.Event{Id: "x"}, nil }}
	s := NewSynchronizer(factoryFor(ins), quiet())

	tests := []struct {
		name       string
		credential string
		tz         string
		wantErr    error
		class      error
	}{
		{name: "missing credential", credential: "", tz: "UTC", wantErr: ErrReauthRequired, class: common.ErrReauthRequired},
		{name: "blank credential", credential: "  ", tz: "UTC", wantErr: ErrReauthRequired, class: common.ErrReauthRequired},
		{name: "unknown zone", credential: "t", tz: "Mars/Olympus", wantErr: ErrInvalidTimezone, class: common.ErrInvalidInput},
		{name: "empty zone", credential: "t", tz: "", wantErr: ErrInvalidTimezone, class: common.ErrInvalidInput},
		{name: "server local zone", credential: "t", tz: "Local", wantErr: ErrInvalidTimezone, class: common.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Sync(context.Background(), batch("A"), tt.credential, tt.tz)
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, tt.class) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if len(ins.calls) != 0 {
		t.Fatalf("provider called %d times despite failed precondition", len(ins.calls))
	}
}

func TestSync_AllReauth(t *testing.T) {
	ins := &fakeInserter{insert: func(*gcal.Event) (*gcal.Event, error) {
		return nil, fmt.Errorf("%w: Invalid Credentials", ErrReauthRequired)
	}}
	res, err := NewSynchronizer(factoryFor(ins), quiet()).Sync(context.Background(), batch("A", "B"), "expired", "UTC")
	if !errors.Is(err, common.ErrReauthRequired) {
		t.Fatalf("err = %v, want reauth", err)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(res.Failures))
	}
}

func TestSync_CancelledKeepsAccounting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ins := &fakeInserter{insert: func(ev *gcal.Event) (*gcal.Event, error) {
		cancel()
		return &gcal.Event{Id: "evt-" + ev.Summary}, nil
	}}
	s := NewSynchronizer(factoryFor(ins), quiet(), WithWorkers(1))

	res, err := s.Sync(ctx, batch("A", "B", "C", "D"), "token", "UTC")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.Attempted != 4 || len(res.Successes)+len(res.Failures) != 4 {
		t.Fatalf("result lost items: %+v", res)
	}
	if len(res.Successes) < 1 {
		t.Fatalf("in-flight success discarded: %+v", res)
	}
	for _, f := range res.Failures {
		if !errors.Is(f.Err, context.Canceled) {
			t.Fatalf("failure %+v not attributed to cancellation", f)
		}
	}
}

func TestSync_EmptyBatch(t *testing.T) {
	called := false
	f := func(context.Context, string) (EventInserter, error) { called = true; return nil, nil }
	res, err := NewSynchronizer(f, quiet()).Sync(context.Background(), nil, "token", "UTC")
	if err != nil || res.Attempted != 0 || called {
		t.Fatalf("res=%+v err=%v called=%v", res, err, called)
	}
}
