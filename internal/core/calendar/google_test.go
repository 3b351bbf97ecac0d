package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

func newGoogleTestServer(t *testing.T, status int, reply string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/calendars/primary/events" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("authorization = %q", got)
		}
		if seen != nil {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
}

func insertOne(t *testing.T, srv *httptest.Server) (*gcal.Event, error) {
	t.Helper()
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, srv.Client())
	ins, err := NewGoogleInserter(ctx, "user-token", option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewGoogleInserter: %v", err)
	}
	ev, err := BuildEvent(batch("Midterm Exam")[0], mustLoad(t, "America/Los_Angeles"), EventOptions{})
	if err != nil {
		t.Fatalf("BuildEvent: %v", err)
	}
	return ins.InsertEvent(ctx, "primary", ev)
}

func TestGoogleInserter_Insert(t *testing.T) {
	var seen map[string]any
	srv := newGoogleTestServer(t, http.StatusOK, `{"id":"evt123","status":"confirmed"}`, &seen)
	defer srv.Close()

	created, err := insertOne(t, srv)
	if err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}
	if created.Id != "evt123" {
		t.Fatalf("id = %q", created.Id)
	}
	reminders, _ := seen["reminders"].(map[string]any)
	if reminders == nil || reminders["useDefault"] != false {
		t.Fatalf("reminders not sent with useDefault=false: %v", seen["reminders"])
	}
	if seen["colorId"] != "1" || seen["description"] != "Assignment: Midterm Exam" {
		t.Fatalf("body = %v", seen)
	}
}

func TestGoogleInserter_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
		class   error
	}{
		{name: "expired token", status: http.StatusUnauthorized, wantErr: ErrReauthRequired, class: common.ErrReauthRequired},
		{name: "bad request", status: http.StatusBadRequest, wantErr: ErrProviderRejected, class: common.ErrUpstream},
		{name: "conflict", status: http.StatusConflict, wantErr: ErrProviderRejected, class: common.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newGoogleTestServer(t, tt.status, `{"error":{"code":0,"message":"nope"}}`, nil)
			defer srv.Close()
			_, err := insertOne(t, srv)
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, tt.class) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSynchronizer_WithGoogleInserter(t *testing.T) {
	srv := newGoogleTestServer(t, http.StatusOK, `{"id":"evt-mid"}`, nil)
	defer srv.Close()

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, srv.Client())
	s := NewSynchronizer(GoogleInserterFactory(option.WithEndpoint(srv.URL+"/")), quiet())
	res, err := s.Sync(ctx, batch("Midterm Exam"), "user-token", "America/Los_Angeles")
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if res.Attempted != 1 || len(res.Successes) != 1 || len(res.Failures) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if res.Successes[0].ProviderEventID != "evt-mid" {
		t.Fatalf("event id = %q", res.Successes[0].ProviderEventID)
	}
}
