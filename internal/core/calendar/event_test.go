package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	return loc
}

func TestBuildEvent_UsesCallerTimezone(t *testing.T) {
	loc := mustLoad(t, "America/Los_Angeles")
	a := entity.Assignment{
		ID: 1, Name: "Lab 1", Description: "secret notes", DueDate: "2025-02-07",
		StartTime: "12:00", EndTime: "13:30", Color: "#0b8043", Reminder: 30,
	}
	ev, err := BuildEvent(a, loc, EventOptions{})
	if err != nil {
		t.Fatalf("BuildEvent error: %v", err)
	}
	if ev.Start.DateTime != "2025-02-07T20:00:00Z" {
		t.Fatalf("start = %s, want 2025-02-07T20:00:00Z", ev.Start.DateTime)
	}
	if ev.End.DateTime != "2025-02-07T21:30:00Z" {
		t.Fatalf("end = %s", ev.End.DateTime)
	}
	if ev.Start.TimeZone != "America/Los_Angeles" {
		t.Fatalf("timezone = %s", ev.Start.TimeZone)
	}
	if ev.Summary != "Lab 1" || ev.Description != "Assignment: Lab 1" {
		t.Fatalf("summary/description = %q / %q", ev.Summary, ev.Description)
	}
	if ev.ColorId != "10" {
		t.Fatalf("colorId = %s, want 10", ev.ColorId)
	}
	if ev.Reminders.UseDefault || len(ev.Reminders.Overrides) != 1 {
		t.Fatalf("reminders = %+v", ev.Reminders)
	}
	if o := ev.Reminders.Overrides[0]; o.Minutes != 30 || o.Method != "email" {
		t.Fatalf("override = %+v", o)
	}
}

func TestBuildEvent_DefaultsAndEdges(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	ev, err := BuildEvent(entity.Assignment{Name: "X", DueDate: "2025-07-01", StartTime: "10:00", EndTime: "09:00", Color: "#abcdef"}, loc, EventOptions{ReminderMethod: "popup"})
	if err != nil {
		t.Fatalf("BuildEvent error: %v", err)
	}
	if ev.ColorId != "1" {
		t.Fatalf("unknown hex colorId = %s, want 1", ev.ColorId)
	}
	if ev.End.DateTime != ev.Start.DateTime {
		t.Fatalf("end %s before start %s not clamped", ev.End.DateTime, ev.Start.DateTime)
	}
	if ev.Start.DateTime != "2025-07-01T14:00:00Z" {
		t.Fatalf("EDT start = %s", ev.Start.DateTime)
	}
	if ev.Reminders.UseDefault || len(ev.Reminders.Overrides) != 1 {
		t.Fatalf("zero reminder overrides = %+v", ev.Reminders)
	}
	o := ev.Reminders.Overrides[0]
	if o.Minutes != 0 || o.Method != "popup" {
		t.Fatalf("zero reminder override = %+v", o)
	}
	if len(o.ForceSendFields) != 1 || o.ForceSendFields[0] != "Minutes" {
		t.Fatalf("zero minutes must be force-sent, got %v", o.ForceSendFields)
	}
}

func TestBuildEvent_BadDate(t *testing.T) {
	_, err := BuildEvent(entity.Assignment{Name: "X", DueDate: "March 3", StartTime: "10:00", EndTime: "10:00"}, time.UTC, EventOptions{})
	if !errors.Is(err, ErrInvalidEventTime) || !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidEventTime", err)
	}
}
