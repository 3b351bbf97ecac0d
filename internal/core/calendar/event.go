package calendar

import (
	"fmt"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

// EventOptions tunes the provider event built for each assignment.
type EventOptions struct {
	ReminderMethod string // email | popup
}

const wallClockLayout = constants.DateLayout + "T" + constants.TimeLayout

// BuildEvent turns an assignment into a provider event. Start and end are the
// assignment's wall-clock times on its due date interpreted in loc.
// A zero reminder yields no reminder at all.
func BuildEvent(a entity.Assignment, loc *time.Location, opts EventOptions) (*gcal.Event, error) {
	if loc == nil {
		return nil, fmt.Errorf("%w: nil location", ErrInvalidTimezone)
	}
	start, err := wallClock(a.DueDate, a.StartTime, loc)
	if err != nil {
		return nil, err
	}
	end, err := wallClock(a.DueDate, a.EndTime, loc)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		end = start
	}

	method := opts.ReminderMethod
	if method == "" {
		method = constants.DefaultReminderMethod
	}
	// A zero reminder still sends an override so the notice fires at start time.
	reminders := &gcal.EventReminders{
		UseDefault:      false,
		ForceSendFields: []string{"UseDefault"},
		Overrides: []*gcal.EventReminder{{
			Method:          method,
			Minutes:         int64(a.Reminder),
			ForceSendFields: []string{"Minutes"},
		}},
	}

	return &gcal.Event{
		Summary:     a.Name,
		Description: "Assignment: " + a.Name,
		Start: &gcal.EventDateTime{
			DateTime: start.UTC().Format(time.RFC3339),
			TimeZone: loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: end.UTC().Format(time.RFC3339),
			TimeZone: loc.String(),
		},
		ColorId:   constants.ColorIDForHex(a.Color),
		Reminders: reminders,
	}, nil
}

func wallClock(date, clock string, loc *time.Location) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if clock == "" {
		clock = constants.DefaultTime
	}
	t, err := time.ParseInLocation(wallClockLayout, date+"T"+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q", ErrInvalidEventTime, date, clock)
	}
	return t, nil
}
