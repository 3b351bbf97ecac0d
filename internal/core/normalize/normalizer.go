// Package normalize applies the defaulting, id and color rules that turn raw
// extracted assignments into canonical ones.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

// Mode decides whether model-supplied ids are kept.
type Mode int

const (
	// ModeFresh replaces every id with one from the batch generator.
	ModeFresh Mode = iota
	// ModeTrusted keeps a positive id the batch has not seen yet.
	ModeTrusted
)

type Normalizer struct {
	colors ColorPolicy
	mode   Mode
}

type Option func(*Normalizer)

func WithColorPolicy(p ColorPolicy) Option {
	return func(n *Normalizer) {
		if p != nil {
			n.colors = p
		}
	}
}

func WithMode(m Mode) Option {
	return func(n *Normalizer) { n.mode = m }
}

// New returns a fresh-mode normalizer with a uniform random color policy unless overridden.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{colors: RandomPalette(), mode: ModeFresh}
	for _, o := range opts {
		o(n)
	}
	return n
}

// NewFromConfig builds a fresh-mode normalizer with the configured color policy.
func NewFromConfig(cfg common.NormalizeConfig) (*Normalizer, error) {
	p, err := PolicyFromConfig(cfg.ColorPolicy, cfg.Seed)
	if err != nil {
		return nil, err
	}
	return New(WithColorPolicy(p)), nil
}

// Normalize applies the rules to one item. It never fails: malformed dates
// and times are passed through for the edit form to surface. A nil ids
// generator gets a private counter.
func (n *Normalizer) Normalize(raw entity.RawAssignment, ids IDGenerator) entity.Assignment {
	if ids == nil {
		ids = NewCounter()
	}

	a := entity.Assignment{
		Name:        strings.TrimSpace(raw.Name),
		Description: strings.TrimSpace(raw.Description),
		DueDate:     strings.TrimSpace(raw.DueDate),
	}

	a.Reminder = constants.DefaultReminderMinutes
	if raw.Reminder != nil && *raw.Reminder > 0 {
		a.Reminder = *raw.Reminder
	}

	a.StartTime = canonicalTime(raw.StartTime)
	if a.StartTime == "" {
		a.StartTime = constants.DefaultTime
	}
	a.EndTime = canonicalTime(raw.EndTime)
	if a.EndTime == "" {
		a.EndTime = a.StartTime
	}
	// HH:mm compares correctly as a string.
	if common.IsClockTime(a.StartTime) && common.IsClockTime(a.EndTime) && a.EndTime < a.StartTime {
		a.EndTime = a.StartTime
	}

	a.ID = n.assignID(raw.ID, ids)
	a.Color = n.colors.Pick(a.ID)
	return a
}

// NormalizeBatch normalizes raws in order with one id generator for the batch.
func (n *Normalizer) NormalizeBatch(raws []entity.RawAssignment) []entity.Assignment {
	ids := NewCounter()
	out := make([]entity.Assignment, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Normalize(raw, ids))
	}
	return out
}

func (n *Normalizer) assignID(modelID *int64, ids IDGenerator) int64 {
	if n.mode == ModeTrusted && modelID != nil && *modelID > 0 && ids.Claim(*modelID) {
		return *modelID
	}
	return ids.Next()
}

var reClock = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// canonicalTime zero-pads a valid H:mm time; anything else is returned trimmed.
func canonicalTime(s string) string {
	s = strings.TrimSpace(s)
	m := reClock.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return s
	}
	return fmt.Sprintf("%02d:%02d", h, mm)
}
