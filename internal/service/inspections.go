package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
)

var ErrAlertsDisabled = errors.New("alerts not configured")

// Alerter delivers a plain text alert to the operators.
type Alerter interface {
	SendAlert(ctx context.Context, subject, message string) error
}

// InspectionService schedules recurring inspections from the
// naechstePruefung dates of committed protocols.
type InspectionService struct {
	protocols *ProtocolService
	alerter   Alerter
	now       func() time.Time
}

type DueInspection struct {
	ProtocolID       string `json:"protocolId"`
	Anlage           string `json:"anlage"`
	Auftraggeber     string `json:"auftraggeber"`
	NaechstePruefung string `json:"naechstePruefung"`
	DaysUntil        int    `json:"daysUntil"`
	Overdue          bool   `json:"overdue"`
}

func (s *InspectionService) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Due lists protocols whose next inspection falls on or before the given
// date, soonest first. A zero before means today. Protocols without a
// parseable date are skipped.
func (s *InspectionService) Due(before time.Time) []DueInspection {
	today := s.today()
	if before.IsZero() {
		before = today
	}
	var out []DueInspection
	for _, p := range s.protocols.List() {
		next, err := time.Parse(domain.DateLayout, p.NaechstePruefung())
		if err != nil || next.After(before) {
			continue
		}
		days := int(next.Sub(today).Hours() / 24)
		out = append(out, DueInspection{
			ProtocolID:       p.ID(),
			Anlage:           p.Anlage(),
			Auftraggeber:     p.Auftraggeber(),
			NaechstePruefung: p.NaechstePruefung(),
			DaysUntil:        days,
			Overdue:          days < 0,
		})
	}
	slices.SortStableFunc(out, func(a, b DueInspection) int {
		return strings.Compare(a.NaechstePruefung, b.NaechstePruefung)
	})
	return out
}

// Remind sends one alert listing every inspection due by before. It returns
// the number of listed inspections; nothing is sent when none are due.
func (s *InspectionService) Remind(ctx context.Context, before time.Time) (int, error) {
	if s.alerter == nil {
		return 0, ErrAlertsDisabled
	}
	due := s.Due(before)
	if len(due) == 0 {
		return 0, nil
	}
	subject, message := reminder(due)
	if err := s.alerter.SendAlert(ctx, subject, message); err != nil {
		return 0, fmt.Errorf("send reminder: %w", err)
	}
	return len(due), nil
}

func reminder(due []DueInspection) (string, string) {
	subject := fmt.Sprintf("Wiederholungsprüfungen fällig: %d", len(due))
	var b strings.Builder
	for _, d := range due {
		state := fmt.Sprintf("in %d Tagen", d.DaysUntil)
		switch {
		case d.Overdue:
			state = fmt.Sprintf("seit %d Tagen überfällig", -d.DaysUntil)
		case d.DaysUntil == 0:
			state = "heute"
		}
		fmt.Fprintf(&b, "- %s (%s): %s, %s\n", d.Anlage, d.Auftraggeber, d.NaechstePruefung, state)
	}
	return subject, b.String()
}
