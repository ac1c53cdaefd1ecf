package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/agenda"
	"github.com/jwalitptl/clinic-scheduler/pkg/clock"
)

// DefaultFetchTimeout bounds every appointment fetch.
const DefaultFetchTimeout = 10 * time.Second

// AppointmentLister is the read side of the appointment store.
type AppointmentLister interface {
	ListAppointments(ctx context.Context, start, end time.Time) ([]model.Appointment, error)
}

// Service fetches a date window and lays it out. It holds no view state.
type Service struct {
	store   AppointmentLister
	agg     *agenda.Aggregator
	layout  *Layout
	clock   clock.Clock
	timeout time.Duration
}

func NewService(store AppointmentLister, agg *agenda.Aggregator, layout *Layout, c clock.Clock, timeout time.Duration) *Service {
	if c == nil {
		c = clock.System()
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Service{store: store, agg: agg, layout: layout, clock: c, timeout: timeout}
}

func (s *Service) Layout() *Layout {
	return s.layout
}

func (s *Service) Clock() clock.Clock {
	return s.clock
}

// Location is the zone request dates are interpreted in.
func (s *Service) Location() *time.Location {
	return s.agg.Location()
}

// Fetch loads and enriches the appointments dated within [start, end].
func (s *Service) Fetch(ctx context.Context, start, end time.Time) ([]agenda.EnrichedAppointment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.store.ListAppointments(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments %s..%s: %w",
			model.FormatDate(start), model.FormatDate(end), err)
	}
	return s.agg.ForRange(start, end, raw), nil
}

// Week fetches and lays out the week containing anchor.
func (s *Service) Week(ctx context.Context, anchor time.Time) (*WeekView, error) {
	start, end := s.layout.WeekBounds(anchor)
	appts, err := s.Fetch(ctx, start, end)
	if err != nil {
		return nil, err
	}
	view := s.layout.Week(anchor, appts, s.clock.Now())
	return &view, nil
}

// Month fetches and lays out the month containing anchor.
func (s *Service) Month(ctx context.Context, anchor time.Time) (*MonthView, error) {
	start, end := s.layout.MonthBounds(anchor)
	appts, err := s.Fetch(ctx, start, end)
	if err != nil {
		return nil, err
	}
	view := s.layout.Month(anchor, appts, s.clock.Now())
	return &view, nil
}
