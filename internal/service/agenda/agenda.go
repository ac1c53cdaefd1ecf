package agenda

import (
	"math"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/clock"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/timeofday"
)

// DefaultDurationMinutes is assumed when an appointment lacks a usable window.
const DefaultDurationMinutes = 60

// EnrichedAppointment is a raw record with derived calendar fields.
type EnrichedAppointment struct {
	model.Appointment

	Date          time.Time               `json:"-"`
	DayOfWeek     int                     `json:"dayOfWeek"`
	DurationHours float64                 `json:"durationHours"`
	Normalized    model.AppointmentStatus `json:"normalizedStatus"`

	// StartMinutes and EndMinutes are minutes since midnight, -1 when the
	// corresponding time is missing or malformed.
	StartMinutes    int `json:"-"`
	EndMinutes      int `json:"-"`
	DurationMinutes int `json:"durationMinutes"`
}

// DateKey is the YYYY-MM-DD bucket of the appointment.
func (a EnrichedAppointment) DateKey() string {
	return model.FormatDate(a.Date)
}

// HasWindow reports whether both times parsed.
func (a EnrichedAppointment) HasWindow() bool {
	return a.StartMinutes >= 0 && a.EndMinutes >= 0
}

type Aggregator struct {
	clock  clock.Clock
	logger *logger.Logger
}

func NewAggregator(c clock.Clock, log *logger.Logger) *Aggregator {
	if c == nil {
		c = clock.System()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Aggregator{clock: c, logger: log.With("agenda")}
}

// Location is the zone calendar dates are read in.
func (a *Aggregator) Location() *time.Location {
	return a.clock.Now().Location()
}

// ForRange enriches the records dated within [start, end], keeping input
// order. Records with unparseable dates are dropped.
func (a *Aggregator) ForRange(start, end time.Time, raw []model.Appointment) []EnrichedAppointment {
	loc := a.Location()
	from := dateIn(start, loc)
	to := dateIn(end, loc)

	out := make([]EnrichedAppointment, 0, len(raw))
	for _, rec := range raw {
		enriched, err := a.Enrich(rec)
		if err != nil {
			a.logger.Warn("dropping appointment with invalid date",
				"appointment_id", rec.ID.String(), "appointment_date", rec.AppointmentDate)
			continue
		}
		if enriched.Date.Before(from) || enriched.Date.After(to) {
			a.logger.Debug("appointment outside requested range",
				"appointment_id", rec.ID.String(), "appointment_date", rec.AppointmentDate)
			continue
		}
		out = append(out, enriched)
	}
	return out
}

// Enrich derives the calendar fields of one record.
func (a *Aggregator) Enrich(rec model.Appointment) (EnrichedAppointment, error) {
	date, err := model.ParseDate(rec.AppointmentDate, a.Location())
	if err != nil {
		return EnrichedAppointment{}, err
	}

	e := EnrichedAppointment{
		Appointment:     rec,
		Date:            date,
		DayOfWeek:       int(date.Weekday()),
		Normalized:      model.NormalizeStatus(rec.Status),
		StartMinutes:    -1,
		EndMinutes:      -1,
		DurationHours:   1.0,
		DurationMinutes: DefaultDurationMinutes,
	}
	e.Status = string(e.Normalized)

	if m, err := timeofday.Minutes(rec.TimeStart); err == nil {
		e.StartMinutes = m
	}
	if m, err := timeofday.Minutes(rec.TimeEnd); err == nil {
		e.EndMinutes = m
	}
	if e.HasWindow() {
		diff := e.EndMinutes - e.StartMinutes
		e.DurationHours = DurationHours(diff)
		if diff > 0 {
			e.DurationMinutes = diff
		}
	}
	return e, nil
}

// DurationHours rounds minutes to the nearest half hour, never below 0.5.
func DurationHours(minutes int) float64 {
	h := math.Round(float64(minutes)/60*2) / 2
	if h < 0.5 {
		return 0.5
	}
	return h
}

// GroupByDate buckets appointments by YYYY-MM-DD, keeping input order
// within each bucket.
func GroupByDate(appts []EnrichedAppointment) map[string][]EnrichedAppointment {
	groups := make(map[string][]EnrichedAppointment)
	for _, a := range appts {
		key := a.DateKey()
		groups[key] = append(groups[key], a)
	}
	return groups
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
