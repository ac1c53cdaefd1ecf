package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/agenda"
	"github.com/jwalitptl/clinic-scheduler/pkg/clock"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
)

var wednesday = time.Date(2025, 1, 8, 9, 10, 0, 0, time.UTC)

func enrich(t *testing.T, recs ...model.Appointment) []agenda.EnrichedAppointment {
	t.Helper()
	agg := agenda.NewAggregator(clock.NewFixed(wednesday), logger.Nop())
	out := make([]agenda.EnrichedAppointment, 0, len(recs))
	for _, r := range recs {
		e, err := agg.Enrich(r)
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func newLayout() *Layout {
	return NewLayout(DefaultGridConfig(), logger.Nop())
}

func TestSlotForAnchorsInExactlyOneSlot(t *testing.T) {
	l := newLayout()
	appt := enrich(t, model.Appointment{ID: "1", AppointmentDate: "2025-01-08", TimeStart: "09:00", TimeEnd: "09:30"})[0]

	start, _ := l.WeekBounds(wednesday)
	for d := 0; d < 7; d++ {
		day := start.AddDate(0, 0, d)
		for h := 0; h < 24; h++ {
			want := model.FormatDate(day) == "2025-01-08" && h == 9
			assert.Equal(t, want, l.SlotFor(appt, day, h), "day %s hour %d", model.FormatDate(day), h)
		}
	}

	week := l.Week(wednesday, []agenda.EnrichedAppointment{appt}, wednesday)
	require.Len(t, week.Placements, 1)
	assert.Equal(t, "9 AM", week.Placements[0].SlotLabel)
}

func TestLongAppointmentIsNotDuplicatedAcrossSlots(t *testing.T) {
	l := newLayout()
	appt := enrich(t, model.Appointment{ID: "1", AppointmentDate: "2025-01-08", TimeStart: "10:45", TimeEnd: "13:15"})[0]

	week := l.Week(wednesday, []agenda.EnrichedAppointment{appt}, wednesday)
	require.Len(t, week.Placements, 1)
	p := week.Placements[0]
	assert.Equal(t, 10, p.SlotHour)
	assert.Equal(t, 2, p.DayIndex)
	assert.Equal(t, 165.0, p.Top)
	assert.Equal(t, 150.0, p.Height)
}

func TestPosition(t *testing.T) {
	cfg := DefaultGridConfig()
	cfg.PixelsPerMinute = 2
	cfg.TopOffset = 40
	cfg.MinHeight = 30
	l := NewLayout(cfg, logger.Nop())

	appts := enrich(t,
		model.Appointment{AppointmentDate: "2025-01-08", TimeStart: "09:30", TimeEnd: "10:30"},
		model.Appointment{AppointmentDate: "2025-01-08", TimeStart: "08:00", TimeEnd: "08:10"},
	)

	top, height := l.Position(appts[0])
	assert.Equal(t, 40.0+90*2, top)
	assert.Equal(t, 120.0, height)

	top, height = l.Position(appts[1])
	assert.Equal(t, 40.0, top)
	assert.Equal(t, 30.0, height)
}

func TestIsOngoing(t *testing.T) {
	l := newLayout()
	appt := enrich(t, model.Appointment{AppointmentDate: "2025-01-08", TimeStart: "09:00", TimeEnd: "09:30", Status: "scheduled"})[0]

	at := func(day, hour, min int) time.Time { return time.Date(2025, 1, day, hour, min, 0, 0, time.UTC) }

	assert.False(t, l.IsOngoing(appt, at(8, 8, 59)))
	assert.True(t, l.IsOngoing(appt, at(8, 9, 0)))
	assert.True(t, l.IsOngoing(appt, at(8, 9, 29)))
	assert.False(t, l.IsOngoing(appt, at(8, 9, 30)))
	assert.False(t, l.IsOngoing(appt, at(9, 9, 10)))

	assert.Equal(t, model.AppointmentStatusOngoing, l.DisplayStatus(appt, at(8, 9, 10)))
	assert.Equal(t, model.AppointmentStatusScheduled, appt.Normalized)
}

func TestWeekBoundsStartMonday(t *testing.T) {
	l := newLayout()
	for _, anchor := range []string{"2025-01-06", "2025-01-08", "2025-01-12"} {
		d, _ := time.Parse(model.DateLayout, anchor)
		start, end := l.WeekBounds(d)
		assert.Equal(t, "2025-01-06", model.FormatDate(start), anchor)
		assert.Equal(t, "2025-01-12", model.FormatDate(end), anchor)
	}

	cfg := DefaultGridConfig()
	cfg.WeekStart = time.Sunday
	start, _ := NewLayout(cfg, logger.Nop()).WeekBounds(wednesday)
	assert.Equal(t, "2025-01-05", model.FormatDate(start))
}

func TestWeekTimeIndicator(t *testing.T) {
	l := newLayout()

	week := l.Week(wednesday, nil, wednesday)
	require.NotNil(t, week.Now)
	assert.Equal(t, 2, week.Now.DayIndex)
	assert.Equal(t, "09:10", week.Now.Time)
	assert.Equal(t, 70.0, week.Now.Top)
	assert.True(t, week.Days[2].Today)
	require.Len(t, week.Slots, 10)
	assert.Equal(t, "8 AM", week.Slots[0].Label)
	assert.Equal(t, "5 PM", week.Slots[9].Label)

	evening := time.Date(2025, 1, 8, 19, 0, 0, 0, time.UTC)
	assert.Nil(t, l.Week(wednesday, nil, evening).Now)

	nextWeek := wednesday.AddDate(0, 0, 7)
	assert.Nil(t, l.Week(nextWeek, nil, wednesday).Now)
}

func TestWeekSkipsAppointmentsBeforeGridStart(t *testing.T) {
	l := newLayout()
	appts := enrich(t, model.Appointment{AppointmentDate: "2025-01-08", TimeStart: "07:00", TimeEnd: "07:30"})

	assert.Empty(t, l.Week(wednesday, appts, wednesday).Placements)
	month := l.Month(wednesday, appts, wednesday)
	assert.Len(t, findCell(t, month, "2025-01-08").Appointments, 1)
}

func TestMonthCapsCellsAndCountsOverflow(t *testing.T) {
	l := newLayout()
	var recs []model.Appointment
	for _, id := range []model.ID{"5", "1", "4", "2", "3"} {
		recs = append(recs, model.Appointment{ID: id, AppointmentDate: "2025-01-15", TimeStart: "09:00", TimeEnd: "10:00"})
	}
	recs = append(recs, model.Appointment{ID: "9", AppointmentDate: "2025-01-16", TimeStart: "09:00", TimeEnd: "10:00"})

	month := l.Month(wednesday, enrich(t, recs...), wednesday)

	assert.Equal(t, "2025-01", month.Month)
	for _, week := range month.Weeks {
		assert.Len(t, week, 7)
	}
	assert.Equal(t, "2024-12-30", month.Weeks[0][0].Date)
	assert.False(t, month.Weeks[0][0].InMonth)

	cell := findCell(t, month, "2025-01-15")
	require.Len(t, cell.Appointments, 3)
	assert.Equal(t, 2, cell.Overflow)
	assert.Equal(t, []model.ID{"5", "1", "4"}, []model.ID{cell.Appointments[0].ID, cell.Appointments[1].ID, cell.Appointments[2].ID})

	other := findCell(t, month, "2025-01-16")
	assert.Len(t, other.Appointments, 1)
	assert.Zero(t, other.Overflow)
	assert.True(t, findCell(t, month, "2025-01-08").Today)
}

func findCell(t *testing.T, month MonthView, date string) Cell {
	t.Helper()
	for _, week := range month.Weeks {
		for _, c := range week {
			if c.Date == date {
				return c
			}
		}
	}
	t.Fatalf("no cell for %s", date)
	return Cell{}
}
