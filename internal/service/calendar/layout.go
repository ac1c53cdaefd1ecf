package calendar

import (
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/agenda"
	"github.com/jwalitptl/clinic-scheduler/pkg/clock"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/timeofday"
)

// GridConfig controls the week grid geometry and the month cell cap.
type GridConfig struct {
	DayStartHour    int
	DayEndHour      int
	PixelsPerMinute float64
	TopOffset       float64
	MinHeight       float64
	MonthCellCap    int
	WeekStart       time.Weekday
}

func DefaultGridConfig() GridConfig {
	return GridConfig{
		DayStartHour:    8,
		DayEndHour:      18,
		PixelsPerMinute: 1,
		TopOffset:       0,
		MinHeight:       20,
		MonthCellCap:    3,
		WeekStart:       time.Monday,
	}
}

type Layout struct {
	cfg    GridConfig
	logger *logger.Logger
}

func NewLayout(cfg GridConfig, log *logger.Logger) *Layout {
	if cfg.DayEndHour <= cfg.DayStartHour {
		cfg.DayEndHour = cfg.DayStartHour + 1
	}
	if cfg.MonthCellCap <= 0 {
		cfg.MonthCellCap = 3
	}
	if cfg.PixelsPerMinute <= 0 {
		cfg.PixelsPerMinute = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Layout{cfg: cfg, logger: log.With("calendar")}
}

func (l *Layout) Config() GridConfig {
	return l.cfg
}

// SlotFor reports whether appt is anchored in the one-hour slot starting at
// slotHour on day. An appointment starts in exactly one slot.
func (l *Layout) SlotFor(appt agenda.EnrichedAppointment, day time.Time, slotHour int) bool {
	if appt.StartMinutes < 0 || !sameDate(appt.Date, day) {
		return false
	}
	start := slotHour * 60
	return appt.StartMinutes >= start && appt.StartMinutes < start+60
}

// Position returns the overlay's top and height in pixels.
func (l *Layout) Position(appt agenda.EnrichedAppointment) (top, height float64) {
	start := appt.StartMinutes
	if start < 0 {
		start = l.cfg.DayStartHour * 60
	}
	fromDayStart := start - l.cfg.DayStartHour*60
	top = l.cfg.TopOffset + float64(fromDayStart)*l.cfg.PixelsPerMinute
	height = float64(appt.DurationMinutes) * l.cfg.PixelsPerMinute
	if height < l.cfg.MinHeight {
		height = l.cfg.MinHeight
	}
	return top, height
}

// IsOngoing reports whether now falls within [start, end) on the
// appointment's date. It never changes the stored status.
func (l *Layout) IsOngoing(appt agenda.EnrichedAppointment, now time.Time) bool {
	if !appt.HasWindow() || !sameDate(appt.Date, now) {
		return false
	}
	m := clock.MinuteOfDay(now)
	return m >= appt.StartMinutes && m < appt.EndMinutes
}

// DisplayStatus is the status to render.
func (l *Layout) DisplayStatus(appt agenda.EnrichedAppointment, now time.Time) model.AppointmentStatus {
	if l.IsOngoing(appt, now) {
		return model.AppointmentStatusOngoing
	}
	return appt.Normalized
}

// WeekBounds returns the first and last day of the week containing anchor.
func (l *Layout) WeekBounds(anchor time.Time) (time.Time, time.Time) {
	day := clock.DateOf(anchor)
	offset := (int(day.Weekday()) - int(l.cfg.WeekStart) + 7) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

// MonthBounds returns the first and last day of the complete weeks that
// cover the month of anchor.
func (l *Layout) MonthBounds(anchor time.Time) (time.Time, time.Time) {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	last := first.AddDate(0, 1, -1)
	start, _ := l.WeekBounds(first)
	_, end := l.WeekBounds(last)
	return start, end
}

type Day struct {
	Index   int    `json:"index"`
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Today   bool   `json:"today"`
}

type Slot struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
}

// Placement anchors one appointment in its start slot with an overlay.
type Placement struct {
	Appointment   agenda.EnrichedAppointment `json:"appointment"`
	DayIndex      int                        `json:"dayIndex"`
	SlotHour      int                        `json:"slotHour"`
	SlotLabel     string                     `json:"slotLabel"`
	Top           float64                    `json:"top"`
	Height        float64                    `json:"height"`
	Ongoing       bool                       `json:"ongoing"`
	DisplayStatus model.AppointmentStatus    `json:"displayStatus"`
}

// TimeIndicator marks the current time on the grid.
type TimeIndicator struct {
	DayIndex int     `json:"dayIndex"`
	Time     string  `json:"time"`
	Top      float64 `json:"top"`
}

type WeekView struct {
	Start      string         `json:"start"`
	End        string         `json:"end"`
	Days       []Day          `json:"days"`
	Slots      []Slot         `json:"slots"`
	Placements []Placement    `json:"placements"`
	Now        *TimeIndicator `json:"now,omitempty"`
}

// Week lays out the week containing anchor.
func (l *Layout) Week(anchor time.Time, appts []agenda.EnrichedAppointment, now time.Time) WeekView {
	start, end := l.WeekBounds(anchor)
	view := WeekView{
		Start:      model.FormatDate(start),
		End:        model.FormatDate(end),
		Placements: []Placement{},
	}

	for h := l.cfg.DayStartHour; h < l.cfg.DayEndHour; h++ {
		view.Slots = append(view.Slots, Slot{Hour: h, Label: timeofday.SlotLabel(h)})
	}

	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
		view.Days = append(view.Days, Day{
			Index:   i,
			Date:    model.FormatDate(days[i]),
			Weekday: days[i].Weekday().String(),
			Today:   sameDate(days[i], now),
		})
	}

	for _, appt := range appts {
		placed := false
		for i, day := range days {
			for _, slot := range view.Slots {
				if !l.SlotFor(appt, day, slot.Hour) {
					continue
				}
				top, height := l.Position(appt)
				ongoing := l.IsOngoing(appt, now)
				view.Placements = append(view.Placements, Placement{
					Appointment:   appt,
					DayIndex:      i,
					SlotHour:      slot.Hour,
					SlotLabel:     slot.Label,
					Top:           top,
					Height:        height,
					Ongoing:       ongoing,
					DisplayStatus: l.DisplayStatus(appt, now),
				})
				placed = true
				break
			}
			if placed {
				break
			}
		}
		if !placed && !appt.Date.Before(start) && !appt.Date.After(end) {
			l.logger.Debug("appointment outside grid hours",
				"appointment_id", appt.ID.String(), "time_start", appt.TimeStart)
		}
	}

	view.Now = l.indicator(days, now)
	return view
}

func (l *Layout) indicator(days []time.Time, now time.Time) *TimeIndicator {
	m := clock.MinuteOfDay(now)
	if m < l.cfg.DayStartHour*60 || m >= l.cfg.DayEndHour*60 {
		return nil
	}
	for i, day := range days {
		if sameDate(day, now) {
			return &TimeIndicator{
				DayIndex: i,
				Time:     timeofday.FromMinutes(m),
				Top:      l.cfg.TopOffset + float64(m-l.cfg.DayStartHour*60)*l.cfg.PixelsPerMinute,
			}
		}
	}
	return nil
}

// Cell is one day of the month grid.
type Cell struct {
	Date         string                       `json:"date"`
	InMonth      bool                         `json:"inMonth"`
	Today        bool                         `json:"today"`
	Appointments []agenda.EnrichedAppointment `json:"appointments"`
	Overflow     int                          `json:"overflow"`
}

type MonthView struct {
	Month string   `json:"month"`
	Weeks [][]Cell `json:"weeks"`
}

// Month lays out the month containing anchor. Cells show at most the
// configured cap in input order and count the rest as overflow.
func (l *Layout) Month(anchor time.Time, appts []agenda.EnrichedAppointment, now time.Time) MonthView {
	start, end := l.MonthBounds(anchor)
	buckets := agenda.GroupByDate(appts)

	view := MonthView{Month: anchor.Format("2006-01")}
	var week []Cell
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := model.FormatDate(day)
		all := buckets[key]
		shown := all
		if len(shown) > l.cfg.MonthCellCap {
			shown = shown[:l.cfg.MonthCellCap]
		}
		if shown == nil {
			shown = []agenda.EnrichedAppointment{}
		}
		week = append(week, Cell{
			Date:         key,
			InMonth:      day.Month() == anchor.Month(),
			Today:        sameDate(day, now),
			Appointments: shown,
			Overflow:     len(all) - len(shown),
		})
		if len(week) == 7 {
			view.Weeks = append(view.Weeks, week)
			week = nil
		}
	}
	return view
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
