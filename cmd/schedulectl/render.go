package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/service/calendar"
	"github.com/jwalitptl/clinic-scheduler/internal/service/catalog"
	"github.com/jwalitptl/clinic-scheduler/pkg/timeofday"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func renderWeek(w io.Writer, view *calendar.WeekView) error {
	fmt.Fprintf(w, "Week %s to %s\n\n", view.Start, view.End)

	tw := newTable(w)
	fmt.Fprintln(tw, "DAY\tSLOT\tTIME\tPATIENT\tSTATUS\tHOURS")
	for _, p := range view.Placements {
		day := view.Days[p.DayIndex]
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\t%s\t%.1f\n",
			day.Weekday[:3], day.Date, p.SlotLabel,
			timeRange(p.Appointment.TimeStart, p.Appointment.TimeEnd),
			p.Appointment.PatientName, p.DisplayStatus, p.Appointment.DurationHours)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d appointments\n", len(view.Placements))
	return nil
}

func renderMonth(w io.Writer, view *calendar.MonthView) error {
	fmt.Fprintf(w, "%s\n\n", view.Month)

	tw := newTable(w)
	if len(view.Weeks) > 0 {
		for _, cell := range view.Weeks[0] {
			d, err := time.Parse(time.DateOnly, cell.Date)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t", d.Weekday().String()[:3])
		}
		fmt.Fprintln(tw)
	}
	for _, week := range view.Weeks {
		for _, cell := range week {
			fmt.Fprintf(tw, "%s\t", monthCell(cell))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func monthCell(cell calendar.Cell) string {
	if !cell.InMonth {
		return "."
	}
	label := cell.Date[len(cell.Date)-2:]
	if n := len(cell.Appointments) + cell.Overflow; n > 0 {
		label = fmt.Sprintf("%s(%d)", label, n)
	}
	if cell.Today {
		label = "*" + label
	}
	return label
}

func renderLineItems(w io.Writer, items []catalog.LineItem) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "KIND\tSERVICE\tQTY\tPRICE\tMINUTES")
	for _, item := range items {
		f := item.Fields()
		name := f.Name
		if item.Kind() == catalog.KindPackageService {
			name = "  " + name
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%d\n", item.Kind(), name, f.Quantity, f.Price, f.Duration)
	}
	totals := catalog.Sum(items)
	fmt.Fprintf(tw, "TOTAL\t\t\t%.2f\t%d\n", totals.Price, totals.Duration)
	return tw.Flush()
}

func timeRange(start, end string) string {
	s, err := timeofday.To12Hour(start)
	if err != nil {
		return start
	}
	e, err := timeofday.To12Hour(end)
	if err != nil {
		return s
	}
	return s + " - " + e
}
