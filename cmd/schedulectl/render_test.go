package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/agenda"
	"github.com/jwalitptl/clinic-scheduler/internal/service/calendar"
	"github.com/jwalitptl/clinic-scheduler/internal/service/catalog"
)

func TestRenderWeek(t *testing.T) {
	view := &calendar.WeekView{
		Start: "2025-01-06",
		End:   "2025-01-12",
		Days:  []calendar.Day{{Index: 0, Date: "2025-01-06", Weekday: "Monday"}},
		Placements: []calendar.Placement{{
			Appointment: agenda.EnrichedAppointment{
				Appointment:   model.Appointment{PatientName: "Maria Santos", TimeStart: "10:15", TimeEnd: "11:15"},
				DurationHours: 1,
			},
			SlotLabel:     "10 AM",
			DisplayStatus: model.AppointmentStatusScheduled,
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, renderWeek(&buf, view))
	out := buf.String()
	assert.Contains(t, out, "Week 2025-01-06 to 2025-01-12")
	assert.Contains(t, out, "Mon 2025-01-06")
	assert.Contains(t, out, "10:15 AM - 11:15 AM")
	assert.Contains(t, out, "Maria Santos")
	assert.Contains(t, out, "1 appointments")
}

func TestRenderMonthCells(t *testing.T) {
	view := &calendar.MonthView{
		Month: "2025-01",
		Weeks: [][]calendar.Cell{{
			{Date: "2024-12-30"},
			{Date: "2025-01-01", InMonth: true, Overflow: 2, Appointments: make([]agenda.EnrichedAppointment, 3)},
			{Date: "2025-01-08", InMonth: true, Today: true},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, renderMonth(&buf, view))
	out := buf.String()
	assert.Contains(t, out, "Mon")
	assert.Contains(t, out, "Wed")
	assert.Contains(t, out, "01(5)")
	assert.Contains(t, out, "*08")
}

func TestRenderLineItems(t *testing.T) {
	items := []catalog.LineItem{
		catalog.PackageHeader{Item: catalog.Item{ServiceID: "2", Name: "Glow Package", Price: 900, Quantity: 1}},
		catalog.PackageService{Item: catalog.Item{ServiceID: "1", Name: "Facial", Price: 500, Duration: 30, Quantity: 2}, ParentPackageID: "2"},
	}

	var buf bytes.Buffer
	require.NoError(t, renderLineItems(&buf, items))
	out := buf.String()
	assert.Contains(t, out, "package-header")
	assert.Contains(t, out, "  Facial")
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "60")
}
