package appointment

import (
	"fmt"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/timeofday"
)

// BusinessHours bounds appointment times. Start hours fall in [Open, Close)
// and end times may not pass Close:00.
type BusinessHours struct {
	Open  int
	Close int
}

func DefaultBusinessHours() BusinessHours {
	return BusinessHours{Open: 8, Close: 17}
}

// Validate returns the reasons draft cannot be saved, in a fixed order.
func Validate(d Draft, services map[model.ID]model.Service, hours BusinessHours) []string {
	var reasons []string

	if d.PatientID.IsZero() {
		reasons = append(reasons, "a patient must be selected")
	}

	resolvable := 0
	for _, sel := range d.Selections {
		if sel.Quantity <= 0 {
			reasons = append(reasons, fmt.Sprintf("quantity for service %s must be at least 1", sel.ServiceID))
			continue
		}
		if _, ok := services[sel.ServiceID]; ok {
			resolvable++
		}
	}
	if resolvable == 0 {
		reasons = append(reasons, "at least one service must be selected")
	}

	if d.Date == "" {
		reasons = append(reasons, "appointment date is required")
	} else if _, err := model.ParseDate(d.Date, nil); err != nil {
		reasons = append(reasons, "appointment date must be formatted YYYY-MM-DD")
	}

	open := timeofday.FromMinutes(hours.Open * 60)
	closing := timeofday.FromMinutes(hours.Close * 60)

	start, startErr := timeofday.Minutes(d.TimeStart)
	switch {
	case d.TimeStart == "":
		reasons = append(reasons, "start time is required")
	case startErr != nil:
		reasons = append(reasons, "start time must be formatted HH:MM")
	case start/60 < hours.Open || start/60 >= hours.Close:
		reasons = append(reasons, fmt.Sprintf("start time must be between %s and %s", open, closing))
	}

	end, endErr := timeofday.Minutes(d.TimeEnd)
	switch {
	case d.TimeEnd == "":
		reasons = append(reasons, "end time is required")
	case endErr != nil:
		reasons = append(reasons, "end time must be formatted HH:MM")
	case startErr == nil && end <= start:
		reasons = append(reasons, "end time must be after start time")
	case end > hours.Close*60:
		reasons = append(reasons, fmt.Sprintf("end time must not be later than %s", closing))
	}

	return reasons
}
