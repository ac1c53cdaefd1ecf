// Package timeofday implements wall-clock arithmetic on "HH:MM" strings.
//
// All values are integer minutes. Nothing in this package knows about
// calendar dates: when a result wraps past midnight the caller decides
// whether the date moves.
package timeofday

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

var (
	ErrEmpty         = errors.New("time is empty")
	ErrInvalidFormat = errors.New("invalid time format")
	ErrOutOfRange    = errors.New("time out of range")
)

// Minutes parses "HH:MM" (or "H:MM") into minutes since midnight.
func Minutes(t string) (int, error) {
	t = strings.TrimSpace(t)
	if t == "" {
		return 0, ErrEmpty
	}

	hh, mm, ok := strings.Cut(t, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, t)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, t)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, t)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRange, t)
	}

	return hour*60 + minute, nil
}

// FromMinutes formats minutes since midnight as "HH:MM", wrapping modulo 24h.
func FromMinutes(m int) string {
	m = wrap(m)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Hour returns the hour component of t.
func Hour(t string) (int, error) {
	m, err := Minutes(t)
	if err != nil {
		return 0, err
	}
	return m / 60, nil
}

// AddMinutes adds minutes to t and wraps the clock at midnight.
func AddMinutes(t string, minutes int) (string, error) {
	m, err := Minutes(t)
	if err != nil {
		return "", err
	}
	return FromMinutes(m + minutes), nil
}

// Duration returns end minus start in minutes. The result is negative when
// end is before start.
func Duration(start, end string) (int, error) {
	s, err := Minutes(start)
	if err != nil {
		return 0, err
	}
	e, err := Minutes(end)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}

// MinutesSinceDayStart is the offset of t from dayStartHour:00. Times before
// the day start yield negative offsets.
func MinutesSinceDayStart(t string, dayStartHour int) (int, error) {
	m, err := Minutes(t)
	if err != nil {
		return 0, err
	}
	return m - dayStartHour*60, nil
}

// To12Hour renders "HH:MM" as "H:MM AM" / "H:MM PM".
func To12Hour(t string) (string, error) {
	m, err := Minutes(t)
	if err != nil {
		return "", err
	}
	hour, minute := m/60, m%60
	return fmt.Sprintf("%d:%02d %s", displayHour(hour), minute, meridiem(hour)), nil
}

// To24Hour parses "H:MM AM|PM" into "HH:MM". 12 AM is 00, 12 PM is 12.
func To24Hour(t12 string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(t12))
	if s == "" {
		return "", ErrEmpty
	}

	var suffix string
	switch {
	case strings.HasSuffix(s, "AM"):
		suffix = "AM"
	case strings.HasSuffix(s, "PM"):
		suffix = "PM"
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, t12)
	}
	clock := strings.TrimSpace(strings.TrimSuffix(s, suffix))

	hh, mm, ok := strings.Cut(clock, ":")
	if !ok || len(mm) != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, t12)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, t12)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, t12)
	}
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: %q", ErrOutOfRange, t12)
	}

	if hour == 12 {
		hour = 0
	}
	if suffix == "PM" {
		hour += 12
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// SlotLabel is the week-grid label for an hour, e.g. "9 AM" or "12 PM".
func SlotLabel(hour int) string {
	hour = ((hour % 24) + 24) % 24
	return fmt.Sprintf("%d %s", displayHour(hour), meridiem(hour))
}

func displayHour(hour int) int {
	switch {
	case hour == 0 || hour == 12:
		return 12
	case hour > 12:
		return hour - 12
	default:
		return hour
	}
}

func meridiem(hour int) string {
	if hour < 12 {
		return "AM"
	}
	return "PM"
}

func wrap(m int) int {
	return ((m % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
}
