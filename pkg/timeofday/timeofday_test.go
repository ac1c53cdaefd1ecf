package timeofday

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinutes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr error
	}{
		{name: "midnight", input: "00:00", want: 0},
		{name: "morning", input: "09:30", want: 570},
		{name: "no leading zero", input: "9:05", want: 545},
		{name: "last minute", input: "23:59", want: 1439},
		{name: "empty", input: "", wantErr: ErrEmpty},
		{name: "hour too large", input: "24:00", wantErr: ErrOutOfRange},
		{name: "minute too large", input: "10:60", wantErr: ErrOutOfRange},
		{name: "dash separator", input: "10-15", wantErr: ErrInvalidFormat},
		{name: "single minute digit", input: "10:5", wantErr: ErrInvalidFormat},
		{name: "letters", input: "ab:cd", wantErr: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Minutes(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddMinutes(t *testing.T) {
	tests := []struct {
		start   string
		minutes int
		want    string
	}{
		{"09:00", 30, "09:30"},
		{"09:45", 30, "10:15"},
		{"23:30", 90, "01:00"},
		{"00:15", -30, "23:45"},
		{"12:00", 1440, "12:00"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s+%d", tt.start, tt.minutes), func(t *testing.T) {
			got, err := AddMinutes(tt.start, tt.minutes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddMinutesRoundTrip(t *testing.T) {
	starts := []string{"00:00", "08:00", "11:59", "16:59", "23:30"}
	for _, start := range starts {
		for m := 0; m < MinutesPerDay; m += 7 {
			end, err := AddMinutes(start, m)
			require.NoError(t, err)

			s, err := MinutesSinceDayStart(start, 0)
			require.NoError(t, err)
			e, err := MinutesSinceDayStart(end, 0)
			require.NoError(t, err)

			diff := ((e-s)%MinutesPerDay + MinutesPerDay) % MinutesPerDay
			assert.Equal(t, m%MinutesPerDay, diff, "start=%s minutes=%d", start, m)
		}
	}
}

func TestTo12Hour(t *testing.T) {
	tests := map[string]string{
		"00:00": "12:00 AM",
		"00:30": "12:30 AM",
		"09:05": "9:05 AM",
		"11:59": "11:59 AM",
		"12:00": "12:00 PM",
		"13:15": "1:15 PM",
		"23:45": "11:45 PM",
	}
	for in, want := range tests {
		got, err := To12Hour(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestTo24Hour(t *testing.T) {
	tests := map[string]string{
		"12:00 AM": "00:00",
		"12:30 PM": "12:30",
		"9:05 AM":  "09:05",
		"1:15 PM":  "13:15",
		"11:45pm":  "23:45",
	}
	for in, want := range tests {
		got, err := To24Hour(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := To24Hour("13:00 PM")
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = To24Hour("9:00")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestTo12HourRoundTrip(t *testing.T) {
	for _, suffix := range []string{"AM", "PM"} {
		for hour := 1; hour <= 12; hour++ {
			for minute := 0; minute < 60; minute++ {
				in := fmt.Sprintf("%d:%02d %s", hour, minute, suffix)
				t24, err := To24Hour(in)
				require.NoError(t, err)
				out, err := To12Hour(t24)
				require.NoError(t, err)
				assert.Equal(t, in, out)
			}
		}
	}
}

func TestMinutesSinceDayStart(t *testing.T) {
	got, err := MinutesSinceDayStart("07:30", 8)
	require.NoError(t, err)
	assert.Equal(t, -30, got)

	got, err = MinutesSinceDayStart("10:15", 8)
	require.NoError(t, err)
	assert.Equal(t, 135, got)
}

func TestDuration(t *testing.T) {
	d, err := Duration("10:15", "11:00")
	require.NoError(t, err)
	assert.Equal(t, 45, d)

	d, err = Duration("11:00", "10:00")
	require.NoError(t, err)
	assert.Equal(t, -60, d)
}

func TestSlotLabel(t *testing.T) {
	assert.Equal(t, "12 AM", SlotLabel(0))
	assert.Equal(t, "9 AM", SlotLabel(9))
	assert.Equal(t, "12 PM", SlotLabel(12))
	assert.Equal(t, "4 PM", SlotLabel(16))
}
