package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	start := time.Date(2025, 1, 8, 9, 10, 0, 0, time.UTC)
	c := NewFixed(start)
	assert.Equal(t, start, c.Now())

	c.Advance(50 * time.Minute)
	assert.Equal(t, 600, MinuteOfDay(c.Now()))

	c.Set(start.Add(-time.Hour))
	assert.Equal(t, 490, MinuteOfDay(c.Now()))
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("PHT", 8*60*60)
	got := DateOf(time.Date(2025, 1, 8, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2025, 1, 8, 0, 0, 0, 0, loc), got)
}

func TestInLocation(t *testing.T) {
	loc := time.FixedZone("PHT", 8*60*60)
	assert.Equal(t, loc, InLocation(loc).Now().Location())
	assert.Equal(t, System(), InLocation(nil))
}
