package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/config"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Store.Driver = "http"
	cfg.Store.Origin = "test"
	cfg.API.BaseURL = "http://127.0.0.1:1"
	cfg.API.Timeout = time.Second
	cfg.Schedule.Timezone = "UTC"
	cfg.Grid.DayStartHour = 8
	cfg.Grid.DayEndHour = 18
	cfg.Grid.MonthCellCap = 3
	return cfg
}

func TestBuildHTTPStack(t *testing.T) {
	stack, err := Build(context.Background(), testConfig(), logger.Nop(), metrics.New("test"))
	require.NoError(t, err)
	defer stack.Close()

	assert.Nil(t, stack.Broker)
	assert.Same(t, stack.Catalog, stack.Store)
	assert.Contains(t, stack.Checks(), "clinic_api")
	assert.Equal(t, "test", stack.Bus.Origin())
	assert.Equal(t, time.UTC, stack.Clock.Now().Location())

	svc := stack.Calendar()
	assert.Equal(t, time.Monday, svc.Layout().Config().WeekStart)
}

func TestBuildRejectsUnknownTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.Timezone = "Mars/Olympus"

	_, err := Build(context.Background(), cfg, logger.Nop(), metrics.New("test"))
	assert.ErrorContains(t, err, "invalid schedule timezone")
}
