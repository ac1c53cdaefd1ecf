// Package app assembles the collaborator store, catalog and event plumbing
// shared by the server, the notice worker and the CLI.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/config"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/health"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/cached"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/httpapi"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/postgres"
	"github.com/jwalitptl/clinic-scheduler/internal/service/agenda"
	"github.com/jwalitptl/clinic-scheduler/internal/service/calendar"
	"github.com/jwalitptl/clinic-scheduler/internal/service/catalog"
	"github.com/jwalitptl/clinic-scheduler/pkg/clock"
	"github.com/jwalitptl/clinic-scheduler/pkg/event"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

// Stack is the wired set of long-lived components.
type Stack struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Clock    clock.Clock
	Store    repository.ClinicStore
	Catalog  *cached.Store
	Resolver *catalog.Resolver
	Bus      *event.Bus
	// Broker is nil unless Redis is enabled.
	Broker messaging.MessageBroker

	checks  map[string]health.Pinger
	closers []func() error
}

// NewLogger builds the process logger and installs it as the global
// zerolog logger used by the HTTP middleware.
func NewLogger(cfg config.LogConfig) *logger.Logger {
	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.JSON,
	})
	log.Logger = l.ZL
	return l
}

// Build connects the configured store and, when enabled, the Redis broker.
func Build(ctx context.Context, cfg *config.Config, l *logger.Logger, m *metrics.Metrics) (*Stack, error) {
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid schedule timezone %q: %w", cfg.Schedule.Timezone, err)
	}

	s := &Stack{
		Config:  cfg,
		Logger:  l,
		Metrics: m,
		Clock:   clock.InLocation(loc),
		checks:  make(map[string]health.Pinger),
	}

	var raw repository.ClinicStore
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		pg := postgres.NewStore(db, m)
		s.checks["database"] = pg
		s.closers = append(s.closers, db.Close)
		raw = pg
	default:
		client := httpapi.NewClient(httpapi.Config{
			BaseURL:     cfg.API.BaseURL,
			Timeout:     cfg.API.Timeout,
			Token:       cfg.API.Token,
			CatalogPath: cfg.API.CatalogPath,
		}, l, m)
		s.checks["clinic_api"] = health.PingFunc(func(ctx context.Context) error {
			_, err := client.ListServices(ctx)
			return err
		})
		raw = client
	}

	s.Catalog = cached.NewStore(raw, cfg.Catalog.CacheTTL)
	s.Store = s.Catalog
	s.Resolver = catalog.NewResolver(s.Catalog, l, m)
	s.Bus = event.NewBus(cfg.Store.Origin, l)

	if cfg.Redis.Enabled {
		b, err := redis.NewRedisBroker(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, l)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Broker = messaging.NewBrokerAdapter(b, l)
		s.closers = append(s.closers, s.Broker.Close)
	}

	return s, nil
}

// Checks are the readiness checks for the wired dependencies.
func (s *Stack) Checks() map[string]health.Pinger {
	return s.checks
}

// Calendar builds the stateless calendar service.
func (s *Stack) Calendar() *calendar.Service {
	g := s.Config.Grid
	layout := calendar.NewLayout(calendar.GridConfig{
		DayStartHour:    g.DayStartHour,
		DayEndHour:      g.DayEndHour,
		PixelsPerMinute: g.PixelsPerMinute,
		TopOffset:       g.TopOffset,
		MinHeight:       g.MinHeight,
		MonthCellCap:    g.MonthCellCap,
		WeekStart:       g.Weekday(),
	}, s.Logger)
	return calendar.NewService(s.Store, agenda.NewAggregator(s.Clock, s.Logger), layout, s.Clock, s.Config.Schedule.FetchTimeout)
}

// Close releases connections in reverse order of acquisition.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.Logger.Error(err, "failed to close resource")
		}
	}
	s.closers = nil
}
