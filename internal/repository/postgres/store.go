// Package postgres reads and writes the clinic tables directly. It is the
// alternative to the REST collaborator when the scheduler runs next to the
// database.
package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

type Store struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

var _ repository.ClinicStore = (*Store)(nil)

func NewStore(db *sqlx.DB, m *metrics.Metrics) *Store {
	return &Store{db: db, metrics: m}
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.StoreOperations.WithLabelValues(operation, status).Inc()
	s.metrics.StoreLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
