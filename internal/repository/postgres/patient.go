package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

func (s *Store) ListPatients(ctx context.Context) (patients []model.Patient, err error) {
	defer func(start time.Time) { s.observe("list_patients", start, err) }(time.Now())

	query := `
		SELECT id::text AS id, first_name, last_name
		FROM patients
		ORDER BY last_name, first_name
	`
	if err = s.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, apperrors.NewTransport("list patients", err)
	}
	return patients, nil
}
