package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

const appointmentColumns = `
	id::text AS id, patient_id::text AS patient_id, patient_name,
	service_id::text AS service_id, service_name, service_ids, service_names,
	to_char(appointment_date, 'YYYY-MM-DD') AS appointment_date,
	to_char(time_start, 'HH24:MI') AS time_start,
	to_char(time_end, 'HH24:MI') AS time_end,
	status, COALESCE(comments, '') AS comments
`

func (s *Store) ListAppointments(ctx context.Context, start, end time.Time) (appts []model.Appointment, err error) {
	defer func(began time.Time) { s.observe("list_appointments", began, err) }(time.Now())

	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE appointment_date BETWEEN $1::date AND $2::date
		ORDER BY appointments.appointment_date, appointments.time_start, appointments.id
	`
	if err = s.db.SelectContext(ctx, &appts, query, model.FormatDate(start), model.FormatDate(end)); err != nil {
		return nil, apperrors.NewTransport("list appointments", err)
	}
	return appts, nil
}

func (s *Store) GetAppointment(ctx context.Context, id model.ID) (_ *model.Appointment, err error) {
	defer func(start time.Time) { s.observe("get_appointment", start, err) }(time.Now())

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appt model.Appointment
	if err = s.db.GetContext(ctx, &appt, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, apperrors.NewTransport("get appointment", err)
	}
	return &appt, nil
}

func (s *Store) CreateAppointment(ctx context.Context, p *model.AppointmentPayload) (_ model.ID, err error) {
	defer func(start time.Time) { s.observe("create_appointment", start, err) }(time.Now())

	query := `
		INSERT INTO appointments (
			patient_id, patient_name, service_id, service_name,
			service_ids, service_names, appointment_date,
			time_start, time_end, status, comments
		) VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8::time, $9::time, $10, $11)
		RETURNING id::text
	`
	var id string
	err = s.db.QueryRowxContext(ctx, query,
		p.PatientID.String(),
		p.PatientName,
		nullableID(p.ServiceID),
		p.ServiceName,
		p.ServiceIDs,
		p.ServiceNames,
		p.AppointmentDate,
		p.TimeStart,
		p.TimeEnd,
		string(p.Status),
		p.Comments,
	).Scan(&id)
	if err != nil {
		return "", apperrors.NewTransport("create appointment", err)
	}
	return model.ID(id), nil
}

// UpdateAppointment overwrites every column. There is no version check, so
// concurrent editors race and the last write wins.
func (s *Store) UpdateAppointment(ctx context.Context, id model.ID, p *model.AppointmentPayload) (err error) {
	defer func(start time.Time) { s.observe("update_appointment", start, err) }(time.Now())

	query := `
		UPDATE appointments
		SET patient_id = $1, patient_name = $2, service_id = $3, service_name = $4,
			service_ids = $5, service_names = $6, appointment_date = $7::date,
			time_start = $8::time, time_end = $9::time, status = $10, comments = $11,
			updated_at = NOW()
		WHERE id = $12
	`
	result, err := s.db.ExecContext(ctx, query,
		p.PatientID.String(),
		p.PatientName,
		nullableID(p.ServiceID),
		p.ServiceName,
		p.ServiceIDs,
		p.ServiceNames,
		p.AppointmentDate,
		p.TimeStart,
		p.TimeEnd,
		string(p.Status),
		p.Comments,
		id.String(),
	)
	if err != nil {
		return apperrors.NewTransport("update appointment", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewTransport("update appointment", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("appointment", nil)
	}
	return nil
}

func nullableID(id model.ID) interface{} {
	if id.IsZero() {
		return nil
	}
	return id.String()
}
