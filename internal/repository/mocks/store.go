// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// Store mocks repository.ClinicStore.
type Store struct {
	mock.Mock
}

func (m *Store) ListPatients(ctx context.Context) ([]model.Patient, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.Patient)
	return list, args.Error(1)
}

func (m *Store) ListServices(ctx context.Context) ([]model.Service, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.Service)
	return list, args.Error(1)
}

func (m *Store) GetPackageComponents(ctx context.Context, serviceID model.ID) ([]model.PackageComponent, error) {
	args := m.Called(ctx, serviceID)
	list, _ := args.Get(0).([]model.PackageComponent)
	return list, args.Error(1)
}

func (m *Store) ListAppointments(ctx context.Context, start, end time.Time) ([]model.Appointment, error) {
	args := m.Called(ctx, start, end)
	list, _ := args.Get(0).([]model.Appointment)
	return list, args.Error(1)
}

func (m *Store) GetAppointment(ctx context.Context, id model.ID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	appt, _ := args.Get(0).(*model.Appointment)
	return appt, args.Error(1)
}

func (m *Store) CreateAppointment(ctx context.Context, payload *model.AppointmentPayload) (model.ID, error) {
	args := m.Called(ctx, payload)
	id, _ := args.Get(0).(model.ID)
	return id, args.Error(1)
}

func (m *Store) UpdateAppointment(ctx context.Context, id model.ID, payload *model.AppointmentPayload) error {
	args := m.Called(ctx, id, payload)
	return args.Error(0)
}
