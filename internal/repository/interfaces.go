package repository

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// Repository interfaces for the clinic persistence collaborator. The
// scheduling engine never owns this data; it only reads the catalog and
// patients and writes single appointments.
type (
	PatientRepository interface {
		ListPatients(ctx context.Context) ([]model.Patient, error)
	}

	// CatalogRepository reads services and package contents. A service that
	// is not a package has no components: GetPackageComponents returns
	// (nil, nil) rather than an error.
	CatalogRepository interface {
		ListServices(ctx context.Context) ([]model.Service, error)
		GetPackageComponents(ctx context.Context, serviceID model.ID) ([]model.PackageComponent, error)
	}

	AppointmentRepository interface {
		// ListAppointments returns raw records dated within [start, end].
		ListAppointments(ctx context.Context, start, end time.Time) ([]model.Appointment, error)
		GetAppointment(ctx context.Context, id model.ID) (*model.Appointment, error)
		CreateAppointment(ctx context.Context, payload *model.AppointmentPayload) (model.ID, error)
		// UpdateAppointment overwrites the record; the last write wins.
		UpdateAppointment(ctx context.Context, id model.ID, payload *model.AppointmentPayload) error
	}

	// ClinicStore is everything the engine needs from the collaborator.
	ClinicStore interface {
		PatientRepository
		CatalogRepository
		AppointmentRepository
	}
)
