package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

func (s *Store) ListServices(ctx context.Context) (services []model.Service, err error) {
	defer func(start time.Time) { s.observe("list_services", start, err) }(time.Now())

	query := `
		SELECT id::text AS id, name, price, duration, type, status
		FROM services
		ORDER BY services.id
	`
	if err = s.db.SelectContext(ctx, &services, query); err != nil {
		return nil, apperrors.NewTransport("list services", err)
	}
	return services, nil
}

// GetPackageComponents returns the package's components in their stored
// order. A service without rows in package_services yields nil.
func (s *Store) GetPackageComponents(ctx context.Context, serviceID model.ID) (components []model.PackageComponent, err error) {
	defer func(start time.Time) { s.observe("get_package", start, err) }(time.Now())

	query := `
		SELECT ps.service_id::text AS service_id, sv.name, sv.price, sv.duration, ps.quantity
		FROM package_services ps
		JOIN services sv ON sv.id = ps.service_id
		WHERE ps.package_id = $1
		ORDER BY ps.position, ps.service_id
	`
	if err = s.db.SelectContext(ctx, &components, query, serviceID.String()); err != nil {
		return nil, apperrors.NewTransport(fmt.Sprintf("get package %s", serviceID), err)
	}
	if len(components) == 0 {
		return nil, nil
	}
	return components, nil
}
