// Package cached decorates a ClinicStore with an in-memory catalog cache.
package cached

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

const servicesKey = "services"

// Store caches ListServices and GetPackageComponents. Patients and
// appointments always go to the underlying store.
type Store struct {
	repository.ClinicStore
	cache *cache.Cache
}

func NewStore(next repository.ClinicStore, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{
		ClinicStore: next,
		cache:       cache.New(ttl, 2*ttl),
	}
}

func (s *Store) ListServices(ctx context.Context) ([]model.Service, error) {
	if v, ok := s.cache.Get(servicesKey); ok {
		return cloneServices(v.([]model.Service)), nil
	}
	services, err := s.ClinicStore.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(servicesKey, cloneServices(services))
	return services, nil
}

// GetPackageComponents caches "not a package" answers too.
func (s *Store) GetPackageComponents(ctx context.Context, serviceID model.ID) ([]model.PackageComponent, error) {
	key := "package:" + serviceID.String()
	if v, ok := s.cache.Get(key); ok {
		return clonePackage(v.([]model.PackageComponent)), nil
	}
	components, err := s.ClinicStore.GetPackageComponents(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, clonePackage(components))
	return components, nil
}

// Invalidate drops every cached catalog entry.
func (s *Store) Invalidate() {
	s.cache.Flush()
}

func cloneServices(in []model.Service) []model.Service {
	if in == nil {
		return nil
	}
	return append([]model.Service(nil), in...)
}

func clonePackage(in []model.PackageComponent) []model.PackageComponent {
	if in == nil {
		return nil
	}
	return append([]model.PackageComponent(nil), in...)
}
