package model

import (
	"encoding/json"
	"strings"
)

const (
	// ServiceTypePackage marks a catalog entry that bundles other services.
	ServiceTypePackage = "Package Treatment"
	ServiceTypeService = "Service"

	ServiceStatusActive = "Active"
)

type Service struct {
	ID       ID      `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Price    float64 `db:"price" json:"price"`
	Duration int     `db:"duration" json:"durationMinutes"` // in minutes
	Type     string  `db:"type" json:"type"`
	Status   string  `db:"status" json:"status"`
}

// UnmarshalJSON accepts both "durationMinutes" and the older "duration" key.
func (s *Service) UnmarshalJSON(data []byte) error {
	type alias Service
	aux := struct {
		*alias
		LegacyDuration *int `json:"duration"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if s.Duration == 0 && aux.LegacyDuration != nil {
		s.Duration = *aux.LegacyDuration
	}
	return nil
}

func (s Service) IsPackage() bool {
	return strings.EqualFold(strings.TrimSpace(s.Type), ServiceTypePackage)
}

// IsActive reports whether the service is active. Inactive services stay
// selectable and are flagged by callers.
func (s Service) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(s.Status), ServiceStatusActive)
}

// PackageComponent is one service bundled inside a package.
type PackageComponent struct {
	ServiceID ID      `db:"service_id" json:"serviceId"`
	Name      string  `db:"name" json:"name"`
	Price     float64 `db:"price" json:"price"`
	Duration  int     `db:"duration" json:"duration"`
	Quantity  int     `db:"quantity" json:"quantity"`
}

// PackageDetail is the body of GET /packages/:serviceId.
type PackageDetail struct {
	PackageServices []PackageComponent `json:"packageServices"`
}

// ServiceCatalog is the body of GET /services-and-packages.
type ServiceCatalog struct {
	Services []Service `json:"services"`
	Packages []Service `json:"packages"`
}

// All returns services followed by packages.
func (c ServiceCatalog) All() []Service {
	all := make([]Service, 0, len(c.Services)+len(c.Packages))
	all = append(all, c.Services...)
	return append(all, c.Packages...)
}
