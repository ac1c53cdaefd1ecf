package catalog

import (
	"context"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

// PackageLookup returns the components of a package. A service that is not
// a package yields (nil, nil).
type PackageLookup interface {
	GetPackageComponents(ctx context.Context, serviceID model.ID) ([]model.PackageComponent, error)
}

// Components maps a package id to its ordered component list.
type Components map[model.ID][]model.PackageComponent

type Resolver struct {
	packages PackageLookup
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewResolver(packages PackageLookup, log *logger.Logger, m *metrics.Metrics) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		packages: packages,
		logger:   log.With("catalog"),
		metrics:  m,
	}
}

// Resolve flattens selections into line items, fetching the component list
// of every selected package first. It never fails: unknown ids become
// placeholders and a failed component lookup degrades the package to a
// plain item.
func (r *Resolver) Resolve(ctx context.Context, selections []model.Selection, services []model.Service) []LineItem {
	index := Index(services)
	return r.Expand(selections, index, r.FetchComponents(ctx, selections, index))
}

// FetchComponents loads the components of each distinct package among the
// selections. Lookup failures are logged and leave the package out.
func (r *Resolver) FetchComponents(ctx context.Context, selections []model.Selection, index map[model.ID]model.Service) Components {
	components := make(Components)
	if r.packages == nil {
		return components
	}
	for _, sel := range selections {
		svc, ok := index[sel.ServiceID]
		if !ok || !svc.IsPackage() {
			continue
		}
		if _, seen := components[svc.ID]; seen {
			continue
		}
		list, err := r.packages.GetPackageComponents(ctx, svc.ID)
		if err != nil {
			r.logger.Error(err, "failed to fetch package components", "package_id", svc.ID.String())
			components[svc.ID] = nil
			continue
		}
		components[svc.ID] = list
	}
	return components
}

// Expand is the pure part of Resolve. Output order is the concatenation of
// each selection's expansion in input order.
func (r *Resolver) Expand(selections []model.Selection, index map[model.ID]model.Service, components Components) []LineItem {
	items := make([]LineItem, 0, len(selections))
	for _, sel := range selections {
		svc, ok := index[sel.ServiceID]
		if !ok {
			r.gap(sel)
			items = append(items, ServiceItem{
				Item: Item{
					ServiceID: sel.ServiceID,
					Name:      placeholderName(sel.Name),
					Quantity:  sel.Quantity,
				},
				Unresolved: true,
			})
			continue
		}

		parts := components[svc.ID]
		if !svc.IsPackage() || len(parts) == 0 {
			items = append(items, ServiceItem{
				Item:     itemFor(svc, sel.Quantity),
				Inactive: !svc.IsActive(),
			})
			continue
		}

		items = append(items, PackageHeader{
			Item:     itemFor(svc, sel.Quantity),
			Inactive: !svc.IsActive(),
		})
		for _, c := range parts {
			items = append(items, PackageService{
				Item: Item{
					ServiceID: c.ServiceID,
					Name:      c.Name,
					Price:     c.Price,
					Duration:  c.Duration,
					Quantity:  c.Quantity * sel.Quantity,
				},
				ParentPackageID:   svc.ID,
				ParentPackageName: svc.Name,
			})
		}
	}
	return items
}

// NameFor resolves the display name of id: the catalog first, then the
// cached hint, then the unknown placeholder.
func (r *Resolver) NameFor(id model.ID, index map[model.ID]model.Service, hint string) string {
	if svc, ok := index[id]; ok {
		return svc.Name
	}
	return placeholderName(hint)
}

func (r *Resolver) gap(sel model.Selection) {
	r.logger.Warn("resolution gap", "service_id", sel.ServiceID.String(), "name_hint", sel.Name)
	if r.metrics != nil {
		r.metrics.ResolutionGaps.Inc()
	}
}

// Index keys services by id. Later duplicates win.
func Index(services []model.Service) map[model.ID]model.Service {
	index := make(map[model.ID]model.Service, len(services))
	for _, s := range services {
		index[s.ID] = s
	}
	return index
}

func itemFor(svc model.Service, qty int) Item {
	return Item{
		ServiceID: svc.ID,
		Name:      svc.Name,
		Price:     svc.Price,
		Duration:  svc.Duration,
		Quantity:  qty,
	}
}

func placeholderName(hint string) string {
	if hint != "" {
		return hint
	}
	return UnknownServiceName
}
