package catalog

import (
	"encoding/json"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// Kind tags a resolved line item.
type Kind string

const (
	KindService        Kind = "service"
	KindPackageHeader  Kind = "package-header"
	KindPackageService Kind = "package-service"
)

// UnknownServiceName is shown for selections whose service is gone from the
// catalog and carry no cached name.
const UnknownServiceName = "Unknown Service"

// LineItem is one displayable, billable row. It is implemented only by
// ServiceItem, PackageHeader and PackageService.
type LineItem interface {
	Kind() Kind
	Fields() Item
	lineItem()
}

// Item holds what every line item carries.
type Item struct {
	ServiceID model.ID `json:"serviceId"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Duration  int      `json:"durationMinutes"`
	Quantity  int      `json:"quantity"`
}

// ServiceItem is a plain service selection, or a package without
// components, or a placeholder for a dangling reference.
type ServiceItem struct {
	Item
	Inactive   bool
	Unresolved bool
}

// PackageHeader introduces the components that follow it. Its price is
// informational only; the components carry the billable amounts.
type PackageHeader struct {
	Item
	Inactive bool
}

// PackageService is a component expanded out of a package. Quantity is the
// component quantity multiplied by the package selection quantity.
type PackageService struct {
	Item
	ParentPackageID   model.ID
	ParentPackageName string
}

func (ServiceItem) Kind() Kind    { return KindService }
func (PackageHeader) Kind() Kind  { return KindPackageHeader }
func (PackageService) Kind() Kind { return KindPackageService }

func (i ServiceItem) Fields() Item    { return i.Item }
func (i PackageHeader) Fields() Item  { return i.Item }
func (i PackageService) Fields() Item { return i.Item }

func (ServiceItem) lineItem()    {}
func (PackageHeader) lineItem()  {}
func (PackageService) lineItem() {}

type lineItemJSON struct {
	Kind Kind `json:"kind"`
	Item
	ParentPackageID   model.ID `json:"parentPackageId,omitempty"`
	ParentPackageName string   `json:"parentPackageName,omitempty"`
	Inactive          bool     `json:"inactive,omitempty"`
	Unresolved        bool     `json:"unresolved,omitempty"`
}

func (i ServiceItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(lineItemJSON{Kind: KindService, Item: i.Item, Inactive: i.Inactive, Unresolved: i.Unresolved})
}

func (i PackageHeader) MarshalJSON() ([]byte, error) {
	return json.Marshal(lineItemJSON{Kind: KindPackageHeader, Item: i.Item, Inactive: i.Inactive})
}

func (i PackageService) MarshalJSON() ([]byte, error) {
	return json.Marshal(lineItemJSON{
		Kind:              KindPackageService,
		Item:              i.Item,
		ParentPackageID:   i.ParentPackageID,
		ParentPackageName: i.ParentPackageName,
	})
}

// Totals are the price and duration rollups of a resolved list.
type Totals struct {
	Price    float64 `json:"totalPrice"`
	Duration int     `json:"totalDuration"`
}

// Sum adds price×quantity and duration×quantity over every billable item.
// Package headers contribute nothing; their components are already counted.
func Sum(items []LineItem) Totals {
	var t Totals
	for _, item := range items {
		switch it := item.(type) {
		case ServiceItem:
			t.Price += it.Price * float64(it.Quantity)
			t.Duration += it.Duration * it.Quantity
		case PackageService:
			t.Price += it.Price * float64(it.Quantity)
			t.Duration += it.Duration * it.Quantity
		case PackageHeader:
		}
	}
	return t
}
