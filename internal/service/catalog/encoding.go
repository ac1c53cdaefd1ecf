package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// ParseSelections decodes an appointment's serviceIds field. Three forms
// are read: a bare id ("7"), a legacy comma list ("7,9", one of each) and
// the quantity form ("7:2,9:1"). The forms may be mixed.
func ParseSelections(encoded string) ([]model.Selection, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}

	var selections []model.Selection
	for _, token := range strings.Split(encoded, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		id, qtyText, hasQty := strings.Cut(token, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("invalid service selection %q: missing id", token)
		}

		qty := 1
		if hasQty {
			n, err := strconv.Atoi(strings.TrimSpace(qtyText))
			if err != nil {
				return nil, fmt.Errorf("invalid quantity in service selection %q: %w", token, err)
			}
			if n <= 0 {
				return nil, fmt.Errorf("invalid quantity in service selection %q: must be positive", token)
			}
			qty = n
		}

		selections = append(selections, model.Selection{ServiceID: model.ID(id), Quantity: qty})
	}
	return selections, nil
}

// EncodeSelections always writes the quantity form "id:qty,id:qty".
func EncodeSelections(selections []model.Selection) string {
	parts := make([]string, 0, len(selections))
	for _, s := range selections {
		parts = append(parts, fmt.Sprintf("%s:%d", s.ServiceID, s.Quantity))
	}
	return strings.Join(parts, ",")
}

// FormatServiceNames joins selection names as "Name (x2), Other". The
// quantity suffix is left off when the quantity is 1.
func FormatServiceNames(selections []model.Selection) string {
	parts := make([]string, 0, len(selections))
	for _, s := range selections {
		name := s.Name
		if name == "" {
			name = UnknownServiceName
		}
		if s.Quantity != 1 {
			name = fmt.Sprintf("%s (x%d)", name, s.Quantity)
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}

// SplitServiceNames reverses FormatServiceNames, dropping quantity suffixes.
// It is only good for cached display hints: names containing ", " do not
// survive the round trip.
func SplitServiceNames(joined string) []string {
	joined = strings.TrimSpace(joined)
	if joined == "" {
		return nil
	}

	var names []string
	for _, part := range strings.Split(joined, ", ") {
		part = strings.TrimSpace(part)
		if i := strings.LastIndex(part, " (x"); i >= 0 && strings.HasSuffix(part, ")") {
			if _, err := strconv.Atoi(part[i+3 : len(part)-1]); err == nil {
				part = part[:i]
			}
		}
		names = append(names, part)
	}
	return names
}

// AttachNameHints copies positional hints onto selections that have no
// name yet. Hints are applied only when the counts line up.
func AttachNameHints(selections []model.Selection, hints []string) []model.Selection {
	if len(hints) != len(selections) {
		return selections
	}
	out := make([]model.Selection, len(selections))
	for i, s := range selections {
		if s.Name == "" {
			s.Name = hints[i]
		}
		out[i] = s
	}
	return out
}

// StoredSelections reads the selection list of a stored appointment. When
// the encoded list is unreadable or empty it falls back to the primary
// service, and it returns the parse error alongside the fallback. Stored
// names are attached as display hints.
func StoredSelections(appt model.Appointment) ([]model.Selection, error) {
	selections, err := ParseSelections(appt.ServiceIDs)
	if err != nil {
		selections = nil
	}
	if len(selections) == 0 && !appt.ServiceID.IsZero() {
		selections = []model.Selection{{ServiceID: appt.ServiceID, Quantity: 1, Name: appt.ServiceName}}
	}
	selections = AttachNameHints(selections, SplitServiceNames(appt.ServiceNames))
	if len(selections) == 1 && selections[0].Name == "" {
		selections[0].Name = appt.ServiceName
	}
	return selections, err
}
