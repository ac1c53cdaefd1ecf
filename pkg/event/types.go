package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names a change notification.
type Type string

const (
	AppointmentCreated Type = "appointment.created"
	AppointmentUpdated Type = "appointment.updated"
)

// Event tells subscribers that something changed and should be re-fetched.
// Nothing beyond the appointment id is guaranteed.
type Event struct {
	ID            uuid.UUID `json:"id"`
	Type          Type      `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	Changed       []string  `json:"changed,omitempty"`
	Origin        string    `json:"origin,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// New builds an event with a fresh id.
func New(t Type, appointmentID string, at time.Time) Event {
	return Event{
		ID:            uuid.New(),
		Type:          t,
		AppointmentID: appointmentID,
		OccurredAt:    at,
	}
}

// Handler receives published events.
type Handler func(ctx context.Context, e Event)

// Publisher is implemented by anything that accepts change events.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Subscriber registers handlers for event types.
type Subscriber interface {
	Subscribe(h Handler, types ...Type) *Subscription
}

type FieldExtractor interface {
	ExtractFields(obj interface{}, fields []string) map[string]interface{}
	ChangedFields(old, new interface{}) []string
}
