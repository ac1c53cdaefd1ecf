package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/mocks"
	"github.com/jwalitptl/clinic-scheduler/internal/service/catalog"
	"github.com/jwalitptl/clinic-scheduler/pkg/event"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

type message struct {
	to, subject, body string
}

type outbox struct {
	sent []message
	err  error
}

func (o *outbox) Send(_ context.Context, to, subject, body string) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, message{to, subject, body})
	return nil
}

var stored = &model.Appointment{
	ID:              "41",
	PatientName:     "Maria Santos",
	ServiceIDs:      "2:1,9:1",
	ServiceNames:    "Glow Package, Retired Wrap",
	AppointmentDate: "2025-01-08",
	TimeStart:       "10:15",
	TimeEnd:         "11:15",
	Status:          "Scheduled",
	Comments:        "prefers morning",
}

func newNotifier(store *mocks.Store, out *outbox) *Notifier {
	m := metrics.New("test")
	return NewNotifier(store, catalog.NewResolver(store, logger.Nop(), m), out, "desk@clinic.test", logger.Nop(), m)
}

func TestNotifySendsSummary(t *testing.T) {
	store := new(mocks.Store)
	store.On("GetAppointment", mock.Anything, model.ID("41")).Return(stored, nil)
	store.On("ListServices", mock.Anything).Return([]model.Service{
		{ID: "1", Name: "Facial", Price: 500, Duration: 30, Type: model.ServiceTypeService, Status: "Active"},
		{ID: "2", Name: "Glow Package", Price: 900, Type: model.ServiceTypePackage, Status: "Active"},
	}, nil)
	store.On("GetPackageComponents", mock.Anything, model.ID("2")).
		Return([]model.PackageComponent{{ServiceID: "1", Name: "Facial", Price: 500, Duration: 30, Quantity: 2}}, nil)

	out := &outbox{}
	n := newNotifier(store, out)

	e := event.New(event.AppointmentUpdated, "41", time.Now())
	e.Changed = []string{"status"}
	require.NoError(t, n.Notify(context.Background(), e))

	require.Len(t, out.sent, 1)
	msg := out.sent[0]
	assert.Equal(t, "desk@clinic.test", msg.to)
	assert.Equal(t, "Appointment updated: Maria Santos on 2025-01-08 10:15", msg.subject)
	assert.Contains(t, msg.body, "Time:    10:15 AM - 11:15 AM")
	assert.Contains(t, msg.body, "Status:  scheduled")
	assert.Contains(t, msg.body, "Changed: status")
	assert.Contains(t, msg.body, "Glow Package")
	assert.Contains(t, msg.body, "Retired Wrap")
	assert.Contains(t, msg.body, "1000.00")
	assert.Contains(t, msg.body, "Comments: prefers morning")
}

func TestNotifyFailures(t *testing.T) {
	store := new(mocks.Store)
	store.On("GetAppointment", mock.Anything, model.ID("404")).Return(nil, errors.New("gone"))
	store.On("GetAppointment", mock.Anything, model.ID("41")).Return(stored, nil)
	store.On("ListServices", mock.Anything).Return(nil, errors.New("down"))

	out := &outbox{}
	n := newNotifier(store, out)

	err := n.Notify(context.Background(), event.New(event.AppointmentCreated, "404", time.Now()))
	assert.Error(t, err)
	assert.Empty(t, out.sent)

	// The catalog being down only loses prices; stored names still show.
	require.NoError(t, n.Notify(context.Background(), event.New(event.AppointmentCreated, "41", time.Now())))
	require.Len(t, out.sent, 1)
	assert.Contains(t, out.sent[0].subject, "Appointment created")
	assert.Contains(t, out.sent[0].body, "Glow Package")

	out.err = errors.New("smtp: 550")
	assert.Error(t, n.Notify(context.Background(), event.New(event.AppointmentCreated, "41", time.Now())))
}

func TestSubscribeOnBus(t *testing.T) {
	store := new(mocks.Store)
	store.On("GetAppointment", mock.Anything, model.ID("41")).Return(stored, nil)
	store.On("ListServices", mock.Anything).Return(nil, nil)

	out := &outbox{}
	bus := event.NewBus("worker", nil)
	sub := newNotifier(store, out).Subscribe(bus)

	bus.Publish(context.Background(), event.New(event.AppointmentCreated, "41", time.Now()))
	assert.Len(t, out.sent, 1)

	sub.Unsubscribe()
	bus.Publish(context.Background(), event.New(event.AppointmentCreated, "41", time.Now()))
	assert.Len(t, out.sent, 1)
}
