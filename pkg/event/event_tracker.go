package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

// DefaultChannel is the broker channel carrying appointment changes.
const DefaultChannel = "scheduler.appointments"

// Forwarder mirrors locally published bus events to a message broker so
// other processes (the notice worker, other desktop instances) can react.
type Forwarder struct {
	bus     *Bus
	broker  messaging.MessageBroker
	channel string
	logger  *logger.Logger
	metrics *metrics.Metrics
	sub     *Subscription
}

func NewForwarder(bus *Bus, broker messaging.MessageBroker, channel string, log *logger.Logger, m *metrics.Metrics) *Forwarder {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Forwarder{
		bus:     bus,
		broker:  broker,
		channel: channel,
		logger:  log.With("event_forwarder"),
		metrics: m,
	}
}

// Start subscribes to the bus. Events relayed in from other origins are not
// sent back out.
func (f *Forwarder) Start() {
	f.sub = f.bus.Subscribe(func(ctx context.Context, e Event) {
		if e.Origin != f.bus.Origin() {
			return
		}
		if err := f.forward(ctx, e); err != nil {
			f.logger.Error(err, "failed to forward event", "event_type", string(e.Type), "appointment_id", e.AppointmentID)
			f.count(e.Type, "failed")
			return
		}
		f.count(e.Type, "sent")
	})
}

func (f *Forwarder) Stop() {
	if f.sub != nil {
		f.sub.Unsubscribe()
	}
}

func (f *Forwarder) forward(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return f.broker.Publish(ctx, f.channel, payload)
}

func (f *Forwarder) count(t Type, status string) {
	if f.metrics != nil {
		f.metrics.EventsForwarded.WithLabelValues(string(t), status).Inc()
	}
}

// Relay republishes broker messages from other origins onto a local bus.
type Relay struct {
	bus     *Bus
	broker  messaging.MessageBroker
	channel string
	logger  *logger.Logger
}

func NewRelay(bus *Bus, broker messaging.MessageBroker, channel string, log *logger.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{
		bus:     bus,
		broker:  broker,
		channel: channel,
		logger:  log.With("event_relay"),
	}
}

// Start consumes the channel until ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	return r.broker.Subscribe(ctx, r.channel, func(payload []byte) error {
		return r.Handle(ctx, payload)
	})
}

// Handle decodes one broker message and publishes it locally.
func (r *Relay) Handle(ctx context.Context, payload []byte) error {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		r.logger.Error(err, "dropping undecodable event")
		return fmt.Errorf("failed to decode event: %w", err)
	}
	if e.Origin == r.bus.Origin() {
		return nil
	}
	r.bus.Publish(ctx, e)
	return nil
}
