package email

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/catalog"
	"github.com/jwalitptl/clinic-scheduler/pkg/event"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
	"github.com/jwalitptl/clinic-scheduler/pkg/timeofday"
)

// Store is what a notice needs from the collaborator.
type Store interface {
	GetAppointment(ctx context.Context, id model.ID) (*model.Appointment, error)
	ListServices(ctx context.Context) ([]model.Service, error)
}

// Notifier mails a summary of every created or updated appointment.
type Notifier struct {
	store    Store
	resolver *catalog.Resolver
	sender   Sender
	to       string
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewNotifier(store Store, resolver *catalog.Resolver, sender Sender, to string, log *logger.Logger, m *metrics.Metrics) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{
		store:    store,
		resolver: resolver,
		sender:   sender,
		to:       to,
		logger:   log.With("notifier"),
		metrics:  m,
	}
}

// Subscribe attaches the notifier to bus.
func (n *Notifier) Subscribe(bus event.Subscriber) *event.Subscription {
	return bus.Subscribe(func(ctx context.Context, e event.Event) {
		if err := n.Notify(ctx, e); err != nil {
			n.logger.Error(err, "failed to send appointment notice",
				"event_type", string(e.Type), "appointment_id", e.AppointmentID)
		}
	}, event.AppointmentCreated, event.AppointmentUpdated)
}

// Notify builds and sends the notice for e. Nothing is retried.
func (n *Notifier) Notify(ctx context.Context, e event.Event) (err error) {
	defer func() { n.count(err) }()

	appt, err := n.store.GetAppointment(ctx, model.ID(e.AppointmentID))
	if err != nil {
		return fmt.Errorf("failed to load appointment %s: %w", e.AppointmentID, err)
	}

	services, err := n.store.ListServices(ctx)
	if err != nil {
		n.logger.Warn("catalog unavailable, notice uses stored names", "error", err.Error())
		services = nil
	}

	selections, _ := catalog.StoredSelections(*appt)
	items := n.resolver.Resolve(ctx, selections, services)

	subject, body := Compose(e, *appt, items)
	return n.sender.Send(ctx, n.to, subject, body)
}

func (n *Notifier) count(err error) {
	if n.metrics == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	n.metrics.NoticesSent.WithLabelValues(status).Inc()
}

// Compose renders the notice subject and plain-text body.
func Compose(e event.Event, appt model.Appointment, items []catalog.LineItem) (string, string) {
	verb := "updated"
	if e.Type == event.AppointmentCreated {
		verb = "created"
	}
	subject := fmt.Sprintf("Appointment %s: %s on %s %s", verb, appt.PatientName, appt.AppointmentDate, appt.TimeStart)

	var b strings.Builder
	fmt.Fprintf(&b, "Patient: %s\n", appt.PatientName)
	fmt.Fprintf(&b, "Date:    %s\n", appt.AppointmentDate)
	fmt.Fprintf(&b, "Time:    %s - %s\n", clockTime(appt.TimeStart), clockTime(appt.TimeEnd))
	fmt.Fprintf(&b, "Status:  %s\n", model.NormalizeStatus(appt.Status))
	if len(e.Changed) > 0 {
		fmt.Fprintf(&b, "Changed: %s\n", strings.Join(e.Changed, ", "))
	}
	b.WriteString("\n")

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tQTY\tPRICE\tMINUTES")
	for _, item := range items {
		f := item.Fields()
		switch item.(type) {
		case catalog.PackageHeader:
			fmt.Fprintf(tw, "%s\t\t\t\n", f.Name)
		case catalog.PackageService:
			fmt.Fprintf(tw, "  %s\t%d\t%.2f\t%d\n", f.Name, f.Quantity, f.Price*float64(f.Quantity), f.Duration*f.Quantity)
		default:
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%d\n", f.Name, f.Quantity, f.Price*float64(f.Quantity), f.Duration*f.Quantity)
		}
	}
	totals := catalog.Sum(items)
	fmt.Fprintf(tw, "TOTAL\t\t%.2f\t%d\n", totals.Price, totals.Duration)
	_ = tw.Flush()

	if appt.Comments != "" {
		fmt.Fprintf(&b, "\nComments: %s\n", appt.Comments)
	}
	return subject, b.String()
}

func clockTime(t string) string {
	if out, err := timeofday.To12Hour(t); err == nil {
		return out
	}
	if t == "" {
		return "-"
	}
	return t
}
