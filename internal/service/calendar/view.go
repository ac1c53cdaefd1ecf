package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/service/agenda"
	"github.com/jwalitptl/clinic-scheduler/pkg/event"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

// DefaultRefreshInterval is how often ongoing flags are recomputed.
const DefaultRefreshInterval = time.Minute

type Mode string

const (
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
)

// Snapshot is what a View currently shows. Week is set in week mode and
// Month in month mode.
type Snapshot struct {
	Mode      Mode       `json:"mode"`
	Anchor    string     `json:"anchor"`
	Week      *WeekView  `json:"week,omitempty"`
	Month     *MonthView `json:"month,omitempty"`
	Error     string     `json:"error,omitempty"`
	Refreshed time.Time  `json:"refreshed"`
}

// View is a navigable calendar window. A fetch result is applied only if no
// newer navigation happened while it was in flight.
type View struct {
	svc      *Service
	logger   *logger.Logger
	metrics  *metrics.Metrics
	interval time.Duration

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	mode       Mode
	anchor     time.Time
	appts      []agenda.EnrichedAppointment
	lastErr    error
	snapshot   Snapshot
	sub        *event.Subscription
}

func NewView(svc *Service, log *logger.Logger, m *metrics.Metrics, refreshInterval time.Duration) *View {
	if log == nil {
		log = logger.Nop()
	}
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}
	v := &View{
		svc:      svc,
		logger:   log.With("calendar_view"),
		metrics:  m,
		interval: refreshInterval,
		mode:     ModeWeek,
		anchor:   svc.Clock().Now(),
	}
	v.render()
	return v
}

// NavigateWeek moves the view to the week containing anchor.
func (v *View) NavigateWeek(ctx context.Context, anchor time.Time) error {
	return v.navigate(ctx, ModeWeek, anchor, "navigate")
}

// NavigateMonth moves the view to the month containing anchor.
func (v *View) NavigateMonth(ctx context.Context, anchor time.Time) error {
	return v.navigate(ctx, ModeMonth, anchor, "navigate")
}

// Refresh re-fetches the current window.
func (v *View) Refresh(ctx context.Context) error {
	v.mu.Lock()
	mode, anchor := v.mode, v.anchor
	v.mu.Unlock()
	return v.navigate(ctx, mode, anchor, "refresh")
}

func (v *View) navigate(ctx context.Context, mode Mode, anchor time.Time, trigger string) error {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	if v.cancel != nil {
		v.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mode = mode
	v.anchor = anchor
	v.mu.Unlock()

	defer cancel()

	if v.metrics != nil {
		v.metrics.ViewRefreshes.WithLabelValues(trigger).Inc()
	}

	start, end := v.bounds(mode, anchor)
	appts, err := v.svc.Fetch(fetchCtx, start, end)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		v.logger.Debug("discarding stale calendar response",
			"mode", string(mode), "anchor", anchor.Format("2006-01-02"))
		if v.metrics != nil {
			v.metrics.StaleResponses.Inc()
		}
		return nil
	}
	v.cancel = nil

	if err != nil {
		v.logger.Error(err, "failed to fetch calendar window", "mode", string(mode))
		v.appts = nil
		v.lastErr = err
		v.render()
		return err
	}
	v.appts = appts
	v.lastErr = nil
	v.render()
	return nil
}

func (v *View) bounds(mode Mode, anchor time.Time) (time.Time, time.Time) {
	if mode == ModeMonth {
		return v.svc.Layout().MonthBounds(anchor)
	}
	return v.svc.Layout().WeekBounds(anchor)
}

// render recomputes the snapshot from the held appointments. Callers hold mu.
func (v *View) render() {
	now := v.svc.Clock().Now()
	layout := v.svc.Layout()
	snap := Snapshot{Mode: v.mode, Refreshed: now}
	if v.lastErr != nil {
		snap.Error = v.lastErr.Error()
	}
	switch v.mode {
	case ModeMonth:
		snap.Anchor = v.anchor.Format("2006-01")
		month := layout.Month(v.anchor, v.appts, now)
		snap.Month = &month
	default:
		snap.Anchor = v.anchor.Format("2006-01-02")
		week := layout.Week(v.anchor, v.appts, now)
		snap.Week = &week
	}
	v.snapshot = snap
}

// Tick recomputes ongoing flags and the time indicator without fetching.
func (v *View) Tick() {
	v.mu.Lock()
	v.render()
	v.mu.Unlock()
}

// Snapshot returns the current rendering.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot
}

// Attach re-fetches the current window whenever an appointment changes.
func (v *View) Attach(bus event.Subscriber) {
	sub := bus.Subscribe(func(ctx context.Context, e event.Event) {
		v.logger.Debug("appointment changed, refreshing", "event_type", string(e.Type), "appointment_id", e.AppointmentID)
		if err := v.Refresh(context.WithoutCancel(ctx)); err != nil {
			v.logger.Warn("refresh after change failed", "error", err.Error())
		}
	}, event.AppointmentCreated, event.AppointmentUpdated)

	v.mu.Lock()
	v.sub = sub
	v.mu.Unlock()
}

// Run ticks until ctx is done.
func (v *View) Run(ctx context.Context) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.Tick()
		}
	}
}

// Close detaches from the bus and abandons any in-flight fetch.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sub != nil {
		v.sub.Unsubscribe()
		v.sub = nil
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.generation++
}
