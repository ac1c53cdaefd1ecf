package appointment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/service/catalog"
	"github.com/jwalitptl/clinic-scheduler/pkg/clock"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/event"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
	"github.com/jwalitptl/clinic-scheduler/pkg/timeofday"
)

const (
	DefaultFetchTimeout = 10 * time.Second

	// packageFetchLimit caps concurrent package detail lookups.
	packageFetchLimit = 4
)

type Config struct {
	Hours        BusinessHours
	FetchTimeout time.Duration
}

// Service coordinates the single open appointment edit.
type Service struct {
	store     repository.ClinicStore
	resolver  *catalog.Resolver
	publisher event.Publisher
	clock     clock.Clock
	cfg       Config
	logger    *logger.Logger
	metrics   *metrics.Metrics
	extractor event.FieldExtractor

	mu      sync.Mutex
	session *Session
	opening bool
}

func NewService(
	store repository.ClinicStore,
	resolver *catalog.Resolver,
	publisher event.Publisher,
	c clock.Clock,
	cfg Config,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	if cfg.Hours == (BusinessHours{}) {
		cfg.Hours = DefaultBusinessHours()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if c == nil {
		c = clock.System()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:     store,
		resolver:  resolver,
		publisher: publisher,
		clock:     c,
		cfg:       cfg,
		logger:    log.With("appointment"),
		metrics:   m,
		extractor: &event.DefaultFieldExtractor{},
	}
}

// State reports where the session lifecycle currently is.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return StateViewing
	}
	return s.session.State
}

// Begin opens an edit session, for appointmentID or for a new appointment
// when the id is empty. It returns only after the patient list, the
// service catalog and the package details have all been fetched.
func (s *Service) Begin(ctx context.Context, appointmentID model.ID) (*Session, error) {
	s.mu.Lock()
	if s.session != nil || s.opening {
		s.mu.Unlock()
		return nil, ErrSessionActive
	}
	s.opening = true
	s.mu.Unlock()

	session, err := s.load(ctx, appointmentID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.opening = false
	if err != nil {
		return nil, err
	}
	s.session = session

	s.logger.Info("edit session opened",
		"session_id", session.ID.String(),
		"appointment_id", appointmentID.String(),
		"load_errors", len(session.LoadErrors))
	return session.clone(), nil
}

func (s *Service) load(ctx context.Context, appointmentID model.ID) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	var (
		mu         sync.Mutex
		loadErrors []string
		patients   []model.Patient
		services   []model.Service
		components = make(catalog.Components)
		existing   *model.Appointment
	)
	degrade := func(what string, err error) {
		s.logger.Error(err, "prerequisite fetch failed", "fetch", what)
		mu.Lock()
		loadErrors = append(loadErrors, fmt.Sprintf("failed to load %s", what))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		list, err := s.store.ListPatients(gctx)
		if err != nil {
			degrade("patients", err)
			return nil
		}
		patients = list
		return nil
	})

	g.Go(func() error {
		list, err := s.store.ListServices(gctx)
		if err != nil {
			degrade("services", err)
			return nil
		}
		services = list

		pg, pctx := errgroup.WithContext(gctx)
		pg.SetLimit(packageFetchLimit)
		for _, svc := range list {
			if !svc.IsPackage() {
				continue
			}
			svc := svc
			pg.Go(func() error {
				parts, err := s.store.GetPackageComponents(pctx, svc.ID)
				if err != nil {
					degrade("package "+svc.Name, err)
					return nil
				}
				mu.Lock()
				components[svc.ID] = parts
				mu.Unlock()
				return nil
			})
		}
		return pg.Wait()
	})

	if !appointmentID.IsZero() {
		g.Go(func() error {
			appt, err := s.store.GetAppointment(gctx, appointmentID)
			if err != nil {
				return fmt.Errorf("failed to load appointment %s: %w", appointmentID, err)
			}
			existing = appt
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if apperrors.KindOf(err) == "" {
			err = apperrors.NewTransport("load appointment", err)
		}
		return nil, err
	}

	session := &Session{
		ID:         uuid.New(),
		State:      StateEditing,
		OpenedAt:   s.clock.Now(),
		Patients:   patients,
		Services:   services,
		Components: components,
		LoadErrors: loadErrors,
	}
	if existing != nil {
		session.Draft = s.draftFrom(existing)
		session.Original = storedPayload(existing, session.Draft.Date)
	} else {
		today := model.FormatDate(s.clock.Now())
		session.Draft = Draft{
			Date:     today,
			baseDate: today,
			Status:   model.AppointmentStatusScheduled,
		}
	}
	s.resolve(session)
	return session, nil
}

// draftFrom reads a stored appointment back into form state. The stored
// names become display hints for services the catalog no longer has.
func (s *Service) draftFrom(appt *model.Appointment) Draft {
	selections, err := catalog.StoredSelections(*appt)
	if err != nil {
		s.logger.Warn("unreadable service selection, using primary service",
			"appointment_id", appt.ID.String(), "service_ids", appt.ServiceIDs)
	}

	date := appt.AppointmentDate
	if len(date) > len(model.DateLayout) {
		date = date[:len(model.DateLayout)]
	}
	return Draft{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		PatientName:   appt.PatientName,
		Selections:    selections,
		Date:          date,
		baseDate:      date,
		TimeStart:     appt.TimeStart,
		TimeEnd:       appt.TimeEnd,
		Status:        model.NormalizeStatus(appt.Status),
		Comments:      appt.Comments,
	}
}

// storedPayload is the record as the collaborator holds it, for change
// detection on update. Status and the service list are brought to the
// encoding a save writes so legacy spellings do not read as edits.
func storedPayload(appt *model.Appointment, date string) *model.AppointmentPayload {
	serviceIDs := appt.ServiceIDs
	if selections, err := catalog.StoredSelections(*appt); err == nil && len(selections) > 0 {
		serviceIDs = catalog.EncodeSelections(selections)
	}
	return &model.AppointmentPayload{
		PatientID:       appt.PatientID,
		PatientName:     appt.PatientName,
		ServiceID:       appt.ServiceID,
		ServiceName:     appt.ServiceName,
		ServiceIDs:      serviceIDs,
		ServiceNames:    appt.ServiceNames,
		AppointmentDate: date,
		TimeStart:       appt.TimeStart,
		TimeEnd:         appt.TimeEnd,
		Status:          model.NormalizeStatus(appt.Status),
		Comments:        appt.Comments,
	}
}

// Current returns the open session.
func (s *Service) Current() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, ErrNoSession
	}
	return s.session.clone(), nil
}

// Apply merges changes into the draft. A new start time or selection list
// recomputes the end time from the total service duration; status and
// comment edits never touch it. An explicit end time in the same change
// wins over the recomputed one.
func (s *Service) Apply(ch Changes) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.editable()
	if err != nil {
		return nil, err
	}
	d := &session.Draft
	recompute := false
	carried := d.Date != d.baseDate

	if ch.PatientID != nil {
		d.PatientID = *ch.PatientID
		d.PatientName = ""
		for _, p := range session.Patients {
			if p.ID == d.PatientID {
				d.PatientName = p.FullName()
				break
			}
		}
	}
	if ch.Selections != nil {
		index := catalog.Index(session.Services)
		selections := make([]model.Selection, 0, len(*ch.Selections))
		for _, sel := range *ch.Selections {
			sel.Name = s.resolver.NameFor(sel.ServiceID, index, sel.Name)
			selections = append(selections, sel)
		}
		d.Selections = selections
		recompute = true
	}
	if ch.Date != nil {
		d.Date = *ch.Date
		d.baseDate = *ch.Date
	}
	if ch.TimeStart != nil {
		d.TimeStart = *ch.TimeStart
		recompute = true
	}
	if ch.Status != nil {
		d.Status = model.NormalizeStatus(*ch.Status)
	}
	if ch.Comments != nil {
		d.Comments = *ch.Comments
	}

	s.resolve(session)
	if recompute {
		s.recomputeEnd(session)
	} else if ch.Date != nil && carried {
		s.carryDate(d)
	}
	if ch.TimeEnd != nil {
		d.TimeEnd = *ch.TimeEnd
	}
	return session.clone(), nil
}

// recomputeEnd sets TimeEnd to TimeStart plus the total duration. When the
// result wraps past midnight the date moves one day past the picked date.
func (s *Service) recomputeEnd(session *Session) {
	d := &session.Draft
	total := session.Totals.Duration
	if total <= 0 {
		return
	}
	end, err := timeofday.AddMinutes(d.TimeStart, total)
	if err != nil {
		return
	}
	d.TimeEnd = end
	s.carryDate(d)
}

// carryDate sets Date to the picked date, or the day after it when TimeEnd
// wraps past midnight.
func (s *Service) carryDate(d *Draft) {
	d.Date = d.baseDate
	startHour, err := timeofday.Hour(d.TimeStart)
	if err != nil {
		return
	}
	if endHour, err := timeofday.Hour(d.TimeEnd); err == nil && endHour < startHour {
		if base, err := model.ParseDate(d.baseDate, nil); err == nil {
			d.Date = model.FormatDate(base.AddDate(0, 0, 1))
			s.logger.Debug("end time wrapped past midnight, advancing date",
				"time_start", d.TimeStart, "time_end", d.TimeEnd, "date", d.Date)
		}
	}
}

// Save validates and writes the draft. Validation failures return a
// *ValidationError without writing. A failed write keeps the draft open.
func (s *Service) Save(ctx context.Context) (*model.SaveResult, error) {
	s.mu.Lock()
	session, err := s.editable()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if reasons := Validate(session.Draft, catalog.Index(session.Services), s.cfg.Hours); len(reasons) > 0 {
		s.mu.Unlock()
		s.countSave("invalid")
		s.logger.Debug("appointment validation failed", "reasons", reasons)
		return nil, &ValidationError{Reasons: reasons}
	}

	payload := s.payload(session)
	draft := session.Draft
	original := session.Original
	session.State = StateSaving
	s.mu.Unlock()

	id, err := s.write(ctx, draft, &payload)

	s.mu.Lock()
	if err != nil {
		session.State = StateEditing
		s.mu.Unlock()
		s.countSave("failed")
		s.logger.Error(err, "failed to save appointment", "appointment_id", draft.AppointmentID.String())
		if apperrors.KindOf(err) == "" {
			err = apperrors.NewTransport("save appointment", err)
		}
		return nil, err
	}
	s.session = nil
	s.mu.Unlock()

	s.countSave("saved")

	evt := event.New(event.AppointmentUpdated, id.String(), s.clock.Now())
	if draft.IsNew() {
		evt.Type = event.AppointmentCreated
	} else if original != nil {
		evt.Changed = s.extractor.ChangedFields(original, &payload)
	}
	if s.publisher != nil {
		s.publisher.Publish(ctx, evt)
	}

	s.logger.Info("appointment saved",
		"appointment_id", id.String(), "event_type", string(evt.Type), "changed", evt.Changed)
	return &model.SaveResult{ID: id}, nil
}

func (s *Service) write(ctx context.Context, d Draft, payload *model.AppointmentPayload) (model.ID, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	if d.IsNew() {
		return s.store.CreateAppointment(ctx, payload)
	}
	if err := s.store.UpdateAppointment(ctx, d.AppointmentID, payload); err != nil {
		return "", err
	}
	return d.AppointmentID, nil
}

// Cancel discards the open draft.
func (s *Service) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.editable()
	if err != nil {
		return err
	}
	session.State = StateCancelled
	s.session = nil
	s.logger.Info("edit session cancelled", "session_id", session.ID.String())
	return nil
}

// editable returns the open session if it accepts changes. Callers hold mu.
func (s *Service) editable() (*Session, error) {
	if s.session == nil {
		return nil, ErrNoSession
	}
	if s.session.State == StateSaving {
		return nil, ErrSaveInProgress
	}
	return s.session, nil
}

// resolve refreshes line items and totals from the draft selections.
func (s *Service) resolve(session *Session) {
	index := catalog.Index(session.Services)
	session.LineItems = s.resolver.Expand(session.Draft.Selections, index, session.Components)
	session.Totals = catalog.Sum(session.LineItems)
}

// payload builds the persisted representation. The first selection is the
// primary service for single-service consumers.
func (s *Service) payload(session *Session) model.AppointmentPayload {
	d := session.Draft
	index := catalog.Index(session.Services)

	named := make([]model.Selection, 0, len(d.Selections))
	for _, sel := range d.Selections {
		sel.Name = s.resolver.NameFor(sel.ServiceID, index, sel.Name)
		named = append(named, sel)
	}

	p := model.AppointmentPayload{
		PatientID:       d.PatientID,
		PatientName:     d.PatientName,
		ServiceIDs:      catalog.EncodeSelections(named),
		ServiceNames:    catalog.FormatServiceNames(named),
		AppointmentDate: d.Date,
		TimeStart:       d.TimeStart,
		TimeEnd:         d.TimeEnd,
		Status:          d.Status,
		Comments:        d.Comments,
	}
	if len(named) > 0 {
		p.ServiceID = named[0].ServiceID
		p.ServiceName = named[0].Name
	}
	for _, pt := range session.Patients {
		if pt.ID == d.PatientID {
			p.PatientName = pt.FullName()
			break
		}
	}
	return p
}

func (s *Service) countSave(outcome string) {
	if s.metrics != nil {
		s.metrics.Saves.WithLabelValues(outcome).Inc()
	}
}
