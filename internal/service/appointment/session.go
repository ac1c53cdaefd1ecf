package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/catalog"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

// State is the lifecycle position of the edit session.
type State string

const (
	StateViewing   State = "viewing"
	StateEditing   State = "editing"
	StateSaving    State = "saving"
	StateCancelled State = "cancelled"
)

var (
	ErrSessionActive  = apperrors.NewConflict("another appointment is already being edited", nil)
	ErrSaveInProgress = apperrors.NewConflict("the appointment is being saved", nil)
	ErrNoSession      = apperrors.NewNotFound("edit session", nil)
)

// Draft is the in-progress form state of one appointment.
type Draft struct {
	AppointmentID model.ID                `json:"appointmentId,omitempty"`
	PatientID     model.ID                `json:"patientId"`
	PatientName   string                  `json:"patientName"`
	Selections    []model.Selection       `json:"selections"`
	Date          string                  `json:"appointmentDate"`
	TimeStart     string                  `json:"timeStart"`
	TimeEnd       string                  `json:"timeEnd"`
	Status        model.AppointmentStatus `json:"status"`
	Comments      string                  `json:"comments"`

	// baseDate is the date the user picked. Date may sit one day later when
	// the recomputed end time wrapped past midnight.
	baseDate string
}

// IsNew reports whether saving creates a record.
func (d Draft) IsNew() bool {
	return d.AppointmentID.IsZero()
}

// Session is a snapshot of the open edit.
type Session struct {
	ID         uuid.UUID                `json:"id"`
	State      State                    `json:"state"`
	OpenedAt   time.Time                `json:"openedAt"`
	Draft      Draft                    `json:"draft"`
	Patients   []model.Patient          `json:"patients"`
	Services   []model.Service          `json:"services"`
	Components catalog.Components       `json:"-"`
	LineItems  []catalog.LineItem       `json:"lineItems"`
	Totals     catalog.Totals           `json:"totals"`
	LoadErrors []string                 `json:"loadErrors,omitempty"`
	Original   *model.AppointmentPayload `json:"-"`
}

func (s *Session) clone() *Session {
	c := *s
	c.Draft.Selections = append([]model.Selection(nil), s.Draft.Selections...)
	c.LineItems = append([]catalog.LineItem(nil), s.LineItems...)
	c.LoadErrors = append([]string(nil), s.LoadErrors...)
	return &c
}

// Changes is a partial draft update. Nil fields are left alone.
type Changes struct {
	PatientID  *model.ID          `json:"patientId,omitempty"`
	Selections *[]model.Selection `json:"selections,omitempty"`
	Date       *string            `json:"appointmentDate,omitempty"`
	TimeStart  *string            `json:"timeStart,omitempty" binding:"omitempty,hhmm"`
	TimeEnd    *string            `json:"timeEnd,omitempty" binding:"omitempty,hhmm"`
	Status     *string            `json:"status,omitempty"`
	Comments   *string            `json:"comments,omitempty"`
}

// ValidationError lists every reason a draft cannot be saved.
type ValidationError struct {
	Reasons []string `json:"reasons"`
}

func (e *ValidationError) Error() string {
	return "appointment validation failed: " + strings.Join(e.Reasons, "; ")
}

// Unwrap exposes the error as a validation AppError.
func (e *ValidationError) Unwrap() error {
	return &apperrors.AppError{
		Kind:    apperrors.KindValidation,
		Code:    apperrors.ErrValidation,
		Message: "appointment validation failed",
	}
}
