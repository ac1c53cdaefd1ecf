package calendar

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/mocks"
	"github.com/jwalitptl/clinic-scheduler/internal/service/agenda"
	"github.com/jwalitptl/clinic-scheduler/internal/service/calendar"
	"github.com/jwalitptl/clinic-scheduler/pkg/clock"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

var visit = model.Appointment{
	ID:              "41",
	PatientID:       "7",
	PatientName:     "Maria Santos",
	AppointmentDate: "2025-01-08",
	TimeStart:       "10:15",
	TimeEnd:         "11:00",
	Status:          "scheduled",
}

func setup(t *testing.T, store *mocks.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewFixed(time.Date(2025, 1, 8, 9, 10, 0, 0, time.UTC))
	svc := calendar.NewService(store, agenda.NewAggregator(clk, nil), calendar.NewLayout(calendar.DefaultGridConfig(), nil), clk, 0)
	view := calendar.NewView(svc, nil, metrics.New("test"), 0)
	t.Cleanup(view.Close)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	NewHandler(svc, view).RegisterRoutes(&r.RouterGroup)
	return r
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func jan(day int) time.Time {
	return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)
}

func TestGetWeek(t *testing.T) {
	store := new(mocks.Store)
	store.On("ListAppointments", mock.Anything, jan(6), jan(12)).Return([]model.Appointment{visit}, nil)
	r := setup(t, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calendar/week?date=2025-01-08", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[calendar.WeekView](t, w)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "2025-01-06", body.Data.Start)
	require.Len(t, body.Data.Placements, 1)
	assert.Equal(t, 2, body.Data.Placements[0].DayIndex)
	assert.Equal(t, "10 AM", body.Data.Placements[0].SlotLabel)
	assert.Equal(t, 3, body.Data.Placements[0].Appointment.DayOfWeek)
	assert.Equal(t, 1.0, body.Data.Placements[0].Appointment.DurationHours)
}

func TestGetWeekDefaultsToToday(t *testing.T) {
	store := new(mocks.Store)
	store.On("ListAppointments", mock.Anything, jan(6), jan(12)).Return(nil, nil)
	r := setup(t, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calendar/week", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-01-06", decode[calendar.WeekView](t, w).Data.Start)
}

func TestGetMonth(t *testing.T) {
	store := new(mocks.Store)
	store.On("ListAppointments", mock.Anything, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)).
		Return([]model.Appointment{visit}, nil)
	r := setup(t, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calendar/month?month=2025-01", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[calendar.MonthView](t, w)
	assert.Len(t, body.Data.Weeks, 5)
	assert.Len(t, body.Data.Weeks[1][2].Appointments, 1)
}

func TestBadDatesAreRejected(t *testing.T) {
	r := setup(t, new(mocks.Store))

	for _, path := range []string{"/calendar/week?date=01/08/2025", "/calendar/month?month=2025-13"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, path)
	}
}

func TestStoreFailureIsBadGateway(t *testing.T) {
	store := new(mocks.Store)
	store.On("ListAppointments", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewTransport("list appointments", errors.New("connection refused")))
	r := setup(t, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calendar/week?date=2025-01-08", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestNavigateAndCurrent(t *testing.T) {
	store := new(mocks.Store)
	store.On("ListAppointments", mock.Anything, mock.Anything, mock.Anything).Return([]model.Appointment{visit}, nil)
	r := setup(t, store)

	req := httptest.NewRequest(http.MethodPost, "/calendar/navigate", bytes.NewBufferString(`{"mode":"month","date":"2025-01"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calendar/current", nil))
	require.Equal(t, http.StatusOK, w.Code)

	snap := decode[calendar.Snapshot](t, w).Data
	assert.Equal(t, calendar.ModeMonth, snap.Mode)
	assert.Equal(t, "2025-01", snap.Anchor)
	require.NotNil(t, snap.Month)
	assert.Nil(t, snap.Week)
}

func TestNavigateRejectsUnknownMode(t *testing.T) {
	r := setup(t, new(mocks.Store))

	req := httptest.NewRequest(http.MethodPost, "/calendar/navigate", bytes.NewBufferString(`{"mode":"year"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
