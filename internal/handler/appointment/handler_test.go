package appointment

import (
	"bytes"
	"context"
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
	"github.com/jwalitptl/clinic-scheduler/internal/service/appointment"
	"github.com/jwalitptl/clinic-scheduler/internal/service/catalog"
	"github.com/jwalitptl/clinic-scheduler/pkg/clock"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/event"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
	"github.com/jwalitptl/clinic-scheduler/pkg/validator"
)

var services = []model.Service{
	{ID: "1", Name: "Facial", Price: 500, Duration: 30, Type: model.ServiceTypeService, Status: "Active"},
	{ID: "2", Name: "Glow Package", Price: 900, Type: model.ServiceTypePackage, Status: "Active"},
	{ID: "3", Name: "Peel", Price: 250, Duration: 45, Type: model.ServiceTypeService, Status: "Active"},
}

type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Reasons []string        `json:"reasons"`
	Data    json.RawMessage `json:"data"`
}

type sessionView struct {
	State     appointment.State `json:"state"`
	Draft     appointment.Draft `json:"draft"`
	LineItems []struct {
		Kind     catalog.Kind `json:"kind"`
		Name     string       `json:"name"`
		Quantity int          `json:"quantity"`
	} `json:"lineItems"`
	Totals catalog.Totals `json:"totals"`
}

type fixture struct {
	store  *mocks.Store
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterGin())

	store := new(mocks.Store)
	store.On("ListPatients", mock.Anything).Return([]model.Patient{{ID: "5", FirstName: "Maria", LastName: "Santos"}}, nil).Maybe()
	store.On("ListServices", mock.Anything).Return(services, nil).Maybe()
	store.On("GetPackageComponents", mock.Anything, model.ID("2")).
		Return([]model.PackageComponent{{ServiceID: "1", Name: "Facial", Price: 500, Duration: 30, Quantity: 2}}, nil).Maybe()

	m := metrics.New("test")
	resolver := catalog.NewResolver(store, logger.Nop(), m)
	clk := clock.NewFixed(time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC))
	svc := appointment.NewService(store, resolver, event.NewBus("test", nil), clk, appointment.Config{}, logger.Nop(), m)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	NewHandler(svc, store, resolver).RegisterRoutes(&r.RouterGroup)
	return &fixture{store: store, router: r}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, response) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func decodeSession(t *testing.T, raw json.RawMessage) sessionView {
	t.Helper()
	var s sessionView
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func TestPreviewLineItems(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/line-items", `{"selections":[{"serviceId":"2","quantity":1}]}`)
	require.Equal(t, http.StatusOK, code)

	var out struct {
		LineItems []map[string]interface{} `json:"lineItems"`
		Totals    catalog.Totals           `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &out))
	require.Len(t, out.LineItems, 2)
	assert.Equal(t, "package-header", out.LineItems[0]["kind"])
	assert.Equal(t, "package-service", out.LineItems[1]["kind"])
	assert.Equal(t, catalog.Totals{Price: 1000, Duration: 60}, out.Totals)
}

func TestPreviewLineItemsFromEncodedList(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/line-items", `{"serviceIds":"1:2,3:1"}`)
	require.Equal(t, http.StatusOK, code)

	var out struct {
		Totals catalog.Totals `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &out))
	assert.Equal(t, catalog.Totals{Price: 1250, Duration: 105}, out.Totals)

	code, _ = f.do(t, http.MethodPost, "/line-items", `{"serviceIds":"1:zero"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestEditSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	f.store.On("CreateAppointment", mock.Anything, mock.Anything).Return(model.ID("81"), nil).Once()

	code, _ := f.do(t, http.MethodGet, "/edit-session", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body := f.do(t, http.MethodPost, "/edit-session", "")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, appointment.StateEditing, decodeSession(t, body.Data).State)

	code, _ = f.do(t, http.MethodPost, "/edit-session", `{"appointmentId":"41"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, body = f.do(t, http.MethodPatch, "/edit-session",
		`{"patientId":5,"selections":[{"serviceId":"1","quantity":2},{"serviceId":"3","quantity":1}],"timeStart":"09:00"}`)
	require.Equal(t, http.StatusOK, code)
	session := decodeSession(t, body.Data)
	assert.Equal(t, "Maria Santos", session.Draft.PatientName)
	assert.Equal(t, "10:45", session.Draft.TimeEnd)
	assert.Equal(t, catalog.Totals{Price: 1250, Duration: 105}, session.Totals)
	require.Len(t, session.LineItems, 2)
	assert.Equal(t, 2, session.LineItems[0].Quantity)

	code, body = f.do(t, http.MethodPost, "/edit-session/save", "")
	require.Equal(t, http.StatusOK, code)
	var result model.SaveResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, model.ID("81"), result.ID)

	code, _ = f.do(t, http.MethodGet, "/edit-session", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSaveReportsEveryReason(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, http.MethodPost, "/edit-session", "")
	require.Equal(t, http.StatusCreated, code)

	code, body := f.do(t, http.MethodPost, "/edit-session/save", "")
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body.Reasons, "a patient must be selected")
	assert.Contains(t, body.Reasons, "at least one service must be selected")

	code, _ = f.do(t, http.MethodGet, "/edit-session", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestPatchRejectsMalformedTimes(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, http.MethodPost, "/edit-session", "")
	require.Equal(t, http.StatusCreated, code)

	code, body := f.do(t, http.MethodPatch, "/edit-session", `{"timeStart":"9am"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, []string{"timeStart: must be formatted HH:MM"}, body.Reasons)
}

func TestSaveTransportFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	f.store.On("CreateAppointment", mock.Anything, mock.Anything).
		Return(model.ID(""), apperrors.NewTransport("create appointment", errors.New("timeout"))).Once()

	code, _ := f.do(t, http.MethodPost, "/edit-session", "")
	require.Equal(t, http.StatusCreated, code)
	code, _ = f.do(t, http.MethodPatch, "/edit-session",
		`{"patientId":"5","selections":[{"serviceId":"1","quantity":1}],"timeStart":"10:00"}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, http.MethodPost, "/edit-session/save", "")
	assert.Equal(t, http.StatusBadGateway, code)

	code, body := f.do(t, http.MethodGet, "/edit-session", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "10:30", decodeSession(t, body.Data).Draft.TimeEnd)

	code, _ = f.do(t, http.MethodDelete, "/edit-session", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodDelete, "/edit-session", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBeginDegradesWhenCatalogFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := new(mocks.Store)
	store.On("ListPatients", mock.Anything).Return(nil, apperrors.NewTransport("list patients", errors.New("down")))
	store.On("ListServices", mock.Anything).Return(services[:1], nil)

	m := metrics.New("test")
	resolver := catalog.NewResolver(store, logger.Nop(), m)
	svc := appointment.NewService(store, resolver, nil, clock.NewFixed(time.Now()), appointment.Config{}, logger.Nop(), m)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	NewHandler(svc, store, resolver).RegisterRoutes(&r.RouterGroup)

	req := httptest.NewRequest(http.MethodPost, "/edit-session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req.WithContext(context.Background()))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "failed to load patients")
}
