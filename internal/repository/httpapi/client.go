// Package httpapi talks to the clinic persistence API over REST.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Token is sent as a bearer token when set.
	Token string
	// CatalogPath is "/service-table" or "/services-and-packages".
	CatalogPath string
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

type Client struct {
	baseURL     string
	token       string
	catalogPath string
	http        *http.Client
	breaker     *circuitbreaker.CircuitBreaker
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

var _ repository.ClinicStore = (*Client)(nil)

func NewClient(cfg Config, log *logger.Logger, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = "/service-table"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		catalogPath: cfg.CatalogPath,
		http:        &http.Client{Timeout: cfg.Timeout},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "clinic-api",
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
		logger:  log.With("clinic_api"),
		metrics: m,
	}
}

func (c *Client) ListPatients(ctx context.Context) ([]model.Patient, error) {
	var patients []model.Patient
	if err := c.call(ctx, "list_patients", http.MethodGet, "/patients", nil, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// ListServices reads the catalog. Both the flat array and the combined
// {services, packages} shapes are accepted.
func (c *Client) ListServices(ctx context.Context) ([]model.Service, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "list_services", http.MethodGet, c.catalogPath, nil, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var combined model.ServiceCatalog
		if err := json.Unmarshal(trimmed, &combined); err != nil {
			return nil, apperrors.NewTransport("list services", fmt.Errorf("failed to decode catalog: %w", err))
		}
		return combined.All(), nil
	}

	var services []model.Service
	if err := json.Unmarshal(trimmed, &services); err != nil {
		return nil, apperrors.NewTransport("list services", fmt.Errorf("failed to decode catalog: %w", err))
	}
	return services, nil
}

// GetPackageComponents treats 404 as "not a package".
func (c *Client) GetPackageComponents(ctx context.Context, serviceID model.ID) ([]model.PackageComponent, error) {
	var detail model.PackageDetail
	err := c.call(ctx, "get_package", http.MethodGet, "/packages/"+url.PathEscape(serviceID.String()), nil, &detail)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return detail.PackageServices, nil
}

func (c *Client) ListAppointments(ctx context.Context, start, end time.Time) ([]model.Appointment, error) {
	q := url.Values{}
	q.Set("startDate", model.FormatDate(start))
	q.Set("endDate", model.FormatDate(end))

	var appts []model.Appointment
	if err := c.call(ctx, "list_appointments", http.MethodGet, "/appointments/date-range?"+q.Encode(), nil, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

func (c *Client) GetAppointment(ctx context.Context, id model.ID) (*model.Appointment, error) {
	var appt model.Appointment
	if err := c.call(ctx, "get_appointment", http.MethodGet, "/appointments/"+url.PathEscape(id.String()), nil, &appt); err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, err
	}
	return &appt, nil
}

func (c *Client) CreateAppointment(ctx context.Context, payload *model.AppointmentPayload) (model.ID, error) {
	var result model.SaveResult
	if err := c.call(ctx, "create_appointment", http.MethodPost, "/appointments", payload, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, id model.ID, payload *model.AppointmentPayload) error {
	return c.call(ctx, "update_appointment", http.MethodPut, "/appointments/"+url.PathEscape(id.String()), payload, nil)
}

// call performs one request through the circuit breaker. Network failures
// and 5xx answers trip the breaker; other non-2xx answers and requests the
// caller cancelled do not. Every failure comes back as a transport AppError wrapping the cause.
func (c *Client) call(ctx context.Context, operation, method, path string, body, out interface{}) error {
	start := time.Now()
	var clientErr error

	err := c.breaker.Execute(func() error {
		status, respBody, err := c.do(ctx, method, path, body)
		if err != nil {
			return err
		}
		if status >= 200 && status < 300 {
			if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					clientErr = fmt.Errorf("failed to decode response: %w", err)
				}
			}
			return nil
		}

		statusErr := &StatusError{Method: method, Path: path, StatusCode: status, Message: errorMessage(respBody)}
		if status >= 500 {
			return statusErr
		}
		clientErr = statusErr
		return nil
	})
	if err == nil {
		err = clientErr
	}

	c.observe(operation, start, err)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("clinic api call failed", "operation", operation, "error", err.Error())
		}
		return apperrors.NewTransport(strings.ReplaceAll(operation, "_", " "), err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.StoreOperations.WithLabelValues(operation, status).Inc()
	c.metrics.StoreLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func statusOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func errorMessage(body []byte) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return strings.TrimSpace(string(body))
	}
	if errResp.Message != "" {
		return errResp.Message
	}
	return errResp.Error
}
