package calendar

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/handler"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/calendar"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

const monthLayout = "2006-01"

type Handler struct {
	service *calendar.Service
	view    *calendar.View
}

// NewHandler serves stateless week and month windows from service and the
// shared navigable window from view.
func NewHandler(service *calendar.Service, view *calendar.View) *Handler {
	return &Handler{service: service, view: view}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cal := r.Group("/calendar")
	{
		cal.GET("/week", h.GetWeek)
		cal.GET("/month", h.GetMonth)
		cal.GET("/current", h.GetCurrent)
		cal.POST("/navigate", h.Navigate)
		cal.POST("/refresh", h.Refresh)
	}
}

func (h *Handler) GetWeek(c *gin.Context) {
	anchor, err := h.date(c.Query("date"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	week, err := h.service.Week(c.Request.Context(), anchor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(week))
}

func (h *Handler) GetMonth(c *gin.Context) {
	anchor, err := h.month(c.Query("month"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	month, err := h.service.Month(c.Request.Context(), anchor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(month))
}

func (h *Handler) GetCurrent(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.view.Snapshot()))
}

type navigateRequest struct {
	Mode calendar.Mode `json:"mode" binding:"required,oneof=week month"`
	// Date is "YYYY-MM-DD" in week mode and "YYYY-MM" or a full date in
	// month mode. Empty means today.
	Date string `json:"date"`
}

func (h *Handler) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequest("invalid navigation request", err))
		return
	}

	ctx := c.Request.Context()
	switch req.Mode {
	case calendar.ModeMonth:
		anchor, err := h.month(req.Date)
		if err != nil {
			_ = c.Error(err)
			return
		}
		err = h.view.NavigateMonth(ctx, anchor)
		h.respondView(c, err)
	default:
		anchor, err := h.date(req.Date)
		if err != nil {
			_ = c.Error(err)
			return
		}
		err = h.view.NavigateWeek(ctx, anchor)
		h.respondView(c, err)
	}
}

func (h *Handler) Refresh(c *gin.Context) {
	h.respondView(c, h.view.Refresh(c.Request.Context()))
}

func (h *Handler) respondView(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(apperrors.NewTransport("load calendar", err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.view.Snapshot()))
}

func (h *Handler) date(s string) (time.Time, error) {
	if s == "" {
		return h.service.Clock().Now(), nil
	}
	t, err := model.ParseDate(s, h.service.Location())
	if err != nil {
		return time.Time{}, apperrors.NewBadRequest("date must be formatted YYYY-MM-DD", err)
	}
	return t, nil
}

func (h *Handler) month(s string) (time.Time, error) {
	if s == "" {
		return h.service.Clock().Now(), nil
	}
	if len(s) == len(monthLayout) {
		t, err := time.ParseInLocation(monthLayout, s, h.service.Location())
		if err != nil {
			return time.Time{}, apperrors.NewBadRequest("month must be formatted YYYY-MM", err)
		}
		return t, nil
	}
	return h.date(s)
}
