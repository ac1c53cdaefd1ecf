package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/handler"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/appointment"
	"github.com/jwalitptl/clinic-scheduler/internal/service/catalog"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/validator"
)

// ServiceLister supplies the catalog for line item previews.
type ServiceLister interface {
	ListServices(ctx context.Context) ([]model.Service, error)
}

type Handler struct {
	service  *appointment.Service
	services ServiceLister
	resolver *catalog.Resolver
}

func NewHandler(service *appointment.Service, services ServiceLister, resolver *catalog.Resolver) *Handler {
	return &Handler{service: service, services: services, resolver: resolver}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/line-items", h.PreviewLineItems)

	session := r.Group("/edit-session")
	{
		session.GET("", h.GetSession)
		session.POST("", h.BeginSession)
		session.PATCH("", h.UpdateSession)
		session.POST("/save", h.SaveSession)
		session.DELETE("", h.CancelSession)
	}
}

type lineItemsRequest struct {
	Selections []model.Selection `json:"selections"`
	// ServiceIDs is an encoded selection list, used when Selections is empty.
	ServiceIDs string `json:"serviceIds"`
}

type lineItemsResponse struct {
	LineItems []catalog.LineItem `json:"lineItems"`
	Totals    catalog.Totals     `json:"totals"`
}

// PreviewLineItems expands selections into line items without touching the
// edit session.
func (h *Handler) PreviewLineItems(c *gin.Context) {
	var req lineItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequest("invalid line item request", err))
		return
	}

	selections := req.Selections
	if len(selections) == 0 && req.ServiceIDs != "" {
		parsed, err := catalog.ParseSelections(req.ServiceIDs)
		if err != nil {
			_ = c.Error(apperrors.NewBadRequest("invalid serviceIds", err))
			return
		}
		selections = parsed
	}

	ctx := c.Request.Context()
	services, err := h.services.ListServices(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	items := h.resolver.Resolve(ctx, selections, services)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(lineItemsResponse{
		LineItems: items,
		Totals:    catalog.Sum(items),
	}))
}

func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.service.Current()
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(session))
}

type beginRequest struct {
	AppointmentID model.ID `json:"appointmentId"`
}

func (h *Handler) BeginSession(c *gin.Context) {
	var req beginRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(apperrors.NewBadRequest("invalid edit session request", err))
			return
		}
	}

	session, err := h.service.Begin(c.Request.Context(), req.AppointmentID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(session))
}

func (h *Handler) UpdateSession(c *gin.Context) {
	var changes appointment.Changes
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusUnprocessableEntity, handler.NewValidationResponse("invalid draft changes", validator.Messages(err)))
		return
	}

	session, err := h.service.Apply(changes)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(session))
}

func (h *Handler) SaveSession(c *gin.Context) {
	result, err := h.service.Save(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) CancelSession(c *gin.Context) {
	if err := h.service.Cancel(); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, &handler.Response{Status: "success", Message: "edit session cancelled"})
}
