package handlers

import (
	"context"
	"net/http"

	"example.com/backstage/bookings/api/middleware"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PromoterService is what PromoterHandler needs from the service layer
type PromoterService interface {
	List(ctx context.Context, id identity.Identity, f repository.PromoterFilter) (repository.Page[models.Promoter], error)
	Active(ctx context.Context, id identity.Identity, f repository.PromoterFilter) (repository.Page[models.Promoter], error)
	Get(ctx context.Context, id identity.Identity, promoterID uuid.UUID) (*models.Promoter, error)
	Create(ctx context.Context, id identity.Identity, in service.PromoterInput) (*models.Promoter, error)
	Update(ctx context.Context, id identity.Identity, promoterID uuid.UUID, in service.PromoterInput) (*models.Promoter, error)
	Delete(ctx context.Context, id identity.Identity, promoterID uuid.UUID) error
	Summary(ctx context.Context, id identity.Identity, promoterID uuid.UUID) (*service.PromoterSummary, error)
	Duplicate(ctx context.Context, id identity.Identity, promoterID uuid.UUID, suffix *string) (*models.Promoter, error)
	ToggleStatus(ctx context.Context, id identity.Identity, promoterID uuid.UUID) (*models.Promoter, error)
	BulkUpdateStatus(ctx context.Context, id identity.Identity, in service.BulkStatusInput) (*service.BulkResult, error)
	ByType(ctx context.Context, id identity.Identity) (map[string]service.Group[models.Promoter], error)
	ByCountry(ctx context.Context, id identity.Identity) (map[string]service.Group[models.Promoter], error)
	DashboardStats(ctx context.Context, id identity.Identity) (*service.PromoterDashboard, error)
}

// PromoterHandler handles promoter requests
type PromoterHandler struct {
	service PromoterService
	log     logrus.FieldLogger
}

// NewPromoterHandler creates a new PromoterHandler instance
func NewPromoterHandler(svc PromoterService, log logrus.FieldLogger) *PromoterHandler {
	return &PromoterHandler{service: svc, log: log}
}

type duplicateRequest struct {
	Suffix *string `json:"suffix"`
}

type promoterBulkStatusRequest struct {
	PromoterIDs []uuid.UUID `json:"promoter_ids"`
	IsActive    *bool       `json:"is_active"`
}

func (h *PromoterHandler) filter(c *gin.Context) (repository.PromoterFilter, bool) {
	q := newQuery(c)
	f := repository.PromoterFilter{
		ListOptions:    q.ListOptions(),
		PromoterType:   q.String("promoter_type"),
		IsActive:       q.Bool("is_active"),
		CompanyCountry: q.String("company_country"),
		HasEmail:       q.Bool("has_email"),
		HasPhone:       q.Bool("has_phone"),
		HasWebsite:     q.Bool("has_website"),
	}
	if err := q.Err(); err != nil {
		WriteError(c, h.log, err)
		return f, false
	}
	return f, true
}

// ListPromoters returns a filtered page of promoters
func (h *PromoterHandler) ListPromoters(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	page, err := h.service.List(c.Request.Context(), middleware.GetIdentity(c), f)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	writePage(c, page)
}

// ListActivePromoters returns a filtered page of active promoters
func (h *PromoterHandler) ListActivePromoters(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	page, err := h.service.Active(c.Request.Context(), middleware.GetIdentity(c), f)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	writePage(c, page)
}

// GetPromoter returns one promoter
func (h *PromoterHandler) GetPromoter(c *gin.Context) {
	promoterID, ok := pathID(c, "id")
	if !ok {
		return
	}
	promoter, err := h.service.Get(c.Request.Context(), middleware.GetIdentity(c), promoterID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, promoter)
}

// CreatePromoter creates a promoter in the caller's agency
func (h *PromoterHandler) CreatePromoter(c *gin.Context) {
	var in service.PromoterInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	promoter, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, promoter)
}

// UpdatePromoter partially updates a promoter
func (h *PromoterHandler) UpdatePromoter(c *gin.Context) {
	promoterID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.PromoterInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	promoter, err := h.service.Update(c.Request.Context(), middleware.GetIdentity(c), promoterID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, promoter)
}

// DeletePromoter deletes a promoter
func (h *PromoterHandler) DeletePromoter(c *gin.Context) {
	promoterID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetIdentity(c), promoterID); err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSummary returns the promoter's summary card
func (h *PromoterHandler) GetSummary(c *gin.Context) {
	promoterID, ok := pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), middleware.GetIdentity(c), promoterID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DuplicatePromoter copies a promoter under a suffixed name
func (h *PromoterHandler) DuplicatePromoter(c *gin.Context) {
	promoterID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req duplicateRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	promoter, err := h.service.Duplicate(c.Request.Context(), middleware.GetIdentity(c), promoterID, req.Suffix)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, promoter)
}

// ToggleStatus flips the promoter's active flag
func (h *PromoterHandler) ToggleStatus(c *gin.Context) {
	promoterID, ok := pathID(c, "id")
	if !ok {
		return
	}
	promoter, err := h.service.ToggleStatus(c.Request.Context(), middleware.GetIdentity(c), promoterID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, promoter)
}

// BulkUpdateStatus sets the active flag of several promoters
func (h *PromoterHandler) BulkUpdateStatus(c *gin.Context) {
	var req promoterBulkStatusRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	res, err := h.service.BulkUpdateStatus(c.Request.Context(), middleware.GetIdentity(c), service.BulkStatusInput{IDs: req.PromoterIDs, IsActive: req.IsActive})
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ByType groups promoters by type
func (h *PromoterHandler) ByType(c *gin.Context) {
	groups, err := h.service.ByType(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// ByCountry groups promoters by company country
func (h *PromoterHandler) ByCountry(c *gin.Context) {
	groups, err := h.service.ByCountry(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// DashboardStats returns the promoter dashboard figures
func (h *PromoterHandler) DashboardStats(c *gin.Context) {
	stats, err := h.service.DashboardStats(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
