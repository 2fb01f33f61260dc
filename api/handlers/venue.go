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

// VenueService is what VenueHandler needs from the service layer
type VenueService interface {
	List(ctx context.Context, id identity.Identity, f repository.VenueFilter) (repository.Page[models.Venue], error)
	Active(ctx context.Context, id identity.Identity, f repository.VenueFilter) (repository.Page[models.Venue], error)
	Get(ctx context.Context, id identity.Identity, venueID uuid.UUID) (*models.Venue, error)
	Create(ctx context.Context, id identity.Identity, in service.VenueInput) (*models.Venue, error)
	Update(ctx context.Context, id identity.Identity, venueID uuid.UUID, in service.VenueInput) (*models.Venue, error)
	Delete(ctx context.Context, id identity.Identity, venueID uuid.UUID) error
	Summary(ctx context.Context, id identity.Identity, venueID uuid.UUID) (*service.VenueSummary, error)
	Duplicate(ctx context.Context, id identity.Identity, venueID uuid.UUID, suffix *string) (*models.Venue, error)
	ToggleStatus(ctx context.Context, id identity.Identity, venueID uuid.UUID) (*models.Venue, error)
	BulkUpdateStatus(ctx context.Context, id identity.Identity, in service.BulkStatusInput) (*service.BulkResult, error)
	ByType(ctx context.Context, id identity.Identity) (map[string]service.Group[models.Venue], error)
	ByCapacity(ctx context.Context, id identity.Identity) (map[string]service.Group[models.Venue], error)
	ByCountry(ctx context.Context, id identity.Identity) (map[string]service.Group[models.Venue], error)
	DashboardStats(ctx context.Context, id identity.Identity) (*service.VenueDashboard, error)
}

// VenueHandler handles venue requests
type VenueHandler struct {
	service VenueService
	log     logrus.FieldLogger
}

// NewVenueHandler creates a new VenueHandler instance
func NewVenueHandler(svc VenueService, log logrus.FieldLogger) *VenueHandler {
	return &VenueHandler{service: svc, log: log}
}

type venueBulkStatusRequest struct {
	VenueIDs []uuid.UUID `json:"venue_ids"`
	IsActive *bool       `json:"is_active"`
}

func (h *VenueHandler) filter(c *gin.Context) (repository.VenueFilter, bool) {
	q := newQuery(c)
	f := repository.VenueFilter{
		ListOptions:  q.ListOptions(),
		VenueType:    q.String("venue_type"),
		IsActive:     q.Bool("is_active"),
		VenueCountry: q.String("venue_country"),
		VenueCity:    q.String("venue_city"),
		MinCapacity:  q.OptionalInt("min_capacity"),
		MaxCapacity:  q.OptionalInt("max_capacity"),
		HasParking:   q.Bool("has_parking"),
		HasCatering:  q.Bool("has_catering"),
		IsAccessible: q.Bool("is_accessible"),
	}
	if err := q.Err(); err != nil {
		WriteError(c, h.log, err)
		return f, false
	}
	return f, true
}

// ListVenues returns a filtered page of venues
func (h *VenueHandler) ListVenues(c *gin.Context) {
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

// ListActiveVenues returns a filtered page of active venues
func (h *VenueHandler) ListActiveVenues(c *gin.Context) {
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

// GetVenue returns one venue
func (h *VenueHandler) GetVenue(c *gin.Context) {
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}
	venue, err := h.service.Get(c.Request.Context(), middleware.GetIdentity(c), venueID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, venue)
}

// CreateVenue creates a venue in the caller's agency
func (h *VenueHandler) CreateVenue(c *gin.Context) {
	var in service.VenueInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	venue, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, venue)
}

// UpdateVenue partially updates a venue
func (h *VenueHandler) UpdateVenue(c *gin.Context) {
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.VenueInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	venue, err := h.service.Update(c.Request.Context(), middleware.GetIdentity(c), venueID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, venue)
}

// DeleteVenue deletes a venue
func (h *VenueHandler) DeleteVenue(c *gin.Context) {
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetIdentity(c), venueID); err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSummary returns the venue's summary card
func (h *VenueHandler) GetSummary(c *gin.Context) {
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), middleware.GetIdentity(c), venueID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DuplicateVenue copies a venue under a suffixed name
func (h *VenueHandler) DuplicateVenue(c *gin.Context) {
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req duplicateRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	venue, err := h.service.Duplicate(c.Request.Context(), middleware.GetIdentity(c), venueID, req.Suffix)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, venue)
}

// ToggleStatus flips the venue's active flag
func (h *VenueHandler) ToggleStatus(c *gin.Context) {
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}
	venue, err := h.service.ToggleStatus(c.Request.Context(), middleware.GetIdentity(c), venueID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, venue)
}

// BulkUpdateStatus sets the active flag of several venues
func (h *VenueHandler) BulkUpdateStatus(c *gin.Context) {
	var req venueBulkStatusRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	res, err := h.service.BulkUpdateStatus(c.Request.Context(), middleware.GetIdentity(c), service.BulkStatusInput{IDs: req.VenueIDs, IsActive: req.IsActive})
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ByType groups venues by type
func (h *VenueHandler) ByType(c *gin.Context) {
	h.groups(c, h.service.ByType)
}

// ByCapacity groups venues by capacity category
func (h *VenueHandler) ByCapacity(c *gin.Context) {
	h.groups(c, h.service.ByCapacity)
}

// ByCountry groups venues by country
func (h *VenueHandler) ByCountry(c *gin.Context) {
	h.groups(c, h.service.ByCountry)
}

func (h *VenueHandler) groups(c *gin.Context, fn func(context.Context, identity.Identity) (map[string]service.Group[models.Venue], error)) {
	groups, err := fn(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// DashboardStats returns the venue dashboard figures
func (h *VenueHandler) DashboardStats(c *gin.Context) {
	stats, err := h.service.DashboardStats(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
