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

// ContactService is what ContactHandler needs from the service layer
type ContactService interface {
	List(ctx context.Context, id identity.Identity, f repository.ContactFilter) (repository.Page[models.Contact], error)
	Active(ctx context.Context, id identity.Identity, f repository.ContactFilter) (repository.Page[models.Contact], error)
	PromoterContacts(ctx context.Context, id identity.Identity, promoterID *uuid.UUID, f repository.ContactFilter) (repository.Page[models.Contact], error)
	VenueContacts(ctx context.Context, id identity.Identity, venueID *uuid.UUID, f repository.ContactFilter) (repository.Page[models.Contact], error)
	AgencyContacts(ctx context.Context, id identity.Identity, f repository.ContactFilter) (repository.Page[models.Contact], error)
	Primary(ctx context.Context, id identity.Identity) ([]models.Contact, error)
	Emergency(ctx context.Context, id identity.Identity) ([]models.Contact, error)
	Get(ctx context.Context, id identity.Identity, contactID uuid.UUID) (*service.ContactView, error)
	Create(ctx context.Context, id identity.Identity, in service.ContactInput) (*service.ContactView, error)
	Update(ctx context.Context, id identity.Identity, contactID uuid.UUID, in service.ContactInput) (*service.ContactView, error)
	Delete(ctx context.Context, id identity.Identity, contactID uuid.UUID) error
	Summary(ctx context.Context, id identity.Identity, contactID uuid.UUID) (*service.ContactSummary, error)
	ToggleStatus(ctx context.Context, id identity.Identity, contactID uuid.UUID) (*service.ContactView, error)
	SetPrimary(ctx context.Context, id identity.Identity, contactID uuid.UUID) (*service.ContactView, error)
	BulkUpdateStatus(ctx context.Context, id identity.Identity, in service.BulkStatusInput) (*service.BulkResult, error)
	ByType(ctx context.Context, id identity.Identity) (map[string]service.Group[models.Contact], error)
	ByReference(ctx context.Context, id identity.Identity) (map[string]service.Group[models.Contact], error)
	DashboardStats(ctx context.Context, id identity.Identity) (*service.ContactDashboard, error)
}

// ContactHandler handles contact requests
type ContactHandler struct {
	service ContactService
	log     logrus.FieldLogger
}

// NewContactHandler creates a new ContactHandler instance
func NewContactHandler(svc ContactService, log logrus.FieldLogger) *ContactHandler {
	return &ContactHandler{service: svc, log: log}
}

type contactBulkStatusRequest struct {
	ContactIDs []uuid.UUID `json:"contact_ids"`
	IsActive   *bool       `json:"is_active"`
}

// filter parses the list filters; promoter_id and venue_id come back
// separately for the per-reference lists
func (h *ContactHandler) filter(c *gin.Context) (repository.ContactFilter, bool) {
	q := newQuery(c)
	f := repository.ContactFilter{
		ListOptions:   q.ListOptions(),
		ContactType:   q.String("contact_type"),
		ReferenceType: q.String("reference_type"),
		PromoterID:    q.UUID("promoter_id"),
		VenueID:       q.UUID("venue_id"),
		IsPrimary:     q.Bool("is_primary"),
		IsEmergency:   q.Bool("is_emergency"),
		IsActive:      q.Bool("is_active"),
	}
	if err := q.Err(); err != nil {
		WriteError(c, h.log, err)
		return f, false
	}
	return f, true
}

func (h *ContactHandler) page(c *gin.Context, fn func(context.Context, identity.Identity, repository.ContactFilter) (repository.Page[models.Contact], error)) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	page, err := fn(c.Request.Context(), middleware.GetIdentity(c), f)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	writePage(c, page)
}

// ListContacts returns a filtered page of contacts
func (h *ContactHandler) ListContacts(c *gin.Context) {
	h.page(c, h.service.List)
}

// ListActiveContacts returns a filtered page of active contacts
func (h *ContactHandler) ListActiveContacts(c *gin.Context) {
	h.page(c, h.service.Active)
}

// ListPromoterContacts returns contacts of promoters, optionally of one
func (h *ContactHandler) ListPromoterContacts(c *gin.Context) {
	h.page(c, func(ctx context.Context, id identity.Identity, f repository.ContactFilter) (repository.Page[models.Contact], error) {
		return h.service.PromoterContacts(ctx, id, f.PromoterID, f)
	})
}

// ListVenueContacts returns contacts of venues, optionally of one
func (h *ContactHandler) ListVenueContacts(c *gin.Context) {
	h.page(c, func(ctx context.Context, id identity.Identity, f repository.ContactFilter) (repository.Page[models.Contact], error) {
		return h.service.VenueContacts(ctx, id, f.VenueID, f)
	})
}

// ListAgencyContacts returns contacts attached to the agency itself
func (h *ContactHandler) ListAgencyContacts(c *gin.Context) {
	h.page(c, h.service.AgencyContacts)
}

// ListPrimary returns the active primary contacts
func (h *ContactHandler) ListPrimary(c *gin.Context) {
	h.list(c, h.service.Primary)
}

// ListEmergency returns the active emergency contacts
func (h *ContactHandler) ListEmergency(c *gin.Context) {
	h.list(c, h.service.Emergency)
}

func (h *ContactHandler) list(c *gin.Context, fn func(context.Context, identity.Identity) ([]models.Contact, error)) {
	contacts, err := fn(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// GetContact returns one contact
func (h *ContactHandler) GetContact(c *gin.Context) {
	contactID, ok := pathID(c, "id")
	if !ok {
		return
	}
	contact, err := h.service.Get(c.Request.Context(), middleware.GetIdentity(c), contactID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// CreateContact creates a contact in the caller's agency
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var in service.ContactInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	contact, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// UpdateContact partially updates a contact
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	contactID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.ContactInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	contact, err := h.service.Update(c.Request.Context(), middleware.GetIdentity(c), contactID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// DeleteContact deletes a contact
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	contactID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetIdentity(c), contactID); err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSummary returns the contact's summary card
func (h *ContactHandler) GetSummary(c *gin.Context) {
	contactID, ok := pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), middleware.GetIdentity(c), contactID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ToggleStatus flips the contact's active flag
func (h *ContactHandler) ToggleStatus(c *gin.Context) {
	h.action(c, h.service.ToggleStatus)
}

// SetPrimary makes the contact the primary one of its reference
func (h *ContactHandler) SetPrimary(c *gin.Context) {
	h.action(c, h.service.SetPrimary)
}

func (h *ContactHandler) action(c *gin.Context, fn func(context.Context, identity.Identity, uuid.UUID) (*service.ContactView, error)) {
	contactID, ok := pathID(c, "id")
	if !ok {
		return
	}
	contact, err := fn(c.Request.Context(), middleware.GetIdentity(c), contactID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// BulkUpdateStatus sets the active flag of several contacts
func (h *ContactHandler) BulkUpdateStatus(c *gin.Context) {
	var req contactBulkStatusRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	res, err := h.service.BulkUpdateStatus(c.Request.Context(), middleware.GetIdentity(c), service.BulkStatusInput{IDs: req.ContactIDs, IsActive: req.IsActive})
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ByType groups contacts by type
func (h *ContactHandler) ByType(c *gin.Context) {
	h.groups(c, h.service.ByType)
}

// ByReference groups contacts by what they reference
func (h *ContactHandler) ByReference(c *gin.Context) {
	h.groups(c, h.service.ByReference)
}

func (h *ContactHandler) groups(c *gin.Context, fn func(context.Context, identity.Identity) (map[string]service.Group[models.Contact], error)) {
	groups, err := fn(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// DashboardStats returns the contact dashboard figures
func (h *ContactHandler) DashboardStats(c *gin.Context) {
	stats, err := h.service.DashboardStats(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
