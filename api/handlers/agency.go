package handlers

import (
	"context"
	"net/http"

	"example.com/backstage/bookings/api/middleware"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AgencyService is what AgencyHandler needs from the service layer
type AgencyService interface {
	List(ctx context.Context, id identity.Identity) ([]service.AgencyView, error)
	Create(ctx context.Context, user *models.User, in service.AgencyInput) (*service.AgencyView, error)
	Get(ctx context.Context, id identity.Identity, agencySlug string) (*service.AgencyView, error)
	Update(ctx context.Context, id identity.Identity, agencySlug string, in service.AgencyInput) (*service.AgencyView, error)
	BusinessDetails(ctx context.Context, id identity.Identity, agencySlug string) (*models.AgencyBusinessDetails, error)
	UpdateBusinessDetails(ctx context.Context, id identity.Identity, agencySlug string, in service.BusinessDetailsInput) (*models.AgencyBusinessDetails, error)
	Settings(ctx context.Context, id identity.Identity, agencySlug string) (*models.AgencySettings, error)
	UpdateSettings(ctx context.Context, id identity.Identity, agencySlug string, in service.SettingsInput) (*models.AgencySettings, error)
}

// AgencyHandler handles agency requests
type AgencyHandler struct {
	service AgencyService
	log     logrus.FieldLogger
}

// NewAgencyHandler creates a new AgencyHandler instance
func NewAgencyHandler(svc AgencyService, log logrus.FieldLogger) *AgencyHandler {
	return &AgencyHandler{service: svc, log: log}
}

// ListAgencies returns the caller's agency as a list
func (h *AgencyHandler) ListAgencies(c *gin.Context) {
	agencies, err := h.service.List(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, agencies)
}

// CreateAgency creates the caller's agency along with its owner profile
func (h *AgencyHandler) CreateAgency(c *gin.Context) {
	user, err := middleware.GetUserFromContext(c)
	if err != nil {
		WriteError(c, h.log, ErrUnauthorized)
		return
	}
	var in service.AgencyInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	agency, err := h.service.Create(c.Request.Context(), user, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, agency)
}

// GetAgency returns an agency by slug
func (h *AgencyHandler) GetAgency(c *gin.Context) {
	agency, err := h.service.Get(c.Request.Context(), middleware.GetIdentity(c), c.Param("slug"))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, agency)
}

// UpdateAgency partially updates an agency
func (h *AgencyHandler) UpdateAgency(c *gin.Context) {
	var in service.AgencyInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	agency, err := h.service.Update(c.Request.Context(), middleware.GetIdentity(c), c.Param("slug"), in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, agency)
}

// GetBusinessDetails returns the agency's business details
func (h *AgencyHandler) GetBusinessDetails(c *gin.Context) {
	details, err := h.service.BusinessDetails(c.Request.Context(), middleware.GetIdentity(c), c.Param("slug"))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// UpdateBusinessDetails partially updates the agency's business details
func (h *AgencyHandler) UpdateBusinessDetails(c *gin.Context) {
	var in service.BusinessDetailsInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	details, err := h.service.UpdateBusinessDetails(c.Request.Context(), middleware.GetIdentity(c), c.Param("slug"), in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetSettings returns the agency's settings
func (h *AgencyHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.Settings(c.Request.Context(), middleware.GetIdentity(c), c.Param("slug"))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings partially updates the agency's settings
func (h *AgencyHandler) UpdateSettings(c *gin.Context) {
	var in service.SettingsInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	settings, err := h.service.UpdateSettings(c.Request.Context(), middleware.GetIdentity(c), c.Param("slug"), in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
