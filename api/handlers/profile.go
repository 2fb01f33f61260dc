package handlers

import (
	"context"
	"net/http"
	"strconv"

	"example.com/backstage/bookings/api/middleware"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProfileService is what ProfileHandler needs from the service layer
type ProfileService interface {
	List(ctx context.Context, id identity.Identity) ([]service.ProfileView, error)
	Get(ctx context.Context, id identity.Identity, profileID uuid.UUID) (*service.ProfileView, error)
	Create(ctx context.Context, id identity.Identity, in service.ProfileInput) (*service.ProfileView, error)
	BulkCreate(ctx context.Context, id identity.Identity, inputs []service.ProfileInput) ([]service.ProfileView, error)
	Update(ctx context.Context, id identity.Identity, profileID uuid.UUID, in service.ProfilePatch) (*service.ProfileView, error)
	Delete(ctx context.Context, id identity.Identity, profileID uuid.UUID) error
}

// ProfileHandler handles the membership profiles of an agency
type ProfileHandler struct {
	service ProfileService
	log     logrus.FieldLogger
}

// NewProfileHandler creates a new ProfileHandler instance
func NewProfileHandler(svc ProfileService, log logrus.FieldLogger) *ProfileHandler {
	return &ProfileHandler{service: svc, log: log}
}

// ListProfiles returns the profiles of the caller's agency
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.service.List(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// GetProfile returns one profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profileID, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), middleware.GetIdentity(c), profileID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CreateProfile adds a registered user to the owner's agency
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var in service.ProfileInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	profile, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// BulkCreateProfiles adds several users at once, all or nothing
func (h *ProfileHandler) BulkCreateProfiles(c *gin.Context) {
	var inputs []service.ProfileInput
	if !bindJSON(c, h.log, &inputs) {
		return
	}
	profiles, err := h.service.BulkCreate(c.Request.Context(), middleware.GetIdentity(c), inputs)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"detail":   "Created " + strconv.Itoa(len(profiles)) + " profiles",
		"profiles": profiles,
	})
}

// UpdateProfile changes the role or active flag of a profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	profileID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.ProfilePatch
	if !bindJSON(c, h.log, &in) {
		return
	}
	profile, err := h.service.Update(c.Request.Context(), middleware.GetIdentity(c), profileID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// DeleteProfile removes a profile from the agency
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	profileID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetIdentity(c), profileID); err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
