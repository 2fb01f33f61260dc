package handlers

import (
	"context"
	"net/http"

	"example.com/backstage/bookings/api/middleware"
	"example.com/backstage/bookings/internal/cache"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthService is what AuthHandler needs from the service layer
type AuthService interface {
	Register(ctx context.Context, token string) (*models.User, bool, error)
	VerifyEmail(ctx context.Context, user *models.User) error
	ProfileSummary(ctx context.Context, user *models.User, id identity.Identity) (*cache.ProfileSummary, error)
	SendVerificationEmail(ctx context.Context, user *models.User, continueURL string) error
}

// AuthHandler handles registration and the caller's own account
type AuthHandler struct {
	service AuthService
	log     logrus.FieldLogger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(svc AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{service: svc, log: log}
}

type registerRequest struct {
	Token string `json:"token"`
}

type sendVerificationRequest struct {
	ContinueURL string `json:"continue_url"`
}

// Register binds an identity provider token to a local user. The token
// may come in the body or as a bearer header.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	if req.Token == "" {
		req.Token, _ = middleware.BearerToken(c)
	}

	user, created, err := h.service.Register(c.Request.Context(), req.Token)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"message": service.MsgAlreadyRegistered, "user": user})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": service.MsgRegistered, "user": user})
}

// VerifyEmail marks the caller's email verified
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	if err := h.service.VerifyEmail(c.Request.Context(), user); err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully."})
}

// Profile returns the caller's profile summary
func (h *AuthHandler) Profile(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	summary, err := h.service.ProfileSummary(c.Request.Context(), user, middleware.GetIdentity(c))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SendVerificationEmail requests a verification email for the caller
func (h *AuthHandler) SendVerificationEmail(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	var req sendVerificationRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	if err := h.service.SendVerificationEmail(c.Request.Context(), user, req.ContinueURL); err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification email sent."})
}

func (h *AuthHandler) user(c *gin.Context) (*models.User, bool) {
	user, err := middleware.GetUserFromContext(c)
	if err != nil {
		WriteError(c, h.log, ErrUnauthorized)
		return nil, false
	}
	return user, true
}
