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

// BookingTypeService is what BookingTypeHandler needs from the service layer
type BookingTypeService interface {
	List(ctx context.Context, id identity.Identity, f repository.BookingTypeFilter) (repository.Page[models.BookingType], error)
	Get(ctx context.Context, id identity.Identity, typeID uuid.UUID) (*models.BookingType, error)
	Create(ctx context.Context, id identity.Identity, in service.BookingTypeInput) (*models.BookingType, error)
	Update(ctx context.Context, id identity.Identity, typeID uuid.UUID, in service.BookingTypeInput) (*models.BookingType, error)
	Delete(ctx context.Context, id identity.Identity, typeID uuid.UUID) error
}

// BookingTypeHandler handles booking type requests
type BookingTypeHandler struct {
	service BookingTypeService
	log     logrus.FieldLogger
}

// NewBookingTypeHandler creates a new BookingTypeHandler instance
func NewBookingTypeHandler(svc BookingTypeService, log logrus.FieldLogger) *BookingTypeHandler {
	return &BookingTypeHandler{service: svc, log: log}
}

// ListBookingTypes returns a page of booking types
func (h *BookingTypeHandler) ListBookingTypes(c *gin.Context) {
	q := newQuery(c)
	f := repository.BookingTypeFilter{ListOptions: q.ListOptions(), IsActive: q.Bool("is_active")}
	if err := q.Err(); err != nil {
		WriteError(c, h.log, err)
		return
	}
	page, err := h.service.List(c.Request.Context(), middleware.GetIdentity(c), f)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	writePage(c, page)
}

// GetBookingType returns one booking type
func (h *BookingTypeHandler) GetBookingType(c *gin.Context) {
	typeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	bt, err := h.service.Get(c.Request.Context(), middleware.GetIdentity(c), typeID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, bt)
}

// CreateBookingType creates a booking type
func (h *BookingTypeHandler) CreateBookingType(c *gin.Context) {
	var in service.BookingTypeInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	bt, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, bt)
}

// UpdateBookingType partially updates a booking type
func (h *BookingTypeHandler) UpdateBookingType(c *gin.Context) {
	typeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.BookingTypeInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	bt, err := h.service.Update(c.Request.Context(), middleware.GetIdentity(c), typeID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, bt)
}

// DeleteBookingType deletes a booking type
func (h *BookingTypeHandler) DeleteBookingType(c *gin.Context) {
	typeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetIdentity(c), typeID); err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
