package handlers

import (
	"context"
	"net/http"
	"time"

	"example.com/backstage/bookings/api/middleware"
	"example.com/backstage/bookings/internal/booking"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BookingService is what BookingHandler needs from the service layer
type BookingService interface {
	List(ctx context.Context, id identity.Identity, f repository.BookingFilter) (repository.Page[booking.ListItem], error)
	Get(ctx context.Context, id identity.Identity, bookingID uuid.UUID) (*booking.Detail, error)
	EnrichedDetail(ctx context.Context, id identity.Identity, bookingID uuid.UUID) (*booking.Enriched, error)
	Timeline(ctx context.Context, id identity.Identity, bookingID uuid.UUID) ([]booking.TimelineEvent, error)
	Create(ctx context.Context, id identity.Identity, in service.BookingInput) (*booking.Detail, error)
	Update(ctx context.Context, id identity.Identity, bookingID uuid.UUID, in service.BookingInput) (*booking.Detail, error)
	Delete(ctx context.Context, id identity.Identity, bookingID uuid.UUID) error
	Transition(ctx context.Context, id identity.Identity, bookingID uuid.UUID, action string, in service.ActionInput) (*booking.Detail, error)
	Stats(ctx context.Context, id identity.Identity, f repository.StatsFilter) (*service.BookingStatsView, error)
	Upcoming(ctx context.Context, id identity.Identity, days int) ([]booking.ListItem, error)
	Calendar(ctx context.Context, id identity.Identity, year int, month time.Month, showCancelled bool) (map[string][]booking.CalendarEntry, error)
	Search(ctx context.Context, id identity.Identity, text string) ([]booking.ListItem, error)
}

// BookingHandler handles booking requests and workflow actions
type BookingHandler struct {
	service BookingService
	log     logrus.FieldLogger
}

// NewBookingHandler creates a new BookingHandler instance
func NewBookingHandler(svc BookingService, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{service: svc, log: log}
}

// ListBookings returns a filtered page of booking summaries
func (h *BookingHandler) ListBookings(c *gin.Context) {
	q := newQuery(c)
	f := repository.BookingFilter{
		ListOptions:             q.ListOptions(),
		ArtistID:                q.UUID("artist_id"),
		PromoterID:              q.UUID("promoter_id"),
		VenueID:                 q.UUID("venue_id"),
		DateFrom:                q.Date("date_from"),
		DateTo:                  q.Date("date_to"),
		IsCancelled:             q.Bool("is_cancelled"),
		IsPrivate:               q.Bool("is_private"),
		Status:                  q.String("status"),
		ContractStatus:          q.String("contract_status"),
		ArtistFeeInvoiceStatus:  q.String("artist_fee_invoice_status"),
		BookingFeeInvoiceStatus: q.String("booking_fee_invoice_status"),
		LocationCountry:         q.String("location_country"),
		DealType:                q.String("deal_type"),
	}
	if show := q.Bool("show_cancelled"); show != nil {
		f.ShowCancelled = *show
	}
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

// GetBooking returns the booking detail
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), middleware.GetIdentity(c), bookingID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CreateBooking creates a booking in the member's agency
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var in service.BookingInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	detail, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// UpdateBooking applies the given fields to a booking. PUT and PATCH
// both update partially.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.BookingInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	detail, err := h.service.Update(c.Request.Context(), middleware.GetIdentity(c), bookingID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeleteBooking deletes a booking
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetIdentity(c), bookingID); err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Transition returns the handler of one workflow action
func (h *BookingHandler) Transition(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := pathID(c, "id")
		if !ok {
			return
		}
		var in service.ActionInput
		if !bindJSON(c, h.log, &in) {
			return
		}
		detail, err := h.service.Transition(c.Request.Context(), middleware.GetIdentity(c), bookingID, action, in)
		if err != nil {
			WriteError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

// GetTimeline returns the dated milestones of a booking
func (h *BookingHandler) GetTimeline(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	events, err := h.service.Timeline(c.Request.Context(), middleware.GetIdentity(c), bookingID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetEnrichedDetail returns the detail with progress and related records
func (h *BookingHandler) GetEnrichedDetail(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	enriched, err := h.service.EnrichedDetail(c.Request.Context(), middleware.GetIdentity(c), bookingID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, enriched)
}

// GetStats returns the agency's booking statistics
func (h *BookingHandler) GetStats(c *gin.Context) {
	q := newQuery(c)
	f := repository.StatsFilter{
		DateFrom: q.Date("date_from"),
		DateTo:   q.Date("date_to"),
		ArtistID: q.UUID("artist_id"),
	}
	if err := q.Err(); err != nil {
		WriteError(c, h.log, err)
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), middleware.GetIdentity(c), f)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetUpcoming lists live bookings of the next days, 90 by default
func (h *BookingHandler) GetUpcoming(c *gin.Context) {
	q := newQuery(c)
	days := q.Int("days", 0)
	if err := q.Err(); err != nil {
		WriteError(c, h.log, err)
		return
	}
	items, err := h.service.Upcoming(c.Request.Context(), middleware.GetIdentity(c), days)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetCalendar groups one month of bookings by day
func (h *BookingHandler) GetCalendar(c *gin.Context) {
	q := newQuery(c)
	year := q.Int("year", 0)
	month := q.Int("month", 0)
	show := q.Bool("show_cancelled")
	if err := q.Err(); err != nil {
		WriteError(c, h.log, err)
		return
	}
	days, err := h.service.Calendar(c.Request.Context(), middleware.GetIdentity(c), year, time.Month(month), show != nil && *show)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// SearchBookings runs a free text search over the agency's bookings
func (h *BookingHandler) SearchBookings(c *gin.Context) {
	items, err := h.service.Search(c.Request.Context(), middleware.GetIdentity(c), newQuery(c).String("q"))
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
