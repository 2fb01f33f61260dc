package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"example.com/backstage/bookings/internal/booking"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/service"
	"example.com/backstage/bookings/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) List(ctx context.Context, id identity.Identity, f repository.BookingFilter) (repository.Page[booking.ListItem], error) {
	args := m.Called(ctx, id, f)
	return args.Get(0).(repository.Page[booking.ListItem]), args.Error(1)
}

func (m *MockBookingService) Get(ctx context.Context, id identity.Identity, bookingID uuid.UUID) (*booking.Detail, error) {
	args := m.Called(ctx, id, bookingID)
	d, _ := args.Get(0).(*booking.Detail)
	return d, args.Error(1)
}

func (m *MockBookingService) EnrichedDetail(ctx context.Context, id identity.Identity, bookingID uuid.UUID) (*booking.Enriched, error) {
	args := m.Called(ctx, id, bookingID)
	e, _ := args.Get(0).(*booking.Enriched)
	return e, args.Error(1)
}

func (m *MockBookingService) Timeline(ctx context.Context, id identity.Identity, bookingID uuid.UUID) ([]booking.TimelineEvent, error) {
	args := m.Called(ctx, id, bookingID)
	ev, _ := args.Get(0).([]booking.TimelineEvent)
	return ev, args.Error(1)
}

func (m *MockBookingService) Create(ctx context.Context, id identity.Identity, in service.BookingInput) (*booking.Detail, error) {
	args := m.Called(ctx, id, in)
	d, _ := args.Get(0).(*booking.Detail)
	return d, args.Error(1)
}

func (m *MockBookingService) Update(ctx context.Context, id identity.Identity, bookingID uuid.UUID, in service.BookingInput) (*booking.Detail, error) {
	args := m.Called(ctx, id, bookingID, in)
	d, _ := args.Get(0).(*booking.Detail)
	return d, args.Error(1)
}

func (m *MockBookingService) Delete(ctx context.Context, id identity.Identity, bookingID uuid.UUID) error {
	args := m.Called(ctx, id, bookingID)
	return args.Error(0)
}

func (m *MockBookingService) Transition(ctx context.Context, id identity.Identity, bookingID uuid.UUID, action string, in service.ActionInput) (*booking.Detail, error) {
	args := m.Called(ctx, id, bookingID, action, in)
	d, _ := args.Get(0).(*booking.Detail)
	return d, args.Error(1)
}

func (m *MockBookingService) Stats(ctx context.Context, id identity.Identity, f repository.StatsFilter) (*service.BookingStatsView, error) {
	args := m.Called(ctx, id, f)
	s, _ := args.Get(0).(*service.BookingStatsView)
	return s, args.Error(1)
}

func (m *MockBookingService) Upcoming(ctx context.Context, id identity.Identity, days int) ([]booking.ListItem, error) {
	args := m.Called(ctx, id, days)
	items, _ := args.Get(0).([]booking.ListItem)
	return items, args.Error(1)
}

func (m *MockBookingService) Calendar(ctx context.Context, id identity.Identity, year int, month time.Month, showCancelled bool) (map[string][]booking.CalendarEntry, error) {
	args := m.Called(ctx, id, year, month, showCancelled)
	days, _ := args.Get(0).(map[string][]booking.CalendarEntry)
	return days, args.Error(1)
}

func (m *MockBookingService) Search(ctx context.Context, id identity.Identity, text string) ([]booking.ListItem, error) {
	args := m.Called(ctx, id, text)
	items, _ := args.Get(0).([]booking.ListItem)
	return items, args.Error(1)
}

func bookingRouter(svc *MockBookingService, id identity.Identity) *gin.Engine {
	h := NewBookingHandler(svc, testLogger())
	router := newRouter(id, nil)
	router.GET("/bookings", h.ListBookings)
	router.POST("/bookings", h.CreateBooking)
	router.GET("/bookings/stats", h.GetStats)
	router.GET("/bookings/calendar", h.GetCalendar)
	router.GET("/bookings/upcoming", h.GetUpcoming)
	router.GET("/bookings/search", h.SearchBookings)
	router.GET("/bookings/:id", h.GetBooking)
	router.PATCH("/bookings/:id", h.UpdateBooking)
	router.DELETE("/bookings/:id", h.DeleteBooking)
	router.POST("/bookings/:id/cancel", h.Transition(booking.ActionCancel))
	router.POST("/bookings/:id/send-artist-invoice", h.Transition(booking.ActionSendArtistInvoice))
	return router
}

func TestListBookingsParsesFilters(t *testing.T) {
	svc := new(MockBookingService)
	id := memberIdentity()
	artistID := uuid.New()

	svc.On("List", mock.Anything, id, mock.MatchedBy(func(f repository.BookingFilter) bool {
		return f.Page == 2 && f.PageSize == 10 &&
			f.Ordering == "-booking_date" &&
			f.ArtistID != nil && *f.ArtistID == artistID &&
			f.DateFrom != nil && f.DateFrom.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) &&
			f.ShowCancelled &&
			f.Status == "confirmed" &&
			f.IsPrivate != nil && !*f.IsPrivate
	})).Return(repository.Page[booking.ListItem]{
		Items:    []booking.ListItem{{BookingReference: "BK-2026-ABCDEF", ArtistName: booking.UnknownArtist}},
		Count:    11,
		Page:     2,
		PageSize: 10,
	}, nil)

	w := perform(bookingRouter(svc, id), http.MethodGet,
		"/bookings?page=2&page_size=10&ordering=-booking_date&artist_id="+artistID.String()+
			"&date_from=2026-05-01&show_cancelled=true&status=confirmed&is_private=false", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body PageResponse[map[string]interface{}]
	decode(t, w, &body)
	assert.Equal(t, int64(11), body.Count)
	assert.Equal(t, 2, body.Page)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "BK-2026-ABCDEF", body.Results[0]["booking_reference"])
	assert.Equal(t, booking.UnknownArtist, body.Results[0]["artist_name"])
	svc.AssertExpectations(t)
}

func TestListBookingsRejectsMalformedFilters(t *testing.T) {
	svc := new(MockBookingService)

	w := perform(bookingRouter(svc, memberIdentity()), http.MethodGet, "/bookings?artist_id=nope&date_to=05/01/2026&is_cancelled=maybe", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	decode(t, w, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Equal(t, []string{"Must be a valid UUID."}, body.Fields["artist_id"])
	assert.Equal(t, []string{"Date has wrong format. Use YYYY-MM-DD."}, body.Fields["date_to"])
	assert.Equal(t, []string{"Must be a valid boolean."}, body.Fields["is_cancelled"])
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBooking(t *testing.T) {
	id := memberIdentity()
	artistID := uuid.New()

	t.Run("created", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("Create", mock.Anything, id, mock.MatchedBy(func(in service.BookingInput) bool {
			return in.ArtistID != nil && *in.ArtistID == artistID && in.EventName != nil && *in.EventName == "Spring Tour"
		})).Return(&booking.Detail{BookingReference: "BK-2026-0A1B2C"}, nil)

		w := perform(bookingRouter(svc, id), http.MethodPost, "/bookings",
			`{"artist_id":"`+artistID.String()+`","event_name":"Spring Tour"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		var body map[string]interface{}
		decode(t, w, &body)
		assert.Equal(t, "BK-2026-0A1B2C", body["booking_reference"])
	})

	t.Run("validation failure", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("Create", mock.Anything, id, mock.Anything).
			Return(nil, validation.Field("artist_id", "Artist not found or does not belong to this agency."))

		w := perform(bookingRouter(svc, id), http.MethodPost, "/bookings", `{"artist_id":"`+uuid.NewString()+`"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body ErrorResponse
		decode(t, w, &body)
		assert.Equal(t, MsgValidationFailed, body.Error)
		assert.Equal(t, []string{"Artist not found or does not belong to this agency."}, body.Fields["artist_id"])
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockBookingService)

		w := perform(bookingRouter(svc, id), http.MethodPost, "/bookings", `{"event_name":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetBookingNotFound(t *testing.T) {
	id := memberIdentity()
	svc := new(MockBookingService)
	bookingID := uuid.New()
	svc.On("Get", mock.Anything, id, bookingID).Return(nil, &service.Error{Kind: service.ErrNotFound, Message: service.MsgBookingNotFound})
	router := bookingRouter(svc, id)

	w := perform(router, http.MethodGet, "/bookings/"+bookingID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(router, http.MethodGet, "/bookings/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertNumberOfCalls(t, "Get", 1)
}

func TestBookingTransition(t *testing.T) {
	id := memberIdentity()
	bookingID := uuid.New()

	t.Run("cancel passes the reason", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("Transition", mock.Anything, id, bookingID, booking.ActionCancel, service.ActionInput{Reason: "Venue flooded"}).
			Return(&booking.Detail{Status: models.StatusCancelled}, nil)

		w := perform(bookingRouter(svc, id), http.MethodPost, "/bookings/"+bookingID.String()+"/cancel", `{"reason":"Venue flooded"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		decode(t, w, &body)
		assert.Equal(t, string(models.StatusCancelled), body["status"])
	})

	t.Run("invoice without body", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("Transition", mock.Anything, id, bookingID, booking.ActionSendArtistInvoice, service.ActionInput{}).
			Return(&booking.Detail{}, nil)

		w := perform(bookingRouter(svc, id), http.MethodPost, "/bookings/"+bookingID.String()+"/send-artist-invoice", "")

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("rejected action", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("Transition", mock.Anything, id, bookingID, booking.ActionCancel, mock.Anything).
			Return(nil, &service.Error{Kind: service.ErrBadRequest, Message: "Booking is already cancelled."})

		w := perform(bookingRouter(svc, id), http.MethodPost, "/bookings/"+bookingID.String()+"/cancel", `{"reason":"again"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body ErrorResponse
		decode(t, w, &body)
		assert.Equal(t, "Booking is already cancelled.", body.Error)
	})
}

func TestBookingReads(t *testing.T) {
	id := memberIdentity()

	t.Run("calendar passes year and month", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("Calendar", mock.Anything, id, 2026, time.June, false).
			Return(map[string][]booking.CalendarEntry{"2026-06-12": {{BookingReference: "BK-2026-AAAAAA"}}}, nil)

		w := perform(bookingRouter(svc, id), http.MethodGet, "/bookings/calendar?year=2026&month=6", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string][]map[string]interface{}
		decode(t, w, &body)
		require.Len(t, body["2026-06-12"], 1)
		assert.Equal(t, "BK-2026-AAAAAA", body["2026-06-12"][0]["booking_reference"])
	})

	t.Run("calendar rejects a non numeric month", func(t *testing.T) {
		svc := new(MockBookingService)

		w := perform(bookingRouter(svc, id), http.MethodGet, "/bookings/calendar?month=june", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Calendar", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("calendar passes show_cancelled", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("Calendar", mock.Anything, id, 0, time.Month(0), true).
			Return(map[string][]booking.CalendarEntry{}, nil)

		w := perform(bookingRouter(svc, id), http.MethodGet, "/bookings/calendar?show_cancelled=true", "")

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("upcoming defaults days", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("Upcoming", mock.Anything, id, 0).Return([]booking.ListItem{}, nil)

		w := perform(bookingRouter(svc, id), http.MethodGet, "/bookings/upcoming", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("search requires q", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("Search", mock.Anything, id, "").Return(nil, &service.Error{Kind: service.ErrBadRequest, Message: "q is required"})

		w := perform(bookingRouter(svc, id), http.MethodGet, "/bookings/search", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteBooking(t *testing.T) {
	id := memberIdentity()
	svc := new(MockBookingService)
	bookingID := uuid.New()
	svc.On("Delete", mock.Anything, id, bookingID).Return(nil)

	w := perform(bookingRouter(svc, id), http.MethodDelete, "/bookings/"+bookingID.String(), "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestGetStats(t *testing.T) {
	svc := new(MockBookingService)
	id := memberIdentity()
	artistID := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	svc.On("Stats", mock.Anything, id, mock.MatchedBy(func(f repository.StatsFilter) bool {
		return f.DateFrom != nil && f.DateFrom.Equal(from) && f.DateTo == nil &&
			f.ArtistID != nil && *f.ArtistID == artistID
	})).Return(&service.BookingStatsView{TotalBookings: 12, TotalRevenue: "15000.00"}, nil)

	w := perform(bookingRouter(svc, id), http.MethodGet, "/bookings/stats?date_from=2026-01-01&artist_id="+artistID.String(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, float64(12), body["total_bookings"])
	assert.Equal(t, "15000.00", body["total_revenue"])
	svc.AssertExpectations(t)
}
