package handlers

import (
	"net/http"
	"testing"

	"example.com/backstage/bookings/internal/service"
	"example.com/backstage/bookings/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   ErrorResponse
	}{
		{
			name:       "validation",
			err:        validation.Field("booking_date", "Booking date cannot be in the past."),
			wantStatus: http.StatusBadRequest,
			wantBody: ErrorResponse{
				Error:  MsgValidationFailed,
				Code:   "VALIDATION_ERROR",
				Fields: map[string][]string{"booking_date": {"Booking date cannot be in the past."}},
			},
		},
		{
			name:       "action precondition",
			err:        &service.Error{Kind: service.ErrBadRequest, Message: "Only pending or option bookings can be confirmed."},
			wantStatus: http.StatusBadRequest,
			wantBody:   ErrorResponse{Error: "Only pending or option bookings can be confirmed."},
		},
		{
			name:       "conflict reads as bad request",
			err:        &service.Error{Kind: service.ErrConflict, Message: "User already owns an agency."},
			wantStatus: http.StatusBadRequest,
			wantBody:   ErrorResponse{Error: "User already owns an agency."},
		},
		{
			name:       "not found",
			err:        &service.Error{Kind: service.ErrNotFound, Message: "Booking not found"},
			wantStatus: http.StatusNotFound,
			wantBody:   ErrorResponse{Error: "Booking not found"},
		},
		{
			name:       "forbidden",
			err:        &service.Error{Kind: service.ErrForbidden, Message: "You must have an agency profile to create artists."},
			wantStatus: http.StatusForbidden,
			wantBody:   ErrorResponse{Error: "You must have an agency profile to create artists."},
		},
		{
			name:       "rate limited",
			err:        &service.Error{Kind: service.ErrRateLimited, Message: service.MsgVerificationThrottle},
			wantStatus: http.StatusTooManyRequests,
			wantBody:   ErrorResponse{Error: service.MsgVerificationThrottle},
		},
		{
			name:       "unavailable",
			err:        &service.Error{Kind: service.ErrUnavailable, Message: service.MsgVerificationFailed},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   ErrorResponse{Error: service.MsgVerificationFailed},
		},
		{
			name:       "wrapped service error",
			err:        errors.Wrap(&service.Error{Kind: service.ErrNotFound, Message: "Agency not found"}, "lookup"),
			wantStatus: http.StatusNotFound,
			wantBody:   ErrorResponse{Error: "Agency not found"},
		},
		{
			name:       "internal details stay hidden",
			err:        errors.New("pq: relation \"bookings\" does not exist"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   ErrorResponse{Error: "Internal server error", Code: "INTERNAL_ERROR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) { WriteError(c, testLogger(), tt.err) })

			w := perform(router, http.MethodGet, "/", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ErrorResponse
			decode(t, w, &body)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
