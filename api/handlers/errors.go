package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"example.com/backstage/bookings/internal/service"
	"example.com/backstage/bookings/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// APIError is an error with the status and code it is rendered with
type APIError struct {
	Message    string
	StatusCode int
	Code       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest     = &APIError{Message: "Invalid request body", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrNotFound           = &APIError{Message: "Not found.", StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrInternalServer     = &APIError{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
	ErrUnauthorized       = &APIError{Message: "Unauthorized", StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED"}
	ErrForbidden          = &APIError{Message: "Forbidden", StatusCode: http.StatusForbidden, Code: "FORBIDDEN"}
	ErrTooManyRequests    = &APIError{Message: "Too many requests", StatusCode: http.StatusTooManyRequests, Code: "TOO_MANY_REQUESTS"}
	ErrServiceUnavailable = &APIError{Message: "Service unavailable", StatusCode: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE"}
)

// MsgValidationFailed heads every validation error body
const MsgValidationFailed = "validation failed"

// kinds maps service error classes onto their HTTP rendering. Conflicts
// reach callers as bad requests.
var kinds = []struct {
	kind error
	api  *APIError
}{
	{service.ErrBadRequest, &APIError{StatusCode: http.StatusBadRequest}},
	{service.ErrConflict, &APIError{StatusCode: http.StatusBadRequest, Code: "CONFLICT"}},
	{service.ErrUnauthorized, ErrUnauthorized},
	{service.ErrForbidden, ErrForbidden},
	{service.ErrNotFound, ErrNotFound},
	{service.ErrRateLimited, ErrTooManyRequests},
	{service.ErrUnavailable, ErrServiceUnavailable},
}

// WriteError renders err. Unclassified errors are logged and rendered as
// a bare 500.
func WriteError(c *gin.Context, log logrus.FieldLogger, err error) {
	var valErr *validation.Error
	if errors.As(err, &valErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  MsgValidationFailed,
			Code:   "VALIDATION_ERROR",
			Fields: valErr.Fields,
		})
		return
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.StatusCode, ErrorResponse{Error: apiErr.Message, Code: apiErr.Code})
		return
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		for _, k := range kinds {
			if errors.Is(svcErr.Kind, k.kind) {
				if k.api.StatusCode >= http.StatusInternalServerError {
					log.WithError(err).Warn("Dependency failure")
				}
				c.JSON(k.api.StatusCode, ErrorResponse{Error: svcErr.Message})
				return
			}
		}
	}

	_ = c.Error(err)
	log.WithError(err).WithField("path", c.FullPath()).Error("Unhandled error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrInternalServer.Message, Code: ErrInternalServer.Code})
}

// bindJSON decodes the request body into dst. An empty body leaves dst
// untouched. Decoding failures are written and reported as false.
func bindJSON(c *gin.Context, log logrus.FieldLogger, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		WriteError(c, log, validation.Field(typeErr.Field, "Invalid value."))
		return false
	}
	var valErr *validation.Error
	if errors.As(err, &valErr) {
		WriteError(c, log, err)
		return false
	}
	log.WithError(err).Warn("Invalid request body")
	WriteError(c, log, ErrInvalidRequest)
	return false
}
