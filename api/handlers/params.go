package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PageResponse is the envelope of every paginated list
type PageResponse[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

func writePage[T any](c *gin.Context, p repository.Page[T]) {
	results := p.Items
	if results == nil {
		results = []T{}
	}
	c.JSON(http.StatusOK, PageResponse[T]{Count: p.Count, Page: p.Page, PageSize: p.PageSize, Results: results})
}

// query collects the field errors of the query parameters it parses
type query struct {
	c    *gin.Context
	errs validation.FieldErrors
}

func newQuery(c *gin.Context) *query {
	return &query{c: c, errs: validation.FieldErrors{}}
}

func (q *query) Err() error {
	return q.errs.Err()
}

func (q *query) String(name string) string {
	return strings.TrimSpace(q.c.Query(name))
}

func (q *query) ListOptions() repository.ListOptions {
	return repository.ListOptions{
		Page:     q.Int("page", 1),
		PageSize: q.Int("page_size", repository.DefaultPageSize),
		Search:   q.String("search"),
		Ordering: q.String("ordering"),
	}
}

func (q *query) Int(name string, fallback int) int {
	raw := q.String(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.errs.Add(name, "A valid integer is required.")
		return fallback
	}
	return n
}

func (q *query) OptionalInt(name string) *int {
	if q.String(name) == "" {
		return nil
	}
	n := q.Int(name, 0)
	return &n
}

func (q *query) Bool(name string) *bool {
	raw := strings.ToLower(q.String(name))
	if raw == "" {
		return nil
	}
	var v bool
	switch raw {
	case "true", "1", "yes", "on":
		v = true
	case "false", "0", "no", "off":
		v = false
	default:
		q.errs.Add(name, "Must be a valid boolean.")
		return nil
	}
	return &v
}

func (q *query) UUID(name string) *uuid.UUID {
	raw := q.String(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		q.errs.Add(name, "Must be a valid UUID.")
		return nil
	}
	return &id
}

// Date parses a YYYY-MM-DD parameter as midnight UTC
func (q *query) Date(name string) *time.Time {
	raw := q.String(name)
	if raw == "" {
		return nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		q.errs.Add(name, "Date has wrong format. Use YYYY-MM-DD.")
		return nil
	}
	t := d.Time
	return &t
}

// Timestamp accepts RFC 3339 or a bare date
func (q *query) Timestamp(name string) *time.Time {
	raw := q.String(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	return q.Date(name)
}

// pathID parses a uuid path parameter. Malformed ids are not found.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrNotFound.Message})
		return uuid.Nil, false
	}
	return id, true
}
