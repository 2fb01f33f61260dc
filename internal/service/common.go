package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"example.com/backstage/bookings/internal/cache"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// recentWindow is how far back dashboards count recent additions
const recentWindow = 30 * 24 * time.Hour

// Breakdown is one labelled bucket of a dashboard grouping
type Breakdown struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Group is one labelled bucket of a grouping endpoint with its rows
type Group[T any] struct {
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
	Items []T    `json:"items"`
}

// BulkResult reports a bulk status update
type BulkResult struct {
	Message      string `json:"message"`
	UpdatedCount int64  `json:"updated_count"`
}

// ContactMethods tells which channels a record carries
type ContactMethods struct {
	HasEmail   bool `json:"has_email"`
	HasPhone   bool `json:"has_phone"`
	HasWebsite bool `json:"has_website"`
}

// BulkStatusInput selects rows of the caller's agency and the active flag
// to set on them
type BulkStatusInput struct {
	IDs      []uuid.UUID
	IsActive *bool
}

func emptyPage[T any](opts repository.ListOptions) repository.Page[T] {
	opts = opts.Normalize()
	return repository.Page[T]{Items: []T{}, Page: opts.Page, PageSize: opts.PageSize}
}

func mapPage[T, V any](p repository.Page[T], fn func(*T) V) repository.Page[V] {
	out := repository.Page[V]{Count: p.Count, Page: p.Page, PageSize: p.PageSize, Items: make([]V, 0, len(p.Items))}
	for i := range p.Items {
		out.Items = append(out.Items, fn(&p.Items[i]))
	}
	return out
}

// breakdown counts rows per choice, keeping every choice in the result
func breakdown(choices []models.Choice, counts []repository.GroupCount) map[string]Breakdown {
	byKey := make(map[string]int64, len(counts))
	for _, c := range counts {
		byKey[c.Key] = c.Count
	}
	out := make(map[string]Breakdown, len(choices))
	for _, c := range choices {
		out[c.Value] = Breakdown{Label: c.Label, Count: byKey[c.Value]}
	}
	return out
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

// optionalEmail stores blank emails as NULL so they stay out of the
// per-agency unique index
func optionalEmail(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func requireString(errs validationErrors, field string, v *string) {
	if strings.TrimSpace(valueOr(v, "")) == "" {
		errs.Add(field, "This field is required.")
	}
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

// audit stamps the acting profile on a write
func audit(a *models.Audit, id identity.Identity, created bool) {
	if created {
		a.CreatedByID = id.ProfileID
	}
	a.UpdatedByID = id.ProfileID
}

func bulkStatus(ctx context.Context, repo interface {
	SetActive(ctx context.Context, agencyID uuid.UUID, ids []uuid.UUID, active bool) (int64, error)
}, id identity.Identity, in BulkStatusInput, field, noun string) (*BulkResult, error) {
	if len(in.IDs) == 0 {
		return nil, badRequest(field + " is required")
	}
	active := valueOr(in.IsActive, true)
	var n int64
	if agencyID, ok := id.Agency(); ok {
		var err error
		if n, err = repo.SetActive(ctx, agencyID, in.IDs, active); err != nil {
			return nil, err
		}
	}
	return &BulkResult{Message: "Updated " + strconv.FormatInt(n, 10) + " " + noun, UpdatedCount: n}, nil
}

// invalidateProfiles drops cached profile summaries; failures only cost
// staleness up to the cache TTL
func invalidateProfiles(ctx context.Context, profiles *cache.ProfileCache, log *logrus.Logger, userIDs ...uuid.UUID) {
	if err := profiles.Invalidate(ctx, userIDs...); err != nil {
		log.WithError(err).Warn("Failed to invalidate profile cache")
	}
}
