package repository

import (
	"context"
	"time"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VenueFilter narrows a venue list
type VenueFilter struct {
	ListOptions
	VenueType    string
	IsActive     *bool
	VenueCountry string
	VenueCity    string
	MinCapacity  *int
	MaxCapacity  *int
	HasParking   *bool
	HasCatering  *bool
	IsAccessible *bool
}

// CapacityCounts buckets an agency's venues by capacity category
type CapacityCounts struct {
	Small   int64 `json:"small"`
	Medium  int64 `json:"medium"`
	Large   int64 `json:"large"`
	Massive int64 `json:"massive"`
}

// FeatureCounts counts an agency's venues per facility flag
type FeatureCounts struct {
	WithParking  int64 `json:"with_parking"`
	WithCatering int64 `json:"with_catering"`
	Accessible   int64 `json:"accessible"`
}

// VenueRepository provides access to venues
type VenueRepository interface {
	Get(ctx context.Context, agencyID, id uuid.UUID) (*models.Venue, error)
	Exists(ctx context.Context, agencyID, id uuid.UUID) (bool, error)
	Create(ctx context.Context, venue *models.Venue) error
	Save(ctx context.Context, venue *models.Venue) error
	Delete(ctx context.Context, agencyID, id uuid.UUID) error
	List(ctx context.Context, agencyID uuid.UUID, f VenueFilter) (Page[models.Venue], error)
	All(ctx context.Context, agencyID uuid.UUID, activeOnly bool, order string) ([]models.Venue, error)
	NameCityTaken(ctx context.Context, agencyID uuid.UUID, name, city string, exclude uuid.UUID) (bool, error)
	SetActive(ctx context.Context, agencyID uuid.UUID, ids []uuid.UUID, active bool) (int64, error)
	CountStatus(ctx context.Context, agencyID uuid.UUID, since time.Time) (StatusCounts, error)
	CountBy(ctx context.Context, agencyID uuid.UUID, column string) ([]GroupCount, error)
	CountCapacity(ctx context.Context, agencyID uuid.UUID) (CapacityCounts, error)
	CountFeatures(ctx context.Context, agencyID uuid.UUID) (FeatureCounts, error)
}

var venueOrdering = map[string]string{
	"venue_name": "venue_name",
	"venue_city": "venue_city",
	"capacity":   "capacity",
	"created_at": "created_at",
}

type venueRepo struct {
	tenantRepo[models.Venue]
}

func newVenueRepo(db *gorm.DB) *venueRepo {
	return &venueRepo{tenantRepo[models.Venue]{db: db}}
}

func (r *venueRepo) List(ctx context.Context, agencyID uuid.UUID, f VenueFilter) (Page[models.Venue], error) {
	q := r.scoped(ctx, agencyID)
	if f.VenueType != "" {
		q = q.Where("venue_type = ?", f.VenueType)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.VenueCountry != "" {
		q = q.Where("venue_country = ?", f.VenueCountry)
	}
	if f.VenueCity != "" {
		q = q.Where("venue_city ILIKE ?", "%"+escapeLike(f.VenueCity)+"%")
	}
	if f.MinCapacity != nil {
		q = q.Where("capacity >= ?", *f.MinCapacity)
	}
	if f.MaxCapacity != nil {
		q = q.Where("capacity <= ?", *f.MaxCapacity)
	}
	for column, want := range map[string]*bool{
		"has_parking":   f.HasParking,
		"has_catering":  f.HasCatering,
		"is_accessible": f.IsAccessible,
	} {
		if want != nil {
			q = q.Where(column+" = ?", *want)
		}
	}
	q = applySearch(q, f.Search, "venue_name", "venue_city", "venue_address", "contact_name", "notes")
	q = applyOrdering(q, f.Ordering, venueOrdering, "venue_name")

	page, err := paginate[models.Venue](q, f.ListOptions)
	return page, translate(err, "failed to list venues")
}

func (r *venueRepo) NameCityTaken(ctx context.Context, agencyID uuid.UUID, name, city string, exclude uuid.UUID) (bool, error) {
	n, err := r.CountWhere(ctx, agencyID,
		"LOWER(venue_name) = LOWER(?) AND LOWER(venue_city) = LOWER(?) AND id <> ?", name, city, exclude)
	return n > 0, err
}

func (r *venueRepo) CountCapacity(ctx context.Context, agencyID uuid.UUID) (CapacityCounts, error) {
	var counts CapacityCounts
	err := r.scoped(ctx, agencyID).Select(
		"COUNT(*) FILTER (WHERE capacity < 500) AS small, " +
			"COUNT(*) FILTER (WHERE capacity >= 500 AND capacity < 2000) AS medium, " +
			"COUNT(*) FILTER (WHERE capacity >= 2000 AND capacity < 10000) AS large, " +
			"COUNT(*) FILTER (WHERE capacity >= 10000) AS massive",
	).Scan(&counts).Error
	return counts, translate(err, "failed to count venue capacity")
}

func (r *venueRepo) CountFeatures(ctx context.Context, agencyID uuid.UUID) (FeatureCounts, error) {
	var counts FeatureCounts
	err := r.scoped(ctx, agencyID).Select(
		"COUNT(*) FILTER (WHERE has_parking) AS with_parking, " +
			"COUNT(*) FILTER (WHERE has_catering) AS with_catering, " +
			"COUNT(*) FILTER (WHERE is_accessible) AS accessible",
	).Scan(&counts).Error
	return counts, translate(err, "failed to count venue features")
}
