package repository

import (
	"context"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AgencyRepository provides access to agencies and their one-to-one records
type AgencyRepository interface {
	Create(ctx context.Context, agency *models.Agency) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error)
	GetBySlug(ctx context.Context, slug string) (*models.Agency, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Agency, error)
	Save(ctx context.Context, agency *models.Agency) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, opts ListOptions) (Page[models.Agency], error)

	GetBusinessDetails(ctx context.Context, agencyID uuid.UUID) (*models.AgencyBusinessDetails, error)
	SaveBusinessDetails(ctx context.Context, details *models.AgencyBusinessDetails) error
	GetSettings(ctx context.Context, agencyID uuid.UUID) (*models.AgencySettings, error)
	SaveSettings(ctx context.Context, settings *models.AgencySettings) error
}

var agencyOrdering = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

type agencyRepo struct {
	db *gorm.DB
}

func (r *agencyRepo) Create(ctx context.Context, agency *models.Agency) error {
	return translate(r.db.WithContext(ctx).Omit("Owner", "Users").Create(agency).Error, "failed to create agency")
}

func (r *agencyRepo) get(ctx context.Context, query string, arg interface{}) (*models.Agency, error) {
	var agency models.Agency
	err := r.db.WithContext(ctx).
		Preload("BusinessDetails").
		Preload("Settings").
		First(&agency, query, arg).Error
	if err != nil {
		return nil, translate(err, "failed to get agency")
	}
	return &agency, nil
}

func (r *agencyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	return r.get(ctx, "id = ?", id)
}

func (r *agencyRepo) GetBySlug(ctx context.Context, slug string) (*models.Agency, error) {
	return r.get(ctx, "slug = ?", slug)
}

func (r *agencyRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Agency, error) {
	return r.get(ctx, "owner_id = ?", ownerID)
}

func (r *agencyRepo) Save(ctx context.Context, agency *models.Agency) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(agency).Error, "failed to save agency")
}

func (r *agencyRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Agency{}).Where("slug = ?", slug).Limit(1).Count(&n).Error
	return n > 0, translate(err, "failed to check slug")
}

func (r *agencyRepo) List(ctx context.Context, opts ListOptions) (Page[models.Agency], error) {
	q := r.db.WithContext(ctx).Model(&models.Agency{})
	q = applySearch(q, opts.Search, "name", "slug")
	q = applyOrdering(q, opts.Ordering, agencyOrdering, "name")
	page, err := paginate[models.Agency](q, opts)
	return page, translate(err, "failed to list agencies")
}

func (r *agencyRepo) GetBusinessDetails(ctx context.Context, agencyID uuid.UUID) (*models.AgencyBusinessDetails, error) {
	var details models.AgencyBusinessDetails
	if err := r.db.WithContext(ctx).First(&details, "agency_id = ?", agencyID).Error; err != nil {
		return nil, translate(err, "failed to get business details")
	}
	return &details, nil
}

func (r *agencyRepo) SaveBusinessDetails(ctx context.Context, details *models.AgencyBusinessDetails) error {
	return translate(r.db.WithContext(ctx).Save(details).Error, "failed to save business details")
}

func (r *agencyRepo) GetSettings(ctx context.Context, agencyID uuid.UUID) (*models.AgencySettings, error) {
	var settings models.AgencySettings
	if err := r.db.WithContext(ctx).First(&settings, "agency_id = ?", agencyID).Error; err != nil {
		return nil, translate(err, "failed to get agency settings")
	}
	return &settings, nil
}

func (r *agencyRepo) SaveSettings(ctx context.Context, settings *models.AgencySettings) error {
	return translate(r.db.WithContext(ctx).Save(settings).Error, "failed to save agency settings")
}
