package repository

import (
	"context"
	"time"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromoterFilter narrows a promoter list
type PromoterFilter struct {
	ListOptions
	PromoterType   string
	IsActive       *bool
	CompanyCountry string
	HasEmail       *bool
	HasPhone       *bool
	HasWebsite     *bool
}

// PromoterRepository provides access to promoters
type PromoterRepository interface {
	Get(ctx context.Context, agencyID, id uuid.UUID) (*models.Promoter, error)
	Exists(ctx context.Context, agencyID, id uuid.UUID) (bool, error)
	Create(ctx context.Context, promoter *models.Promoter) error
	Save(ctx context.Context, promoter *models.Promoter) error
	Delete(ctx context.Context, agencyID, id uuid.UUID) error
	List(ctx context.Context, agencyID uuid.UUID, f PromoterFilter) (Page[models.Promoter], error)
	All(ctx context.Context, agencyID uuid.UUID, activeOnly bool, order string) ([]models.Promoter, error)
	EmailTaken(ctx context.Context, agencyID uuid.UUID, email string, exclude uuid.UUID) (bool, error)
	SetActive(ctx context.Context, agencyID uuid.UUID, ids []uuid.UUID, active bool) (int64, error)
	CountStatus(ctx context.Context, agencyID uuid.UUID, since time.Time) (StatusCounts, error)
	CountBy(ctx context.Context, agencyID uuid.UUID, column string) ([]GroupCount, error)
}

var promoterOrdering = map[string]string{
	"company_name":  "company_name",
	"promoter_name": "promoter_name",
	"created_at":    "created_at",
	"promoter_type": "promoter_type",
}

type promoterRepo struct {
	tenantRepo[models.Promoter]
}

func newPromoterRepo(db *gorm.DB) *promoterRepo {
	return &promoterRepo{tenantRepo[models.Promoter]{db: db}}
}

func (r *promoterRepo) List(ctx context.Context, agencyID uuid.UUID, f PromoterFilter) (Page[models.Promoter], error) {
	q := r.scoped(ctx, agencyID)
	if f.PromoterType != "" {
		q = q.Where("promoter_type = ?", f.PromoterType)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.CompanyCountry != "" {
		q = q.Where("company_country = ?", f.CompanyCountry)
	}
	q = presence(q, "promoter_email", f.HasEmail)
	q = presence(q, "promoter_phone", f.HasPhone)
	q = presence(q, "website", f.HasWebsite)
	q = applySearch(q, f.Search, "promoter_name", "company_name", "promoter_email", "company_city", "notes")
	q = applyOrdering(q, f.Ordering, promoterOrdering, "company_name, promoter_name")

	page, err := paginate[models.Promoter](q, f.ListOptions)
	return page, translate(err, "failed to list promoters")
}

func (r *promoterRepo) EmailTaken(ctx context.Context, agencyID uuid.UUID, email string, exclude uuid.UUID) (bool, error) {
	n, err := r.CountWhere(ctx, agencyID, "LOWER(promoter_email) = LOWER(?) AND id <> ?", email, exclude)
	return n > 0, err
}

// presence filters on whether a text column holds a non-empty value
func presence(q *gorm.DB, column string, want *bool) *gorm.DB {
	if want == nil {
		return q
	}
	if *want {
		return q.Where(column + " IS NOT NULL AND " + column + " <> ''")
	}
	return q.Where("(" + column + " IS NULL OR " + column + " = '')")
}
