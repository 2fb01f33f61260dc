package repository

import (
	"context"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingTypeFilter narrows a booking type list
type BookingTypeFilter struct {
	ListOptions
	IsActive *bool
}

// BookingTypeRepository provides access to agency booking types
type BookingTypeRepository interface {
	Get(ctx context.Context, agencyID, id uuid.UUID) (*models.BookingType, error)
	Exists(ctx context.Context, agencyID, id uuid.UUID) (bool, error)
	Create(ctx context.Context, t *models.BookingType) error
	Save(ctx context.Context, t *models.BookingType) error
	Delete(ctx context.Context, agencyID, id uuid.UUID) error
	List(ctx context.Context, agencyID uuid.UUID, f BookingTypeFilter) (Page[models.BookingType], error)
	NameTaken(ctx context.Context, agencyID uuid.UUID, name string, exclude uuid.UUID) (bool, error)
}

var bookingTypeOrdering = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

type bookingTypeRepo struct {
	tenantRepo[models.BookingType]
}

func newBookingTypeRepo(db *gorm.DB) *bookingTypeRepo {
	return &bookingTypeRepo{tenantRepo[models.BookingType]{db: db}}
}

func (r *bookingTypeRepo) List(ctx context.Context, agencyID uuid.UUID, f BookingTypeFilter) (Page[models.BookingType], error) {
	q := r.scoped(ctx, agencyID)
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	q = applySearch(q, f.Search, "name", "description")
	q = applyOrdering(q, f.Ordering, bookingTypeOrdering, "name")

	page, err := paginate[models.BookingType](q, f.ListOptions)
	return page, translate(err, "failed to list booking types")
}

func (r *bookingTypeRepo) NameTaken(ctx context.Context, agencyID uuid.UUID, name string, exclude uuid.UUID) (bool, error) {
	n, err := r.CountWhere(ctx, agencyID, "LOWER(name) = LOWER(?) AND id <> ?", name, exclude)
	return n > 0, err
}
