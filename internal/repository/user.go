package repository

import (
	"context"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository provides access to local user accounts
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByExternalUID(ctx context.Context, uid string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetOrCreate inserts user unless its external uid is already known and
	// returns the stored row. The unique index decides concurrent callers.
	GetOrCreate(ctx context.Context, user *models.User) (*models.User, bool, error)
	Save(ctx context.Context, user *models.User) error
}

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to get user")
	}
	return &user, nil
}

func (r *userRepo) GetByExternalUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "external_uid = ?", uid).Error; err != nil {
		return nil, translate(err, "failed to get user by uid")
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "LOWER(email) = LOWER(?)", email).Error; err != nil {
		return nil, translate(err, "failed to get user by email")
	}
	return &user, nil
}

func (r *userRepo) GetOrCreate(ctx context.Context, user *models.User) (*models.User, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_uid"}}, DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return nil, false, translate(res.Error, "failed to create user")
	}
	if res.RowsAffected == 1 {
		return user, true, nil
	}

	existing, err := r.GetByExternalUID(ctx, user.ExternalUID)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to load concurrently created user")
	}
	return existing, false, nil
}

func (r *userRepo) Save(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error, "failed to save user")
}
