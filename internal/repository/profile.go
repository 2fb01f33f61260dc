package repository

import (
	"context"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// auditedTables carry created_by/updated_by references to profiles
var auditedTables = []string{"artists", "promoters", "venues", "contacts", "bookings"}

// ProfileRepository provides access to agency membership profiles
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	Get(ctx context.Context, agencyID, id uuid.UUID) (*models.UserProfile, error)
	ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.UserProfile, error)
	Create(ctx context.Context, profile *models.UserProfile) error
	Save(ctx context.Context, profile *models.UserProfile) error
	// Delete removes the profile and clears audit references to it
	Delete(ctx context.Context, agencyID, id uuid.UUID) error
	// DisplayNames maps profile ids to the full name of their user
	DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type profileRepo struct {
	db *gorm.DB
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.WithContext(ctx).Preload("User").First(&profile, "user_id = ?", userID).Error
	if err != nil {
		return nil, translate(err, "failed to get profile")
	}
	return &profile, nil
}

func (r *profileRepo) Get(ctx context.Context, agencyID, id uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.WithContext(ctx).Preload("User").
		First(&profile, "agency_id = ? AND id = ?", agencyID, id).Error
	if err != nil {
		return nil, translate(err, "failed to get profile")
	}
	return &profile, nil
}

func (r *profileRepo) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.UserProfile, error) {
	profiles := []models.UserProfile{}
	err := r.db.WithContext(ctx).Preload("User").
		Where("agency_id = ?", agencyID).Order("created_at").
		Find(&profiles).Error
	return profiles, translate(err, "failed to list profiles")
}

func (r *profileRepo) Create(ctx context.Context, profile *models.UserProfile) error {
	return translate(r.db.WithContext(ctx).Omit("User", "Agency").Create(profile).Error, "failed to create profile")
}

func (r *profileRepo) Save(ctx context.Context, profile *models.UserProfile) error {
	return translate(r.db.WithContext(ctx).Omit("User", "Agency").Save(profile).Error, "failed to save profile")
}

func (r *profileRepo) Delete(ctx context.Context, agencyID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range auditedTables {
			if err := tx.Table(table).Where("created_by_id = ?", id).Update("created_by_id", nil).Error; err != nil {
				return translate(err, "failed to clear created_by on "+table)
			}
			if err := tx.Table(table).Where("updated_by_id = ?", id).Update("updated_by_id", nil).Error; err != nil {
				return translate(err, "failed to clear updated_by on "+table)
			}
		}
		if err := tx.Table("artist_notes").Where("created_by_id = ?", id).Update("created_by_id", nil).Error; err != nil {
			return translate(err, "failed to clear note authors")
		}

		res := tx.Where("agency_id = ? AND id = ?", agencyID, id).Delete(&models.UserProfile{})
		if res.Error != nil {
			return translate(res.Error, "failed to delete profile")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *profileRepo) DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var profiles []models.UserProfile
	err := r.db.WithContext(ctx).Preload("User").Where("id IN ?", ids).Find(&profiles).Error
	if err != nil {
		return nil, translate(err, "failed to load profile names")
	}
	for _, p := range profiles {
		if p.User != nil {
			names[p.ID] = p.User.FullName()
		}
	}
	return names, nil
}
