package repository

import (
	"context"
	"time"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArtistFilter narrows an artist list
type ArtistFilter struct {
	ListOptions
	ArtistType    string
	Status        string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// ArtistRepository provides access to artists and their child records
type ArtistRepository interface {
	Get(ctx context.Context, agencyID, id uuid.UUID) (*models.Artist, error)
	Exists(ctx context.Context, agencyID, id uuid.UUID) (bool, error)
	Create(ctx context.Context, artist *models.Artist) error
	Save(ctx context.Context, artist *models.Artist) error
	Delete(ctx context.Context, agencyID, id uuid.UUID) error
	List(ctx context.Context, agencyID uuid.UUID, f ArtistFilter) (Page[models.Artist], error)
	EmailTaken(ctx context.Context, agencyID uuid.UUID, email string, exclude uuid.UUID) (bool, error)

	GetSocialLinks(ctx context.Context, artistID uuid.UUID) (*models.ArtistSocialLinks, error)
	SaveSocialLinks(ctx context.Context, links *models.ArtistSocialLinks) error

	ListMembers(ctx context.Context, agencyID, artistID uuid.UUID) ([]models.ArtistMember, error)
	GetMember(ctx context.Context, agencyID, artistID, id uuid.UUID) (*models.ArtistMember, error)
	SaveMember(ctx context.Context, member *models.ArtistMember) error
	DeleteMember(ctx context.Context, agencyID, artistID, id uuid.UUID) error

	ListNotes(ctx context.Context, agencyID, artistID uuid.UUID) ([]models.ArtistNote, error)
	GetNote(ctx context.Context, agencyID, artistID, id uuid.UUID) (*models.ArtistNote, error)
	SaveNote(ctx context.Context, note *models.ArtistNote) error
	DeleteNote(ctx context.Context, agencyID, artistID, id uuid.UUID) error
}

var artistOrdering = map[string]string{
	"artist_name": "artist_name",
	"created_at":  "created_at",
	"status":      "status",
}

type artistRepo struct {
	tenantRepo[models.Artist]
}

func newArtistRepo(db *gorm.DB) *artistRepo {
	return &artistRepo{tenantRepo[models.Artist]{db: db}}
}

// Get loads the artist with social links, members and notes
func (r *artistRepo) Get(ctx context.Context, agencyID, id uuid.UUID) (*models.Artist, error) {
	var artist models.Artist
	err := r.db.WithContext(ctx).
		Preload("SocialLinks").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Where("agency_id = ? AND id = ?", agencyID, id).
		First(&artist).Error
	if err != nil {
		return nil, translate(err, "failed to get artist")
	}
	return &artist, nil
}

func (r *artistRepo) List(ctx context.Context, agencyID uuid.UUID, f ArtistFilter) (Page[models.Artist], error) {
	q := r.scoped(ctx, agencyID).Preload("Members")
	if f.ArtistType != "" {
		q = q.Where("artist_type = ?", f.ArtistType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		q = q.Where("created_at <= ?", *f.CreatedBefore)
	}
	q = applySearch(q, f.Search, "artist_name", "email", "bio")
	q = applyOrdering(q, f.Ordering, artistOrdering, "artist_name")

	page, err := paginate[models.Artist](q, f.ListOptions)
	return page, translate(err, "failed to list artists")
}

func (r *artistRepo) EmailTaken(ctx context.Context, agencyID uuid.UUID, email string, exclude uuid.UUID) (bool, error) {
	n, err := r.CountWhere(ctx, agencyID, "LOWER(email) = LOWER(?) AND id <> ?", email, exclude)
	return n > 0, err
}

func (r *artistRepo) GetSocialLinks(ctx context.Context, artistID uuid.UUID) (*models.ArtistSocialLinks, error) {
	var links models.ArtistSocialLinks
	if err := r.db.WithContext(ctx).First(&links, "artist_id = ?", artistID).Error; err != nil {
		return nil, translate(err, "failed to get social links")
	}
	return &links, nil
}

func (r *artistRepo) SaveSocialLinks(ctx context.Context, links *models.ArtistSocialLinks) error {
	return translate(r.db.WithContext(ctx).Save(links).Error, "failed to save social links")
}

func (r *artistRepo) ListMembers(ctx context.Context, agencyID, artistID uuid.UUID) ([]models.ArtistMember, error) {
	members := []models.ArtistMember{}
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND artist_id = ?", agencyID, artistID).
		Order("created_at").Find(&members).Error
	return members, translate(err, "failed to list members")
}

func (r *artistRepo) GetMember(ctx context.Context, agencyID, artistID, id uuid.UUID) (*models.ArtistMember, error) {
	var member models.ArtistMember
	err := r.db.WithContext(ctx).
		First(&member, "agency_id = ? AND artist_id = ? AND id = ?", agencyID, artistID, id).Error
	if err != nil {
		return nil, translate(err, "failed to get member")
	}
	return &member, nil
}

func (r *artistRepo) SaveMember(ctx context.Context, member *models.ArtistMember) error {
	return translate(r.db.WithContext(ctx).Save(member).Error, "failed to save member")
}

func (r *artistRepo) DeleteMember(ctx context.Context, agencyID, artistID, id uuid.UUID) error {
	return deleteChild(r.db.WithContext(ctx), &models.ArtistMember{}, agencyID, artistID, id)
}

func (r *artistRepo) ListNotes(ctx context.Context, agencyID, artistID uuid.UUID) ([]models.ArtistNote, error) {
	notes := []models.ArtistNote{}
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND artist_id = ?", agencyID, artistID).
		Order("created_at DESC").Find(&notes).Error
	return notes, translate(err, "failed to list notes")
}

func (r *artistRepo) GetNote(ctx context.Context, agencyID, artistID, id uuid.UUID) (*models.ArtistNote, error) {
	var note models.ArtistNote
	err := r.db.WithContext(ctx).
		First(&note, "agency_id = ? AND artist_id = ? AND id = ?", agencyID, artistID, id).Error
	if err != nil {
		return nil, translate(err, "failed to get note")
	}
	return &note, nil
}

func (r *artistRepo) SaveNote(ctx context.Context, note *models.ArtistNote) error {
	return translate(r.db.WithContext(ctx).Save(note).Error, "failed to save note")
}

func (r *artistRepo) DeleteNote(ctx context.Context, agencyID, artistID, id uuid.UUID) error {
	return deleteChild(r.db.WithContext(ctx), &models.ArtistNote{}, agencyID, artistID, id)
}

func deleteChild(db *gorm.DB, model interface{}, agencyID, artistID, id uuid.UUID) error {
	res := db.Where("agency_id = ? AND artist_id = ? AND id = ?", agencyID, artistID, id).Delete(model)
	if res.Error != nil {
		return translate(res.Error, "failed to delete record")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
