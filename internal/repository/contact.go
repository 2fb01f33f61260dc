package repository

import (
	"context"
	"time"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactFilter narrows a contact list
type ContactFilter struct {
	ListOptions
	ContactType   string
	ReferenceType string
	PromoterID    *uuid.UUID
	VenueID       *uuid.UUID
	IsPrimary     *bool
	IsEmergency   *bool
	IsActive      *bool
}

// ChannelCounts counts contacts reachable on each channel besides email
type ChannelCounts struct {
	WithPhone    int64 `json:"with_phone"`
	WithWhatsapp int64 `json:"with_whatsapp"`
	WithLinkedin int64 `json:"with_linkedin"`
	Primary      int64 `gorm:"column:primary_count" json:"-"`
	Emergency    int64 `gorm:"column:emergency_count" json:"-"`
}

// ContactRepository provides access to contacts
type ContactRepository interface {
	Get(ctx context.Context, agencyID, id uuid.UUID) (*models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) error
	Save(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, agencyID, id uuid.UUID) error
	List(ctx context.Context, agencyID uuid.UUID, f ContactFilter) (Page[models.Contact], error)
	// Find returns every contact matching f without paging
	Find(ctx context.Context, agencyID uuid.UUID, f ContactFilter) ([]models.Contact, error)
	EmailTaken(ctx context.Context, agencyID uuid.UUID, email string, exclude uuid.UUID) (bool, error)
	// BelongsToPromoter reports whether the contact is attached to the promoter
	BelongsToPromoter(ctx context.Context, agencyID, contactID, promoterID uuid.UUID) (bool, error)
	// ClearPrimary unsets is_primary on every other contact sharing ref
	ClearPrimary(ctx context.Context, agencyID uuid.UUID, ref models.ContactReference, except uuid.UUID) error
	SetActive(ctx context.Context, agencyID uuid.UUID, ids []uuid.UUID, active bool) (int64, error)
	CountStatus(ctx context.Context, agencyID uuid.UUID, since time.Time) (StatusCounts, error)
	CountBy(ctx context.Context, agencyID uuid.UUID, column string) ([]GroupCount, error)
	CountChannels(ctx context.Context, agencyID uuid.UUID) (ChannelCounts, error)
}

var contactOrdering = map[string]string{
	"contact_name": "contact_name",
	"contact_type": "contact_type",
	"created_at":   "created_at",
}

type contactRepo struct {
	tenantRepo[models.Contact]
}

func newContactRepo(db *gorm.DB) *contactRepo {
	return &contactRepo{tenantRepo[models.Contact]{db: db}}
}

func (r *contactRepo) filtered(ctx context.Context, agencyID uuid.UUID, f ContactFilter) *gorm.DB {
	q := r.scoped(ctx, agencyID)
	if f.ContactType != "" {
		q = q.Where("contact_type = ?", f.ContactType)
	}
	if f.ReferenceType != "" {
		q = q.Where("reference_type = ?", f.ReferenceType)
	}
	if f.PromoterID != nil {
		q = q.Where("promoter_id = ?", *f.PromoterID)
	}
	if f.VenueID != nil {
		q = q.Where("venue_id = ?", *f.VenueID)
	}
	if f.IsPrimary != nil {
		q = q.Where("is_primary = ?", *f.IsPrimary)
	}
	if f.IsEmergency != nil {
		q = q.Where("is_emergency = ?", *f.IsEmergency)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	q = applySearch(q, f.Search, "contact_name", "contact_email", "job_title", "notes")
	return applyOrdering(q, f.Ordering, contactOrdering, "contact_name")
}

func (r *contactRepo) List(ctx context.Context, agencyID uuid.UUID, f ContactFilter) (Page[models.Contact], error) {
	page, err := paginate[models.Contact](r.filtered(ctx, agencyID, f), f.ListOptions)
	return page, translate(err, "failed to list contacts")
}

func (r *contactRepo) Find(ctx context.Context, agencyID uuid.UUID, f ContactFilter) ([]models.Contact, error) {
	contacts := []models.Contact{}
	err := r.filtered(ctx, agencyID, f).Find(&contacts).Error
	return contacts, translate(err, "failed to find contacts")
}

func (r *contactRepo) EmailTaken(ctx context.Context, agencyID uuid.UUID, email string, exclude uuid.UUID) (bool, error) {
	n, err := r.CountWhere(ctx, agencyID, "LOWER(contact_email) = LOWER(?) AND id <> ?", email, exclude)
	return n > 0, err
}

func (r *contactRepo) BelongsToPromoter(ctx context.Context, agencyID, contactID, promoterID uuid.UUID) (bool, error) {
	n, err := r.CountWhere(ctx, agencyID, "id = ? AND reference_type = ? AND promoter_id = ?",
		contactID, models.ReferencePromoter, promoterID)
	return n > 0, err
}

func (r *contactRepo) ClearPrimary(ctx context.Context, agencyID uuid.UUID, ref models.ContactReference, except uuid.UUID) error {
	q := r.scoped(ctx, agencyID).Where("reference_type = ? AND id <> ? AND is_primary", ref.Type(), except)
	switch ref := ref.(type) {
	case models.PromoterReference:
		q = q.Where("promoter_id = ?", ref.PromoterID)
	case models.VenueReference:
		q = q.Where("venue_id = ?", ref.VenueID)
	}
	err := q.Updates(map[string]interface{}{"is_primary": false, "updated_at": time.Now().UTC()}).Error
	return translate(err, "failed to clear primary contacts")
}

func (r *contactRepo) CountChannels(ctx context.Context, agencyID uuid.UUID) (ChannelCounts, error) {
	var counts ChannelCounts
	err := r.scoped(ctx, agencyID).Select(
		"COUNT(*) FILTER (WHERE contact_phone <> '') AS with_phone, " +
			"COUNT(*) FILTER (WHERE whatsapp <> '') AS with_whatsapp, " +
			"COUNT(*) FILTER (WHERE linkedin <> '') AS with_linkedin, " +
			"COUNT(*) FILTER (WHERE is_primary) AS primary_count, " +
			"COUNT(*) FILTER (WHERE is_emergency) AS emergency_count",
	).Scan(&counts).Error
	return counts, translate(err, "failed to count contact channels")
}
