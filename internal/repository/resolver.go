package repository

import (
	"context"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// NameRefs are the ids to resolve display names for
type NameRefs struct {
	Artists   []uuid.UUID
	Promoters []uuid.UUID
	Venues    []uuid.UUID
	Contacts  []uuid.UUID
}

// NameIndex maps ids to display names per kind. Missing ids did not resolve.
type NameIndex struct {
	Artists   map[uuid.UUID]string
	Promoters map[uuid.UUID]string
	Venues    map[uuid.UUID]string
	Contacts  map[uuid.UUID]string
}

// Lookup returns the name of id within names, or nil
func Lookup(names map[uuid.UUID]string, id uuid.UUID) *string {
	if name, ok := names[id]; ok {
		return &name
	}
	return nil
}

// Resolver looks up referenced entities inside one agency, one typed method
// per kind. A missing or foreign row yields nil without an error; errors are
// storage failures.
type Resolver interface {
	Promoter(ctx context.Context, agencyID uuid.UUID, id models.PromoterID) (*models.Promoter, error)
	Venue(ctx context.Context, agencyID uuid.UUID, id models.VenueID) (*models.Venue, error)
	Contact(ctx context.Context, agencyID uuid.UUID, id models.ContactID) (*models.Contact, error)
	Names(ctx context.Context, agencyID uuid.UUID, refs NameRefs) (*NameIndex, error)
}

type resolver struct {
	db *gorm.DB
}

func (r *resolver) Promoter(ctx context.Context, agencyID uuid.UUID, id models.PromoterID) (*models.Promoter, error) {
	return find[models.Promoter](ctx, r.db, agencyID, id.UUID)
}

func (r *resolver) Venue(ctx context.Context, agencyID uuid.UUID, id models.VenueID) (*models.Venue, error) {
	return find[models.Venue](ctx, r.db, agencyID, id.UUID)
}

func (r *resolver) Contact(ctx context.Context, agencyID uuid.UUID, id models.ContactID) (*models.Contact, error) {
	return find[models.Contact](ctx, r.db, agencyID, id.UUID)
}

func find[T any](ctx context.Context, db *gorm.DB, agencyID, id uuid.UUID) (*T, error) {
	row, err := tenantRepo[T]{db: db}.Get(ctx, agencyID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return row, err
}

func (r *resolver) Names(ctx context.Context, agencyID uuid.UUID, refs NameRefs) (*NameIndex, error) {
	idx := &NameIndex{}
	var err error
	if idx.Artists, err = r.names(ctx, "artists", "artist_name", agencyID, refs.Artists); err != nil {
		return nil, err
	}
	// Promoters are named by the person, falling back to the company
	if idx.Promoters, err = r.names(ctx, "promoters", "COALESCE(NULLIF(promoter_name, ''), company_name)", agencyID, refs.Promoters); err != nil {
		return nil, err
	}
	if idx.Venues, err = r.names(ctx, "venues", "venue_name", agencyID, refs.Venues); err != nil {
		return nil, err
	}
	if idx.Contacts, err = r.names(ctx, "contacts", "contact_name", agencyID, refs.Contacts); err != nil {
		return nil, err
	}
	return idx, nil
}

func (r *resolver) names(ctx context.Context, table, nameExpr string, agencyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []struct {
		ID   uuid.UUID
		Name string
	}
	err := r.db.WithContext(ctx).Table(table).
		Select("id, "+nameExpr+" AS name").
		Where("agency_id = ? AND id IN ?", agencyID, uniqueIDs(ids)).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "failed to resolve "+table)
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
