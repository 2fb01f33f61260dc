package repository

import (
	"context"

	"example.com/backstage/bookings/internal/database"

	"gorm.io/gorm"
)

// Repository provides data access for every aggregate of the service
type Repository interface {
	// Transaction support
	WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error

	Users() UserRepository
	Profiles() ProfileRepository
	Agencies() AgencyRepository
	Artists() ArtistRepository
	Promoters() PromoterRepository
	Venues() VenueRepository
	Contacts() ContactRepository
	BookingTypes() BookingTypeRepository
	Bookings() BookingRepository
	Resolver() Resolver
}

// repo is an implementation of the Repository interface
type repo struct {
	db database.DB
}

// Helper type for transaction support
type dbWrapper struct {
	db *gorm.DB
}

func (w *dbWrapper) DB() (*gorm.DB, error) {
	return w.db, nil
}

func (w *dbWrapper) Close() error {
	return nil
}

// NewRepository creates a new repository instance
func NewRepository(db database.DB) Repository {
	return &repo{db: db}
}

// WithTransaction executes the given function within a database transaction
func (r *repo) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &repo{
			db: &dbWrapper{db: tx},
		}
		return fn(ctx, txRepo)
	})
}

func (r *repo) gorm() *gorm.DB {
	gormDB, _ := r.db.DB()
	return gormDB
}

func (r *repo) Users() UserRepository               { return &userRepo{db: r.gorm()} }
func (r *repo) Profiles() ProfileRepository         { return &profileRepo{db: r.gorm()} }
func (r *repo) Agencies() AgencyRepository          { return &agencyRepo{db: r.gorm()} }
func (r *repo) Artists() ArtistRepository           { return newArtistRepo(r.gorm()) }
func (r *repo) Promoters() PromoterRepository       { return newPromoterRepo(r.gorm()) }
func (r *repo) Venues() VenueRepository             { return newVenueRepo(r.gorm()) }
func (r *repo) Contacts() ContactRepository         { return newContactRepo(r.gorm()) }
func (r *repo) BookingTypes() BookingTypeRepository { return newBookingTypeRepo(r.gorm()) }
func (r *repo) Bookings() BookingRepository         { return newBookingRepo(r.gorm()) }
func (r *repo) Resolver() Resolver                  { return &resolver{db: r.gorm()} }
