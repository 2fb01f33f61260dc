package service

import (
	"context"
	"errors"
	"time"

	"example.com/backstage/bookings/internal/auth"
	"example.com/backstage/bookings/internal/cache"
	"example.com/backstage/bookings/internal/messaging"
	"example.com/backstage/bookings/internal/metrics"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/search"

	"github.com/sirupsen/logrus"
)

// Service groups the business operations of every aggregate
type Service struct {
	Auth         *AuthService
	Agencies     *AgencyService
	Profiles     *ProfileService
	Artists      *ArtistService
	Promoters    *PromoterService
	Venues       *VenueService
	Contacts     *ContactService
	BookingTypes *BookingTypeService
	Bookings     *BookingService
	Overdue      *OverdueService
}

// ServiceConfig holds the dependencies of the service
type ServiceConfig struct {
	Repository repository.Repository
	Verifier   auth.Verifier
	Profiles   *cache.ProfileCache
	Publisher  messaging.Publisher
	Search     search.Index
	Logger     *logrus.Logger
	// Now defaults to time.Now in UTC
	Now func() time.Time
}

// deps is what every sub-service shares
type deps struct {
	repo      repository.Repository
	publisher messaging.Publisher
	log       *logrus.Logger
	now       func() time.Time
}

// NewService creates a new service instance
func NewService(config ServiceConfig) (*Service, error) {
	if config.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if config.Publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Now().UTC() }
	}
	if config.Search == nil {
		config.Search = search.Disabled()
	}
	if config.Profiles == nil {
		config.Profiles = cache.NewProfileCache(cache.NewMemoryClient(), 5*time.Minute, time.Minute)
	}

	d := deps{
		repo:      config.Repository,
		publisher: config.Publisher,
		log:       config.Logger,
		now:       config.Now,
	}

	return &Service{
		Auth:         &AuthService{deps: d, verifier: config.Verifier, profiles: config.Profiles},
		Agencies:     &AgencyService{deps: d, profiles: config.Profiles},
		Profiles:     &ProfileService{deps: d, profiles: config.Profiles},
		Artists:      &ArtistService{deps: d},
		Promoters:    &PromoterService{deps: d},
		Venues:       &VenueService{deps: d},
		Contacts:     &ContactService{deps: d},
		BookingTypes: &BookingTypeService{deps: d},
		Bookings:     &BookingService{deps: d, index: config.Search},
		Overdue:      &OverdueService{deps: d},
	}, nil
}

// publish sends event without failing the caller
func (d deps) publish(ctx context.Context, event messaging.Event) {
	err := d.publisher.Publish(ctx, event)
	metrics.Default().RecordEvent(event.Type, err == nil)
	if err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"event_type": event.Type,
			"entity_id":  event.EntityID,
		}).Warn("Failed to publish event")
	}
}
