package cmd

import (
	"context"

	"example.com/backstage/bookings/internal/auth"
	"example.com/backstage/bookings/internal/cache"
	"example.com/backstage/bookings/internal/database"
	"example.com/backstage/bookings/internal/messaging"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/search"
	"example.com/backstage/bookings/internal/service"
	"example.com/backstage/bookings/internal/telemetry"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
)

const eventSource = "bookings-service"

// app holds the connections shared by the commands
type app struct {
	db        database.DB
	repo      repository.Repository
	cache     cache.Client
	publisher messaging.Publisher
	service   *service.Service
	nrApp     *newrelic.Application
}

// bootstrap connects every backing service. The token verifier is only
// built for commands that authenticate requests.
func bootstrap(withAuth bool) (*app, error) {
	a := &app{}

	nrApp, err := telemetry.InitNewRelic(cfg.NewRelic)
	if err != nil {
		log.Warnf("Failed to initialize New Relic: %v", err)
	}
	a.nrApp = nrApp

	a.db, err = database.Connect(cfg.Database, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	gormDB, err := a.db.DB()
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := database.RegisterMetricsHooks(gormDB); err != nil {
		log.Warnf("Failed to register query metrics: %v", err)
	}
	a.repo = repository.NewRepository(a.db)

	a.cache, err = cache.NewClient(cfg.Redis)
	if err != nil {
		log.Warnf("Failed to connect to Redis, using in-process cache: %v", err)
		a.cache = cache.NewMemoryClient()
	}

	a.publisher, err = messaging.NewPublisher(cfg.ServiceBus, eventSource, log)
	if err != nil {
		a.Close()
		return nil, errors.Wrap(err, "failed to initialize Service Bus")
	}

	index, err := search.NewIndex(cfg.Elasticsearch)
	if err != nil {
		log.Warnf("Failed to initialize Elasticsearch, search falls back to the database: %v", err)
		index = search.Disabled()
	}

	svcConfig := service.ServiceConfig{
		Repository: a.repo,
		Profiles:   cache.NewProfileCache(a.cache, cfg.Cache.ProfileTTL, cfg.Cache.VerificationEmailCooldown),
		Publisher:  a.publisher,
		Search:     index,
		Logger:     log,
	}
	if withAuth {
		verifier, err := auth.NewVerifier(cfg.Auth)
		if err != nil {
			a.Close()
			return nil, err
		}
		svcConfig.Verifier = verifier
	}

	a.service, err = service.NewService(svcConfig)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases every connection that was opened
func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Warnf("Failed to close publisher: %v", err)
		}
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	telemetry.Shutdown(a.nrApp)
}

// agencyFinder finds an agency by slug
type agencyFinder interface {
	GetBySlug(ctx context.Context, slug string) (*models.Agency, error)
}

// resolveAgency turns an --agency flag, either an id or a slug, into an
// agency id. An empty value selects every agency.
func resolveAgency(ctx context.Context, agencies agencyFinder, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	if id, err := uuid.Parse(value); err == nil {
		return &id, nil
	}
	agency, err := agencies.GetBySlug(ctx, value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.Errorf("agency %q not found", value)
		}
		return nil, err
	}
	return &agency.ID, nil
}
