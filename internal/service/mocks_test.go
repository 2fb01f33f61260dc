package service

import (
	"context"
	"sync"
	"time"

	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/messaging"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/search"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// Mock repositories embed their interface so a test only stubs the
// methods it exercises; anything else panics.

type MockRepository struct {
	repository.Repository
	bookings     *MockBookingRepository
	bookingTypes *MockBookingTypeRepository
	promoters    *MockPromoterRepository
	profiles     *MockProfileRepository
	agencies     *MockAgencyRepository
	artists      *MockArtistRepository
	venues       *MockVenueRepository
	contacts     *MockContactRepository
	resolver     *MockResolver
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		bookings:     new(MockBookingRepository),
		bookingTypes: new(MockBookingTypeRepository),
		promoters:    new(MockPromoterRepository),
		profiles:     new(MockProfileRepository),
		agencies:     new(MockAgencyRepository),
		artists:      new(MockArtistRepository),
		venues:       new(MockVenueRepository),
		contacts:     new(MockContactRepository),
		resolver:     new(MockResolver),
	}
}

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo repository.Repository) error) error {
	return fn(ctx, m)
}

func (m *MockRepository) Bookings() repository.BookingRepository         { return m.bookings }
func (m *MockRepository) BookingTypes() repository.BookingTypeRepository { return m.bookingTypes }
func (m *MockRepository) Promoters() repository.PromoterRepository       { return m.promoters }
func (m *MockRepository) Profiles() repository.ProfileRepository         { return m.profiles }
func (m *MockRepository) Agencies() repository.AgencyRepository         { return m.agencies }
func (m *MockRepository) Artists() repository.ArtistRepository           { return m.artists }
func (m *MockRepository) Venues() repository.VenueRepository             { return m.venues }
func (m *MockRepository) Contacts() repository.ContactRepository         { return m.contacts }
func (m *MockRepository) Resolver() repository.Resolver                  { return m.resolver }

type MockBookingRepository struct {
	repository.BookingRepository
	mock.Mock
}

func (m *MockBookingRepository) Get(ctx context.Context, agencyID, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(ctx, agencyID, id)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *MockBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) Save(ctx context.Context, b *models.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) Delete(ctx context.Context, agencyID, id uuid.UUID) error {
	args := m.Called(ctx, agencyID, id)
	return args.Error(0)
}

func (m *MockBookingRepository) List(ctx context.Context, agencyID uuid.UUID, f repository.BookingFilter) (repository.Page[models.Booking], error) {
	args := m.Called(ctx, agencyID, f)
	return args.Get(0).(repository.Page[models.Booking]), args.Error(1)
}

func (m *MockBookingRepository) Stats(ctx context.Context, agencyID uuid.UUID, f repository.StatsFilter, now time.Time) (repository.BookingStats, error) {
	args := m.Called(ctx, agencyID, f, now)
	return args.Get(0).(repository.BookingStats), args.Error(1)
}

func (m *MockBookingRepository) Upcoming(ctx context.Context, agencyID uuid.UUID, from, to time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, agencyID, from, to)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingRepository) Between(ctx context.Context, agencyID uuid.UUID, from, to time.Time, includeCancelled bool) ([]models.Booking, error) {
	args := m.Called(ctx, agencyID, from, to, includeCancelled)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingRepository) OverdueCandidates(ctx context.Context, agencyID *uuid.UUID, prefix string, today models.Date) ([]repository.OverdueCandidate, error) {
	args := m.Called(ctx, agencyID, prefix, today)
	return args.Get(0).([]repository.OverdueCandidate), args.Error(1)
}

func (m *MockBookingRepository) MarkOverdue(ctx context.Context, prefix string, ids []uuid.UUID, today models.Date) ([]uuid.UUID, error) {
	args := m.Called(ctx, prefix, ids, today)
	marked, _ := args.Get(0).([]uuid.UUID)
	return marked, args.Error(1)
}

func (m *MockBookingRepository) CountOverdue(ctx context.Context, agencyID *uuid.UUID) (int64, error) {
	args := m.Called(ctx, agencyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) FindInBatches(ctx context.Context, agencyID *uuid.UUID, size int, fn func([]models.Booking) error) error {
	args := m.Called(ctx, agencyID, size)
	if batch, ok := args.Get(0).([]models.Booking); ok {
		if err := fn(batch); err != nil {
			return err
		}
	}
	return args.Error(1)
}

type MockBookingTypeRepository struct {
	repository.BookingTypeRepository
	mock.Mock
}

func (m *MockBookingTypeRepository) Get(ctx context.Context, agencyID, id uuid.UUID) (*models.BookingType, error) {
	args := m.Called(ctx, agencyID, id)
	t, _ := args.Get(0).(*models.BookingType)
	return t, args.Error(1)
}

func (m *MockBookingTypeRepository) Create(ctx context.Context, t *models.BookingType) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockBookingTypeRepository) NameTaken(ctx context.Context, agencyID uuid.UUID, name string, exclude uuid.UUID) (bool, error) {
	args := m.Called(ctx, agencyID, name, exclude)
	return args.Bool(0), args.Error(1)
}

type MockPromoterRepository struct {
	repository.PromoterRepository
	mock.Mock
}

func (m *MockPromoterRepository) Create(ctx context.Context, p *models.Promoter) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPromoterRepository) EmailTaken(ctx context.Context, agencyID uuid.UUID, email string, exclude uuid.UUID) (bool, error) {
	args := m.Called(ctx, agencyID, email, exclude)
	return args.Bool(0), args.Error(1)
}

func (m *MockPromoterRepository) SetActive(ctx context.Context, agencyID uuid.UUID, ids []uuid.UUID, active bool) (int64, error) {
	args := m.Called(ctx, agencyID, ids, active)
	return args.Get(0).(int64), args.Error(1)
}

type MockProfileRepository struct {
	repository.ProfileRepository
	mock.Mock
}

func (m *MockProfileRepository) DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

type MockAgencyRepository struct {
	repository.AgencyRepository
	mock.Mock
}

func (m *MockAgencyRepository) GetBySlug(ctx context.Context, slug string) (*models.Agency, error) {
	args := m.Called(ctx, slug)
	a, _ := args.Get(0).(*models.Agency)
	return a, args.Error(1)
}

func (m *MockAgencyRepository) Save(ctx context.Context, agency *models.Agency) error {
	args := m.Called(ctx, agency)
	return args.Error(0)
}

func (m *MockAgencyRepository) GetBusinessDetails(ctx context.Context, agencyID uuid.UUID) (*models.AgencyBusinessDetails, error) {
	args := m.Called(ctx, agencyID)
	d, _ := args.Get(0).(*models.AgencyBusinessDetails)
	return d, args.Error(1)
}

func (m *MockAgencyRepository) SaveBusinessDetails(ctx context.Context, details *models.AgencyBusinessDetails) error {
	args := m.Called(ctx, details)
	return args.Error(0)
}

type MockArtistRepository struct {
	repository.ArtistRepository
	mock.Mock
}

func (m *MockArtistRepository) Get(ctx context.Context, agencyID, id uuid.UUID) (*models.Artist, error) {
	args := m.Called(ctx, agencyID, id)
	a, _ := args.Get(0).(*models.Artist)
	return a, args.Error(1)
}

type MockVenueRepository struct {
	repository.VenueRepository
	mock.Mock
}

func (m *MockVenueRepository) Get(ctx context.Context, agencyID, id uuid.UUID) (*models.Venue, error) {
	args := m.Called(ctx, agencyID, id)
	v, _ := args.Get(0).(*models.Venue)
	return v, args.Error(1)
}

type MockContactRepository struct {
	repository.ContactRepository
	mock.Mock
}

func (m *MockContactRepository) Get(ctx context.Context, agencyID, id uuid.UUID) (*models.Contact, error) {
	args := m.Called(ctx, agencyID, id)
	c, _ := args.Get(0).(*models.Contact)
	return c, args.Error(1)
}

func (m *MockContactRepository) Create(ctx context.Context, c *models.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContactRepository) EmailTaken(ctx context.Context, agencyID uuid.UUID, email string, exclude uuid.UUID) (bool, error) {
	args := m.Called(ctx, agencyID, email, exclude)
	return args.Bool(0), args.Error(1)
}

type MockResolver struct {
	repository.Resolver
	mock.Mock
}

func (m *MockResolver) Promoter(ctx context.Context, agencyID uuid.UUID, id models.PromoterID) (*models.Promoter, error) {
	args := m.Called(ctx, agencyID, id)
	p, _ := args.Get(0).(*models.Promoter)
	return p, args.Error(1)
}

func (m *MockResolver) Venue(ctx context.Context, agencyID uuid.UUID, id models.VenueID) (*models.Venue, error) {
	args := m.Called(ctx, agencyID, id)
	v, _ := args.Get(0).(*models.Venue)
	return v, args.Error(1)
}

func (m *MockResolver) Contact(ctx context.Context, agencyID uuid.UUID, id models.ContactID) (*models.Contact, error) {
	args := m.Called(ctx, agencyID, id)
	c, _ := args.Get(0).(*models.Contact)
	return c, args.Error(1)
}

func (m *MockResolver) Names(ctx context.Context, agencyID uuid.UUID, refs repository.NameRefs) (*repository.NameIndex, error) {
	args := m.Called(ctx, agencyID, refs)
	idx, _ := args.Get(0).(*repository.NameIndex)
	return idx, args.Error(1)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type MockIndex struct {
	search.Index
	mock.Mock
}

func (m *MockIndex) Enabled() bool { return true }

func (m *MockIndex) IndexBooking(ctx context.Context, doc search.BookingDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockIndex) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIndex) SearchBookings(ctx context.Context, agencyID uuid.UUID, text string, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, agencyID, text, limit)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func testDeps(repo repository.Repository, pub messaging.Publisher) (deps, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return deps{repo: repo, publisher: pub, log: log, now: func() time.Time { return testNow }}, hook
}

func memberOf(agencyID uuid.UUID) identity.Identity {
	profileID := uuid.New()
	return identity.Identity{
		UserID:        uuid.New(),
		ProfileID:     &profileID,
		AgencyID:      &agencyID,
		Role:          models.RoleAgent,
		ProfileActive: true,
		AgencySetUp:   true,
	}
}

func strPtr(s string) *string { return &s }
