package service

import (
	"context"
	"testing"

	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPromoterCreate(t *testing.T) {
	agencyID := uuid.New()

	tests := []struct {
		name      string
		in        PromoterInput
		taken     bool
		wantField string
		wantMsg   string
	}{
		{
			name:      "company name required",
			in:        PromoterInput{PromoterPhone: strPtr("+49 30 1234")},
			wantField: "company_name",
			wantMsg:   "This field is required.",
		},
		{
			name:      "no contact method",
			in:        PromoterInput{CompanyName: strPtr("Nightfall Events")},
			wantField: "non_field_errors",
			wantMsg:   MsgNoContactMethod,
		},
		{
			name:      "email taken",
			in:        PromoterInput{CompanyName: strPtr("Nightfall Events"), PromoterEmail: strPtr("hi@nightfall.example")},
			taken:     true,
			wantField: "promoter_email",
			wantMsg:   MsgPromoterEmailTaken,
		},
		{
			name: "phone is enough",
			in:   PromoterInput{CompanyName: strPtr("Nightfall Events"), PromoterPhone: strPtr("+49 30 1234")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			d, _ := testDeps(repo, &recordingPublisher{})
			svc := &PromoterService{deps: d}
			repo.promoters.On("EmailTaken", mock.Anything, agencyID, mock.Anything, uuid.Nil).Return(tt.taken, nil)
			repo.promoters.On("Create", mock.Anything, mock.AnythingOfType("*models.Promoter")).Return(nil)

			promoter, err := svc.Create(context.Background(), memberOf(agencyID), tt.in)

			if tt.wantField != "" {
				assert.Equal(t, []string{tt.wantMsg}, fieldErrors(t, err)[tt.wantField])
				repo.promoters.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, agencyID, promoter.AgencyID)
			assert.Equal(t, models.PromoterClub, promoter.PromoterType)
			assert.True(t, promoter.IsActive)
		})
	}
}

func TestPromoterBulkUpdateStatus(t *testing.T) {
	agencyID := uuid.New()
	repo := newMockRepository()
	d, _ := testDeps(repo, &recordingPublisher{})
	svc := &PromoterService{deps: d}

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	inactive := false
	repo.promoters.On("SetActive", mock.Anything, agencyID, ids, false).Return(int64(2), nil)

	res, err := svc.BulkUpdateStatus(context.Background(), memberOf(agencyID), BulkStatusInput{IDs: ids, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Updated 2 promoters", res.Message)
	assert.Equal(t, int64(2), res.UpdatedCount)

	_, err = svc.BulkUpdateStatus(context.Background(), memberOf(agencyID), BulkStatusInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadRequest))
	assert.Equal(t, "promoter_ids is required", err.Error())
}

func TestVenueInputValidate(t *testing.T) {
	capacity := func(n int) *int { return &n }
	full := func() VenueInput {
		return VenueInput{
			VenueName:    strPtr("Halle 7"),
			VenueAddress: strPtr("Am Speicher 7"),
			VenueCity:    strPtr("Berlin"),
			VenueCountry: strPtr("DE"),
			Capacity:     capacity(1200),
		}
	}

	tests := []struct {
		name      string
		in        func() VenueInput
		create    bool
		wantField string
		wantMsg   string
	}{
		{name: "valid create", in: full, create: true},
		{
			name:      "missing city on create",
			in:        func() VenueInput { in := full(); in.VenueCity = nil; return in },
			create:    true,
			wantField: "venue_city",
			wantMsg:   "This field is required.",
		},
		{
			name:      "zero capacity",
			in:        func() VenueInput { in := full(); in.Capacity = capacity(0); return in },
			create:    true,
			wantField: "capacity",
			wantMsg:   "Capacity must be greater than 0.",
		},
		{
			name:      "unreasonable capacity",
			in:        func() VenueInput { in := full(); in.Capacity = capacity(maxVenueCapacity + 1); return in },
			wantField: "capacity",
			wantMsg:   "Capacity seems unreasonably high. Please verify.",
		},
		{
			name:      "blank name on update",
			in:        func() VenueInput { return VenueInput{VenueName: strPtr("  ")} },
			wantField: "venue_name",
			wantMsg:   "This field may not be blank.",
		},
		{name: "empty update", in: func() VenueInput { return VenueInput{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in()
			err := in.validate(tt.create)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, []string{tt.wantMsg}, fieldErrors(t, err)[tt.wantField])
		})
	}
}

func TestBookingTypeCreate(t *testing.T) {
	agencyID := uuid.New()

	t.Run("creates", func(t *testing.T) {
		repo := newMockRepository()
		d, _ := testDeps(repo, &recordingPublisher{})
		svc := &BookingTypeService{deps: d}
		repo.bookingTypes.On("NameTaken", mock.Anything, agencyID, "Festival", uuid.Nil).Return(false, nil)
		repo.bookingTypes.On("Create", mock.Anything, mock.AnythingOfType("*models.BookingType")).Return(nil)

		bt, err := svc.Create(context.Background(), memberOf(agencyID), BookingTypeInput{Name: strPtr(" Festival ")})
		require.NoError(t, err)
		assert.Equal(t, "Festival", bt.Name)
		assert.True(t, bt.IsActive)
	})

	t.Run("duplicate name", func(t *testing.T) {
		repo := newMockRepository()
		d, _ := testDeps(repo, &recordingPublisher{})
		svc := &BookingTypeService{deps: d}
		repo.bookingTypes.On("NameTaken", mock.Anything, agencyID, "Festival", uuid.Nil).Return(true, nil)

		_, err := svc.Create(context.Background(), memberOf(agencyID), BookingTypeInput{Name: strPtr("Festival")})
		assert.Equal(t, []string{MsgBookingTypeNameTaken}, fieldErrors(t, err)["name"])
	})

	t.Run("no agency", func(t *testing.T) {
		d, _ := testDeps(newMockRepository(), &recordingPublisher{})
		svc := &BookingTypeService{deps: d}
		id := memberOf(agencyID)
		id.AgencyID = nil

		_, err := svc.Create(context.Background(), id, BookingTypeInput{Name: strPtr("Festival")})
		assert.True(t, errors.Is(err, ErrForbidden))
	})
}

func TestDetailScopedToCallerAgency(t *testing.T) {
	agencyID := uuid.New()
	foreignID := uuid.New()

	tests := []struct {
		name  string
		stub  func(repo *MockRepository)
		fetch func(d deps) error
	}{
		{
			name: "artist",
			stub: func(repo *MockRepository) {
				repo.artists.On("Get", mock.Anything, agencyID, foreignID).Return(nil, repository.ErrNotFound)
			},
			fetch: func(d deps) error {
				_, err := (&ArtistService{deps: d}).Get(context.Background(), memberOf(agencyID), foreignID)
				return err
			},
		},
		{
			name: "artist onboarding",
			stub: func(repo *MockRepository) {
				repo.artists.On("Get", mock.Anything, agencyID, foreignID).Return(nil, repository.ErrNotFound)
			},
			fetch: func(d deps) error {
				_, err := (&ArtistService{deps: d}).OnboardingStatus(context.Background(), memberOf(agencyID), foreignID)
				return err
			},
		},
		{
			name: "venue",
			stub: func(repo *MockRepository) {
				repo.venues.On("Get", mock.Anything, agencyID, foreignID).Return(nil, repository.ErrNotFound)
			},
			fetch: func(d deps) error {
				_, err := (&VenueService{deps: d}).Get(context.Background(), memberOf(agencyID), foreignID)
				return err
			},
		},
		{
			name: "contact",
			stub: func(repo *MockRepository) {
				repo.contacts.On("Get", mock.Anything, agencyID, foreignID).Return(nil, repository.ErrNotFound)
			},
			fetch: func(d deps) error {
				_, err := (&ContactService{deps: d}).Get(context.Background(), memberOf(agencyID), foreignID)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			d, _ := testDeps(repo, &recordingPublisher{})
			tt.stub(repo)

			err := tt.fetch(d)

			assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		})
	}

	t.Run("no agency", func(t *testing.T) {
		repo := newMockRepository()
		d, _ := testDeps(repo, &recordingPublisher{})
		id := memberOf(agencyID)
		id.AgencyID = nil

		_, err := (&VenueService{deps: d}).Get(context.Background(), id, foreignID)

		assert.True(t, errors.Is(err, ErrNotFound))
		repo.venues.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})
}
