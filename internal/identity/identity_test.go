package identity

import (
	"context"
	"errors"
	"testing"

	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAgencies struct {
	mock.Mock
}

func (m *mockAgencies) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Agency, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agency), args.Error(1)
}

func (m *mockAgencies) GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agency), args.Error(1)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func TestResolve_OwnerTakesPrecedence(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	owned := &models.Agency{ID: uuid.New(), Slug: "owned", IsSetUp: true}
	profileAgency := uuid.New()

	agencies := new(mockAgencies)
	profiles := new(mockProfiles)
	profiles.On("GetByUserID", ctx, userID).
		Return(&models.UserProfile{ID: uuid.New(), AgencyID: &profileAgency, Role: models.RoleAgent, IsActive: false}, nil)
	agencies.On("GetByOwner", ctx, userID).Return(owned, nil)

	id, err := Resolve(ctx, agencies, profiles, userID)
	require.NoError(t, err)

	assert.True(t, id.IsOwner)
	assert.Equal(t, owned.ID, *id.AgencyID)
	assert.Equal(t, "owned", id.AgencySlug)
	assert.Equal(t, models.RoleOwner, id.Role)
	assert.NoError(t, id.RequireMember())
	assert.NoError(t, id.RequireOwner())
	assert.NoError(t, id.RequireManagerOrOwner())
	agencies.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestResolve_ProfilePath(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	agency := &models.Agency{ID: uuid.New(), Slug: "acme", IsSetUp: false}

	agencies := new(mockAgencies)
	profiles := new(mockProfiles)
	profiles.On("GetByUserID", ctx, userID).
		Return(&models.UserProfile{ID: uuid.New(), AgencyID: &agency.ID, Role: models.RoleManager, IsActive: true}, nil)
	agencies.On("GetByOwner", ctx, userID).Return(nil, repository.ErrNotFound)
	agencies.On("GetByID", ctx, agency.ID).Return(agency, nil)

	id, err := Resolve(ctx, agencies, profiles, userID)
	require.NoError(t, err)

	assert.False(t, id.IsOwner)
	assert.Equal(t, agency.ID, *id.AgencyID)
	assert.Equal(t, ErrAgencyNotSetUp, id.RequireMember())
	assert.Equal(t, ErrNotOwner, id.RequireOwner())
	assert.NoError(t, id.RequireManagerOrOwner())
	agencies.AssertExpectations(t)
	profiles.AssertExpectations(t)
}

func TestResolve_NoAgency(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	agencies := new(mockAgencies)
	profiles := new(mockProfiles)
	profiles.On("GetByUserID", ctx, userID).Return(nil, repository.ErrNotFound)
	agencies.On("GetByOwner", ctx, userID).Return(nil, repository.ErrNotFound)

	id, err := Resolve(ctx, agencies, profiles, userID)
	require.NoError(t, err)

	_, ok := id.Agency()
	assert.False(t, ok)
	assert.Equal(t, ErrProfileInactive, id.RequireMember())
}

func TestResolve_StorageFailure(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	agencies := new(mockAgencies)
	profiles := new(mockProfiles)
	profiles.On("GetByUserID", ctx, userID).Return(nil, errors.New("connection reset"))

	_, err := Resolve(ctx, agencies, profiles, userID)
	assert.Error(t, err)
}

func TestGuards(t *testing.T) {
	agencyID := uuid.New()

	tests := []struct {
		name       string
		identity   Identity
		member     error
		owner      error
		managerish error
	}{
		{
			name:       "inactive agent",
			identity:   Identity{AgencyID: &agencyID, Role: models.RoleAgent, AgencySetUp: true},
			member:     ErrProfileInactive,
			owner:      ErrNotOwner,
			managerish: ErrNotManager,
		},
		{
			name:       "active assistant",
			identity:   Identity{AgencyID: &agencyID, Role: models.RoleAssistant, ProfileActive: true, AgencySetUp: true},
			member:     nil,
			owner:      ErrNotOwner,
			managerish: ErrNotManager,
		},
		{
			name:       "active member without agency",
			identity:   Identity{Role: models.RoleManager, ProfileActive: true},
			member:     ErrNoAgency,
			owner:      ErrNotOwner,
			managerish: ErrNotManager,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.member, tt.identity.RequireMember())
			assert.Equal(t, tt.owner, tt.identity.RequireOwner())
			assert.Equal(t, tt.managerish, tt.identity.RequireManagerOrOwner())
		})
	}
}

