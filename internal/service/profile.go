package service

import (
	"context"
	"strings"

	"example.com/backstage/bookings/internal/cache"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/validation"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	MsgProfileNotFound   = "Profile not found"
	MsgNoRegisteredUser  = "No registered user with this email."
	MsgUserHasProfile    = "This user already has an agency profile."
	MsgOwnerProfileFixed = "The agency owner's profile cannot be deleted or demoted."
)

// ProfileService manages the membership profiles of an agency
type ProfileService struct {
	deps
	profiles *cache.ProfileCache
}

// ProfileInput creates a profile for a registered user
type ProfileInput struct {
	Email    string      `json:"email" validate:"required,email"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=agency_manager agency_agent agency_assistant"`
	IsActive *bool       `json:"is_active"`
}

// ProfilePatch partially updates a profile
type ProfilePatch struct {
	Role     *models.Role `json:"role" validate:"omitempty,oneof=agency_owner agency_manager agency_agent agency_assistant"`
	IsActive *bool        `json:"is_active"`
}

// List returns the profiles of the caller's agency
func (s *ProfileService) List(ctx context.Context, id identity.Identity) ([]ProfileView, error) {
	views := []ProfileView{}
	agencyID, ok := id.Agency()
	if !ok {
		return views, nil
	}
	profiles, err := s.repo.Profiles().ListByAgency(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		views = append(views, newProfileView(&profiles[i]))
	}
	return views, nil
}

// Get returns one profile of the caller's agency
func (s *ProfileService) Get(ctx context.Context, id identity.Identity, profileID uuid.UUID) (*ProfileView, error) {
	profile, err := s.get(ctx, s.repo, id, profileID)
	if err != nil {
		return nil, err
	}
	view := newProfileView(profile)
	return &view, nil
}

// Create adds a registered user to the caller's agency
func (s *ProfileService) Create(ctx context.Context, id identity.Identity, in ProfileInput) (*ProfileView, error) {
	views, err := s.BulkCreate(ctx, id, []ProfileInput{in})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// BulkCreate adds several registered users to the caller's agency. Either
// every profile is created or none is.
func (s *ProfileService) BulkCreate(ctx context.Context, id identity.Identity, inputs []ProfileInput) ([]ProfileView, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, forbidden(identity.ErrNotOwner.Message)
	}
	if len(inputs) == 0 {
		return nil, badRequest("At least one profile is required.")
	}
	for _, in := range inputs {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
	}

	views := make([]ProfileView, 0, len(inputs))
	var userIDs []uuid.UUID
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		for _, in := range inputs {
			user, err := tx.Users().GetByEmail(ctx, strings.TrimSpace(in.Email))
			if errors.Is(err, repository.ErrNotFound) {
				return validation.Field("email", MsgNoRegisteredUser)
			}
			if err != nil {
				return errors.Wrap(err, "failed to look up user")
			}
			if _, err := tx.Profiles().GetByUserID(ctx, user.ID); err == nil {
				return validation.Field("email", MsgUserHasProfile)
			} else if !errors.Is(err, repository.ErrNotFound) {
				return errors.Wrap(err, "failed to check existing profile")
			}

			role := in.Role
			if role == "" {
				role = models.RoleAssistant
			}
			profile := &models.UserProfile{
				UserID:   user.ID,
				AgencyID: &agencyID,
				Role:     role,
				IsActive: valueOr(in.IsActive, true),
			}
			if err := tx.Profiles().Create(ctx, profile); err != nil {
				return onDuplicate(err, "email", MsgUserHasProfile)
			}
			profile.User = user
			views = append(views, newProfileView(profile))
			userIDs = append(userIDs, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateProfiles(ctx, s.profiles, s.log, userIDs...)
	return views, nil
}

// Update changes the role or active flag of a profile. The owner's own
// profile keeps its role and stays active.
func (s *ProfileService) Update(ctx context.Context, id identity.Identity, profileID uuid.UUID, in ProfilePatch) (*ProfileView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	profile, err := s.get(ctx, s.repo, id, profileID)
	if err != nil {
		return nil, err
	}
	if profile.UserID == id.UserID && id.IsOwner {
		if (in.Role != nil && *in.Role != models.RoleOwner) || (in.IsActive != nil && !*in.IsActive) {
			return nil, badRequest(MsgOwnerProfileFixed)
		}
	} else if in.Role != nil && *in.Role == models.RoleOwner {
		return nil, validation.Field("role", "Ownership cannot be assigned to a member profile.")
	}

	set(&profile.Role, in.Role)
	set(&profile.IsActive, in.IsActive)
	if err := s.repo.Profiles().Save(ctx, profile); err != nil {
		return nil, err
	}
	invalidateProfiles(ctx, s.profiles, s.log, profile.UserID)
	view := newProfileView(profile)
	return &view, nil
}

// Delete removes a member profile of the caller's agency
func (s *ProfileService) Delete(ctx context.Context, id identity.Identity, profileID uuid.UUID) error {
	profile, err := s.get(ctx, s.repo, id, profileID)
	if err != nil {
		return err
	}
	if profile.Role == models.RoleOwner && profile.UserID == id.UserID {
		return badRequest(MsgOwnerProfileFixed)
	}
	if err := s.repo.Profiles().Delete(ctx, *profile.AgencyID, profile.ID); err != nil {
		return fromRepo(err, "Profile")
	}
	invalidateProfiles(ctx, s.profiles, s.log, profile.UserID)
	return nil
}

func (s *ProfileService) get(ctx context.Context, repo repository.Repository, id identity.Identity, profileID uuid.UUID) (*models.UserProfile, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, notFound(MsgProfileNotFound)
	}
	profile, err := repo.Profiles().Get(ctx, agencyID, profileID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(MsgProfileNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load profile")
	}
	return profile, nil
}
