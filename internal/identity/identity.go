package identity

import (
	"context"

	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DeniedError is an authorization failure with a message meant for the caller
type DeniedError struct {
	Message string
}

func (e *DeniedError) Error() string {
	return e.Message
}

var (
	ErrProfileInactive = &DeniedError{Message: "Your agency profile is inactive."}
	ErrNoAgency        = &DeniedError{Message: "You are not associated with any agency."}
	ErrAgencyNotSetUp  = &DeniedError{Message: "Your agency setup is not complete."}
	ErrNotOwner        = &DeniedError{Message: "You must be the agency owner to perform this action."}
	ErrNotManager      = &DeniedError{Message: "You must be an agency owner or manager to perform this action."}
)

// Identity is who is calling and on behalf of which agency. It is resolved
// once per request.
type Identity struct {
	UserID        uuid.UUID
	ProfileID     *uuid.UUID
	AgencyID      *uuid.UUID
	AgencySlug    string
	Role          models.Role
	IsOwner       bool
	ProfileActive bool
	AgencySetUp   bool
}

// Agency returns the resolved agency id and whether there is one
func (i Identity) Agency() (uuid.UUID, bool) {
	if i.AgencyID == nil {
		return uuid.Nil, false
	}
	return *i.AgencyID, true
}

// RequireMember passes for active members of a set-up agency
func (i Identity) RequireMember() error {
	if !i.ProfileActive {
		return ErrProfileInactive
	}
	if i.AgencyID == nil {
		return ErrNoAgency
	}
	if !i.AgencySetUp {
		return ErrAgencyNotSetUp
	}
	return nil
}

// RequireOwner passes only for the owner of the resolved agency
func (i Identity) RequireOwner() error {
	if !i.IsOwner || i.AgencyID == nil {
		return ErrNotOwner
	}
	return nil
}

// RequireManagerOrOwner passes for owners and active managers
func (i Identity) RequireManagerOrOwner() error {
	if i.IsOwner && i.AgencyID != nil {
		return nil
	}
	if i.AgencyID == nil || !i.ProfileActive || i.Role != models.RoleManager {
		return ErrNotManager
	}
	return nil
}

// AgencyLookup finds the agency owned by a user
type AgencyLookup interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Agency, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error)
}

// ProfileLookup finds the membership profile of a user
type ProfileLookup interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
}

// Resolve builds the identity of user. Ownership of an agency takes
// precedence over a membership profile.
func Resolve(ctx context.Context, agencies AgencyLookup, profiles ProfileLookup, userID uuid.UUID) (Identity, error) {
	id := Identity{UserID: userID}

	profile, err := profiles.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return id, errors.Wrap(err, "failed to load profile")
	}
	if profile != nil {
		pid := profile.ID
		id.ProfileID = &pid
		id.Role = profile.Role
		id.ProfileActive = profile.IsActive
	}

	owned, err := agencies.GetByOwner(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return id, errors.Wrap(err, "failed to load owned agency")
	}
	if owned != nil {
		id.setAgency(owned)
		id.IsOwner = true
		id.Role = models.RoleOwner
		id.ProfileActive = true
		return id, nil
	}

	if profile == nil || profile.AgencyID == nil {
		return id, nil
	}
	agency, err := agencies.GetByID(ctx, *profile.AgencyID)
	if errors.Is(err, repository.ErrNotFound) {
		return id, nil
	}
	if err != nil {
		return id, errors.Wrap(err, "failed to load profile agency")
	}
	id.setAgency(agency)
	return id, nil
}

func (i *Identity) setAgency(a *models.Agency) {
	agencyID := a.ID
	i.AgencyID = &agencyID
	i.AgencySlug = a.Slug
	i.AgencySetUp = a.IsSetUp
}
