package service

import (
	"context"
	"strconv"
	"time"

	"example.com/backstage/bookings/internal/cache"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/validation"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	MsgAgencyNotFound    = "Agency not found"
	MsgAlreadyOwnsAgency = "User already owns an agency."
	maxSlugAttempts      = 100
)

// AgencyService manages agencies, their business details and settings
type AgencyService struct {
	deps
	profiles *cache.ProfileCache
}

// ProfileView is a membership profile as shown to agency members
type ProfileView struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Email     *string     `json:"email"`
	Role      models.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func newProfileView(p *models.UserProfile) ProfileView {
	view := ProfileView{
		ID:        p.ID,
		UserID:    p.UserID,
		Role:      p.Role,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.User != nil {
		view.Email = p.User.Email
	}
	return view
}

// AgencyView is an agency with its owner email and members
type AgencyView struct {
	*models.Agency
	OwnerEmail *string       `json:"owner_email"`
	Users      []ProfileView `json:"users"`
}

// BusinessDetailsInput is a partial update of the business details
type BusinessDetailsInput struct {
	CompanyName *string `json:"company_name" validate:"omitempty,max=255"`
	TaxNumber   *string `json:"tax_number" validate:"omitempty,max=50"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	Town        *string `json:"town" validate:"omitempty,max=100"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	Country     *string `json:"country" validate:"omitempty,country2"`
}

func (in *BusinessDetailsInput) apply(d *models.AgencyBusinessDetails) {
	set(&d.CompanyName, in.CompanyName)
	set(&d.TaxNumber, in.TaxNumber)
	set(&d.Address, in.Address)
	set(&d.Town, in.Town)
	set(&d.City, in.City)
	set(&d.Country, in.Country)
}

// SettingsInput is a partial update of the agency settings
type SettingsInput struct {
	Currency             *string `json:"currency" validate:"omitempty,currency3"`
	Language             *string `json:"language" validate:"omitempty,max=10"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
}

func (in *SettingsInput) apply(s *models.AgencySettings) {
	set(&s.Currency, in.Currency)
	set(&s.Language, in.Language)
	set(&s.NotificationsEnabled, in.NotificationsEnabled)
}

// AgencyInput creates or partially updates an agency
type AgencyInput struct {
	Name            *string               `json:"name" validate:"omitempty,max=255"`
	Country         *string               `json:"country" validate:"omitempty,country2"`
	Timezone        *string               `json:"timezone" validate:"omitempty,max=64"`
	Website         *string               `json:"website" validate:"omitempty,url,max=200"`
	ContactEmail    *string               `json:"contact_email" validate:"omitempty,email"`
	PhoneNumber     *string               `json:"phone_number" validate:"omitempty,max=20"`
	Logo            *string               `json:"logo" validate:"omitempty,max=255"`
	BusinessDetails *BusinessDetailsInput `json:"business_details"`
	Settings        *SettingsInput        `json:"agency_settings"`
}

func (in *AgencyInput) apply(a *models.Agency) {
	set(&a.Name, in.Name)
	set(&a.Country, in.Country)
	set(&a.Timezone, in.Timezone)
	set(&a.Website, in.Website)
	set(&a.ContactEmail, in.ContactEmail)
	set(&a.PhoneNumber, in.PhoneNumber)
	set(&a.Logo, in.Logo)
}

// List returns the caller's agency as a list, empty when there is none
func (s *AgencyService) List(ctx context.Context, id identity.Identity) ([]AgencyView, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return []AgencyView{}, nil
	}
	agency, err := s.repo.Agencies().GetByID(ctx, agencyID)
	if errors.Is(err, repository.ErrNotFound) {
		return []AgencyView{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load agency")
	}
	view, err := s.view(ctx, s.repo, agency)
	if err != nil {
		return nil, err
	}
	return []AgencyView{*view}, nil
}

// Create creates an agency owned by the caller together with its business
// details, settings and owner profile. All of it is written or none.
func (s *AgencyService) Create(ctx context.Context, user *models.User, in AgencyInput) (*AgencyView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	errs := validationErrors{}
	requireString(errs, "name", in.Name)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var view *AgencyView
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.Agencies().GetByOwner(ctx, user.ID); err == nil {
			return badRequest(MsgAlreadyOwnsAgency)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return errors.Wrap(err, "failed to check agency ownership")
		}

		agency := &models.Agency{OwnerID: user.ID, Timezone: "UTC"}
		in.apply(agency)
		agencySlug, err := uniqueSlug(ctx, tx.Agencies(), agency.Name)
		if err != nil {
			return err
		}
		agency.Slug = agencySlug

		details := &models.AgencyBusinessDetails{}
		if in.BusinessDetails != nil {
			in.BusinessDetails.apply(details)
		}
		agency.RefreshSetUp(details)
		if err := tx.Agencies().Create(ctx, agency); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return badRequest(MsgAlreadyOwnsAgency)
			}
			return err
		}

		details.AgencyID = agency.ID
		if err := tx.Agencies().SaveBusinessDetails(ctx, details); err != nil {
			return err
		}
		settings := models.DefaultAgencySettings(agency.ID)
		if in.Settings != nil {
			in.Settings.apply(settings)
		}
		if err := tx.Agencies().SaveSettings(ctx, settings); err != nil {
			return err
		}
		if err := s.attachOwner(ctx, tx, user, agency.ID); err != nil {
			return err
		}

		agency.BusinessDetails = details
		agency.Settings = settings
		view, err = s.view(ctx, tx, agency)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"agency_id": view.ID, "slug": view.Slug}).Info("Agency created")
	invalidateProfiles(ctx, s.profiles, s.log, user.ID)
	return view, nil
}

// attachOwner gives the owner an active agency_owner profile in the agency
func (s *AgencyService) attachOwner(ctx context.Context, tx repository.Repository, user *models.User, agencyID uuid.UUID) error {
	profile, err := tx.Profiles().GetByUserID(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return tx.Profiles().Create(ctx, &models.UserProfile{
			UserID:   user.ID,
			AgencyID: &agencyID,
			Role:     models.RoleOwner,
			IsActive: true,
		})
	}
	if err != nil {
		return errors.Wrap(err, "failed to load owner profile")
	}
	profile.AgencyID = &agencyID
	profile.Role = models.RoleOwner
	profile.IsActive = true
	return tx.Profiles().Save(ctx, profile)
}

// Get returns the caller's agency by slug
func (s *AgencyService) Get(ctx context.Context, id identity.Identity, agencySlug string) (*AgencyView, error) {
	agency, err := s.find(ctx, id, agencySlug)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, s.repo, agency)
}

// Update partially updates the caller's agency and recomputes is_set_up
func (s *AgencyService) Update(ctx context.Context, id identity.Identity, agencySlug string, in AgencyInput) (*AgencyView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Name != nil && trimmed(in.Name) == "" {
		return nil, validation.Field("name", "This field may not be blank.")
	}
	agency, err := s.find(ctx, id, agencySlug)
	if err != nil {
		return nil, err
	}

	var view *AgencyView
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		in.apply(agency)
		details, err := getOrCreateDetails(ctx, tx, agency.ID)
		if err != nil {
			return err
		}
		if in.BusinessDetails != nil {
			in.BusinessDetails.apply(details)
			if err := tx.Agencies().SaveBusinessDetails(ctx, details); err != nil {
				return err
			}
		}
		settings, err := getOrCreateSettings(ctx, tx, agency.ID)
		if err != nil {
			return err
		}
		if in.Settings != nil {
			in.Settings.apply(settings)
			if err := tx.Agencies().SaveSettings(ctx, settings); err != nil {
				return err
			}
		}
		agency.RefreshSetUp(details)
		if err := tx.Agencies().Save(ctx, agency); err != nil {
			return err
		}
		agency.BusinessDetails = details
		agency.Settings = settings
		view, err = s.view(ctx, tx, agency)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateMembers(ctx, view)
	return view, nil
}

// BusinessDetails returns the business details, creating empty ones if missing
func (s *AgencyService) BusinessDetails(ctx context.Context, id identity.Identity, agencySlug string) (*models.AgencyBusinessDetails, error) {
	agency, err := s.find(ctx, id, agencySlug)
	if err != nil {
		return nil, err
	}
	return getOrCreateDetails(ctx, s.repo, agency.ID)
}

// UpdateBusinessDetails partially updates the business details and
// recomputes is_set_up
func (s *AgencyService) UpdateBusinessDetails(ctx context.Context, id identity.Identity, agencySlug string, in BusinessDetailsInput) (*models.AgencyBusinessDetails, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	agency, err := s.find(ctx, id, agencySlug)
	if err != nil {
		return nil, err
	}

	var details *models.AgencyBusinessDetails
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		if details, err = getOrCreateDetails(ctx, tx, agency.ID); err != nil {
			return err
		}
		in.apply(details)
		if err := tx.Agencies().SaveBusinessDetails(ctx, details); err != nil {
			return err
		}
		wasSetUp := agency.IsSetUp
		agency.RefreshSetUp(details)
		if agency.IsSetUp == wasSetUp {
			return nil
		}
		return tx.Agencies().Save(ctx, agency)
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// Settings returns the agency settings, creating defaults if missing
func (s *AgencyService) Settings(ctx context.Context, id identity.Identity, agencySlug string) (*models.AgencySettings, error) {
	agency, err := s.find(ctx, id, agencySlug)
	if err != nil {
		return nil, err
	}
	return getOrCreateSettings(ctx, s.repo, agency.ID)
}

// UpdateSettings partially updates the agency settings
func (s *AgencyService) UpdateSettings(ctx context.Context, id identity.Identity, agencySlug string, in SettingsInput) (*models.AgencySettings, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	agency, err := s.find(ctx, id, agencySlug)
	if err != nil {
		return nil, err
	}

	var settings *models.AgencySettings
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		if settings, err = getOrCreateSettings(ctx, tx, agency.ID); err != nil {
			return err
		}
		in.apply(settings)
		return tx.Agencies().SaveSettings(ctx, settings)
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// find loads the agency with slug only when it is the caller's own
func (s *AgencyService) find(ctx context.Context, id identity.Identity, agencySlug string) (*models.Agency, error) {
	if _, ok := id.Agency(); !ok || id.AgencySlug != agencySlug {
		return nil, notFound(MsgAgencyNotFound)
	}
	agency, err := s.repo.Agencies().GetBySlug(ctx, agencySlug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(MsgAgencyNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load agency")
	}
	return agency, nil
}

func (s *AgencyService) view(ctx context.Context, repo repository.Repository, agency *models.Agency) (*AgencyView, error) {
	view := &AgencyView{Agency: agency, Users: []ProfileView{}}

	owner, err := repo.Users().GetByID(ctx, agency.OwnerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, errors.Wrap(err, "failed to load agency owner")
	}
	if owner != nil {
		view.OwnerEmail = owner.Email
	}

	profiles, err := repo.Profiles().ListByAgency(ctx, agency.ID)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		view.Users = append(view.Users, newProfileView(&profiles[i]))
	}
	return view, nil
}

func (s *AgencyService) invalidateMembers(ctx context.Context, view *AgencyView) {
	ids := make([]uuid.UUID, 0, len(view.Users)+1)
	ids = append(ids, view.OwnerID)
	for _, u := range view.Users {
		ids = append(ids, u.UserID)
	}
	invalidateProfiles(ctx, s.profiles, s.log, ids...)
}

func getOrCreateDetails(ctx context.Context, repo repository.Repository, agencyID uuid.UUID) (*models.AgencyBusinessDetails, error) {
	details, err := repo.Agencies().GetBusinessDetails(ctx, agencyID)
	if err == nil {
		return details, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, errors.Wrap(err, "failed to load business details")
	}
	details = &models.AgencyBusinessDetails{AgencyID: agencyID}
	if err := repo.Agencies().SaveBusinessDetails(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

func getOrCreateSettings(ctx context.Context, repo repository.Repository, agencyID uuid.UUID) (*models.AgencySettings, error) {
	settings, err := repo.Agencies().GetSettings(ctx, agencyID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, errors.Wrap(err, "failed to load settings")
	}
	settings = models.DefaultAgencySettings(agencyID)
	if err := repo.Agencies().SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SlugChecker reports whether a slug is already taken
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// uniqueSlug slugifies name and appends -2, -3, ... until it is free
func uniqueSlug(ctx context.Context, agencies SlugChecker, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "agency"
	}
	candidate := base
	for n := 2; n <= maxSlugAttempts; n++ {
		taken, err := agencies.SlugExists(ctx, candidate)
		if err != nil {
			return "", errors.Wrap(err, "failed to check slug")
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
	return base + "-" + uuid.NewString()[:8], nil
}
