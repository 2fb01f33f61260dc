package service

import (
	"context"

	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/validation"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	MsgBookingTypeNotFound  = "Booking type not found"
	MsgBookingTypeNameTaken = "A booking type with this name already exists for this agency."
)

// BookingTypeService manages the booking types of an agency
type BookingTypeService struct {
	deps
}

// BookingTypeInput creates or partially updates a booking type
type BookingTypeInput struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// List returns a page of the member's booking types ordered by name
func (s *BookingTypeService) List(ctx context.Context, id identity.Identity, f repository.BookingTypeFilter) (repository.Page[models.BookingType], error) {
	agencyID, ok := id.Agency()
	if !ok {
		return emptyPage[models.BookingType](f.ListOptions), nil
	}
	return s.repo.BookingTypes().List(ctx, agencyID, f)
}

// Get returns one booking type
func (s *BookingTypeService) Get(ctx context.Context, id identity.Identity, typeID uuid.UUID) (*models.BookingType, error) {
	return s.get(ctx, s.repo, id, typeID)
}

// Create adds a booking type to the member's agency
func (s *BookingTypeService) Create(ctx context.Context, id identity.Identity, in BookingTypeInput) (*models.BookingType, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, forbidden(identity.ErrNoAgency.Message)
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	errs := validationErrors{}
	requireString(errs, "name", in.Name)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	t := &models.BookingType{AgencyID: agencyID, IsActive: true}
	in.apply(t)
	if err := s.checkName(ctx, s.repo, t); err != nil {
		return nil, err
	}
	if err := s.repo.BookingTypes().Create(ctx, t); err != nil {
		return nil, onDuplicate(err, "name", MsgBookingTypeNameTaken)
	}
	return t, nil
}

// Update partially updates a booking type
func (s *BookingTypeService) Update(ctx context.Context, id identity.Identity, typeID uuid.UUID, in BookingTypeInput) (*models.BookingType, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Name != nil && trimmed(in.Name) == "" {
		return nil, validation.Field("name", "This field may not be blank.")
	}
	t, err := s.get(ctx, s.repo, id, typeID)
	if err != nil {
		return nil, err
	}
	in.apply(t)
	if err := s.checkName(ctx, s.repo, t); err != nil {
		return nil, err
	}
	if err := s.repo.BookingTypes().Save(ctx, t); err != nil {
		return nil, onDuplicate(err, "name", MsgBookingTypeNameTaken)
	}
	return t, nil
}

// Delete removes a booking type. Bookings using it keep their data and
// lose the type.
func (s *BookingTypeService) Delete(ctx context.Context, id identity.Identity, typeID uuid.UUID) error {
	agencyID, ok := id.Agency()
	if !ok {
		return notFound(MsgBookingTypeNotFound)
	}
	if err := s.repo.BookingTypes().Delete(ctx, agencyID, typeID); err != nil {
		return fromRepo(err, "Booking type")
	}
	return nil
}

func (in *BookingTypeInput) apply(t *models.BookingType) {
	if in.Name != nil {
		t.Name = trimmed(in.Name)
	}
	set(&t.Description, in.Description)
	set(&t.IsActive, in.IsActive)
}

func (s *BookingTypeService) checkName(ctx context.Context, repo repository.Repository, t *models.BookingType) error {
	taken, err := repo.BookingTypes().NameTaken(ctx, t.AgencyID, t.Name, t.ID)
	if err != nil {
		return errors.Wrap(err, "failed to check booking type name")
	}
	if taken {
		return validation.Field("name", MsgBookingTypeNameTaken)
	}
	return nil
}

func (s *BookingTypeService) get(ctx context.Context, repo repository.Repository, id identity.Identity, typeID uuid.UUID) (*models.BookingType, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, notFound(MsgBookingTypeNotFound)
	}
	t, err := repo.BookingTypes().Get(ctx, agencyID, typeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(MsgBookingTypeNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load booking type")
	}
	return t, nil
}
