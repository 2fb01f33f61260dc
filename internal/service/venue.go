package service

import (
	"context"
	"strings"
	"time"

	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/validation"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	MsgVenueNotFound     = "Venue not found"
	MsgVenueNameTaken    = "A venue with this name already exists in this city within your agency."
	MsgNoProfileForVenue = "You must have an agency profile to create venues."
	maxVenueCapacity     = 1000000
)

// VenueService manages venues
type VenueService struct {
	deps
}

// VenueInput creates or partially updates a venue
type VenueInput struct {
	VenueName       *string           `json:"venue_name" validate:"omitempty,max=255"`
	VenueAddress    *string           `json:"venue_address"`
	VenueCity       *string           `json:"venue_city" validate:"omitempty,max=100"`
	VenueZipcode    *string           `json:"venue_zipcode" validate:"omitempty,max=20"`
	VenueCountry    *string           `json:"venue_country" validate:"omitempty,country2"`
	VenueType       *models.VenueType `json:"venue_type" validate:"omitempty,oneof=club festival theater arena stadium bar private outdoor conference warehouse"`
	Capacity        *int              `json:"capacity"`
	TechSpecs       *string           `json:"tech_specs"`
	StageDimensions *string           `json:"stage_dimensions" validate:"omitempty,max=100"`
	SoundSystem     *string           `json:"sound_system" validate:"omitempty,max=255"`
	LightingSystem  *string           `json:"lighting_system" validate:"omitempty,max=255"`
	HasParking      *bool             `json:"has_parking"`
	HasCatering     *bool             `json:"has_catering"`
	IsAccessible    *bool             `json:"is_accessible"`
	ContactName     *string           `json:"contact_name" validate:"omitempty,max=255"`
	ContactEmail    *string           `json:"contact_email" validate:"omitempty,email"`
	ContactPhone    *string           `json:"contact_phone" validate:"omitempty,max=50"`
	CompanyName     *string           `json:"company_name" validate:"omitempty,max=255"`
	CompanyAddress  *string           `json:"company_address"`
	CompanyCity     *string           `json:"company_city" validate:"omitempty,max=100"`
	CompanyZipcode  *string           `json:"company_zipcode" validate:"omitempty,max=20"`
	CompanyCountry  *string           `json:"company_country" validate:"omitempty,country2"`
	Website         *string           `json:"website" validate:"omitempty,url,max=200"`
	Notes           *string           `json:"notes"`
	IsActive        *bool             `json:"is_active"`
}

func (in *VenueInput) apply(v *models.Venue) {
	set(&v.VenueName, in.VenueName)
	set(&v.VenueAddress, in.VenueAddress)
	set(&v.VenueCity, in.VenueCity)
	set(&v.VenueZipcode, in.VenueZipcode)
	set(&v.VenueCountry, in.VenueCountry)
	set(&v.VenueType, in.VenueType)
	set(&v.Capacity, in.Capacity)
	set(&v.TechSpecs, in.TechSpecs)
	set(&v.StageDimensions, in.StageDimensions)
	set(&v.SoundSystem, in.SoundSystem)
	set(&v.LightingSystem, in.LightingSystem)
	set(&v.HasParking, in.HasParking)
	set(&v.HasCatering, in.HasCatering)
	set(&v.IsAccessible, in.IsAccessible)
	set(&v.ContactName, in.ContactName)
	set(&v.ContactEmail, in.ContactEmail)
	set(&v.ContactPhone, in.ContactPhone)
	set(&v.CompanyName, in.CompanyName)
	set(&v.CompanyAddress, in.CompanyAddress)
	set(&v.CompanyCity, in.CompanyCity)
	set(&v.CompanyZipcode, in.CompanyZipcode)
	set(&v.CompanyCountry, in.CompanyCountry)
	set(&v.Website, in.Website)
	set(&v.Notes, in.Notes)
	set(&v.IsActive, in.IsActive)
}

func (in *VenueInput) validate(create bool) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	errs := validationErrors{}
	if create {
		requireString(errs, "venue_name", in.VenueName)
		requireString(errs, "venue_address", in.VenueAddress)
		requireString(errs, "venue_city", in.VenueCity)
		requireString(errs, "venue_country", in.VenueCountry)
		if in.Capacity == nil {
			errs.Add("capacity", "This field is required.")
		}
	} else {
		for field, v := range map[string]*string{"venue_name": in.VenueName, "venue_address": in.VenueAddress, "venue_city": in.VenueCity} {
			if v != nil && strings.TrimSpace(*v) == "" {
				errs.Add(field, "This field may not be blank.")
			}
		}
	}
	if in.Capacity != nil {
		switch {
		case *in.Capacity <= 0:
			errs.Add("capacity", "Capacity must be greater than 0.")
		case *in.Capacity > maxVenueCapacity:
			errs.Add("capacity", "Capacity seems unreasonably high. Please verify.")
		}
	}
	return errs.Err()
}

// Features are the facility flags of a venue
type Features struct {
	HasParking   bool `json:"has_parking"`
	HasCatering  bool `json:"has_catering"`
	IsAccessible bool `json:"is_accessible"`
}

// TechnicalInfo tells which technical details a venue documents
type TechnicalInfo struct {
	HasTechSpecs       bool `json:"has_tech_specs"`
	HasStageDimensions bool `json:"has_stage_dimensions"`
	HasSoundSystem     bool `json:"has_sound_system"`
	HasLightingSystem  bool `json:"has_lighting_system"`
}

// VenueSummary is the compact card of a venue
type VenueSummary struct {
	ID               uuid.UUID      `json:"id"`
	DisplayName      string         `json:"display_name"`
	FullAddress      string         `json:"full_address"`
	CapacityCategory string         `json:"capacity_category"`
	Features         Features       `json:"features"`
	ContactMethods   ContactMethods `json:"contact_methods"`
	TechnicalInfo    TechnicalInfo  `json:"technical_info"`
	IsActive         bool           `json:"is_active"`
	VenueType        string         `json:"venue_type"`
	CreatedAt        time.Time      `json:"created_at"`
}

// VenueDashboard aggregates an agency's venues
type VenueDashboard struct {
	TotalVenues       int64                     `json:"total_venues"`
	ActiveVenues      int64                     `json:"active_venues"`
	InactiveVenues    int64                     `json:"inactive_venues"`
	TypeBreakdown     map[string]Breakdown      `json:"type_breakdown"`
	CapacityBreakdown repository.CapacityCounts `json:"capacity_breakdown"`
	FeaturesBreakdown repository.FeatureCounts  `json:"features_breakdown"`
	RecentAdditions   int64                     `json:"recent_additions"`
}

// List returns a page of the caller's venues
func (s *VenueService) List(ctx context.Context, id identity.Identity, f repository.VenueFilter) (repository.Page[models.Venue], error) {
	agencyID, ok := id.Agency()
	if !ok {
		return emptyPage[models.Venue](f.ListOptions), nil
	}
	return s.repo.Venues().List(ctx, agencyID, f)
}

// Active returns a page of the caller's active venues
func (s *VenueService) Active(ctx context.Context, id identity.Identity, f repository.VenueFilter) (repository.Page[models.Venue], error) {
	active := true
	f.IsActive = &active
	return s.List(ctx, id, f)
}

// Get returns one venue
func (s *VenueService) Get(ctx context.Context, id identity.Identity, venueID uuid.UUID) (*models.Venue, error) {
	return s.get(ctx, s.repo, id, venueID)
}

// Create creates a venue in the caller's agency
func (s *VenueService) Create(ctx context.Context, id identity.Identity, in VenueInput) (*models.Venue, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, forbidden(MsgNoProfileForVenue)
	}
	if err := in.validate(true); err != nil {
		return nil, err
	}

	venue := &models.Venue{AgencyID: agencyID, VenueType: models.VenueClub, IsActive: true}
	in.apply(venue)
	if err := checkVenueContact(venue); err != nil {
		return nil, err
	}
	audit(&venue.Audit, id, true)
	if err := s.checkNameCity(ctx, s.repo, venue); err != nil {
		return nil, err
	}
	if err := s.repo.Venues().Create(ctx, venue); err != nil {
		return nil, onDuplicate(err, "venue_name", MsgVenueNameTaken)
	}
	return venue, nil
}

// Update partially updates a venue
func (s *VenueService) Update(ctx context.Context, id identity.Identity, venueID uuid.UUID, in VenueInput) (*models.Venue, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}

	var venue *models.Venue
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		if venue, err = s.get(ctx, tx, id, venueID); err != nil {
			return err
		}
		in.apply(venue)
		if err := checkVenueContact(venue); err != nil {
			return err
		}
		audit(&venue.Audit, id, false)
		if err := s.checkNameCity(ctx, tx, venue); err != nil {
			return err
		}
		return onDuplicate(tx.Venues().Save(ctx, venue), "venue_name", MsgVenueNameTaken)
	})
	if err != nil {
		return nil, err
	}
	return venue, nil
}

// Delete removes a venue
func (s *VenueService) Delete(ctx context.Context, id identity.Identity, venueID uuid.UUID) error {
	agencyID, ok := id.Agency()
	if !ok {
		return notFound(MsgVenueNotFound)
	}
	if err := s.repo.Venues().Delete(ctx, agencyID, venueID); err != nil {
		return fromRepo(err, "Venue")
	}
	return nil
}

// Summary returns the compact card of a venue
func (s *VenueService) Summary(ctx context.Context, id identity.Identity, venueID uuid.UUID) (*VenueSummary, error) {
	v, err := s.get(ctx, s.repo, id, venueID)
	if err != nil {
		return nil, err
	}
	return &VenueSummary{
		ID:               v.ID,
		DisplayName:      v.DisplayName(),
		FullAddress:      v.FullAddress(),
		CapacityCategory: v.CapacityCategory(),
		Features:         Features{HasParking: v.HasParking, HasCatering: v.HasCatering, IsAccessible: v.IsAccessible},
		ContactMethods: ContactMethods{
			HasEmail:   v.ContactEmail != "",
			HasPhone:   v.ContactPhone != "",
			HasWebsite: v.Website != "",
		},
		TechnicalInfo: TechnicalInfo{
			HasTechSpecs:       v.TechSpecs != "",
			HasStageDimensions: v.StageDimensions != "",
			HasSoundSystem:     v.SoundSystem != "",
			HasLightingSystem:  v.LightingSystem != "",
		},
		IsActive:  v.IsActive,
		VenueType: models.LabelFor(models.VenueTypes, string(v.VenueType)),
		CreatedAt: v.CreatedAt,
	}, nil
}

// Duplicate copies a venue under a suffixed name with the contact email
// cleared
func (s *VenueService) Duplicate(ctx context.Context, id identity.Identity, venueID uuid.UUID, suffix *string) (*models.Venue, error) {
	src, err := s.get(ctx, s.repo, id, venueID)
	if err != nil {
		return nil, err
	}

	dup := *src
	dup.ID = uuid.Nil
	dup.VenueName = src.VenueName + valueOr(suffix, defaultCopySuffix)
	dup.ContactEmail = ""
	dup.IsActive = true
	dup.Notes = strings.TrimSpace("Duplicated from " + src.VenueName + ". " + src.Notes)
	dup.Audit = models.Audit{}
	audit(&dup.Audit, id, true)

	if err := s.repo.Venues().Create(ctx, &dup); err != nil {
		return nil, badRequest("Failed to duplicate venue: " + err.Error())
	}
	return &dup, nil
}

// ToggleStatus flips the active flag of a venue
func (s *VenueService) ToggleStatus(ctx context.Context, id identity.Identity, venueID uuid.UUID) (*models.Venue, error) {
	v, err := s.get(ctx, s.repo, id, venueID)
	if err != nil {
		return nil, err
	}
	v.IsActive = !v.IsActive
	audit(&v.Audit, id, false)
	if err := s.repo.Venues().Save(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// BulkUpdateStatus sets the active flag on several venues
func (s *VenueService) BulkUpdateStatus(ctx context.Context, id identity.Identity, in BulkStatusInput) (*BulkResult, error) {
	return bulkStatus(ctx, s.repo.Venues(), id, in, "venue_ids", "venues")
}

// ByType groups the caller's venues by type, listing every type
func (s *VenueService) ByType(ctx context.Context, id identity.Identity) (map[string]Group[models.Venue], error) {
	return s.group(ctx, id, models.VenueTypes, func(v *models.Venue) string { return string(v.VenueType) })
}

// ByCapacity groups the caller's venues by capacity category
func (s *VenueService) ByCapacity(ctx context.Context, id identity.Identity) (map[string]Group[models.Venue], error) {
	return s.group(ctx, id, models.CapacityCategories, (*models.Venue).CapacityCategory)
}

// ByCountry groups the caller's venues by country
func (s *VenueService) ByCountry(ctx context.Context, id identity.Identity) (map[string]Group[models.Venue], error) {
	all, err := s.all(ctx, id)
	if err != nil {
		return nil, err
	}
	groups := map[string]Group[models.Venue]{}
	for _, v := range all {
		key := v.VenueCountry
		if key == "" {
			key = unknownCountry
		}
		g := groups[key]
		g.Items = append(g.Items, v)
		g.Count++
		groups[key] = g
	}
	return groups, nil
}

func (s *VenueService) group(ctx context.Context, id identity.Identity, choices []models.Choice, key func(*models.Venue) string) (map[string]Group[models.Venue], error) {
	all, err := s.all(ctx, id)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]Group[models.Venue], len(choices))
	for _, c := range choices {
		groups[c.Value] = Group[models.Venue]{Label: c.Label, Items: []models.Venue{}}
	}
	for i := range all {
		k := key(&all[i])
		g, ok := groups[k]
		if !ok {
			continue
		}
		g.Items = append(g.Items, all[i])
		g.Count++
		groups[k] = g
	}
	return groups, nil
}

// DashboardStats summarises the caller's venues
func (s *VenueService) DashboardStats(ctx context.Context, id identity.Identity) (*VenueDashboard, error) {
	out := &VenueDashboard{TypeBreakdown: breakdown(models.VenueTypes, nil)}
	agencyID, ok := id.Agency()
	if !ok {
		return out, nil
	}
	venues := s.repo.Venues()
	status, err := venues.CountStatus(ctx, agencyID, s.now().Add(-recentWindow))
	if err != nil {
		return nil, err
	}
	types, err := venues.CountBy(ctx, agencyID, "venue_type")
	if err != nil {
		return nil, err
	}
	if out.CapacityBreakdown, err = venues.CountCapacity(ctx, agencyID); err != nil {
		return nil, err
	}
	if out.FeaturesBreakdown, err = venues.CountFeatures(ctx, agencyID); err != nil {
		return nil, err
	}
	out.TotalVenues = status.Total
	out.ActiveVenues = status.Active
	out.InactiveVenues = status.Total - status.Active
	out.TypeBreakdown = breakdown(models.VenueTypes, types)
	out.RecentAdditions = status.Recent
	return out, nil
}

func (s *VenueService) all(ctx context.Context, id identity.Identity) ([]models.Venue, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, nil
	}
	return s.repo.Venues().All(ctx, agencyID, false, "venue_name")
}

func (s *VenueService) get(ctx context.Context, repo repository.Repository, id identity.Identity, venueID uuid.UUID) (*models.Venue, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, notFound(MsgVenueNotFound)
	}
	v, err := repo.Venues().Get(ctx, agencyID, venueID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(MsgVenueNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load venue")
	}
	return v, nil
}

func (s *VenueService) checkNameCity(ctx context.Context, repo repository.Repository, v *models.Venue) error {
	taken, err := repo.Venues().NameCityTaken(ctx, v.AgencyID, v.VenueName, v.VenueCity, v.ID)
	if err != nil {
		return errors.Wrap(err, "failed to check venue name")
	}
	if taken {
		return validation.Field("venue_name", MsgVenueNameTaken)
	}
	return nil
}

func checkVenueContact(v *models.Venue) error {
	if strings.TrimSpace(v.ContactEmail) == "" && strings.TrimSpace(v.ContactPhone) == "" && strings.TrimSpace(v.Website) == "" {
		return validation.Field("non_field_errors", MsgNoContactMethod)
	}
	return nil
}
