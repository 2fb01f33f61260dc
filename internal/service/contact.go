package service

import (
	"context"
	"time"

	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/validation"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	MsgContactNotFound     = "Contact not found"
	MsgContactEmailTaken   = "A contact with this email already exists in your agency."
	MsgNoProfileForContact = "You must have an agency profile to create contacts."
	unknownEntity          = "Unknown"
	dashboardContactTypes  = 5
)

// ContactService manages contacts and their polymorphic references
type ContactService struct {
	deps
}

// ContactInput creates or partially updates a contact. The reference is
// given as reference_type plus the matching promoter_id or venue_id.
type ContactInput struct {
	ContactName            *string             `json:"contact_name" validate:"omitempty,max=255"`
	ContactEmail           *string             `json:"contact_email" validate:"omitempty,email"`
	ContactPhone           *string             `json:"contact_phone" validate:"omitempty,max=50"`
	ContactType            *models.ContactType `json:"contact_type" validate:"omitempty,max=30"`
	JobTitle               *string             `json:"job_title" validate:"omitempty,max=100"`
	Department             *string             `json:"department" validate:"omitempty,max=100"`
	ReferenceType          *string             `json:"reference_type" validate:"omitempty,oneof=promoter venue agency"`
	PromoterID             *uuid.UUID          `json:"promoter_id"`
	VenueID                *uuid.UUID          `json:"venue_id"`
	PreferredContactMethod *string             `json:"preferred_contact_method" validate:"omitempty,oneof=email phone whatsapp text"`
	Address                *string             `json:"address"`
	City                   *string             `json:"city" validate:"omitempty,max=100"`
	Country                *string             `json:"country" validate:"omitempty,country2"`
	Whatsapp               *string             `json:"whatsapp" validate:"omitempty,max=50"`
	Linkedin               *string             `json:"linkedin" validate:"omitempty,url,max=200"`
	IsPrimary              *bool               `json:"is_primary"`
	IsEmergency            *bool               `json:"is_emergency"`
	Notes                  *string             `json:"notes"`
	Tags                   *[]string           `json:"tags"`
	Timezone               *string             `json:"timezone" validate:"omitempty,max=50"`
	WorkingHours           *string             `json:"working_hours" validate:"omitempty,max=100"`
	IsActive               *bool               `json:"is_active"`
}

func (in *ContactInput) apply(c *models.Contact) {
	set(&c.ContactName, in.ContactName)
	set(&c.ContactEmail, in.ContactEmail)
	set(&c.ContactPhone, in.ContactPhone)
	set(&c.ContactType, in.ContactType)
	set(&c.JobTitle, in.JobTitle)
	set(&c.Department, in.Department)
	set(&c.PreferredContactMethod, in.PreferredContactMethod)
	set(&c.Address, in.Address)
	set(&c.City, in.City)
	set(&c.Country, in.Country)
	set(&c.Whatsapp, in.Whatsapp)
	set(&c.Linkedin, in.Linkedin)
	set(&c.IsPrimary, in.IsPrimary)
	set(&c.IsEmergency, in.IsEmergency)
	set(&c.Notes, in.Notes)
	if in.Tags != nil {
		c.Tags = pq.StringArray(*in.Tags)
	}
	set(&c.Timezone, in.Timezone)
	set(&c.WorkingHours, in.WorkingHours)
	set(&c.IsActive, in.IsActive)
}

func (in *ContactInput) touchesReference() bool {
	return in.ReferenceType != nil || in.PromoterID != nil || in.VenueID != nil
}

// reference builds the contact reference from the input, falling back to
// the current one for parts left out
func (in *ContactInput) reference(current *models.Contact) (models.ContactReference, error) {
	refType := valueOr(in.ReferenceType, string(current.ReferenceType))
	promoterID, venueID := in.PromoterID, in.VenueID
	if in.ReferenceType == nil {
		if promoterID == nil && current.PromoterID != nil {
			promoterID = &current.PromoterID.UUID
		}
		if venueID == nil && current.VenueID != nil {
			venueID = &current.VenueID.UUID
		}
	}

	switch models.ReferenceType(refType) {
	case models.ReferencePromoter:
		if promoterID == nil {
			return nil, validation.Field("promoter_id", "Promoter ID is required for promoter contacts.")
		}
		if venueID != nil {
			return nil, validation.Field("venue_id", "Venue ID should be empty for promoter contacts.")
		}
		return models.PromoterReference{PromoterID: models.PromoterID{UUID: *promoterID}}, nil
	case models.ReferenceVenue:
		if venueID == nil {
			return nil, validation.Field("venue_id", "Venue ID is required for venue contacts.")
		}
		if promoterID != nil {
			return nil, validation.Field("promoter_id", "Promoter ID should be empty for venue contacts.")
		}
		return models.VenueReference{VenueID: models.VenueID{UUID: *venueID}}, nil
	case models.ReferenceAgency:
		if promoterID != nil || venueID != nil {
			return nil, validation.Field("reference_type", "Agency contacts should not have promoter or venue references.")
		}
		return models.AgencyReference{}, nil
	}
	return nil, validation.Field("reference_type", "This field is required.")
}

// ContactView is a contact with the display name of what it references
type ContactView struct {
	*models.Contact
	ReferenceDisplayName string `json:"reference_display_name"`
	FullContactInfo      string `json:"full_contact_info"`
}

// ContactSummary is the compact card of a contact
type ContactSummary struct {
	ID                    uuid.UUID `json:"id"`
	ContactName           string    `json:"contact_name"`
	ContactTypeDisplay    string    `json:"contact_type_display"`
	ReferenceTypeDisplay  string    `json:"reference_type_display"`
	ReferenceEntityName   string    `json:"reference_entity_name"`
	PrimaryContactMethod  string    `json:"primary_contact_method"`
	ContactInfo           string    `json:"contact_info"`
	IsPrimary             bool      `json:"is_primary"`
	IsEmergency           bool      `json:"is_emergency"`
	IsActive              bool      `json:"is_active"`
	HasAdditionalChannels bool      `json:"has_additional_channels"`
	CreatedAt             time.Time `json:"created_at"`
}

// CommunicationChannels counts contacts reachable beyond email and phone
type CommunicationChannels struct {
	HasWhatsapp int64 `json:"has_whatsapp"`
	HasLinkedin int64 `json:"has_linkedin"`
}

// ContactDashboard aggregates an agency's contacts
type ContactDashboard struct {
	TotalContacts         int64                 `json:"total_contacts"`
	ActiveContacts        int64                 `json:"active_contacts"`
	InactiveContacts      int64                 `json:"inactive_contacts"`
	ReferenceBreakdown    map[string]Breakdown  `json:"reference_breakdown"`
	TypeBreakdown         map[string]Breakdown  `json:"type_breakdown"`
	PrimaryContacts       int64                 `json:"primary_contacts"`
	EmergencyContacts     int64                 `json:"emergency_contacts"`
	CommunicationChannels CommunicationChannels `json:"communication_channels"`
	RecentAdditions       int64                 `json:"recent_additions"`
}

// List returns a page of the caller's contacts
func (s *ContactService) List(ctx context.Context, id identity.Identity, f repository.ContactFilter) (repository.Page[models.Contact], error) {
	agencyID, ok := id.Agency()
	if !ok {
		return emptyPage[models.Contact](f.ListOptions), nil
	}
	return s.repo.Contacts().List(ctx, agencyID, f)
}

// Active returns a page of the caller's active contacts
func (s *ContactService) Active(ctx context.Context, id identity.Identity, f repository.ContactFilter) (repository.Page[models.Contact], error) {
	active := true
	f.IsActive = &active
	return s.List(ctx, id, f)
}

// PromoterContacts returns a page of promoter contacts, optionally of one
// promoter
func (s *ContactService) PromoterContacts(ctx context.Context, id identity.Identity, promoterID *uuid.UUID, f repository.ContactFilter) (repository.Page[models.Contact], error) {
	f.ReferenceType = string(models.ReferencePromoter)
	f.PromoterID = promoterID
	return s.List(ctx, id, f)
}

// VenueContacts returns a page of venue contacts, optionally of one venue
func (s *ContactService) VenueContacts(ctx context.Context, id identity.Identity, venueID *uuid.UUID, f repository.ContactFilter) (repository.Page[models.Contact], error) {
	f.ReferenceType = string(models.ReferenceVenue)
	f.VenueID = venueID
	return s.List(ctx, id, f)
}

// AgencyContacts returns a page of contacts attached to the agency itself
func (s *ContactService) AgencyContacts(ctx context.Context, id identity.Identity, f repository.ContactFilter) (repository.Page[models.Contact], error) {
	f.ReferenceType = string(models.ReferenceAgency)
	return s.List(ctx, id, f)
}

// Primary returns every active primary contact
func (s *ContactService) Primary(ctx context.Context, id identity.Identity) ([]models.Contact, error) {
	yes := true
	return s.find(ctx, id, repository.ContactFilter{IsPrimary: &yes, IsActive: &yes})
}

// Emergency returns every active emergency contact
func (s *ContactService) Emergency(ctx context.Context, id identity.Identity) ([]models.Contact, error) {
	yes := true
	return s.find(ctx, id, repository.ContactFilter{IsEmergency: &yes, IsActive: &yes})
}

// Get returns one contact with its reference name
func (s *ContactService) Get(ctx context.Context, id identity.Identity, contactID uuid.UUID) (*ContactView, error) {
	c, err := s.get(ctx, s.repo, id, contactID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, s.repo, c)
}

// Create creates a contact after resolving its reference in the caller's
// agency
func (s *ContactService) Create(ctx context.Context, id identity.Identity, in ContactInput) (*ContactView, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, forbidden(MsgNoProfileForContact)
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	errs := validationErrors{}
	requireString(errs, "contact_name", in.ContactName)
	requireString(errs, "contact_email", in.ContactEmail)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	contact := &models.Contact{
		AgencyID:               agencyID,
		ContactType:            models.ContactTypeOther,
		PreferredContactMethod: "email",
		IsActive:               true,
		Tags:                   pq.StringArray{},
	}
	in.apply(contact)
	audit(&contact.Audit, id, true)

	var view *ContactView
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if err := s.bindReference(ctx, tx, contact, &in); err != nil {
			return err
		}
		if err := s.checkEmail(ctx, tx, contact); err != nil {
			return err
		}
		if err := s.checkPrimary(ctx, tx, contact); err != nil {
			return err
		}
		if err := tx.Contacts().Create(ctx, contact); err != nil {
			return onDuplicate(err, "contact_email", MsgContactEmailTaken)
		}
		var err error
		view, err = s.view(ctx, tx, contact)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Update partially updates a contact, re-resolving the reference when it
// changes
func (s *ContactService) Update(ctx context.Context, id identity.Identity, contactID uuid.UUID, in ContactInput) (*ContactView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	for field, v := range map[string]*string{"contact_name": in.ContactName, "contact_email": in.ContactEmail} {
		if v != nil && trimmed(v) == "" {
			return nil, validation.Field(field, "This field may not be blank.")
		}
	}

	var view *ContactView
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		contact, err := s.get(ctx, tx, id, contactID)
		if err != nil {
			return err
		}
		in.apply(contact)
		audit(&contact.Audit, id, false)
		if in.touchesReference() {
			if err := s.bindReference(ctx, tx, contact, &in); err != nil {
				return err
			}
		}
		if err := s.checkEmail(ctx, tx, contact); err != nil {
			return err
		}
		if err := s.checkPrimary(ctx, tx, contact); err != nil {
			return err
		}
		if err := tx.Contacts().Save(ctx, contact); err != nil {
			return onDuplicate(err, "contact_email", MsgContactEmailTaken)
		}
		view, err = s.view(ctx, tx, contact)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Delete removes a contact
func (s *ContactService) Delete(ctx context.Context, id identity.Identity, contactID uuid.UUID) error {
	agencyID, ok := id.Agency()
	if !ok {
		return notFound(MsgContactNotFound)
	}
	if err := s.repo.Contacts().Delete(ctx, agencyID, contactID); err != nil {
		return fromRepo(err, "Contact")
	}
	return nil
}

// Summary returns the compact card of a contact
func (s *ContactService) Summary(ctx context.Context, id identity.Identity, contactID uuid.UUID) (*ContactSummary, error) {
	c, err := s.get(ctx, s.repo, id, contactID)
	if err != nil {
		return nil, err
	}
	name, err := s.referenceName(ctx, s.repo, c)
	if err != nil {
		return nil, err
	}
	return &ContactSummary{
		ID:                    c.ID,
		ContactName:           c.ContactName,
		ContactTypeDisplay:    models.LabelFor(models.ContactTypes, string(c.ContactType)),
		ReferenceTypeDisplay:  models.LabelFor(models.ReferenceTypes, string(c.ReferenceType)),
		ReferenceEntityName:   name,
		PrimaryContactMethod:  c.PreferredContactMethod,
		ContactInfo:           c.FullContactInfo(),
		IsPrimary:             c.IsPrimary,
		IsEmergency:           c.IsEmergency,
		IsActive:              c.IsActive,
		HasAdditionalChannels: c.Whatsapp != "" || c.Linkedin != "",
		CreatedAt:             c.CreatedAt,
	}, nil
}

// ToggleStatus flips the active flag of a contact
func (s *ContactService) ToggleStatus(ctx context.Context, id identity.Identity, contactID uuid.UUID) (*ContactView, error) {
	c, err := s.get(ctx, s.repo, id, contactID)
	if err != nil {
		return nil, err
	}
	c.IsActive = !c.IsActive
	audit(&c.Audit, id, false)
	if err := s.repo.Contacts().Save(ctx, c); err != nil {
		return nil, err
	}
	return s.view(ctx, s.repo, c)
}

// SetPrimary makes the contact the only primary contact of what it
// references
func (s *ContactService) SetPrimary(ctx context.Context, id identity.Identity, contactID uuid.UUID) (*ContactView, error) {
	var view *ContactView
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		c, err := s.get(ctx, tx, id, contactID)
		if err != nil {
			return err
		}
		ref, err := c.Reference()
		if err != nil {
			return badRequest("Failed to set primary contact: " + err.Error())
		}
		if err := tx.Contacts().ClearPrimary(ctx, c.AgencyID, ref, c.ID); err != nil {
			return errors.Wrap(err, "failed to clear primary contacts")
		}
		c.IsPrimary = true
		audit(&c.Audit, id, false)
		if err := tx.Contacts().Save(ctx, c); err != nil {
			return err
		}
		view, err = s.view(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// BulkUpdateStatus sets the active flag on several contacts
func (s *ContactService) BulkUpdateStatus(ctx context.Context, id identity.Identity, in BulkStatusInput) (*BulkResult, error) {
	return bulkStatus(ctx, s.repo.Contacts(), id, in, "contact_ids", "contacts")
}

// ByType groups the caller's contacts by contact type
func (s *ContactService) ByType(ctx context.Context, id identity.Identity) (map[string]Group[models.Contact], error) {
	return s.group(ctx, id, models.ContactTypes, func(c *models.Contact) string { return string(c.ContactType) })
}

// ByReference groups the caller's contacts by reference type
func (s *ContactService) ByReference(ctx context.Context, id identity.Identity) (map[string]Group[models.Contact], error) {
	return s.group(ctx, id, models.ReferenceTypes, func(c *models.Contact) string { return string(c.ReferenceType) })
}

func (s *ContactService) group(ctx context.Context, id identity.Identity, choices []models.Choice, key func(*models.Contact) string) (map[string]Group[models.Contact], error) {
	all, err := s.find(ctx, id, repository.ContactFilter{})
	if err != nil {
		return nil, err
	}
	groups := make(map[string]Group[models.Contact], len(choices))
	for _, c := range choices {
		groups[c.Value] = Group[models.Contact]{Label: c.Label, Items: []models.Contact{}}
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

// DashboardStats summarises the caller's contacts
func (s *ContactService) DashboardStats(ctx context.Context, id identity.Identity) (*ContactDashboard, error) {
	out := &ContactDashboard{
		ReferenceBreakdown: breakdown(models.ReferenceTypes, nil),
		TypeBreakdown:      breakdown(models.ContactTypes[:dashboardContactTypes], nil),
	}
	agencyID, ok := id.Agency()
	if !ok {
		return out, nil
	}
	contacts := s.repo.Contacts()
	status, err := contacts.CountStatus(ctx, agencyID, s.now().Add(-recentWindow))
	if err != nil {
		return nil, err
	}
	refs, err := contacts.CountBy(ctx, agencyID, "reference_type")
	if err != nil {
		return nil, err
	}
	types, err := contacts.CountBy(ctx, agencyID, "contact_type")
	if err != nil {
		return nil, err
	}
	channels, err := contacts.CountChannels(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	out.TotalContacts = status.Total
	out.ActiveContacts = status.Active
	out.InactiveContacts = status.Total - status.Active
	out.ReferenceBreakdown = breakdown(models.ReferenceTypes, refs)
	out.TypeBreakdown = breakdown(models.ContactTypes[:dashboardContactTypes], types)
	out.PrimaryContacts = channels.Primary
	out.EmergencyContacts = channels.Emergency
	out.CommunicationChannels = CommunicationChannels{HasWhatsapp: channels.WithWhatsapp, HasLinkedin: channels.WithLinkedin}
	out.RecentAdditions = status.Recent
	return out, nil
}

// bindReference validates the reference union and checks the referenced
// promoter or venue belongs to the contact's agency
func (s *ContactService) bindReference(ctx context.Context, repo repository.Repository, c *models.Contact, in *ContactInput) error {
	ref, err := in.reference(c)
	if err != nil {
		return err
	}
	switch r := ref.(type) {
	case models.PromoterReference:
		p, err := repo.Resolver().Promoter(ctx, c.AgencyID, r.PromoterID)
		if err != nil {
			return errors.Wrap(err, "failed to resolve promoter")
		}
		if p == nil {
			return validation.Field("promoter_id", "The specified promoter does not exist or does not belong to your agency.")
		}
	case models.VenueReference:
		v, err := repo.Resolver().Venue(ctx, c.AgencyID, r.VenueID)
		if err != nil {
			return errors.Wrap(err, "failed to resolve venue")
		}
		if v == nil {
			return validation.Field("venue_id", "The specified venue does not exist or does not belong to your agency.")
		}
	}
	c.SetReference(ref)
	return nil
}

// checkPrimary rejects a second primary contact for the same referenced
// entity; set-primary is the way to move the flag
func (s *ContactService) checkPrimary(ctx context.Context, repo repository.Repository, c *models.Contact) error {
	if !c.IsPrimary {
		return nil
	}
	yes := true
	f := repository.ContactFilter{ReferenceType: string(c.ReferenceType), IsPrimary: &yes}
	if c.PromoterID != nil {
		f.PromoterID = &c.PromoterID.UUID
	}
	if c.VenueID != nil {
		f.VenueID = &c.VenueID.UUID
	}
	existing, err := repo.Contacts().Find(ctx, c.AgencyID, f)
	if err != nil {
		return errors.Wrap(err, "failed to check primary contact")
	}
	for _, other := range existing {
		if other.ID == c.ID {
			continue
		}
		entity := "this entity"
		switch c.ReferenceType {
		case models.ReferenceAgency:
			entity = "your agency"
		case models.ReferencePromoter:
			entity = "this promoter"
		case models.ReferenceVenue:
			entity = "this venue"
		}
		return validation.Field("is_primary", "There is already a primary contact for "+entity+". Please unset the existing primary contact first.")
	}
	return nil
}

func (s *ContactService) checkEmail(ctx context.Context, repo repository.Repository, c *models.Contact) error {
	taken, err := repo.Contacts().EmailTaken(ctx, c.AgencyID, c.ContactEmail, c.ID)
	if err != nil {
		return errors.Wrap(err, "failed to check contact email")
	}
	if taken {
		return validation.Field("contact_email", MsgContactEmailTaken)
	}
	return nil
}

// referenceName is the agency name, promoter company name or venue name
// the contact points at, or Unknown
func (s *ContactService) referenceName(ctx context.Context, repo repository.Repository, c *models.Contact) (string, error) {
	ref, err := c.Reference()
	if err != nil {
		return unknownEntity, nil
	}
	switch r := ref.(type) {
	case models.AgencyReference:
		agency, err := repo.Agencies().GetByID(ctx, c.AgencyID)
		if errors.Is(err, repository.ErrNotFound) {
			return unknownEntity, nil
		}
		if err != nil {
			return "", errors.Wrap(err, "failed to resolve agency")
		}
		return agency.Name, nil
	case models.PromoterReference:
		p, err := repo.Resolver().Promoter(ctx, c.AgencyID, r.PromoterID)
		if err != nil {
			return "", errors.Wrap(err, "failed to resolve promoter")
		}
		if p != nil {
			return p.CompanyName, nil
		}
	case models.VenueReference:
		v, err := repo.Resolver().Venue(ctx, c.AgencyID, r.VenueID)
		if err != nil {
			return "", errors.Wrap(err, "failed to resolve venue")
		}
		if v != nil {
			return v.VenueName, nil
		}
	}
	return unknownEntity, nil
}

func (s *ContactService) view(ctx context.Context, repo repository.Repository, c *models.Contact) (*ContactView, error) {
	name, err := s.referenceName(ctx, repo, c)
	if err != nil {
		return nil, err
	}
	return &ContactView{Contact: c, ReferenceDisplayName: name, FullContactInfo: c.FullContactInfo()}, nil
}

func (s *ContactService) find(ctx context.Context, id identity.Identity, f repository.ContactFilter) ([]models.Contact, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return []models.Contact{}, nil
	}
	return s.repo.Contacts().Find(ctx, agencyID, f)
}

func (s *ContactService) get(ctx context.Context, repo repository.Repository, id identity.Identity, contactID uuid.UUID) (*models.Contact, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, notFound(MsgContactNotFound)
	}
	c, err := repo.Contacts().Get(ctx, agencyID, contactID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(MsgContactNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load contact")
	}
	return c, nil
}
