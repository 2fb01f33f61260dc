package service

import (
	"context"

	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/validation"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	MsgArtistNotFound     = "Artist not found"
	MsgMemberNotFound     = "Member not found"
	MsgNoteNotFound       = "Note not found"
	MsgArtistEmailTaken   = "An artist with this email already exists in your agency."
	MsgNoProfileForArtist = "You must have an agency profile to create artists."
	unknownAuthor         = "Unknown"
)

// ArtistService manages artists with their members, notes and social links
type ArtistService struct {
	deps
}

// MemberView is a member with its onboarding flag
type MemberView struct {
	models.ArtistMember
	IsOnboarded bool `json:"is_onboarded"`
}

func newMemberView(m *models.ArtistMember) MemberView {
	return MemberView{ArtistMember: *m, IsOnboarded: m.IsOnboarded()}
}

// NoteView is a note with its author's display name
type NoteView struct {
	models.ArtistNote
	CreatedByName string `json:"created_by_name"`
}

// ArtistView is an artist with computed onboarding state
type ArtistView struct {
	*models.Artist
	Members     []MemberView `json:"members"`
	Notes       []NoteView   `json:"notes"`
	IsOnboarded bool         `json:"is_onboarded"`
}

// OnboardingStatus summarises how far the artist's members are onboarded
type OnboardingStatus struct {
	IsOnboarded      bool `json:"is_onboarded"`
	TotalMembers     int  `json:"total_members"`
	OnboardedMembers int  `json:"onboarded_members"`
	MissingMembers   int  `json:"missing_members"`
}

// SocialLinksInput is a partial update of an artist's social links
type SocialLinksInput struct {
	InstagramURL  *string `json:"instagram_url" validate:"omitempty,url,max=200"`
	SoundcloudURL *string `json:"soundcloud_url" validate:"omitempty,url,max=200"`
	YoutubeURL    *string `json:"youtube_url" validate:"omitempty,url,max=200"`
	BandcampURL   *string `json:"bandcamp_url" validate:"omitempty,url,max=200"`
}

func (in *SocialLinksInput) apply(l *models.ArtistSocialLinks) {
	set(&l.InstagramURL, in.InstagramURL)
	set(&l.SoundcloudURL, in.SoundcloudURL)
	set(&l.YoutubeURL, in.YoutubeURL)
	set(&l.BandcampURL, in.BandcampURL)
}

// ArtistInput creates or partially updates an artist
type ArtistInput struct {
	ArtistName      *string              `json:"artist_name" validate:"omitempty,max=255"`
	ArtistType      *models.ArtistType   `json:"artist_type" validate:"omitempty,oneof=DJ BAND MUSICIAN PRODUCER PAINTER OTHER"`
	Country         *string              `json:"country" validate:"omitempty,country2"`
	NumberOfMembers *int                 `json:"number_of_members" validate:"omitempty,min=1"`
	Email           *string              `json:"email" validate:"omitempty,email"`
	Phone           *string              `json:"phone" validate:"omitempty,max=50"`
	Bio             *string              `json:"bio"`
	Color           *string              `json:"color" validate:"omitempty,hexcolor6"`
	IsActive        *bool                `json:"is_active"`
	Status          *models.ArtistStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	SocialLinks     *SocialLinksInput    `json:"social_links"`
}

// apply copies the set fields. A status change also drives is_active.
func (in *ArtistInput) apply(a *models.Artist) {
	set(&a.ArtistName, in.ArtistName)
	set(&a.ArtistType, in.ArtistType)
	set(&a.Country, in.Country)
	set(&a.NumberOfMembers, in.NumberOfMembers)
	if in.Email != nil {
		a.Email = optionalEmail(*in.Email)
	}
	set(&a.Phone, in.Phone)
	set(&a.Bio, in.Bio)
	set(&a.Color, in.Color)
	set(&a.IsActive, in.IsActive)
	if in.Status != nil {
		a.Status = *in.Status
		a.IsActive = a.Status == models.ArtistStatusActive
	}
}

// MemberInput creates or partially updates an artist member
type MemberInput struct {
	PassportName           *string               `json:"passport_name" validate:"omitempty,max=255"`
	ResidentialAddress     *string               `json:"residential_address" validate:"omitempty,max=500"`
	CountryOfResidence     *string               `json:"country_of_residence" validate:"omitempty,country2"`
	DOB                    *models.Date          `json:"dob"`
	PassportNumber         *string               `json:"passport_number" validate:"omitempty,max=50"`
	PassportExpiry         *models.Date          `json:"passport_expiry"`
	ArtistFee              *decimal.Decimal      `json:"artist_fee"`
	HasWithholding         *bool                 `json:"has_withholding"`
	WithholdingPercentage  *int                  `json:"withholding_percentage" validate:"omitempty,min=0,max=100"`
	PaymentMethod          *models.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=BANK_TRANSFER PAYPAL CRYPTO OTHER"`
	BankBeneficiary        *string               `json:"bank_beneficiary" validate:"omitempty,max=255"`
	BankAccountNumber      *string               `json:"bank_account_number" validate:"omitempty,max=50"`
	BankAddress            *string               `json:"bank_address"`
	BankSwiftCode          *string               `json:"bank_swift_code" validate:"omitempty,max=50"`
	FlightAffiliateProgram *string               `json:"flight_affiliate_program" validate:"omitempty,max=100"`
	CountryOfDeparture     *string               `json:"country_of_departure" validate:"omitempty,country2"`
}

func (in *MemberInput) apply(m *models.ArtistMember) {
	set(&m.PassportName, in.PassportName)
	set(&m.ResidentialAddress, in.ResidentialAddress)
	set(&m.CountryOfResidence, in.CountryOfResidence)
	if in.DOB.OrNil() != nil {
		m.DOB = in.DOB
	}
	set(&m.PassportNumber, in.PassportNumber)
	if in.PassportExpiry.OrNil() != nil {
		m.PassportExpiry = in.PassportExpiry
	}
	if in.ArtistFee != nil {
		m.ArtistFee = decimal.NewNullDecimal(*in.ArtistFee)
	}
	set(&m.HasWithholding, in.HasWithholding)
	if in.WithholdingPercentage != nil {
		m.WithholdingPercentage = in.WithholdingPercentage
	}
	set(&m.PaymentMethod, in.PaymentMethod)
	set(&m.BankBeneficiary, in.BankBeneficiary)
	set(&m.BankAccountNumber, in.BankAccountNumber)
	set(&m.BankAddress, in.BankAddress)
	set(&m.BankSwiftCode, in.BankSwiftCode)
	set(&m.FlightAffiliateProgram, in.FlightAffiliateProgram)
	set(&m.CountryOfDeparture, in.CountryOfDeparture)
}

func (in *MemberInput) validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.ArtistFee != nil && in.ArtistFee.IsNegative() {
		return validation.Field("artist_fee", "Ensure this value is greater than or equal to 0.")
	}
	return nil
}

// NoteInput creates or partially updates a note
type NoteInput struct {
	Content *string           `json:"content"`
	Color   *models.NoteColor `json:"color" validate:"omitempty,oneof=yellow blue green pink purple"`
}

// List returns a page of the caller's artists
func (s *ArtistService) List(ctx context.Context, id identity.Identity, f repository.ArtistFilter) (repository.Page[ArtistView], error) {
	agencyID, ok := id.Agency()
	if !ok {
		return emptyPage[ArtistView](f.ListOptions), nil
	}
	page, err := s.repo.Artists().List(ctx, agencyID, f)
	if err != nil {
		return repository.Page[ArtistView]{}, err
	}
	return mapPage(page, func(a *models.Artist) ArtistView { return newArtistView(a, nil) }), nil
}

// Get returns one artist with members, notes and social links
func (s *ArtistService) Get(ctx context.Context, id identity.Identity, artistID uuid.UUID) (*ArtistView, error) {
	artist, err := s.get(ctx, s.repo, id, artistID)
	if err != nil {
		return nil, err
	}
	authors, err := s.authors(ctx, s.repo, artist.Notes)
	if err != nil {
		return nil, err
	}
	view := newArtistView(artist, authors)
	return &view, nil
}

// Create creates an artist in the caller's agency with its social links
func (s *ArtistService) Create(ctx context.Context, id identity.Identity, in ArtistInput) (*ArtistView, error) {
	views, err := s.BulkCreate(ctx, id, []ArtistInput{in})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// BulkCreate creates several artists at once, all or none
func (s *ArtistService) BulkCreate(ctx context.Context, id identity.Identity, inputs []ArtistInput) ([]ArtistView, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, forbidden(MsgNoProfileForArtist)
	}
	for i := range inputs {
		if err := s.validateCreate(&inputs[i]); err != nil {
			return nil, err
		}
	}

	views := make([]ArtistView, 0, len(inputs))
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		for i := range inputs {
			in := &inputs[i]
			artist := &models.Artist{
				AgencyID:        agencyID,
				ArtistType:      models.ArtistTypeOther,
				NumberOfMembers: 1,
				Color:           models.DefaultArtistColor,
				Status:          models.ArtistStatusActive,
				IsActive:        true,
				SocialLinks:     &models.ArtistSocialLinks{},
			}
			in.apply(artist)
			if in.SocialLinks != nil {
				in.SocialLinks.apply(artist.SocialLinks)
			}
			audit(&artist.Audit, id, true)

			if err := s.checkEmail(ctx, tx, artist); err != nil {
				return err
			}
			if err := tx.Artists().Create(ctx, artist); err != nil {
				return onDuplicate(err, "email", MsgArtistEmailTaken)
			}
			views = append(views, newArtistView(artist, nil))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *ArtistService) validateCreate(in *ArtistInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	errs := validationErrors{}
	requireString(errs, "artist_name", in.ArtistName)
	return errs.Err()
}

// Update partially updates an artist
func (s *ArtistService) Update(ctx context.Context, id identity.Identity, artistID uuid.UUID, in ArtistInput) (*ArtistView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.ArtistName != nil && trimmed(in.ArtistName) == "" {
		return nil, validation.Field("artist_name", "This field may not be blank.")
	}

	var view ArtistView
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		artist, err := s.get(ctx, tx, id, artistID)
		if err != nil {
			return err
		}
		in.apply(artist)
		audit(&artist.Audit, id, false)
		if err := s.checkEmail(ctx, tx, artist); err != nil {
			return err
		}
		if err := tx.Artists().Save(ctx, artist); err != nil {
			return onDuplicate(err, "email", MsgArtistEmailTaken)
		}
		if in.SocialLinks != nil {
			if artist.SocialLinks, err = s.saveSocialLinks(ctx, tx, artist.ID, in.SocialLinks); err != nil {
				return err
			}
		}
		authors, err := s.authors(ctx, tx, artist.Notes)
		if err != nil {
			return err
		}
		view = newArtistView(artist, authors)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Delete removes an artist with its members, notes and social links
func (s *ArtistService) Delete(ctx context.Context, id identity.Identity, artistID uuid.UUID) error {
	agencyID, ok := id.Agency()
	if !ok {
		return notFound(MsgArtistNotFound)
	}
	if err := s.repo.Artists().Delete(ctx, agencyID, artistID); err != nil {
		return fromRepo(err, "Artist")
	}
	return nil
}

// SocialLinks returns the artist's social links, creating an empty row if
// it is missing
func (s *ArtistService) SocialLinks(ctx context.Context, id identity.Identity, artistID uuid.UUID) (*models.ArtistSocialLinks, error) {
	artist, err := s.get(ctx, s.repo, id, artistID)
	if err != nil {
		return nil, err
	}
	if artist.SocialLinks != nil {
		return artist.SocialLinks, nil
	}
	return s.saveSocialLinks(ctx, s.repo, artist.ID, &SocialLinksInput{})
}

// UpdateSocialLinks partially updates the artist's social links
func (s *ArtistService) UpdateSocialLinks(ctx context.Context, id identity.Identity, artistID uuid.UUID, in SocialLinksInput) (*models.ArtistSocialLinks, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	artist, err := s.get(ctx, s.repo, id, artistID)
	if err != nil {
		return nil, err
	}
	return s.saveSocialLinks(ctx, s.repo, artist.ID, &in)
}

func (s *ArtistService) saveSocialLinks(ctx context.Context, repo repository.Repository, artistID uuid.UUID, in *SocialLinksInput) (*models.ArtistSocialLinks, error) {
	links, err := repo.Artists().GetSocialLinks(ctx, artistID)
	if errors.Is(err, repository.ErrNotFound) {
		links = &models.ArtistSocialLinks{ArtistID: artistID}
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to load social links")
	}
	in.apply(links)
	if err := repo.Artists().SaveSocialLinks(ctx, links); err != nil {
		return nil, err
	}
	return links, nil
}

// OnboardingStatus reports how many members are onboarded
func (s *ArtistService) OnboardingStatus(ctx context.Context, id identity.Identity, artistID uuid.UUID) (*OnboardingStatus, error) {
	artist, err := s.get(ctx, s.repo, id, artistID)
	if err != nil {
		return nil, err
	}
	return &OnboardingStatus{
		IsOnboarded:      artist.IsOnboarded(),
		TotalMembers:     artist.NumberOfMembers,
		OnboardedMembers: artist.OnboardedMembers(),
		MissingMembers:   artist.NumberOfMembers - len(artist.Members),
	}, nil
}

// Members lists the members of an artist
func (s *ArtistService) Members(ctx context.Context, id identity.Identity, artistID uuid.UUID) ([]MemberView, error) {
	artist, err := s.get(ctx, s.repo, id, artistID)
	if err != nil {
		return nil, err
	}
	views := make([]MemberView, 0, len(artist.Members))
	for i := range artist.Members {
		views = append(views, newMemberView(&artist.Members[i]))
	}
	return views, nil
}

// Member returns one member of an artist
func (s *ArtistService) Member(ctx context.Context, id identity.Identity, artistID, memberID uuid.UUID) (*MemberView, error) {
	member, err := s.member(ctx, id, artistID, memberID)
	if err != nil {
		return nil, err
	}
	view := newMemberView(member)
	return &view, nil
}

// CreateMember adds a member to an artist. The member always belongs to
// the artist's agency.
func (s *ArtistService) CreateMember(ctx context.Context, id identity.Identity, artistID uuid.UUID, in MemberInput) (*MemberView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	artist, err := s.get(ctx, s.repo, id, artistID)
	if err != nil {
		return nil, err
	}
	member := &models.ArtistMember{
		ArtistID:      artist.ID,
		AgencyID:      artist.AgencyID,
		PaymentMethod: models.PaymentBankTransfer,
	}
	in.apply(member)
	if err := s.repo.Artists().SaveMember(ctx, member); err != nil {
		return nil, err
	}
	view := newMemberView(member)
	return &view, nil
}

// UpdateMember partially updates a member
func (s *ArtistService) UpdateMember(ctx context.Context, id identity.Identity, artistID, memberID uuid.UUID, in MemberInput) (*MemberView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	member, err := s.member(ctx, id, artistID, memberID)
	if err != nil {
		return nil, err
	}
	in.apply(member)
	if err := s.repo.Artists().SaveMember(ctx, member); err != nil {
		return nil, err
	}
	view := newMemberView(member)
	return &view, nil
}

// DeleteMember removes a member
func (s *ArtistService) DeleteMember(ctx context.Context, id identity.Identity, artistID, memberID uuid.UUID) error {
	agencyID, ok := id.Agency()
	if !ok {
		return notFound(MsgMemberNotFound)
	}
	if err := s.repo.Artists().DeleteMember(ctx, agencyID, artistID, memberID); err != nil {
		return fromRepo(err, "Member")
	}
	return nil
}

func (s *ArtistService) member(ctx context.Context, id identity.Identity, artistID, memberID uuid.UUID) (*models.ArtistMember, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, notFound(MsgMemberNotFound)
	}
	member, err := s.repo.Artists().GetMember(ctx, agencyID, artistID, memberID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(MsgMemberNotFound)
	}
	return member, errors.Wrap(err, "failed to load member")
}

// Notes lists the notes of an artist, newest first
func (s *ArtistService) Notes(ctx context.Context, id identity.Identity, artistID uuid.UUID) ([]NoteView, error) {
	artist, err := s.get(ctx, s.repo, id, artistID)
	if err != nil {
		return nil, err
	}
	authors, err := s.authors(ctx, s.repo, artist.Notes)
	if err != nil {
		return nil, err
	}
	return noteViews(artist.Notes, authors), nil
}

// Note returns one note of an artist
func (s *ArtistService) Note(ctx context.Context, id identity.Identity, artistID, noteID uuid.UUID) (*NoteView, error) {
	note, err := s.note(ctx, id, artistID, noteID)
	if err != nil {
		return nil, err
	}
	return s.noteView(ctx, note)
}

// CreateNote pins a note to an artist, recording its author
func (s *ArtistService) CreateNote(ctx context.Context, id identity.Identity, artistID uuid.UUID, in NoteInput) (*NoteView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	errs := validationErrors{}
	requireString(errs, "content", in.Content)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	artist, err := s.get(ctx, s.repo, id, artistID)
	if err != nil {
		return nil, err
	}
	note := &models.ArtistNote{
		ArtistID:    artist.ID,
		AgencyID:    artist.AgencyID,
		CreatedByID: id.ProfileID,
		Content:     *in.Content,
		Color:       valueOr(in.Color, models.NoteYellow),
	}
	if err := s.repo.Artists().SaveNote(ctx, note); err != nil {
		return nil, err
	}
	return s.noteView(ctx, note)
}

// UpdateNote partially updates a note
func (s *ArtistService) UpdateNote(ctx context.Context, id identity.Identity, artistID, noteID uuid.UUID, in NoteInput) (*NoteView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Content != nil && trimmed(in.Content) == "" {
		return nil, validation.Field("content", "This field may not be blank.")
	}
	note, err := s.note(ctx, id, artistID, noteID)
	if err != nil {
		return nil, err
	}
	set(&note.Content, in.Content)
	set(&note.Color, in.Color)
	if err := s.repo.Artists().SaveNote(ctx, note); err != nil {
		return nil, err
	}
	return s.noteView(ctx, note)
}

// DeleteNote removes a note
func (s *ArtistService) DeleteNote(ctx context.Context, id identity.Identity, artistID, noteID uuid.UUID) error {
	agencyID, ok := id.Agency()
	if !ok {
		return notFound(MsgNoteNotFound)
	}
	if err := s.repo.Artists().DeleteNote(ctx, agencyID, artistID, noteID); err != nil {
		return fromRepo(err, "Note")
	}
	return nil
}

func (s *ArtistService) note(ctx context.Context, id identity.Identity, artistID, noteID uuid.UUID) (*models.ArtistNote, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, notFound(MsgNoteNotFound)
	}
	note, err := s.repo.Artists().GetNote(ctx, agencyID, artistID, noteID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(MsgNoteNotFound)
	}
	return note, errors.Wrap(err, "failed to load note")
}

func (s *ArtistService) noteView(ctx context.Context, note *models.ArtistNote) (*NoteView, error) {
	authors, err := s.authors(ctx, s.repo, []models.ArtistNote{*note})
	if err != nil {
		return nil, err
	}
	return &noteViews([]models.ArtistNote{*note}, authors)[0], nil
}

func (s *ArtistService) get(ctx context.Context, repo repository.Repository, id identity.Identity, artistID uuid.UUID) (*models.Artist, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, notFound(MsgArtistNotFound)
	}
	artist, err := repo.Artists().Get(ctx, agencyID, artistID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(MsgArtistNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load artist")
	}
	return artist, nil
}

func (s *ArtistService) checkEmail(ctx context.Context, repo repository.Repository, artist *models.Artist) error {
	if artist.Email == nil {
		return nil
	}
	taken, err := repo.Artists().EmailTaken(ctx, artist.AgencyID, *artist.Email, artist.ID)
	if err != nil {
		return errors.Wrap(err, "failed to check artist email")
	}
	if taken {
		return validation.Field("email", MsgArtistEmailTaken)
	}
	return nil
}

// authors resolves the display names of the notes' creators
func (s *ArtistService) authors(ctx context.Context, repo repository.Repository, notes []models.ArtistNote) (map[uuid.UUID]string, error) {
	var ids []uuid.UUID
	for _, n := range notes {
		if n.CreatedByID != nil {
			ids = append(ids, *n.CreatedByID)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	return repo.Profiles().DisplayNames(ctx, ids)
}

func noteViews(notes []models.ArtistNote, authors map[uuid.UUID]string) []NoteView {
	views := make([]NoteView, 0, len(notes))
	for _, n := range notes {
		name := unknownAuthor
		if n.CreatedByID != nil {
			if known, ok := authors[*n.CreatedByID]; ok {
				name = known
			}
		}
		views = append(views, NoteView{ArtistNote: n, CreatedByName: name})
	}
	return views
}

func newArtistView(a *models.Artist, authors map[uuid.UUID]string) ArtistView {
	members := make([]MemberView, 0, len(a.Members))
	for i := range a.Members {
		members = append(members, newMemberView(&a.Members[i]))
	}
	return ArtistView{
		Artist:      a,
		Members:     members,
		Notes:       noteViews(a.Notes, authors),
		IsOnboarded: a.IsOnboarded(),
	}
}
