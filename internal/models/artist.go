package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Audit records which profiles created and last updated a row. The ids are
// nulled when the profile is deleted.
type Audit struct {
	CreatedByID *uuid.UUID `gorm:"type:uuid;index" json:"created_by"`
	UpdatedByID *uuid.UUID `gorm:"type:uuid;index" json:"updated_by"`
}

type ArtistType string

const (
	ArtistTypeDJ        ArtistType = "DJ"
	ArtistTypeBand      ArtistType = "BAND"
	ArtistTypeMusician  ArtistType = "MUSICIAN"
	ArtistTypeProducer  ArtistType = "PRODUCER"
	ArtistTypePainter   ArtistType = "PAINTER"
	ArtistTypeOther     ArtistType = "OTHER"
	DefaultArtistColor             = "#3B82F6"
)

type ArtistStatus string

const (
	ArtistStatusActive   ArtistStatus = "active"
	ArtistStatusInactive ArtistStatus = "inactive"
)

// Artist is a performer represented by the agency
type Artist struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
	AgencyID        uuid.UUID    `gorm:"type:uuid;not null;index:idx_artist_agency_name;uniqueIndex:idx_artist_agency_email" json:"agency"`
	Agency          *Agency      `gorm:"foreignKey:AgencyID;constraint:OnDelete:CASCADE" json:"-"`
	ArtistName      string       `gorm:"size:255;not null;index:idx_artist_agency_name" json:"artist_name"`
	ArtistType      ArtistType   `gorm:"size:20;not null;default:OTHER" json:"artist_type"`
	Country         string       `gorm:"size:2" json:"country"`
	NumberOfMembers int          `gorm:"not null;default:1" json:"number_of_members"`
	Email           *string      `gorm:"size:254;uniqueIndex:idx_artist_agency_email" json:"email"`
	Phone           string       `gorm:"size:50" json:"phone"`
	Bio             string       `gorm:"type:text" json:"bio"`
	Color           string       `gorm:"size:7;not null" json:"color"`
	IsActive        bool         `gorm:"not null;index" json:"is_active"`
	Status          ArtistStatus `gorm:"size:10;not null;default:active" json:"status"`
	Audit

	SocialLinks *ArtistSocialLinks `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE" json:"social_links,omitempty"`
	Members     []ArtistMember     `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE" json:"members"`
	Notes       []ArtistNote       `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE" json:"notes"`
}

func (a *Artist) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	if a.Color == "" {
		a.Color = DefaultArtistColor
	}
	return nil
}

// IsOnboarded reports whether the artist has members and every member has
// completed the required onboarding fields. Members must be loaded.
func (a *Artist) IsOnboarded() bool {
	if len(a.Members) == 0 {
		return false
	}
	for i := range a.Members {
		if !a.Members[i].IsOnboarded() {
			return false
		}
	}
	return true
}

// OnboardedMembers counts members that passed the completeness check
func (a *Artist) OnboardedMembers() int {
	n := 0
	for i := range a.Members {
		if a.Members[i].IsOnboarded() {
			n++
		}
	}
	return n
}

// ArtistSocialLinks holds public profile urls of an artist
type ArtistSocialLinks struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"-"`
	ArtistID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	InstagramURL  string    `gorm:"size:200" json:"instagram_url"`
	SoundcloudURL string    `gorm:"size:200" json:"soundcloud_url"`
	YoutubeURL    string    `gorm:"size:200" json:"youtube_url"`
	BandcampURL   string    `gorm:"size:200" json:"bandcamp_url"`
}

func (l *ArtistSocialLinks) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentPaypal       PaymentMethod = "PAYPAL"
	PaymentCrypto       PaymentMethod = "CRYPTO"
	PaymentOther        PaymentMethod = "OTHER"
)

// ArtistMember is a person performing as part of an artist
type ArtistMember struct {
	ID                     uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt              time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	ArtistID               uuid.UUID           `gorm:"type:uuid;not null;index:idx_member_agency_artist" json:"-"`
	AgencyID               uuid.UUID           `gorm:"type:uuid;not null;index:idx_member_agency_artist" json:"-"`
	PassportName           string              `gorm:"size:255" json:"passport_name"`
	ResidentialAddress     string              `gorm:"size:500" json:"residential_address"`
	CountryOfResidence     string              `gorm:"size:2;index" json:"country_of_residence"`
	DOB                    *Date               `json:"dob"`
	PassportNumber         string              `gorm:"size:50;index" json:"passport_number"`
	PassportExpiry         *Date               `json:"passport_expiry"`
	ArtistFee              decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"artist_fee"`
	HasWithholding         bool                `gorm:"not null" json:"has_withholding"`
	WithholdingPercentage  *int                `json:"withholding_percentage"`
	PaymentMethod          PaymentMethod       `gorm:"size:20;not null;default:BANK_TRANSFER" json:"payment_method"`
	BankBeneficiary        string              `gorm:"size:255" json:"bank_beneficiary"`
	BankAccountNumber      string              `gorm:"size:50" json:"bank_account_number"`
	BankAddress            string              `gorm:"type:text" json:"bank_address"`
	BankSwiftCode          string              `gorm:"size:50" json:"bank_swift_code"`
	FlightAffiliateProgram string              `gorm:"size:100" json:"flight_affiliate_program"`
	CountryOfDeparture     string              `gorm:"size:2" json:"country_of_departure"`
}

func (m *ArtistMember) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// IsOnboarded reports whether every field needed to travel and pay the
// member is present.
func (m *ArtistMember) IsOnboarded() bool {
	for _, v := range []string{m.PassportName, m.ResidentialAddress, m.CountryOfResidence, m.PassportNumber, m.CountryOfDeparture} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return m.DOB != nil && m.PassportExpiry != nil && m.ArtistFee.Valid && !m.ArtistFee.Decimal.IsZero()
}

type NoteColor string

const (
	NoteYellow NoteColor = "yellow"
	NoteBlue   NoteColor = "blue"
	NoteGreen  NoteColor = "green"
	NotePink   NoteColor = "pink"
	NotePurple NoteColor = "purple"
)

// ArtistNote is a free-text note pinned to an artist
type ArtistNote struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	ArtistID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_note_agency_artist" json:"-"`
	AgencyID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_note_agency_artist" json:"-"`
	CreatedByID *uuid.UUID `gorm:"type:uuid;index" json:"created_by"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Color       NoteColor  `gorm:"size:10;not null;default:yellow" json:"color"`
}

func (n *ArtistNote) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
