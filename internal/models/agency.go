package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agency is the tenant root: every business record belongs to exactly one
type Agency struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	Owner        *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Country      string    `gorm:"size:2" json:"country"`
	Timezone     string    `gorm:"size:64;not null;default:UTC" json:"timezone"`
	Website      string    `gorm:"size:200" json:"website"`
	ContactEmail string    `gorm:"size:254" json:"contact_email"`
	PhoneNumber  string    `gorm:"size:20" json:"phone_number"`
	Logo         string    `gorm:"size:255" json:"logo"`
	Slug         string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	IsSetUp      bool      `gorm:"not null" json:"is_set_up"`

	BusinessDetails *AgencyBusinessDetails `gorm:"foreignKey:AgencyID;constraint:OnDelete:CASCADE" json:"business_details,omitempty"`
	Settings        *AgencySettings        `gorm:"foreignKey:AgencyID;constraint:OnDelete:CASCADE" json:"agency_settings,omitempty"`
	Users           []UserProfile          `gorm:"foreignKey:AgencyID" json:"users,omitempty"`
}

func (a *Agency) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// RefreshSetUp recomputes is_set_up from the business details
func (a *Agency) RefreshSetUp(details *AgencyBusinessDetails) {
	a.IsSetUp = details != nil && details.Complete()
}

// AgencyBusinessDetails holds the legal and billing identity of an agency
type AgencyBusinessDetails struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
	AgencyID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	CompanyName string    `gorm:"size:255" json:"company_name"`
	TaxNumber   string    `gorm:"size:50" json:"tax_number"`
	Address     string    `gorm:"size:255" json:"address"`
	Town        string    `gorm:"size:100" json:"town"`
	City        string    `gorm:"size:100" json:"city"`
	Country     string    `gorm:"size:2" json:"country"`
}

func (d *AgencyBusinessDetails) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

// Complete reports whether every business field is filled in
func (d *AgencyBusinessDetails) Complete() bool {
	for _, v := range []string{d.CompanyName, d.TaxNumber, d.Address, d.Town, d.City, d.Country} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// AgencySettings holds agency-wide preferences
type AgencySettings struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"-"`
	AgencyID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	Currency             string    `gorm:"size:3;not null" json:"currency"`
	Language             string    `gorm:"size:10;not null" json:"language"`
	NotificationsEnabled bool      `gorm:"not null" json:"notifications_enabled"`
}

// DefaultAgencySettings returns the settings a new agency starts with
func DefaultAgencySettings(agencyID uuid.UUID) *AgencySettings {
	return &AgencySettings{
		AgencyID:             agencyID,
		Currency:             "EUR",
		Language:             "en",
		NotificationsEnabled: true,
	}
}

func (s *AgencySettings) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
