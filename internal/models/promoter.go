package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PromoterType string

const (
	PromoterFestival  PromoterType = "festival"
	PromoterClub      PromoterType = "club"
	PromoterVenue     PromoterType = "venue"
	PromoterAgency    PromoterType = "agency"
	PromoterPrivate   PromoterType = "private"
	PromoterCorporate PromoterType = "corporate"
)

// PromoterTypes lists promoter types with their display labels, in display order
var PromoterTypes = []Choice{
	{string(PromoterFestival), "Festival"},
	{string(PromoterClub), "Club"},
	{string(PromoterVenue), "Venue"},
	{string(PromoterAgency), "Agency"},
	{string(PromoterPrivate), "Private"},
	{string(PromoterCorporate), "Corporate"},
}

// Promoter is an event organizer that books the agency's artists
type Promoter struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
	AgencyID       uuid.UUID    `gorm:"type:uuid;not null;index:idx_promoter_agency_name;uniqueIndex:idx_promoter_agency_email" json:"agency"`
	Agency         *Agency      `gorm:"foreignKey:AgencyID;constraint:OnDelete:CASCADE" json:"-"`
	PromoterName   string       `gorm:"size:255;index:idx_promoter_agency_name" json:"promoter_name"`
	PromoterEmail  *string      `gorm:"size:254;uniqueIndex:idx_promoter_agency_email" json:"promoter_email"`
	PromoterPhone  string       `gorm:"size:50" json:"promoter_phone"`
	CompanyName    string       `gorm:"size:255;not null" json:"company_name"`
	CompanyAddress string       `gorm:"type:text" json:"company_address"`
	CompanyCity    string       `gorm:"size:100" json:"company_city"`
	CompanyZipcode string       `gorm:"size:20" json:"company_zipcode"`
	CompanyCountry string       `gorm:"size:2" json:"company_country"`
	PromoterType   PromoterType `gorm:"size:20;not null;default:club;index" json:"promoter_type"`
	TaxID          string       `gorm:"size:50" json:"tax_id"`
	Website        string       `gorm:"size:200" json:"website"`
	Notes          string       `gorm:"type:text" json:"notes"`
	IsActive       bool         `gorm:"not null;index" json:"is_active"`
	Audit
}

func (p *Promoter) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// DisplayName is "Company - Person" when both are known
func (p *Promoter) DisplayName() string {
	if p.CompanyName != "" && p.PromoterName != "" {
		return p.CompanyName + " - " + p.PromoterName
	}
	if p.CompanyName != "" {
		return p.CompanyName
	}
	return p.PromoterName
}

// FullAddress joins the non-empty company address parts
func (p *Promoter) FullAddress() string {
	return joinNonEmpty(", ", p.CompanyAddress, p.CompanyCity, p.CompanyZipcode, p.CompanyCountry)
}

// Choice is a stored value and its human label
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// LabelFor returns the label of value within choices, or value itself
func LabelFor(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
