package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VenueType string

const (
	VenueClub       VenueType = "club"
	VenueFestival   VenueType = "festival"
	VenueTheater    VenueType = "theater"
	VenueArena      VenueType = "arena"
	VenueStadium    VenueType = "stadium"
	VenueBar        VenueType = "bar"
	VenuePrivate    VenueType = "private"
	VenueOutdoor    VenueType = "outdoor"
	VenueConference VenueType = "conference"
	VenueWarehouse  VenueType = "warehouse"
)

// VenueTypes lists venue types with their display labels
var VenueTypes = []Choice{
	{string(VenueClub), "Club"},
	{string(VenueFestival), "Festival"},
	{string(VenueTheater), "Theater"},
	{string(VenueArena), "Arena"},
	{string(VenueStadium), "Stadium"},
	{string(VenueBar), "Bar"},
	{string(VenuePrivate), "Private"},
	{string(VenueOutdoor), "Outdoor"},
	{string(VenueConference), "Conference Center"},
	{string(VenueWarehouse), "Warehouse"},
}

// Capacity categories
const (
	CapacitySmall   = "small"
	CapacityMedium  = "medium"
	CapacityLarge   = "large"
	CapacityMassive = "massive"
)

// CapacityCategories lists capacity buckets with their labels
var CapacityCategories = []Choice{
	{CapacitySmall, "Small (< 500)"},
	{CapacityMedium, "Medium (500-2000)"},
	{CapacityLarge, "Large (2000-10000)"},
	{CapacityMassive, "Massive (10000+)"},
}

// Venue is a place where bookings take place
type Venue struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	AgencyID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_venue_agency_name_city" json:"agency"`
	Agency          *Agency   `gorm:"foreignKey:AgencyID;constraint:OnDelete:CASCADE" json:"-"`
	VenueName       string    `gorm:"size:255;not null;uniqueIndex:idx_venue_agency_name_city" json:"venue_name"`
	VenueAddress    string    `gorm:"type:text;not null" json:"venue_address"`
	VenueCity       string    `gorm:"size:100;not null;uniqueIndex:idx_venue_agency_name_city" json:"venue_city"`
	VenueZipcode    string    `gorm:"size:20" json:"venue_zipcode"`
	VenueCountry    string    `gorm:"size:2;not null" json:"venue_country"`
	VenueType       VenueType `gorm:"size:20;not null;default:club;index" json:"venue_type"`
	Capacity        int       `gorm:"not null;index" json:"capacity"`
	TechSpecs       string    `gorm:"type:text" json:"tech_specs"`
	StageDimensions string    `gorm:"size:100" json:"stage_dimensions"`
	SoundSystem     string    `gorm:"size:255" json:"sound_system"`
	LightingSystem  string    `gorm:"size:255" json:"lighting_system"`
	HasParking      bool      `gorm:"not null" json:"has_parking"`
	HasCatering     bool      `gorm:"not null" json:"has_catering"`
	IsAccessible    bool      `gorm:"not null" json:"is_accessible"`
	ContactName     string    `gorm:"size:255" json:"contact_name"`
	ContactEmail    string    `gorm:"size:254" json:"contact_email"`
	ContactPhone    string    `gorm:"size:50" json:"contact_phone"`
	CompanyName     string    `gorm:"size:255" json:"company_name"`
	CompanyAddress  string    `gorm:"type:text" json:"company_address"`
	CompanyCity     string    `gorm:"size:100" json:"company_city"`
	CompanyZipcode  string    `gorm:"size:20" json:"company_zipcode"`
	CompanyCountry  string    `gorm:"size:2" json:"company_country"`
	Website         string    `gorm:"size:200" json:"website"`
	Notes           string    `gorm:"type:text" json:"notes"`
	IsActive        bool      `gorm:"not null;index" json:"is_active"`
	Audit
}

func (v *Venue) BeforeCreate(tx *gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// DisplayName is "Name - City"
func (v *Venue) DisplayName() string {
	return v.VenueName + " - " + v.VenueCity
}

// FullAddress joins the non-empty venue address parts
func (v *Venue) FullAddress() string {
	return joinNonEmpty(", ", v.VenueAddress, v.VenueCity, v.VenueZipcode, v.VenueCountry)
}

// CapacityCategory buckets the venue by capacity
func (v *Venue) CapacityCategory() string {
	return CapacityCategoryOf(v.Capacity)
}

// CapacityCategoryOf buckets a capacity value
func CapacityCategoryOf(capacity int) string {
	switch {
	case capacity < 500:
		return CapacitySmall
	case capacity < 2000:
		return CapacityMedium
	case capacity < 10000:
		return CapacityLarge
	default:
		return CapacityMassive
	}
}
