package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ContactType string

// ContactTypes lists contact types with their display labels
var ContactTypes = []Choice{
	{"manager", "Manager"},
	{"booking_agent", "Booking Agent"},
	{"owner", "Owner"},
	{"assistant", "Assistant"},
	{"venue_manager", "Venue Manager"},
	{"tech_contact", "Technical Contact"},
	{"production", "Production Manager"},
	{"security", "Security Manager"},
	{"catering_manager", "Catering Manager"},
	{"promoter_manager", "Promoter Manager"},
	{"event_coordinator", "Event Coordinator"},
	{"marketing", "Marketing Manager"},
	{"logistics", "Logistics Coordinator"},
	{"accountant", "Accountant"},
	{"lawyer", "Lawyer"},
	{"insurance_agent", "Insurance Agent"},
	{"bank_contact", "Bank Contact"},
	{"vendor", "Vendor/Supplier"},
	{"consultant", "Consultant"},
	{"other", "Other"},
}

const ContactTypeOther ContactType = "other"

type ReferenceType string

const (
	ReferencePromoter ReferenceType = "promoter"
	ReferenceVenue    ReferenceType = "venue"
	ReferenceAgency   ReferenceType = "agency"
)

// ReferenceTypes lists reference kinds with their display labels
var ReferenceTypes = []Choice{
	{string(ReferencePromoter), "Promoter Contact"},
	{string(ReferenceVenue), "Venue Contact"},
	{string(ReferenceAgency), "Agency Contact"},
}

// PreferredContactMethods lists accepted preferred_contact_method values
var PreferredContactMethods = []string{"email", "phone", "whatsapp", "text"}

// ContactReference is the entity a contact is attached to: the agency
// itself, one promoter or one venue.
type ContactReference interface {
	Type() ReferenceType
}

// AgencyReference attaches a contact to the agency itself
type AgencyReference struct{}

// PromoterReference attaches a contact to a promoter
type PromoterReference struct {
	PromoterID PromoterID
}

// VenueReference attaches a contact to a venue
type VenueReference struct {
	VenueID VenueID
}

func (AgencyReference) Type() ReferenceType   { return ReferenceAgency }
func (PromoterReference) Type() ReferenceType { return ReferencePromoter }
func (VenueReference) Type() ReferenceType    { return ReferenceVenue }

// ErrInvalidReference is returned when stored reference columns disagree
var ErrInvalidReference = errors.New("contact reference columns are inconsistent")

// Contact is a person the agency deals with
type Contact struct {
	ID                     uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt              time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt              time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	AgencyID               uuid.UUID      `gorm:"type:uuid;not null;index:idx_contact_agency_name;uniqueIndex:idx_contact_agency_email" json:"agency"`
	Agency                 *Agency        `gorm:"foreignKey:AgencyID;constraint:OnDelete:CASCADE" json:"-"`
	ContactName            string         `gorm:"size:255;not null;index:idx_contact_agency_name" json:"contact_name"`
	ContactEmail           string         `gorm:"size:254;not null;uniqueIndex:idx_contact_agency_email" json:"contact_email"`
	ContactPhone           string         `gorm:"size:50" json:"contact_phone"`
	ContactType            ContactType    `gorm:"size:30;not null;default:other;index" json:"contact_type"`
	JobTitle               string         `gorm:"size:100" json:"job_title"`
	Department             string         `gorm:"size:100" json:"department"`
	ReferenceType          ReferenceType  `gorm:"size:20;not null;index" json:"reference_type"`
	PromoterID             *PromoterID    `gorm:"index" json:"promoter_id"`
	VenueID                *VenueID       `gorm:"index" json:"venue_id"`
	PreferredContactMethod string         `gorm:"size:20;not null;default:email" json:"preferred_contact_method"`
	Address                string         `gorm:"type:text" json:"address"`
	City                   string         `gorm:"size:100" json:"city"`
	Country                string         `gorm:"size:2" json:"country"`
	Whatsapp               string         `gorm:"size:50" json:"whatsapp"`
	Linkedin               string         `gorm:"size:200" json:"linkedin"`
	IsPrimary              bool           `gorm:"not null;index" json:"is_primary"`
	IsEmergency            bool           `gorm:"not null" json:"is_emergency"`
	Notes                  string         `gorm:"type:text" json:"notes"`
	Tags                   pq.StringArray `gorm:"type:text[]" json:"tags"`
	Timezone               string         `gorm:"size:50" json:"timezone"`
	WorkingHours           string         `gorm:"size:100" json:"working_hours"`
	IsActive               bool           `gorm:"not null;index" json:"is_active"`
	Audit
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// SetReference stores ref in the discriminator and id columns
func (c *Contact) SetReference(ref ContactReference) {
	c.ReferenceType = ref.Type()
	c.PromoterID = nil
	c.VenueID = nil
	switch r := ref.(type) {
	case PromoterReference:
		id := r.PromoterID
		c.PromoterID = &id
	case VenueReference:
		id := r.VenueID
		c.VenueID = &id
	}
}

// Reference rebuilds the reference from the stored columns
func (c *Contact) Reference() (ContactReference, error) {
	switch c.ReferenceType {
	case ReferenceAgency:
		if c.PromoterID != nil || c.VenueID != nil {
			return nil, ErrInvalidReference
		}
		return AgencyReference{}, nil
	case ReferencePromoter:
		if c.PromoterID == nil || c.VenueID != nil {
			return nil, ErrInvalidReference
		}
		return PromoterReference{PromoterID: *c.PromoterID}, nil
	case ReferenceVenue:
		if c.VenueID == nil || c.PromoterID != nil {
			return nil, ErrInvalidReference
		}
		return VenueReference{VenueID: *c.VenueID}, nil
	}
	return nil, ErrInvalidReference
}

// FullContactInfo joins the available channels
func (c *Contact) FullContactInfo() string {
	var info []string
	if c.ContactEmail != "" {
		info = append(info, "Email: "+c.ContactEmail)
	}
	if c.ContactPhone != "" {
		info = append(info, "Phone: "+c.ContactPhone)
	}
	if c.Whatsapp != "" {
		info = append(info, "WhatsApp: "+c.Whatsapp)
	}
	return strings.Join(info, " | ")
}
