package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusBlock     BookingStatus = "block"
	StatusConfirmed BookingStatus = "confirmed"
	StatusHold      BookingStatus = "hold"
	StatusOff       BookingStatus = "off"
	StatusOption    BookingStatus = "option"
	StatusPending   BookingStatus = "pending"
	StatusPrivate   BookingStatus = "private"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// BookingStatuses lists every booking status
var BookingStatuses = []BookingStatus{
	StatusBlock, StatusConfirmed, StatusHold, StatusOff, StatusOption,
	StatusPending, StatusPrivate, StatusCancelled, StatusCompleted,
}

type ContractStatus string

const (
	ContractPending   ContractStatus = "pending"
	ContractSent      ContractStatus = "sent"
	ContractSigned    ContractStatus = "signed"
	ContractCancelled ContractStatus = "cancelled"
)

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

type ItineraryStatus string

const (
	ItineraryPending    ItineraryStatus = "pending"
	ItineraryInProgress ItineraryStatus = "in_progress"
	ItineraryCompleted  ItineraryStatus = "completed"
	ItineraryCancelled  ItineraryStatus = "cancelled"
)

type DealType string

const (
	DealLanded                DealType = "landed"
	DealAllIn                 DealType = "all_in"
	DealPlusPlusPlus          DealType = "plus_plus_plus"
	DealVersus                DealType = "versus"
	DealPercentage            DealType = "percentage"
	DealGuaranteeVsPercentage DealType = "guarantee_vs_percentage"
	DealDoorDeal              DealType = "door_deal"
	DealOther                 DealType = "other"
)

// DealTypes lists every deal type
var DealTypes = []DealType{
	DealLanded, DealAllIn, DealPlusPlusPlus, DealVersus,
	DealPercentage, DealGuaranteeVsPercentage, DealDoorDeal, DealOther,
}

// Invoice is the lifecycle of one invoice attached to a booking
type Invoice struct {
	Status   InvoiceStatus `gorm:"size:20;not null;default:pending"`
	SentDate *time.Time
	DueDate  *Date
	PaidDate *time.Time
}

// IsPaid reports whether the invoice is settled
func (i Invoice) IsPaid() bool {
	return i.Status == InvoicePaid
}

// Booking is a scheduled performance linking an artist, a promoter and a venue
type Booking struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey"`
	CreatedAt        time.Time     `gorm:"autoCreateTime"`
	UpdatedAt        time.Time     `gorm:"autoUpdateTime"`
	AgencyID         uuid.UUID     `gorm:"type:uuid;not null;index:idx_booking_agency_date;index:idx_booking_agency_status"`
	Agency           *Agency       `gorm:"foreignKey:AgencyID;constraint:OnDelete:CASCADE"`
	BookingReference string        `gorm:"size:50;not null;uniqueIndex"`
	BookingDate      time.Time     `gorm:"not null;index:idx_booking_agency_date"`
	Status           BookingStatus `gorm:"size:20;not null;default:option;index:idx_booking_agency_status"`

	LocationCity    string  `gorm:"size:100;not null"`
	LocationCountry string  `gorm:"size:2;not null"`
	VenueID         VenueID `gorm:"not null;index"`
	VenueCapacity   *int

	Currency             string              `gorm:"size:3;not null;default:USD"`
	DealType             DealType            `gorm:"size:30;not null;default:all_in"`
	GuaranteeAmount      decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	BonusAmount          decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	ExpensesAmount       decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	PercentageSplit      decimal.NullDecimal `gorm:"type:decimal(5,2)"`
	DoorPercentage       decimal.NullDecimal `gorm:"type:decimal(5,2)"`
	BookingFeePercentage decimal.NullDecimal `gorm:"type:decimal(5,2)"`
	BookingFeeAmount     decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`

	ArtistID          ArtistID   `gorm:"not null;index"`
	PromoterID        PromoterID `gorm:"not null;index"`
	PromoterContactID *ContactID
	BookingTypeID     *uuid.UUID   `gorm:"type:uuid;index"`
	BookingType       *BookingType `gorm:"foreignKey:BookingTypeID;constraint:OnDelete:SET NULL"`

	EventName            string  `gorm:"size:255"`
	ShowSchedule         string  `gorm:"type:text"`
	DoorsTime            *string `gorm:"size:8"`
	SoundcheckTime       *string `gorm:"size:8"`
	PerformanceStartTime *string `gorm:"size:8"`
	PerformanceEndTime   *string `gorm:"size:8"`

	ContractStatus     ContractStatus `gorm:"size:20;not null;default:pending"`
	ContractSentDate   *time.Time
	ContractSignedDate *time.Time

	ArtistFeeInvoice  Invoice `gorm:"embedded;embeddedPrefix:artist_fee_invoice_"`
	BookingFeeInvoice Invoice `gorm:"embedded;embeddedPrefix:booking_fee_invoice_"`

	ItineraryStatus ItineraryStatus `gorm:"size:20;not null;default:pending"`

	TechnicalRequirements   string `gorm:"type:text"`
	HospitalityRequirements string `gorm:"type:text"`
	TravelRequirements      string `gorm:"type:text"`
	Notes                   string `gorm:"type:text"`

	IsPrivate          bool   `gorm:"not null"`
	IsCancelled        bool   `gorm:"not null;index"`
	CancellationReason string `gorm:"type:text"`
	CancellationDate   *time.Time

	Audit
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	if b.BookingReference == "" {
		b.BookingReference = NewBookingReference(b.ID, time.Now())
	}
	return nil
}

// NewBookingReference builds the human reference BK-<year>-<first 6 id chars>
func NewBookingReference(id uuid.UUID, now time.Time) string {
	return fmt.Sprintf("BK-%d-%s", now.Year(), strings.ToUpper(id.String()[:6]))
}

// TotalArtistFee is guarantee plus bonus
func (b *Booking) TotalArtistFee() decimal.Decimal {
	return b.GuaranteeAmount.Add(b.BonusAmount)
}

// TotalBookingCost is the artist fee plus expenses plus the booking fee
func (b *Booking) TotalBookingCost() decimal.Decimal {
	return b.TotalArtistFee().Add(b.ExpensesAmount).Add(b.BookingFeeAmount)
}

// IsConfirmed reports whether the show is locked in
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed || b.Status == StatusCompleted
}

// DaysUntilEvent is the signed number of calendar days from today to the
// booking date; negative once the date has passed.
func (b *Booking) DaysUntilEvent(today time.Time) int {
	event := NewDate(b.BookingDate)
	return int(event.Sub(NewDate(today).Time).Hours() / 24)
}

// ContractIsComplete reports whether the contract has been signed
func (b *Booking) ContractIsComplete() bool {
	return b.ContractStatus == ContractSigned
}

// AllInvoicesPaid reports whether both invoices are settled
func (b *Booking) AllInvoicesPaid() bool {
	return b.ArtistFeeInvoice.IsPaid() && b.BookingFeeInvoice.IsPaid()
}

// IsOverdue reports whether either invoice is overdue
func (b *Booking) IsOverdue() bool {
	return b.ArtistFeeInvoice.Status == InvoiceOverdue || b.BookingFeeInvoice.Status == InvoiceOverdue
}

// CompletionPercentage is the share of the four milestones reached:
// confirmed, contract signed, artist paid, booking fee paid.
func (b *Booking) CompletionPercentage() float64 {
	done := 0
	for _, ok := range []bool{b.IsConfirmed(), b.ContractIsComplete(), b.ArtistFeeInvoice.IsPaid(), b.BookingFeeInvoice.IsPaid()} {
		if ok {
			done++
		}
	}
	return float64(done) / 4 * 100
}

// BookingType is an agency-defined category of booking
type BookingType struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	AgencyID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_booking_type_agency_name" json:"agency"`
	Agency      *Agency   `gorm:"foreignKey:AgencyID;constraint:OnDelete:CASCADE" json:"-"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_booking_type_agency_name" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
}

func (t *BookingType) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
