package booking

import (
	"sort"
	"time"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fallback names for references that no longer resolve
const (
	UnknownArtist   = "Unknown Artist"
	UnknownPromoter = "Unknown Promoter"
	UnknownVenue    = "Unknown Venue"
)

// Names carries the resolved display names of a booking's references. A nil
// field means the reference did not resolve.
type Names struct {
	Artist          *string
	Promoter        *string
	Venue           *string
	PromoterContact *string
	BookingType     *string
}

func orDefault(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// Money renders a decimal with two fraction digits
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func percent(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}

// ListItem is the summary row of a booking
type ListItem struct {
	ID                      uuid.UUID             `json:"id"`
	BookingReference        string                `json:"booking_reference"`
	BookingDate             time.Time             `json:"booking_date"`
	Status                  models.BookingStatus  `json:"status"`
	LocationCity            string                `json:"location_city"`
	LocationCountry         string                `json:"location_country"`
	ArtistID                models.ArtistID       `json:"artist_id"`
	ArtistName              string                `json:"artist_name"`
	PromoterID              models.PromoterID     `json:"promoter_id"`
	PromoterName            string                `json:"promoter_name"`
	VenueID                 models.VenueID        `json:"venue_id"`
	VenueName               string                `json:"venue_name"`
	EventName               string                `json:"event_name"`
	GuaranteeAmount         string                `json:"guarantee_amount"`
	BonusAmount             string                `json:"bonus_amount"`
	TotalArtistFee          string                `json:"total_artist_fee"`
	Currency                string                `json:"currency"`
	ContractStatus          models.ContractStatus `json:"contract_status"`
	ArtistFeeInvoiceStatus  models.InvoiceStatus  `json:"artist_fee_invoice_status"`
	BookingFeeInvoiceStatus models.InvoiceStatus  `json:"booking_fee_invoice_status"`
	IsCancelled             bool                  `json:"is_cancelled"`
	DaysUntilEvent          int                   `json:"days_until_event"`
	CompletionPercentage    float64               `json:"completion_percentage"`
	CreatedAt               time.Time             `json:"created_at"`
	UpdatedAt               time.Time             `json:"updated_at"`
}

// NewListItem projects a booking into its summary row
func NewListItem(b *models.Booking, names Names, now time.Time) ListItem {
	return ListItem{
		ID:                      b.ID,
		BookingReference:        b.BookingReference,
		BookingDate:             b.BookingDate,
		Status:                  b.Status,
		LocationCity:            b.LocationCity,
		LocationCountry:         b.LocationCountry,
		ArtistID:                b.ArtistID,
		ArtistName:              orDefault(names.Artist, UnknownArtist),
		PromoterID:              b.PromoterID,
		PromoterName:            orDefault(names.Promoter, UnknownPromoter),
		VenueID:                 b.VenueID,
		VenueName:               orDefault(names.Venue, UnknownVenue),
		EventName:               b.EventName,
		GuaranteeAmount:         Money(b.GuaranteeAmount),
		BonusAmount:             Money(b.BonusAmount),
		TotalArtistFee:          Money(b.TotalArtistFee()),
		Currency:                b.Currency,
		ContractStatus:          b.ContractStatus,
		ArtistFeeInvoiceStatus:  b.ArtistFeeInvoice.Status,
		BookingFeeInvoiceStatus: b.BookingFeeInvoice.Status,
		IsCancelled:             b.IsCancelled,
		DaysUntilEvent:          b.DaysUntilEvent(now),
		CompletionPercentage:    b.CompletionPercentage(),
		CreatedAt:               b.CreatedAt,
		UpdatedAt:               b.UpdatedAt,
	}
}

// Detail is the full representation of a booking with computed properties
type Detail struct {
	ID               uuid.UUID            `json:"id"`
	Agency           uuid.UUID            `json:"agency"`
	BookingReference string               `json:"booking_reference"`
	BookingDate      time.Time            `json:"booking_date"`
	Status           models.BookingStatus `json:"status"`
	LocationCity     string               `json:"location_city"`
	LocationCountry  string               `json:"location_country"`
	VenueID          models.VenueID       `json:"venue_id"`
	VenueCapacity    *int                 `json:"venue_capacity"`

	Currency             string          `json:"currency"`
	DealType             models.DealType `json:"deal_type"`
	GuaranteeAmount      string          `json:"guarantee_amount"`
	BonusAmount          string          `json:"bonus_amount"`
	ExpensesAmount       string          `json:"expenses_amount"`
	PercentageSplit      *string         `json:"percentage_split"`
	DoorPercentage       *string         `json:"door_percentage"`
	BookingFeePercentage *string         `json:"booking_fee_percentage"`
	BookingFeeAmount     string          `json:"booking_fee_amount"`

	ArtistID          models.ArtistID   `json:"artist_id"`
	PromoterID        models.PromoterID `json:"promoter_id"`
	PromoterContactID *models.ContactID `json:"promoter_contact_id"`
	BookingType       *uuid.UUID        `json:"booking_type"`

	EventName            string  `json:"event_name"`
	ShowSchedule         string  `json:"show_schedule"`
	DoorsTime            *string `json:"doors_time"`
	SoundcheckTime       *string `json:"soundcheck_time"`
	PerformanceStartTime *string `json:"performance_start_time"`
	PerformanceEndTime   *string `json:"performance_end_time"`

	ContractStatus     models.ContractStatus `json:"contract_status"`
	ContractSentDate   *time.Time            `json:"contract_sent_date"`
	ContractSignedDate *time.Time            `json:"contract_signed_date"`

	ArtistFeeInvoiceStatus    models.InvoiceStatus `json:"artist_fee_invoice_status"`
	ArtistFeeInvoiceSentDate  *time.Time           `json:"artist_fee_invoice_sent_date"`
	ArtistFeeInvoiceDueDate   *models.Date         `json:"artist_fee_invoice_due_date"`
	ArtistFeeInvoicePaidDate  *time.Time           `json:"artist_fee_invoice_paid_date"`
	BookingFeeInvoiceStatus   models.InvoiceStatus `json:"booking_fee_invoice_status"`
	BookingFeeInvoiceSentDate *time.Time           `json:"booking_fee_invoice_sent_date"`
	BookingFeeInvoiceDueDate  *models.Date         `json:"booking_fee_invoice_due_date"`
	BookingFeeInvoicePaidDate *time.Time           `json:"booking_fee_invoice_paid_date"`

	ItineraryStatus         models.ItineraryStatus `json:"itinerary_status"`
	TechnicalRequirements   string                 `json:"technical_requirements"`
	HospitalityRequirements string                 `json:"hospitality_requirements"`
	TravelRequirements      string                 `json:"travel_requirements"`
	Notes                   string                 `json:"notes"`

	IsPrivate          bool       `json:"is_private"`
	IsCancelled        bool       `json:"is_cancelled"`
	CancellationReason string     `json:"cancellation_reason"`
	CancellationDate   *time.Time `json:"cancellation_date"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	CreatedBy *uuid.UUID `json:"created_by"`
	UpdatedBy *uuid.UUID `json:"updated_by"`

	TotalArtistFee       string  `json:"total_artist_fee"`
	TotalBookingCost     string  `json:"total_booking_cost"`
	IsConfirmed          bool    `json:"is_confirmed"`
	DaysUntilEvent       int     `json:"days_until_event"`
	ContractIsComplete   bool    `json:"contract_is_complete"`
	AllInvoicesPaid      bool    `json:"all_invoices_paid"`
	IsOverdue            bool    `json:"is_overdue"`
	CompletionPercentage float64 `json:"completion_percentage"`

	ArtistName          *string `json:"artist_name"`
	PromoterName        *string `json:"promoter_name"`
	VenueName           *string `json:"venue_name"`
	PromoterContactName *string `json:"promoter_contact_name"`
	BookingTypeName     *string `json:"booking_type_name"`
}

// NewDetail projects a booking into its full representation
func NewDetail(b *models.Booking, names Names, now time.Time) Detail {
	return Detail{
		ID:                        b.ID,
		Agency:                    b.AgencyID,
		BookingReference:          b.BookingReference,
		BookingDate:               b.BookingDate,
		Status:                    b.Status,
		LocationCity:              b.LocationCity,
		LocationCountry:           b.LocationCountry,
		VenueID:                   b.VenueID,
		VenueCapacity:             b.VenueCapacity,
		Currency:                  b.Currency,
		DealType:                  b.DealType,
		GuaranteeAmount:           Money(b.GuaranteeAmount),
		BonusAmount:               Money(b.BonusAmount),
		ExpensesAmount:            Money(b.ExpensesAmount),
		PercentageSplit:           percent(b.PercentageSplit),
		DoorPercentage:            percent(b.DoorPercentage),
		BookingFeePercentage:      percent(b.BookingFeePercentage),
		BookingFeeAmount:          Money(b.BookingFeeAmount),
		ArtistID:                  b.ArtistID,
		PromoterID:                b.PromoterID,
		PromoterContactID:         b.PromoterContactID,
		BookingType:               b.BookingTypeID,
		EventName:                 b.EventName,
		ShowSchedule:              b.ShowSchedule,
		DoorsTime:                 b.DoorsTime,
		SoundcheckTime:            b.SoundcheckTime,
		PerformanceStartTime:      b.PerformanceStartTime,
		PerformanceEndTime:        b.PerformanceEndTime,
		ContractStatus:            b.ContractStatus,
		ContractSentDate:          b.ContractSentDate,
		ContractSignedDate:        b.ContractSignedDate,
		ArtistFeeInvoiceStatus:    b.ArtistFeeInvoice.Status,
		ArtistFeeInvoiceSentDate:  b.ArtistFeeInvoice.SentDate,
		ArtistFeeInvoiceDueDate:   b.ArtistFeeInvoice.DueDate,
		ArtistFeeInvoicePaidDate:  b.ArtistFeeInvoice.PaidDate,
		BookingFeeInvoiceStatus:   b.BookingFeeInvoice.Status,
		BookingFeeInvoiceSentDate: b.BookingFeeInvoice.SentDate,
		BookingFeeInvoiceDueDate:  b.BookingFeeInvoice.DueDate,
		BookingFeeInvoicePaidDate: b.BookingFeeInvoice.PaidDate,
		ItineraryStatus:           b.ItineraryStatus,
		TechnicalRequirements:     b.TechnicalRequirements,
		HospitalityRequirements:   b.HospitalityRequirements,
		TravelRequirements:        b.TravelRequirements,
		Notes:                     b.Notes,
		IsPrivate:                 b.IsPrivate,
		IsCancelled:               b.IsCancelled,
		CancellationReason:        b.CancellationReason,
		CancellationDate:          b.CancellationDate,
		CreatedAt:                 b.CreatedAt,
		UpdatedAt:                 b.UpdatedAt,
		CreatedBy:                 b.CreatedByID,
		UpdatedBy:                 b.UpdatedByID,
		TotalArtistFee:            Money(b.TotalArtistFee()),
		TotalBookingCost:          Money(b.TotalBookingCost()),
		IsConfirmed:               b.IsConfirmed(),
		DaysUntilEvent:            b.DaysUntilEvent(now),
		ContractIsComplete:        b.ContractIsComplete(),
		AllInvoicesPaid:           b.AllInvoicesPaid(),
		IsOverdue:                 b.IsOverdue(),
		CompletionPercentage:      b.CompletionPercentage(),
		ArtistName:                names.Artist,
		PromoterName:              names.Promoter,
		VenueName:                 names.Venue,
		PromoterContactName:       names.PromoterContact,
		BookingTypeName:           names.BookingType,
	}
}

// Enriched is the detail-page representation with grouped sub-structures
type Enriched struct {
	ID                    uuid.UUID            `json:"id"`
	BookingReference      string               `json:"booking_reference"`
	Status                models.BookingStatus `json:"status"`
	BookingDate           time.Time            `json:"booking_date"`
	ArtistID              models.ArtistID      `json:"artist_id"`
	ArtistName            string               `json:"artist_name"`
	PromoterID            models.PromoterID    `json:"promoter_id"`
	PromoterName          string               `json:"promoter_name"`
	PromoterContactID     *models.ContactID    `json:"promoter_contact_id"`
	PromoterContactName   *string              `json:"promoter_contact_name"`
	VenueID               models.VenueID       `json:"venue_id"`
	VenueName             string               `json:"venue_name"`
	BookingType           *uuid.UUID           `json:"booking_type"`
	BookingTypeName       *string              `json:"booking_type_name"`
	Location              Location             `json:"location"`
	FinancialBreakdown    FinancialBreakdown   `json:"financial_breakdown"`
	EventSchedule         EventSchedule        `json:"event_schedule"`
	ContractStatusSummary ContractSummary      `json:"contract_status_summary"`
	Requirements          Requirements         `json:"requirements"`
	Progress              Progress             `json:"progress"`
	EventName             string               `json:"event_name"`
	Notes                 string               `json:"notes"`
	IsPrivate             bool                 `json:"is_private"`
	IsCancelled           bool                 `json:"is_cancelled"`
	CancellationReason    string               `json:"cancellation_reason"`
	CancellationDate      *time.Time           `json:"cancellation_date"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
	CreatedBy             *uuid.UUID           `json:"created_by"`
	UpdatedBy             *uuid.UUID           `json:"updated_by"`
}

type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type FinancialBreakdown struct {
	GuaranteeAmount      string          `json:"guarantee_amount"`
	BonusAmount          string          `json:"bonus_amount"`
	ExpensesAmount       string          `json:"expenses_amount"`
	BookingFeePercentage *string         `json:"booking_fee_percentage"`
	BookingFeeAmount     string          `json:"booking_fee_amount"`
	TotalArtistFee       string          `json:"total_artist_fee"`
	TotalBookingCost     string          `json:"total_booking_cost"`
	Currency             string          `json:"currency"`
	DealType             models.DealType `json:"deal_type"`
	PercentageSplit      *string         `json:"percentage_split"`
	DoorPercentage       *string         `json:"door_percentage"`
}

type EventSchedule struct {
	DoorsTime            *string `json:"doors_time"`
	SoundcheckTime       *string `json:"soundcheck_time"`
	PerformanceStartTime *string `json:"performance_start_time"`
	PerformanceEndTime   *string `json:"performance_end_time"`
	ShowSchedule         string  `json:"show_schedule"`
}

type ContractSummary struct {
	ContractStatus            models.ContractStatus `json:"contract_status"`
	ContractSentDate          *time.Time            `json:"contract_sent_date"`
	ContractSignedDate        *time.Time            `json:"contract_signed_date"`
	ArtistFeeInvoiceStatus    models.InvoiceStatus  `json:"artist_fee_invoice_status"`
	ArtistFeeInvoiceSentDate  *time.Time            `json:"artist_fee_invoice_sent_date"`
	ArtistFeeInvoiceDueDate   *models.Date          `json:"artist_fee_invoice_due_date"`
	ArtistFeeInvoicePaidDate  *time.Time            `json:"artist_fee_invoice_paid_date"`
	BookingFeeInvoiceStatus   models.InvoiceStatus  `json:"booking_fee_invoice_status"`
	BookingFeeInvoiceSentDate *time.Time            `json:"booking_fee_invoice_sent_date"`
	BookingFeeInvoiceDueDate  *models.Date          `json:"booking_fee_invoice_due_date"`
	BookingFeeInvoicePaidDate *time.Time            `json:"booking_fee_invoice_paid_date"`
}

type Requirements struct {
	TechnicalRequirements   string `json:"technical_requirements"`
	HospitalityRequirements string `json:"hospitality_requirements"`
	TravelRequirements      string `json:"travel_requirements"`
}

// Progress is the completion checklist shown on the detail page
type Progress struct {
	CompletionPercentage float64 `json:"completion_percentage"`
	IsConfirmed          bool    `json:"is_confirmed"`
	ContractIsComplete   bool    `json:"contract_is_complete"`
	AllInvoicesPaid      bool    `json:"all_invoices_paid"`
	IsOverdue            bool    `json:"is_overdue"`
	DaysUntilEvent       int     `json:"days_until_event"`
	ContractSigned       bool    `json:"contract_signed"`
	PromoterInvoiceSent  bool    `json:"promoter_invoice_sent"`
	PromoterInvoicePaid  bool    `json:"promoter_invoice_paid"`
	ArtistInvoiceCreated bool    `json:"artist_invoice_created"`
	ArtistInvoicePaid    bool    `json:"artist_invoice_paid"`
}

// NewProgress builds the checklist of b
func NewProgress(b *models.Booking, now time.Time) Progress {
	fee := b.BookingFeeInvoice.Status
	return Progress{
		CompletionPercentage: b.CompletionPercentage(),
		IsConfirmed:          b.IsConfirmed(),
		ContractIsComplete:   b.ContractIsComplete(),
		AllInvoicesPaid:      b.AllInvoicesPaid(),
		IsOverdue:            b.IsOverdue(),
		DaysUntilEvent:       b.DaysUntilEvent(now),
		ContractSigned:       b.ContractStatus == models.ContractSigned,
		PromoterInvoiceSent:  fee == models.InvoiceSent || fee == models.InvoicePaid,
		PromoterInvoicePaid:  fee == models.InvoicePaid,
		ArtistInvoiceCreated: b.ArtistFeeInvoice.Status != models.InvoicePending,
		ArtistInvoicePaid:    b.ArtistFeeInvoice.IsPaid(),
	}
}

// NewEnriched projects a booking into the detail-page representation
func NewEnriched(b *models.Booking, names Names, now time.Time) Enriched {
	return Enriched{
		ID:                  b.ID,
		BookingReference:    b.BookingReference,
		Status:              b.Status,
		BookingDate:         b.BookingDate,
		ArtistID:            b.ArtistID,
		ArtistName:          orDefault(names.Artist, UnknownArtist),
		PromoterID:          b.PromoterID,
		PromoterName:        orDefault(names.Promoter, UnknownPromoter),
		PromoterContactID:   b.PromoterContactID,
		PromoterContactName: names.PromoterContact,
		VenueID:             b.VenueID,
		VenueName:           orDefault(names.Venue, UnknownVenue),
		BookingType:         b.BookingTypeID,
		BookingTypeName:     names.BookingType,
		Location:            Location{City: b.LocationCity, Country: b.LocationCountry},
		FinancialBreakdown: FinancialBreakdown{
			GuaranteeAmount:      Money(b.GuaranteeAmount),
			BonusAmount:          Money(b.BonusAmount),
			ExpensesAmount:       Money(b.ExpensesAmount),
			BookingFeePercentage: percent(b.BookingFeePercentage),
			BookingFeeAmount:     Money(b.BookingFeeAmount),
			TotalArtistFee:       Money(b.TotalArtistFee()),
			TotalBookingCost:     Money(b.TotalBookingCost()),
			Currency:             b.Currency,
			DealType:             b.DealType,
			PercentageSplit:      percent(b.PercentageSplit),
			DoorPercentage:       percent(b.DoorPercentage),
		},
		EventSchedule: EventSchedule{
			DoorsTime:            b.DoorsTime,
			SoundcheckTime:       b.SoundcheckTime,
			PerformanceStartTime: b.PerformanceStartTime,
			PerformanceEndTime:   b.PerformanceEndTime,
			ShowSchedule:         b.ShowSchedule,
		},
		ContractStatusSummary: ContractSummary{
			ContractStatus:            b.ContractStatus,
			ContractSentDate:          b.ContractSentDate,
			ContractSignedDate:        b.ContractSignedDate,
			ArtistFeeInvoiceStatus:    b.ArtistFeeInvoice.Status,
			ArtistFeeInvoiceSentDate:  b.ArtistFeeInvoice.SentDate,
			ArtistFeeInvoiceDueDate:   b.ArtistFeeInvoice.DueDate,
			ArtistFeeInvoicePaidDate:  b.ArtistFeeInvoice.PaidDate,
			BookingFeeInvoiceStatus:   b.BookingFeeInvoice.Status,
			BookingFeeInvoiceSentDate: b.BookingFeeInvoice.SentDate,
			BookingFeeInvoiceDueDate:  b.BookingFeeInvoice.DueDate,
			BookingFeeInvoicePaidDate: b.BookingFeeInvoice.PaidDate,
		},
		Requirements: Requirements{
			TechnicalRequirements:   b.TechnicalRequirements,
			HospitalityRequirements: b.HospitalityRequirements,
			TravelRequirements:      b.TravelRequirements,
		},
		Progress:           NewProgress(b, now),
		EventName:          b.EventName,
		Notes:              b.Notes,
		IsPrivate:          b.IsPrivate,
		IsCancelled:        b.IsCancelled,
		CancellationReason: b.CancellationReason,
		CancellationDate:   b.CancellationDate,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		CreatedBy:          b.CreatedByID,
		UpdatedBy:          b.UpdatedByID,
	}
}

// TimelineEvent is one dated milestone of a booking
type TimelineEvent struct {
	Date   time.Time `json:"date"`
	Event  string    `json:"event"`
	Type   string    `json:"type"`
	User   *string   `json:"user,omitempty"`
	Reason *string   `json:"reason,omitempty"`
}

// Timeline lists the milestones of b, newest first. creator is the display
// name of the profile that created the booking, if known.
func Timeline(b *models.Booking, creator *string) []TimelineEvent {
	events := []TimelineEvent{{Date: b.CreatedAt, Event: "Booking Created", Type: "creation", User: creator}}

	add := func(at *time.Time, event, kind string) {
		if at != nil {
			events = append(events, TimelineEvent{Date: *at, Event: event, Type: kind})
		}
	}
	add(b.ContractSentDate, "Contract Sent", "contract")
	add(b.ContractSignedDate, "Contract Signed", "contract")
	add(b.ArtistFeeInvoice.SentDate, "Artist Invoice Sent", "invoice")
	add(b.ArtistFeeInvoice.PaidDate, "Artist Paid", "payment")
	add(b.BookingFeeInvoice.SentDate, "Booking Fee Invoice Sent", "invoice")
	add(b.BookingFeeInvoice.PaidDate, "Booking Fee Paid", "payment")
	if b.CancellationDate != nil {
		reason := b.CancellationReason
		events = append(events, TimelineEvent{
			Date:   *b.CancellationDate,
			Event:  "Booking Cancelled",
			Type:   "cancellation",
			Reason: &reason,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.After(events[j].Date)
	})
	return events
}

// CalendarEntry is one booking on a calendar day
type CalendarEntry struct {
	ID               uuid.UUID            `json:"id"`
	BookingReference string               `json:"booking_reference"`
	Time             string               `json:"time"`
	EventName        string               `json:"event_name"`
	Status           models.BookingStatus `json:"status"`
	ArtistID         models.ArtistID      `json:"artist_id"`
	VenueID          models.VenueID       `json:"venue_id"`
	LocationCity     string               `json:"location_city"`
	IsCancelled      bool                 `json:"is_cancelled"`
}

// Calendar groups bookings by their YYYY-MM-DD date
func Calendar(bookings []models.Booking) map[string][]CalendarEntry {
	days := make(map[string][]CalendarEntry)
	for i := range bookings {
		b := &bookings[i]
		key := b.BookingDate.UTC().Format(models.DateLayout)
		days[key] = append(days[key], CalendarEntry{
			ID:               b.ID,
			BookingReference: b.BookingReference,
			Time:             b.BookingDate.UTC().Format("15:04:05"),
			EventName:        b.EventName,
			Status:           b.Status,
			ArtistID:         b.ArtistID,
			VenueID:          b.VenueID,
			LocationCity:     b.LocationCity,
			IsCancelled:      b.IsCancelled,
		})
	}
	return days
}
