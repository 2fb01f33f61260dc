package service

import (
	"context"
	"time"

	"example.com/backstage/bookings/internal/booking"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/messaging"
	"example.com/backstage/bookings/internal/metrics"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/search"
	"example.com/backstage/bookings/internal/validation"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	MsgBookingNotFound      = "Booking not found"
	MsgArtistNotInAgency    = "Artist not found or does not belong to this agency."
	MsgPromoterNotInAgency  = "Promoter not found or does not belong to this agency."
	MsgVenueNotInAgency     = "Venue not found or does not belong to this agency."
	MsgContactNotOfPromoter = "Contact not found or does not belong to this promoter."
	MsgUnknownAction        = "Unknown booking action"

	defaultUpcomingDays = 90
	maxUpcomingDays     = 3650
	searchLimit         = 100
	reindexBatchSize    = 200
)

// BookingService manages bookings, their workflow actions and the search
// projection
type BookingService struct {
	deps
	index search.Index
}

// BookingInput creates or partially updates a booking. A nil field is left
// unchanged.
type BookingInput struct {
	BookingDate     *time.Time            `json:"booking_date"`
	Status          *models.BookingStatus `json:"status"`
	LocationCity    *string               `json:"location_city" validate:"omitempty,max=100"`
	LocationCountry *string               `json:"location_country"`
	VenueID         *uuid.UUID            `json:"venue_id"`
	VenueCapacity   *int                  `json:"venue_capacity"`

	Currency             *string          `json:"currency"`
	DealType             *models.DealType `json:"deal_type"`
	GuaranteeAmount      *decimal.Decimal `json:"guarantee_amount"`
	BonusAmount          *decimal.Decimal `json:"bonus_amount"`
	ExpensesAmount       *decimal.Decimal `json:"expenses_amount"`
	PercentageSplit      *decimal.Decimal `json:"percentage_split"`
	DoorPercentage       *decimal.Decimal `json:"door_percentage"`
	BookingFeePercentage *decimal.Decimal `json:"booking_fee_percentage"`
	BookingFeeAmount     *decimal.Decimal `json:"booking_fee_amount"`

	ArtistID          *uuid.UUID `json:"artist_id"`
	PromoterID        *uuid.UUID `json:"promoter_id"`
	PromoterContactID *uuid.UUID `json:"promoter_contact_id"`
	BookingTypeID     *uuid.UUID `json:"booking_type"`

	EventName            *string `json:"event_name" validate:"omitempty,max=255"`
	ShowSchedule         *string `json:"show_schedule"`
	DoorsTime            *string `json:"doors_time"`
	SoundcheckTime       *string `json:"soundcheck_time"`
	PerformanceStartTime *string `json:"performance_start_time"`
	PerformanceEndTime   *string `json:"performance_end_time"`

	ContractStatus     *models.ContractStatus `json:"contract_status"`
	ContractSentDate   *time.Time             `json:"contract_sent_date"`
	ContractSignedDate *time.Time             `json:"contract_signed_date"`

	ArtistFeeInvoiceStatus    *models.InvoiceStatus `json:"artist_fee_invoice_status"`
	ArtistFeeInvoiceSentDate  *time.Time            `json:"artist_fee_invoice_sent_date"`
	ArtistFeeInvoiceDueDate   *models.Date          `json:"artist_fee_invoice_due_date"`
	ArtistFeeInvoicePaidDate  *time.Time            `json:"artist_fee_invoice_paid_date"`
	BookingFeeInvoiceStatus   *models.InvoiceStatus `json:"booking_fee_invoice_status"`
	BookingFeeInvoiceSentDate *time.Time            `json:"booking_fee_invoice_sent_date"`
	BookingFeeInvoiceDueDate  *models.Date          `json:"booking_fee_invoice_due_date"`
	BookingFeeInvoicePaidDate *time.Time            `json:"booking_fee_invoice_paid_date"`

	ItineraryStatus         *models.ItineraryStatus `json:"itinerary_status"`
	TechnicalRequirements   *string                 `json:"technical_requirements"`
	HospitalityRequirements *string                 `json:"hospitality_requirements"`
	TravelRequirements      *string                 `json:"travel_requirements"`
	Notes                   *string                 `json:"notes"`

	IsPrivate          *bool   `json:"is_private"`
	IsCancelled        *bool   `json:"is_cancelled"`
	CancellationReason *string `json:"cancellation_reason"`
}

// ActionInput carries the optional arguments of a workflow action
type ActionInput struct {
	Reason  string       `json:"reason"`
	DueDate *models.Date `json:"due_date"`
}

// BookingStatsView is the agency's booking statistics with money as strings
type BookingStatsView struct {
	TotalBookings     int64  `json:"total_bookings"`
	ConfirmedBookings int64  `json:"confirmed_bookings"`
	PendingBookings   int64  `json:"pending_bookings"`
	CancelledBookings int64  `json:"cancelled_bookings"`
	TotalRevenue      string `json:"total_revenue"`
	TotalBookingFees  string `json:"total_booking_fees"`
	AvgGuarantee      string `json:"avg_guarantee"`
	OverdueInvoices   int64  `json:"overdue_invoices"`
	UpcomingShows     int64  `json:"upcoming_shows"`
	ContractsPending  int64  `json:"contracts_pending"`
}

// bookingEvent is the payload of every booking event
type bookingEvent struct {
	BookingReference string               `json:"booking_reference"`
	Status           models.BookingStatus `json:"status"`
	PreviousStatus   models.BookingStatus `json:"previous_status,omitempty"`
	Action           string               `json:"action,omitempty"`
}

// List returns a page of booking summaries with resolved names
func (s *BookingService) List(ctx context.Context, id identity.Identity, f repository.BookingFilter) (repository.Page[booking.ListItem], error) {
	agencyID, ok := id.Agency()
	if !ok {
		return emptyPage[booking.ListItem](f.ListOptions), nil
	}
	page, err := s.repo.Bookings().List(ctx, agencyID, f)
	if err != nil {
		return repository.Page[booking.ListItem]{}, err
	}
	items, err := s.listItems(ctx, agencyID, page.Items)
	if err != nil {
		return repository.Page[booking.ListItem]{}, err
	}
	return repository.Page[booking.ListItem]{Items: items, Count: page.Count, Page: page.Page, PageSize: page.PageSize}, nil
}

// Get returns the detail view of a booking
func (s *BookingService) Get(ctx context.Context, id identity.Identity, bookingID uuid.UUID) (*booking.Detail, error) {
	b, err := s.get(ctx, s.repo, id, bookingID)
	if err != nil {
		return nil, err
	}
	names, err := s.names(ctx, s.repo, b)
	if err != nil {
		return nil, err
	}
	detail := booking.NewDetail(b, names, s.now())
	return &detail, nil
}

// EnrichedDetail returns the nested presentation of a booking
func (s *BookingService) EnrichedDetail(ctx context.Context, id identity.Identity, bookingID uuid.UUID) (*booking.Enriched, error) {
	b, err := s.get(ctx, s.repo, id, bookingID)
	if err != nil {
		return nil, err
	}
	names, err := s.names(ctx, s.repo, b)
	if err != nil {
		return nil, err
	}
	enriched := booking.NewEnriched(b, names, s.now())
	return &enriched, nil
}

// Timeline lists the dated milestones of a booking, newest first
func (s *BookingService) Timeline(ctx context.Context, id identity.Identity, bookingID uuid.UUID) ([]booking.TimelineEvent, error) {
	b, err := s.get(ctx, s.repo, id, bookingID)
	if err != nil {
		return nil, err
	}
	var creator *string
	if b.CreatedByID != nil {
		names, err := s.repo.Profiles().DisplayNames(ctx, []uuid.UUID{*b.CreatedByID})
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve booking creator")
		}
		creator = repository.Lookup(names, *b.CreatedByID)
	}
	return booking.Timeline(b, creator), nil
}

// Create books an artist at a venue for a promoter in the member's agency
func (s *BookingService) Create(ctx context.Context, id identity.Identity, in BookingInput) (*booking.Detail, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, forbidden(identity.ErrNoAgency.Message)
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	errs := validationErrors{}
	for _, ref := range []struct {
		field string
		id    *uuid.UUID
	}{{"artist_id", in.ArtistID}, {"promoter_id", in.PromoterID}, {"venue_id", in.VenueID}} {
		if ref.id == nil {
			errs.Add(ref.field, "This field is required.")
		}
	}

	now := s.now()
	b := &models.Booking{ID: uuid.New(), AgencyID: agencyID}
	in.apply(b)
	booking.ApplyDefaults(b)
	if in.BookingFeeAmount == nil {
		booking.DeriveBookingFee(b)
	}
	errs.Merge(booking.Validate(b, true, now))
	if err := errs.Err(); err != nil {
		return nil, err
	}

	b.BookingReference = models.NewBookingReference(b.ID, now)
	audit(&b.Audit, id, true)
	booking.ApplyWritePolicies(nil, b, now)

	var names booking.Names
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		if names, err = s.checkReferences(ctx, tx, nil, b); err != nil {
			return err
		}
		return tx.Bookings().Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, nil, b, names, messaging.EventBookingCreated, "")
	detail := booking.NewDetail(b, names, now)
	return &detail, nil
}

// Update partially updates a booking and runs the write-path policies
func (s *BookingService) Update(ctx context.Context, id identity.Identity, bookingID uuid.UUID, in BookingInput) (*booking.Detail, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	now := s.now()

	var prev, b *models.Booking
	var names booking.Names
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		if prev, err = s.get(ctx, tx, id, bookingID); err != nil {
			return err
		}
		next := *prev
		b = &next
		in.apply(b)
		if in.BookingFeeAmount == nil && (in.BookingFeePercentage != nil || in.GuaranteeAmount != nil) {
			booking.DeriveBookingFee(b)
		}
		if err := booking.Validate(b, false, now).Err(); err != nil {
			return err
		}
		audit(&b.Audit, id, false)
		booking.ApplyWritePolicies(prev, b, now)

		if names, err = s.checkReferences(ctx, tx, prev, b); err != nil {
			return err
		}
		return tx.Bookings().Save(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, prev, b, names, messaging.EventBookingUpdated, "")
	detail := booking.NewDetail(b, names, now)
	return &detail, nil
}

// Delete removes a booking and its search document
func (s *BookingService) Delete(ctx context.Context, id identity.Identity, bookingID uuid.UUID) error {
	b, err := s.get(ctx, s.repo, id, bookingID)
	if err != nil {
		return err
	}
	if err := s.repo.Bookings().Delete(ctx, b.AgencyID, b.ID); err != nil {
		return fromRepo(err, "Booking")
	}

	s.publish(ctx, messaging.NewEvent(messaging.EventBookingDeleted, &b.AgencyID, b.ID, bookingEvent{
		BookingReference: b.BookingReference,
		Status:           b.Status,
	}))
	if s.index.Enabled() {
		err := s.index.DeleteBooking(ctx, b.ID)
		metrics.Default().RecordSearchIndex(err == nil)
		if err != nil {
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("Failed to remove booking from search index")
		}
	}
	return nil
}

// Transition runs one workflow action on a booking. Rejected actions leave
// the booking untouched.
func (s *BookingService) Transition(ctx context.Context, id identity.Identity, bookingID uuid.UUID, action string, in ActionInput) (*booking.Detail, error) {
	now := s.now()
	run, ok := bookingActions[action]
	if !ok {
		return nil, badRequest(MsgUnknownAction)
	}

	var prev, b *models.Booking
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		if prev, err = s.get(ctx, tx, id, bookingID); err != nil {
			return err
		}
		next := *prev
		b = &next
		if err := run(b, in, now); err != nil {
			var rejected *booking.ActionError
			if errors.As(err, &rejected) {
				return badRequest(rejected.Message)
			}
			return err
		}
		audit(&b.Audit, id, false)
		booking.ApplyWritePolicies(prev, b, now)
		return tx.Bookings().Save(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	names, err := s.names(ctx, s.repo, b)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, prev, b, names, messaging.EventBookingTransitioned, action)
	detail := booking.NewDetail(b, names, now)
	return &detail, nil
}

type actionFunc func(b *models.Booking, in ActionInput, now time.Time) error

var bookingActions = map[string]actionFunc{
	booking.ActionConfirm: func(b *models.Booking, _ ActionInput, _ time.Time) error {
		return booking.Confirm(b)
	},
	booking.ActionCancel: func(b *models.Booking, in ActionInput, now time.Time) error {
		return booking.Cancel(b, in.Reason, now)
	},
	booking.ActionSendContract: func(b *models.Booking, _ ActionInput, now time.Time) error {
		booking.SendContract(b, now)
		return nil
	},
	booking.ActionMarkContractSigned: func(b *models.Booking, _ ActionInput, now time.Time) error {
		return booking.MarkContractSigned(b, now)
	},
	booking.ActionSendArtistInvoice: func(b *models.Booking, in ActionInput, now time.Time) error {
		booking.SendArtistInvoice(b, in.DueDate, now)
		return nil
	},
	booking.ActionMarkArtistPaid: func(b *models.Booking, _ ActionInput, now time.Time) error {
		return booking.MarkArtistPaid(b, now)
	},
	booking.ActionSendBookingInvoice: func(b *models.Booking, in ActionInput, now time.Time) error {
		booking.SendBookingInvoice(b, in.DueDate, now)
		return nil
	},
	booking.ActionMarkBookingPaid: func(b *models.Booking, _ ActionInput, now time.Time) error {
		return booking.MarkBookingPaid(b, now)
	},
}

// Stats aggregates the agency's bookings
func (s *BookingService) Stats(ctx context.Context, id identity.Identity, f repository.StatsFilter) (*BookingStatsView, error) {
	view := &BookingStatsView{
		TotalRevenue:     booking.Money(decimal.Zero),
		TotalBookingFees: booking.Money(decimal.Zero),
		AvgGuarantee:     booking.Money(decimal.Zero),
	}
	agencyID, ok := id.Agency()
	if !ok {
		return view, nil
	}
	stats, err := s.repo.Bookings().Stats(ctx, agencyID, f, s.now())
	if err != nil {
		return nil, err
	}
	return &BookingStatsView{
		TotalBookings:     stats.TotalBookings,
		ConfirmedBookings: stats.ConfirmedBookings,
		PendingBookings:   stats.PendingBookings,
		CancelledBookings: stats.CancelledBookings,
		TotalRevenue:      booking.Money(stats.TotalRevenue),
		TotalBookingFees:  booking.Money(stats.TotalBookingFees),
		AvgGuarantee:      booking.Money(stats.AvgGuarantee),
		OverdueInvoices:   stats.OverdueInvoices,
		UpcomingShows:     stats.UpcomingShows,
		ContractsPending:  stats.ContractsPending,
	}, nil
}

// Upcoming lists live bookings from now through the given number of days.
// days <= 0 means the default window.
func (s *BookingService) Upcoming(ctx context.Context, id identity.Identity, days int) ([]booking.ListItem, error) {
	if days <= 0 {
		days = defaultUpcomingDays
	}
	if days > maxUpcomingDays {
		return nil, validation.Field("days", "Ensure this value is less than or equal to 3650.")
	}
	agencyID, ok := id.Agency()
	if !ok {
		return []booking.ListItem{}, nil
	}
	now := s.now()
	bookings, err := s.repo.Bookings().Upcoming(ctx, agencyID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	return s.listItems(ctx, agencyID, bookings)
}

// Calendar groups the bookings of one month by day. A zero year or month
// means the current one. Cancelled bookings are left out unless
// showCancelled is set.
func (s *BookingService) Calendar(ctx context.Context, id identity.Identity, year int, month time.Month, showCancelled bool) (map[string][]booking.CalendarEntry, error) {
	now := s.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	if month < time.January || month > time.December {
		return nil, validation.Field("month", "Ensure this value is between 1 and 12.")
	}
	agencyID, ok := id.Agency()
	if !ok {
		return map[string][]booking.CalendarEntry{}, nil
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	bookings, err := s.repo.Bookings().Between(ctx, agencyID, from, from.AddDate(0, 1, 0), showCancelled)
	if err != nil {
		return nil, err
	}
	return booking.Calendar(bookings), nil
}

// Search finds bookings by free text. It asks the search index when one is
// configured and falls back to the database search otherwise or when the
// index fails.
func (s *BookingService) Search(ctx context.Context, id identity.Identity, text string) ([]booking.ListItem, error) {
	if text == "" {
		return nil, badRequest("q is required")
	}
	agencyID, ok := id.Agency()
	if !ok {
		return []booking.ListItem{}, nil
	}

	f := repository.BookingFilter{ShowCancelled: true}
	f.PageSize = searchLimit
	var ranked []uuid.UUID
	if s.index.Enabled() {
		ids, err := s.index.SearchBookings(ctx, agencyID, text, searchLimit)
		if err == nil {
			if len(ids) == 0 {
				return []booking.ListItem{}, nil
			}
			ranked = ids
			f.IDs = ids
		} else {
			s.log.WithError(err).Warn("Booking search index unavailable, using database search")
		}
	}
	if ranked == nil {
		f.Search = text
	}

	page, err := s.repo.Bookings().List(ctx, agencyID, f)
	if err != nil {
		return nil, err
	}
	bookings := page.Items
	if ranked != nil {
		bookings = byRank(bookings, ranked)
	}
	return s.listItems(ctx, agencyID, bookings)
}

// Reindex rebuilds the search projection of one agency, or of every agency
// when agencyID is nil, and returns how many bookings were indexed
func (s *BookingService) Reindex(ctx context.Context, agencyID *uuid.UUID) (int, error) {
	if !s.index.Enabled() {
		return 0, errors.New("search index is not configured")
	}
	indexed := 0
	err := s.repo.Bookings().FindInBatches(ctx, agencyID, reindexBatchSize, func(batch []models.Booking) error {
		byAgency := make(map[uuid.UUID][]models.Booking)
		for _, b := range batch {
			byAgency[b.AgencyID] = append(byAgency[b.AgencyID], b)
		}
		for agency, bookings := range byAgency {
			idx, err := s.repo.Resolver().Names(ctx, agency, nameRefs(bookings))
			if err != nil {
				return err
			}
			for i := range bookings {
				b := &bookings[i]
				names := namesFrom(idx, b)
				err := s.index.IndexBooking(ctx, document(b, names))
				metrics.Default().RecordSearchIndex(err == nil)
				if err != nil {
					return errors.Wrapf(err, "failed to index booking %s", b.BookingReference)
				}
				indexed++
			}
		}
		return nil
	})
	return indexed, err
}

func (in *BookingInput) apply(b *models.Booking) {
	set(&b.BookingDate, in.BookingDate)
	set(&b.Status, in.Status)
	if in.LocationCity != nil {
		b.LocationCity = trimmed(in.LocationCity)
	}
	set(&b.LocationCountry, in.LocationCountry)
	if in.VenueID != nil {
		b.VenueID = models.VenueID{UUID: *in.VenueID}
	}
	if in.VenueCapacity != nil {
		b.VenueCapacity = in.VenueCapacity
	}

	set(&b.Currency, in.Currency)
	set(&b.DealType, in.DealType)
	set(&b.GuaranteeAmount, in.GuaranteeAmount)
	set(&b.BonusAmount, in.BonusAmount)
	set(&b.ExpensesAmount, in.ExpensesAmount)
	setPercentage(&b.PercentageSplit, in.PercentageSplit)
	setPercentage(&b.DoorPercentage, in.DoorPercentage)
	setPercentage(&b.BookingFeePercentage, in.BookingFeePercentage)
	set(&b.BookingFeeAmount, in.BookingFeeAmount)

	if in.ArtistID != nil {
		b.ArtistID = models.ArtistID{UUID: *in.ArtistID}
	}
	if in.PromoterID != nil {
		b.PromoterID = models.PromoterID{UUID: *in.PromoterID}
	}
	if in.PromoterContactID != nil {
		b.PromoterContactID = &models.ContactID{UUID: *in.PromoterContactID}
	}
	if in.BookingTypeID != nil && (b.BookingTypeID == nil || *b.BookingTypeID != *in.BookingTypeID) {
		typeID := *in.BookingTypeID
		b.BookingTypeID = &typeID
		b.BookingType = nil
	}

	set(&b.EventName, in.EventName)
	set(&b.ShowSchedule, in.ShowSchedule)
	setOptional(&b.DoorsTime, in.DoorsTime)
	setOptional(&b.SoundcheckTime, in.SoundcheckTime)
	setOptional(&b.PerformanceStartTime, in.PerformanceStartTime)
	setOptional(&b.PerformanceEndTime, in.PerformanceEndTime)

	set(&b.ContractStatus, in.ContractStatus)
	setOptional(&b.ContractSentDate, in.ContractSentDate)
	setOptional(&b.ContractSignedDate, in.ContractSignedDate)

	set(&b.ArtistFeeInvoice.Status, in.ArtistFeeInvoiceStatus)
	setOptional(&b.ArtistFeeInvoice.SentDate, in.ArtistFeeInvoiceSentDate)
	setOptional(&b.ArtistFeeInvoice.DueDate, in.ArtistFeeInvoiceDueDate.OrNil())
	setOptional(&b.ArtistFeeInvoice.PaidDate, in.ArtistFeeInvoicePaidDate)
	set(&b.BookingFeeInvoice.Status, in.BookingFeeInvoiceStatus)
	setOptional(&b.BookingFeeInvoice.SentDate, in.BookingFeeInvoiceSentDate)
	setOptional(&b.BookingFeeInvoice.DueDate, in.BookingFeeInvoiceDueDate.OrNil())
	setOptional(&b.BookingFeeInvoice.PaidDate, in.BookingFeeInvoicePaidDate)

	set(&b.ItineraryStatus, in.ItineraryStatus)
	set(&b.TechnicalRequirements, in.TechnicalRequirements)
	set(&b.HospitalityRequirements, in.HospitalityRequirements)
	set(&b.TravelRequirements, in.TravelRequirements)
	set(&b.Notes, in.Notes)

	set(&b.IsPrivate, in.IsPrivate)
	set(&b.IsCancelled, in.IsCancelled)
	if in.CancellationReason != nil {
		b.CancellationReason = trimmed(in.CancellationReason)
	}
}

func setOptional[T any](dst **T, v *T) {
	if v != nil {
		copied := *v
		*dst = &copied
	}
}

func setPercentage(dst *decimal.NullDecimal, v *decimal.Decimal) {
	if v != nil {
		*dst = decimal.NewNullDecimal(*v)
	}
}

// checkReferences verifies that the references of b resolve inside its
// agency and returns their names. With prev set, only references that
// changed are required to resolve; the others keep their fallback names.
func (s *BookingService) checkReferences(ctx context.Context, tx repository.Repository, prev, b *models.Booking) (booking.Names, error) {
	errs := validationErrors{}
	changed := func(same bool) bool { return prev == nil || !same }
	resolver := tx.Resolver()

	names, err := s.names(ctx, tx, b)
	if err != nil {
		return names, err
	}

	if changed(prev != nil && prev.ArtistID == b.ArtistID) && names.Artist == nil {
		errs.Add("artist_id", MsgArtistNotInAgency)
	}
	if changed(prev != nil && prev.PromoterID == b.PromoterID) && names.Promoter == nil {
		errs.Add("promoter_id", MsgPromoterNotInAgency)
	}
	if changed(prev != nil && prev.VenueID == b.VenueID) && names.Venue == nil {
		errs.Add("venue_id", MsgVenueNotInAgency)
	}

	if b.PromoterContactID != nil && changed(prev != nil && prev.PromoterContactID != nil &&
		*prev.PromoterContactID == *b.PromoterContactID && prev.PromoterID == b.PromoterID) {
		contact, err := resolver.Contact(ctx, b.AgencyID, *b.PromoterContactID)
		if err != nil {
			return names, errors.Wrap(err, "failed to resolve promoter contact")
		}
		if contact == nil || contact.PromoterID == nil || *contact.PromoterID != b.PromoterID {
			errs.Add("promoter_contact_id", MsgContactNotOfPromoter)
		}
	}

	if b.BookingTypeID != nil && b.BookingType == nil {
		t, err := tx.BookingTypes().Get(ctx, b.AgencyID, *b.BookingTypeID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			errs.Add("booking_type", "Invalid pk \""+b.BookingTypeID.String()+"\" - object does not exist.")
		case err != nil:
			return names, errors.Wrap(err, "failed to load booking type")
		default:
			b.BookingType = t
			names.BookingType = &t.Name
		}
	}

	return names, errs.Err()
}

// names resolves the display names of one booking's references
func (s *BookingService) names(ctx context.Context, repo repository.Repository, b *models.Booking) (booking.Names, error) {
	idx, err := repo.Resolver().Names(ctx, b.AgencyID, nameRefs([]models.Booking{*b}))
	if err != nil {
		return booking.Names{}, errors.Wrap(err, "failed to resolve booking references")
	}
	return namesFrom(idx, b), nil
}

func (s *BookingService) listItems(ctx context.Context, agencyID uuid.UUID, bookings []models.Booking) ([]booking.ListItem, error) {
	items := make([]booking.ListItem, 0, len(bookings))
	if len(bookings) == 0 {
		return items, nil
	}
	idx, err := s.repo.Resolver().Names(ctx, agencyID, nameRefs(bookings))
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve booking references")
	}
	now := s.now()
	for i := range bookings {
		items = append(items, booking.NewListItem(&bookings[i], namesFrom(idx, &bookings[i]), now))
	}
	return items, nil
}

func nameRefs(bookings []models.Booking) repository.NameRefs {
	var refs repository.NameRefs
	for _, b := range bookings {
		refs.Artists = append(refs.Artists, b.ArtistID.UUID)
		refs.Promoters = append(refs.Promoters, b.PromoterID.UUID)
		refs.Venues = append(refs.Venues, b.VenueID.UUID)
		if b.PromoterContactID != nil {
			refs.Contacts = append(refs.Contacts, b.PromoterContactID.UUID)
		}
	}
	return refs
}

func namesFrom(idx *repository.NameIndex, b *models.Booking) booking.Names {
	names := booking.Names{
		Artist:   repository.Lookup(idx.Artists, b.ArtistID.UUID),
		Promoter: repository.Lookup(idx.Promoters, b.PromoterID.UUID),
		Venue:    repository.Lookup(idx.Venues, b.VenueID.UUID),
	}
	if b.PromoterContactID != nil {
		names.PromoterContact = repository.Lookup(idx.Contacts, b.PromoterContactID.UUID)
	}
	if b.BookingType != nil {
		name := b.BookingType.Name
		names.BookingType = &name
	}
	return names
}

func document(b *models.Booking, names booking.Names) search.BookingDocument {
	return search.NewBookingDocument(b,
		valueOr(names.Artist, booking.UnknownArtist),
		valueOr(names.Promoter, booking.UnknownPromoter),
		valueOr(names.Venue, booking.UnknownVenue),
	)
}

// byRank orders bookings as the search index ranked them
func byRank(bookings []models.Booking, ranked []uuid.UUID) []models.Booking {
	byID := make(map[uuid.UUID]models.Booking, len(bookings))
	for _, b := range bookings {
		byID[b.ID] = b
	}
	out := make([]models.Booking, 0, len(bookings))
	for _, id := range ranked {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// afterWrite publishes the events of a booking write and refreshes its
// search document. Failures are logged and never reach the caller.
func (s *BookingService) afterWrite(ctx context.Context, prev, b *models.Booking, names booking.Names, eventType, action string) {
	payload := bookingEvent{BookingReference: b.BookingReference, Status: b.Status, Action: action}
	if prev != nil {
		payload.PreviousStatus = prev.Status
	}
	s.publish(ctx, messaging.NewEvent(eventType, &b.AgencyID, b.ID, payload))

	if prev != nil && prev.Status != models.StatusCompleted && b.Status == models.StatusCompleted {
		s.publish(ctx, messaging.NewEvent(messaging.EventBookingCompleted, &b.AgencyID, b.ID, payload))
	}
	if prev != nil {
		for _, kind := range booking.InvoiceKinds {
			if kind.Of(prev).Status != models.InvoiceOverdue && kind.Of(b).Status == models.InvoiceOverdue {
				s.publish(ctx, messaging.NewEvent(messaging.EventInvoiceOverdue, &b.AgencyID, b.ID, overdueEvent{
					BookingReference: b.BookingReference,
					Invoice:          kind,
					DueDate:          kind.Of(b).DueDate,
				}))
			}
		}
	}

	if !s.index.Enabled() {
		return
	}
	err := s.index.IndexBooking(ctx, document(b, names))
	metrics.Default().RecordSearchIndex(err == nil)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"booking_id":        b.ID,
			"booking_reference": b.BookingReference,
		}).Warn("Failed to index booking")
	}
}

func (s *BookingService) get(ctx context.Context, repo repository.Repository, id identity.Identity, bookingID uuid.UUID) (*models.Booking, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, notFound(MsgBookingNotFound)
	}
	b, err := repo.Bookings().Get(ctx, agencyID, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(MsgBookingNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load booking")
	}
	return b, nil
}
