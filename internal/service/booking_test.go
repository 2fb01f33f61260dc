package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"example.com/backstage/bookings/internal/booking"
	"example.com/backstage/bookings/internal/messaging"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/search"
	"example.com/backstage/bookings/internal/validation"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type bookingRefs struct {
	artist, promoter, venue uuid.UUID
}

func newRefs() bookingRefs {
	return bookingRefs{artist: uuid.New(), promoter: uuid.New(), venue: uuid.New()}
}

func (r bookingRefs) names() *repository.NameIndex {
	return &repository.NameIndex{
		Artists:   map[uuid.UUID]string{r.artist: "The Lumens"},
		Promoters: map[uuid.UUID]string{r.promoter: "Nightfall Events"},
		Venues:    map[uuid.UUID]string{r.venue: "Halle 7"},
		Contacts:  map[uuid.UUID]string{},
	}
}

func (r bookingRefs) input() BookingInput {
	date := testNow.AddDate(0, 1, 0)
	return BookingInput{
		BookingDate:     &date,
		LocationCity:    strPtr("Berlin"),
		LocationCountry: strPtr("DE"),
		Currency:        strPtr("EUR"),
		ArtistID:        &r.artist,
		PromoterID:      &r.promoter,
		VenueID:         &r.venue,
		EventName:       strPtr("Spring Tour"),
	}
}

func (r bookingRefs) stored(agencyID uuid.UUID) *models.Booking {
	b := &models.Booking{
		ID:               uuid.New(),
		AgencyID:         agencyID,
		BookingReference: "BK-2026-ABC123",
		BookingDate:      testNow.AddDate(0, 0, 14),
		LocationCity:     "Berlin",
		LocationCountry:  "DE",
		Currency:         "EUR",
		ArtistID:         models.ArtistID{UUID: r.artist},
		PromoterID:       models.PromoterID{UUID: r.promoter},
		VenueID:          models.VenueID{UUID: r.venue},
		GuaranteeAmount:  decimal.RequireFromString("5000"),
	}
	booking.ApplyDefaults(b)
	return b
}

func newBookingService(repo *MockRepository, index search.Index) (*BookingService, *recordingPublisher) {
	pub := &recordingPublisher{}
	d, _ := testDeps(repo, pub)
	if index == nil {
		index = search.Disabled()
	}
	return &BookingService{deps: d, index: index}, pub
}

func fieldErrors(t *testing.T, err error) validation.FieldErrors {
	t.Helper()
	var verr *validation.Error
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	return verr.Fields
}

func TestBookingCreate(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	svc, pub := newBookingService(repo, nil)
	id := memberOf(agencyID)

	repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)
	repo.bookings.On("Create", mock.Anything, mock.AnythingOfType("*models.Booking")).Return(nil)

	in := refs.input()
	in.GuaranteeAmount = &[]decimal.Decimal{decimal.RequireFromString("5000")}[0]
	in.BookingFeePercentage = &[]decimal.Decimal{decimal.RequireFromString("15")}[0]

	detail, err := svc.Create(context.Background(), id, in)
	require.NoError(t, err)

	assert.Equal(t, agencyID, detail.Agency)
	assert.Equal(t, models.StatusOption, detail.Status)
	assert.Regexp(t, `^BK-2026-[0-9A-F]{6}$`, detail.BookingReference)
	assert.Equal(t, "750.00", detail.BookingFeeAmount)
	assert.Equal(t, id.ProfileID, detail.CreatedBy)
	require.NotNil(t, detail.ArtistName)
	assert.Equal(t, "The Lumens", *detail.ArtistName)
	assert.Equal(t, []string{messaging.EventBookingCreated}, pub.types())
	repo.bookings.AssertExpectations(t)
}

func TestBookingCreateKeepsExplicitFee(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)

	repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)
	repo.bookings.On("Create", mock.Anything, mock.Anything).Return(nil)

	in := refs.input()
	in.GuaranteeAmount = &[]decimal.Decimal{decimal.RequireFromString("5000")}[0]
	in.BookingFeePercentage = &[]decimal.Decimal{decimal.RequireFromString("15")}[0]
	in.BookingFeeAmount = &[]decimal.Decimal{decimal.RequireFromString("400")}[0]

	detail, err := svc.Create(context.Background(), memberOf(agencyID), in)
	require.NoError(t, err)
	assert.Equal(t, "400.00", detail.BookingFeeAmount)
}

func TestBookingCreateRequiresReferences(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)

	date := testNow.AddDate(0, 1, 0)
	_, err := svc.Create(context.Background(), memberOf(uuid.New()), BookingInput{
		BookingDate:     &date,
		LocationCity:    strPtr("Berlin"),
		LocationCountry: strPtr("DE"),
	})

	fields := fieldErrors(t, err)
	for _, f := range []string{"artist_id", "promoter_id", "venue_id"} {
		assert.Equal(t, []string{"This field is required."}, fields[f], f)
	}
	repo.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingCreateRejectsPastDate(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)

	in := newRefs().input()
	past := testNow.AddDate(0, 0, -1)
	in.BookingDate = &past

	_, err := svc.Create(context.Background(), memberOf(uuid.New()), in)
	assert.Equal(t, []string{"Booking date cannot be in the past."}, fieldErrors(t, err)["booking_date"])
}

func TestBookingCreateRejectsForeignReferences(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	svc, pub := newBookingService(repo, nil)

	// Only the venue resolves inside the caller's agency
	idx := refs.names()
	idx.Artists = map[uuid.UUID]string{}
	idx.Promoters = map[uuid.UUID]string{}
	repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(idx, nil)

	_, err := svc.Create(context.Background(), memberOf(agencyID), refs.input())

	fields := fieldErrors(t, err)
	assert.Equal(t, []string{MsgArtistNotInAgency}, fields["artist_id"])
	assert.Equal(t, []string{MsgPromoterNotInAgency}, fields["promoter_id"])
	assert.NotContains(t, fields, "venue_id")
	assert.Empty(t, pub.types())
	repo.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingCreateChecksPromoterContact(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	contactID := uuid.New()
	otherPromoter := models.PromoterID{UUID: uuid.New()}

	tests := []struct {
		name    string
		contact *models.Contact
		wantErr bool
	}{
		{"contact of the promoter", &models.Contact{ID: contactID, PromoterID: &models.PromoterID{UUID: refs.promoter}}, false},
		{"contact of another promoter", &models.Contact{ID: contactID, PromoterID: &otherPromoter}, true},
		{"venue contact", &models.Contact{ID: contactID, VenueID: &models.VenueID{UUID: refs.venue}}, true},
		{"missing contact", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			svc, _ := newBookingService(repo, nil)

			repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)
			repo.resolver.On("Contact", mock.Anything, agencyID, models.ContactID{UUID: contactID}).Return(tt.contact, nil)
			repo.bookings.On("Create", mock.Anything, mock.Anything).Return(nil)

			in := refs.input()
			in.PromoterContactID = &contactID
			_, err := svc.Create(context.Background(), memberOf(agencyID), in)

			if tt.wantErr {
				assert.Equal(t, []string{MsgContactNotOfPromoter}, fieldErrors(t, err)["promoter_contact_id"])
				repo.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBookingCreateChecksBookingType(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	typeID := uuid.New()
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)

	repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)
	repo.bookingTypes.On("Get", mock.Anything, agencyID, typeID).Return(nil, repository.ErrNotFound)

	in := refs.input()
	in.BookingTypeID = &typeID
	_, err := svc.Create(context.Background(), memberOf(agencyID), in)

	assert.Contains(t, fieldErrors(t, err), "booking_type")
}

func TestBookingCreateWithoutAgency(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)

	id := memberOf(uuid.New())
	id.AgencyID = nil
	_, err := svc.Create(context.Background(), id, newRefs().input())

	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestBookingUpdateCancellation(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	svc, pub := newBookingService(repo, nil)
	stored := refs.stored(agencyID)

	repo.bookings.On("Get", mock.Anything, agencyID, stored.ID).Return(stored, nil)
	repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)
	repo.bookings.On("Save", mock.Anything, mock.AnythingOfType("*models.Booking")).Return(nil)

	cancelled := true
	detail, err := svc.Update(context.Background(), memberOf(agencyID), stored.ID, BookingInput{
		IsCancelled:        &cancelled,
		CancellationReason: strPtr("  artist ill "),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelled, detail.Status)
	assert.Equal(t, "artist ill", detail.CancellationReason)
	require.NotNil(t, detail.CancellationDate)
	assert.Equal(t, testNow, *detail.CancellationDate)
	assert.Equal(t, []string{messaging.EventBookingUpdated}, pub.types())
	// The stored row is not mutated before the save succeeds
	assert.False(t, stored.IsCancelled)
}

func TestBookingUpdateRequiresCancellationReason(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)
	stored := refs.stored(agencyID)

	repo.bookings.On("Get", mock.Anything, agencyID, stored.ID).Return(stored, nil)

	cancelled := true
	_, err := svc.Update(context.Background(), memberOf(agencyID), stored.ID, BookingInput{IsCancelled: &cancelled})

	assert.Contains(t, fieldErrors(t, err), "cancellation_reason")
	repo.bookings.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBookingUpdateNotFound(t *testing.T) {
	agencyID := uuid.New()
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)
	bookingID := uuid.New()

	repo.bookings.On("Get", mock.Anything, agencyID, bookingID).Return(nil, repository.ErrNotFound)

	_, err := svc.Update(context.Background(), memberOf(agencyID), bookingID, BookingInput{})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, MsgBookingNotFound, err.Error())
}

func TestBookingTransition(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	due, err := models.ParseDate("2026-04-01")
	require.NoError(t, err)

	tests := []struct {
		name    string
		action  string
		in      ActionInput
		prepare func(b *models.Booking)
		wantErr string
		check   func(t *testing.T, d *booking.Detail)
	}{
		{
			name:   "confirm",
			action: booking.ActionConfirm,
			check: func(t *testing.T, d *booking.Detail) {
				assert.Equal(t, models.StatusConfirmed, d.Status)
				assert.True(t, d.IsConfirmed)
			},
		},
		{
			name:    "confirm cancelled",
			action:  booking.ActionConfirm,
			prepare: func(b *models.Booking) { b.IsCancelled = true; b.Status = models.StatusCancelled },
			wantErr: "Cannot confirm a cancelled booking.",
		},
		{
			name:    "cancel without reason",
			action:  booking.ActionCancel,
			wantErr: "Cancellation reason is required.",
		},
		{
			name:   "cancel",
			action: booking.ActionCancel,
			in:     ActionInput{Reason: "promoter insolvent"},
			check: func(t *testing.T, d *booking.Detail) {
				assert.True(t, d.IsCancelled)
				assert.Equal(t, models.StatusCancelled, d.Status)
				assert.Equal(t, "promoter insolvent", d.CancellationReason)
			},
		},
		{
			name:    "sign unsent contract",
			action:  booking.ActionMarkContractSigned,
			wantErr: "Contract must be sent before marking as signed.",
		},
		{
			name:   "send artist invoice",
			action: booking.ActionSendArtistInvoice,
			in:     ActionInput{DueDate: &due},
			check: func(t *testing.T, d *booking.Detail) {
				assert.Equal(t, models.InvoiceSent, d.ArtistFeeInvoiceStatus)
				require.NotNil(t, d.ArtistFeeInvoiceDueDate)
				assert.Equal(t, "2026-04-01", d.ArtistFeeInvoiceDueDate.String())
			},
		},
		{
			name:    "pay unsent booking invoice",
			action:  booking.ActionMarkBookingPaid,
			wantErr: "Invoice must be sent before marking as paid.",
		},
		{
			name:    "unknown action",
			action:  "teleport",
			wantErr: MsgUnknownAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			svc, pub := newBookingService(repo, nil)
			stored := refs.stored(agencyID)
			if tt.prepare != nil {
				tt.prepare(stored)
			}

			repo.bookings.On("Get", mock.Anything, agencyID, stored.ID).Return(stored, nil)
			repo.bookings.On("Save", mock.Anything, mock.Anything).Return(nil)
			repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)

			detail, err := svc.Transition(context.Background(), memberOf(agencyID), stored.ID, tt.action, tt.in)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrBadRequest))
				assert.Equal(t, tt.wantErr, err.Error())
				repo.bookings.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
				assert.Empty(t, pub.types())
				return
			}
			require.NoError(t, err)
			tt.check(t, detail)
			assert.Equal(t, []string{messaging.EventBookingTransitioned}, pub.types())
		})
	}
}

func TestBookingTransitionCompletes(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	svc, pub := newBookingService(repo, nil)

	sent := testNow.AddDate(0, 0, -20)
	stored := refs.stored(agencyID)
	stored.BookingDate = testNow.AddDate(0, 0, -7)
	stored.Status = models.StatusConfirmed
	stored.ContractStatus = models.ContractSigned
	stored.ContractSentDate = &sent
	stored.ContractSignedDate = &sent
	stored.ArtistFeeInvoice = models.Invoice{Status: models.InvoicePaid, SentDate: &sent, PaidDate: &sent}
	stored.BookingFeeInvoice = models.Invoice{Status: models.InvoiceSent, SentDate: &sent}

	repo.bookings.On("Get", mock.Anything, agencyID, stored.ID).Return(stored, nil)
	repo.bookings.On("Save", mock.Anything, mock.Anything).Return(nil)
	repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)

	detail, err := svc.Transition(context.Background(), memberOf(agencyID), stored.ID, booking.ActionMarkBookingPaid, ActionInput{})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, detail.Status)
	assert.Equal(t, float64(100), detail.CompletionPercentage)
	assert.Equal(t, []string{messaging.EventBookingTransitioned, messaging.EventBookingCompleted}, pub.types())
}

func TestBookingUpdateFlagsOverdueInvoice(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	svc, pub := newBookingService(repo, nil)

	sent := testNow.AddDate(0, 0, -40)
	due := models.NewDate(testNow.AddDate(0, 0, -10))
	stored := refs.stored(agencyID)
	stored.ArtistFeeInvoice = models.Invoice{Status: models.InvoiceSent, SentDate: &sent, DueDate: &due}

	repo.bookings.On("Get", mock.Anything, agencyID, stored.ID).Return(stored, nil)
	repo.bookings.On("Save", mock.Anything, mock.Anything).Return(nil)
	repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)

	detail, err := svc.Update(context.Background(), memberOf(agencyID), stored.ID, BookingInput{Notes: strPtr("chased")})
	require.NoError(t, err)

	assert.Equal(t, models.InvoiceOverdue, detail.ArtistFeeInvoiceStatus)
	assert.True(t, detail.IsOverdue)
	assert.Equal(t, []string{messaging.EventBookingUpdated, messaging.EventInvoiceOverdue}, pub.types())
}

func TestBookingWriteSurvivesPublishAndIndexFailures(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	index := new(MockIndex)
	svc, pub := newBookingService(repo, index)
	pub.err = errors.New("bus down")

	repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)
	repo.bookings.On("Create", mock.Anything, mock.Anything).Return(nil)
	index.On("IndexBooking", mock.Anything, mock.MatchedBy(func(doc search.BookingDocument) bool {
		return doc.ArtistName == "The Lumens" && doc.VenueName == "Halle 7"
	})).Return(errors.New("index down"))

	detail, err := svc.Create(context.Background(), memberOf(agencyID), refs.input())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, detail.ID)
	index.AssertExpectations(t)
}

func TestBookingDelete(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	index := new(MockIndex)
	svc, pub := newBookingService(repo, index)
	stored := refs.stored(agencyID)

	repo.bookings.On("Get", mock.Anything, agencyID, stored.ID).Return(stored, nil)
	repo.bookings.On("Delete", mock.Anything, agencyID, stored.ID).Return(nil)
	index.On("DeleteBooking", mock.Anything, stored.ID).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), memberOf(agencyID), stored.ID))
	assert.Equal(t, []string{messaging.EventBookingDeleted}, pub.types())
	index.AssertExpectations(t)
}

func TestBookingListFallsBackToUnknownNames(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)
	stored := refs.stored(agencyID)

	f := repository.BookingFilter{}
	repo.bookings.On("List", mock.Anything, agencyID, f).
		Return(repository.Page[models.Booking]{Items: []models.Booking{*stored}, Count: 1, Page: 1, PageSize: 20}, nil)
	repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(&repository.NameIndex{
		Artists: map[uuid.UUID]string{refs.artist: "The Lumens"},
	}, nil)

	page, err := svc.List(context.Background(), memberOf(agencyID), f)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	assert.Equal(t, "The Lumens", item.ArtistName)
	assert.Equal(t, booking.UnknownPromoter, item.PromoterName)
	assert.Equal(t, booking.UnknownVenue, item.VenueName)
	assert.Equal(t, int64(1), page.Count)
}

func TestBookingListWithoutAgencyIsEmpty(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)

	id := memberOf(uuid.New())
	id.AgencyID = nil
	page, err := svc.List(context.Background(), id, repository.BookingFilter{})

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.Count)
}

func TestBookingStats(t *testing.T) {
	agencyID := uuid.New()
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)

	f := repository.StatsFilter{}
	repo.bookings.On("Stats", mock.Anything, agencyID, f, testNow).Return(repository.BookingStats{
		TotalBookings:    4,
		TotalRevenue:     decimal.RequireFromString("12500"),
		TotalBookingFees: decimal.RequireFromString("1250.5"),
		AvgGuarantee:     decimal.RequireFromString("4166.666667"),
		OverdueInvoices:  1,
	}, nil)

	stats, err := svc.Stats(context.Background(), memberOf(agencyID), f)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalBookings)
	assert.Equal(t, "12500.00", stats.TotalRevenue)
	assert.Equal(t, "1250.50", stats.TotalBookingFees)
	assert.Equal(t, "4166.67", stats.AvgGuarantee)
	assert.Equal(t, int64(1), stats.OverdueInvoices)
}

func TestBookingUpcomingDefaultsToNinetyDays(t *testing.T) {
	agencyID := uuid.New()
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)

	repo.bookings.On("Upcoming", mock.Anything, agencyID, testNow, testNow.AddDate(0, 0, 90)).Return([]models.Booking{}, nil)

	items, err := svc.Upcoming(context.Background(), memberOf(agencyID), 0)
	require.NoError(t, err)
	assert.Empty(t, items)
	repo.bookings.AssertExpectations(t)
}

func TestBookingCalendar(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)

	first := refs.stored(agencyID)
	first.BookingDate = time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	second := refs.stored(agencyID)
	second.BookingDate = time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.bookings.On("Between", mock.Anything, agencyID, from, from.AddDate(0, 1, 0), false).
		Return([]models.Booking{*first, *second}, nil)
	repo.bookings.On("Between", mock.Anything, agencyID, from, from.AddDate(0, 1, 0), true).
		Return([]models.Booking{*first}, nil)

	days, err := svc.Calendar(context.Background(), memberOf(agencyID), 0, 0, false)
	require.NoError(t, err)
	require.Len(t, days["2026-03-14"], 2)
	assert.Equal(t, "21:00:00", days["2026-03-14"][0].Time)

	days, err = svc.Calendar(context.Background(), memberOf(agencyID), 2026, 3, true)
	require.NoError(t, err)
	assert.Len(t, days["2026-03-14"], 1)
	repo.bookings.AssertCalled(t, "Between", mock.Anything, agencyID, from, from.AddDate(0, 1, 0), false)

	_, err = svc.Calendar(context.Background(), memberOf(agencyID), 2026, 13, false)
	assert.Contains(t, fieldErrors(t, err), "month")
}

func TestBookingTimeline(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	svc, _ := newBookingService(repo, nil)

	creator := uuid.New()
	sent := testNow.AddDate(0, 0, -2)
	stored := refs.stored(agencyID)
	stored.CreatedAt = testNow.AddDate(0, 0, -5)
	stored.CreatedByID = &creator
	stored.ContractSentDate = &sent

	repo.bookings.On("Get", mock.Anything, agencyID, stored.ID).Return(stored, nil)
	repo.profiles.On("DisplayNames", mock.Anything, []uuid.UUID{creator}).
		Return(map[uuid.UUID]string{creator: "Dana Booker"}, nil)

	events, err := svc.Timeline(context.Background(), memberOf(agencyID), stored.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Contract Sent", events[0].Event)
	assert.Equal(t, "Booking Created", events[1].Event)
	require.NotNil(t, events[1].User)
	assert.Equal(t, "Dana Booker", *events[1].User)
}

func TestBookingSearch(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	first := refs.stored(agencyID)
	second := refs.stored(agencyID)

	t.Run("uses the index ranking", func(t *testing.T) {
		repo := newMockRepository()
		index := new(MockIndex)
		svc, _ := newBookingService(repo, index)

		index.On("SearchBookings", mock.Anything, agencyID, "lumens", searchLimit).Return([]uuid.UUID{second.ID, first.ID}, nil)
		repo.bookings.On("List", mock.Anything, agencyID, mock.MatchedBy(func(f repository.BookingFilter) bool {
			return len(f.IDs) == 2 && f.Search == "" && f.ShowCancelled
		})).Return(repository.Page[models.Booking]{Items: []models.Booking{*first, *second}}, nil)
		repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)

		items, err := svc.Search(context.Background(), memberOf(agencyID), "lumens")
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, second.ID, items[0].ID)
		assert.Equal(t, first.ID, items[1].ID)
	})

	t.Run("falls back to the database", func(t *testing.T) {
		repo := newMockRepository()
		index := new(MockIndex)
		svc, _ := newBookingService(repo, index)

		index.On("SearchBookings", mock.Anything, agencyID, "lumens", searchLimit).Return(nil, errors.New("cluster red"))
		repo.bookings.On("List", mock.Anything, agencyID, mock.MatchedBy(func(f repository.BookingFilter) bool {
			return len(f.IDs) == 0 && f.Search == "lumens"
		})).Return(repository.Page[models.Booking]{Items: []models.Booking{*first}}, nil)
		repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)

		items, err := svc.Search(context.Background(), memberOf(agencyID), "lumens")
		require.NoError(t, err)
		require.Len(t, items, 1)
	})

	t.Run("requires a query", func(t *testing.T) {
		svc, _ := newBookingService(newMockRepository(), nil)
		_, err := svc.Search(context.Background(), memberOf(agencyID), "")
		assert.True(t, errors.Is(err, ErrBadRequest))
	})
}

func TestBookingReindex(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	repo := newMockRepository()
	index := new(MockIndex)
	svc, _ := newBookingService(repo, index)

	batch := []models.Booking{*refs.stored(agencyID), *refs.stored(agencyID)}
	repo.bookings.On("FindInBatches", mock.Anything, (*uuid.UUID)(nil), reindexBatchSize).Return(batch, nil)
	repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)
	index.On("IndexBooking", mock.Anything, mock.Anything).Return(nil)

	n, err := svc.Reindex(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	index.AssertNumberOfCalls(t, "IndexBooking", 2)
}

func TestBookingReindexRequiresIndex(t *testing.T) {
	svc, _ := newBookingService(newMockRepository(), nil)
	_, err := svc.Reindex(context.Background(), nil)
	assert.Error(t, err)
}

func TestBookingEmptyDueDateIsIgnored(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()

	t.Run("send invoice action", func(t *testing.T) {
		repo := newMockRepository()
		svc, _ := newBookingService(repo, nil)
		stored := refs.stored(agencyID)
		repo.bookings.On("Get", mock.Anything, agencyID, stored.ID).Return(stored, nil)
		repo.bookings.On("Save", mock.Anything, mock.Anything).Return(nil)
		repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)

		var in ActionInput
		require.NoError(t, json.Unmarshal([]byte(`{"due_date": ""}`), &in))

		detail, err := svc.Transition(context.Background(), memberOf(agencyID), stored.ID, booking.ActionSendArtistInvoice, in)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceSent, detail.ArtistFeeInvoiceStatus)
		assert.Nil(t, detail.ArtistFeeInvoiceDueDate)
		assert.False(t, detail.IsOverdue)
	})

	t.Run("update", func(t *testing.T) {
		repo := newMockRepository()
		svc, _ := newBookingService(repo, nil)
		sent := testNow.AddDate(0, 0, -2)
		stored := refs.stored(agencyID)
		stored.BookingFeeInvoice = models.Invoice{Status: models.InvoiceSent, SentDate: &sent}
		repo.bookings.On("Get", mock.Anything, agencyID, stored.ID).Return(stored, nil)
		repo.bookings.On("Save", mock.Anything, mock.Anything).Return(nil)
		repo.resolver.On("Names", mock.Anything, agencyID, mock.Anything).Return(refs.names(), nil)

		var in BookingInput
		require.NoError(t, json.Unmarshal([]byte(`{"booking_fee_invoice_due_date": ""}`), &in))

		detail, err := svc.Update(context.Background(), memberOf(agencyID), stored.ID, in)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceSent, detail.BookingFeeInvoiceStatus)
		assert.Nil(t, detail.BookingFeeInvoiceDueDate)
	})
}

func TestBookingUpdateRequiresSentDate(t *testing.T) {
	agencyID := uuid.New()
	refs := newRefs()
	signed := models.ContractSigned
	paid := models.InvoicePaid

	tests := []struct {
		name      string
		in        BookingInput
		wantField string
	}{
		{"contract signed", BookingInput{ContractStatus: &signed}, "contract_status"},
		{"artist fee paid", BookingInput{ArtistFeeInvoiceStatus: &paid}, "artist_fee_invoice_status"},
		{"booking fee paid", BookingInput{BookingFeeInvoiceStatus: &paid}, "booking_fee_invoice_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			svc, pub := newBookingService(repo, nil)
			stored := refs.stored(agencyID)
			repo.bookings.On("Get", mock.Anything, agencyID, stored.ID).Return(stored, nil)

			_, err := svc.Update(context.Background(), memberOf(agencyID), stored.ID, tt.in)

			assert.Contains(t, fieldErrors(t, err), tt.wantField)
			repo.bookings.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			assert.Empty(t, pub.types())
		})
	}
}
