package booking

import (
	"time"

	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/validation"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Validate runs the field and cross-field rules on a booking about to be
// written. isNew enables the create-only rules.
func Validate(b *models.Booking, isNew bool, now time.Time) validation.FieldErrors {
	errs := validation.FieldErrors{}

	if b.BookingDate.IsZero() {
		errs.Add("booking_date", "This field is required.")
	} else if isNew && b.BookingDate.Before(now) {
		errs.Add("booking_date", "Booking date cannot be in the past.")
	}
	if b.LocationCity == "" {
		errs.Add("location_city", "This field is required.")
	}
	if !validation.IsCountry(b.LocationCountry) {
		errs.Add("location_country", "Enter a 2-letter country code.")
	}
	if !validation.IsCurrency(b.Currency) {
		errs.Add("currency", "Enter a 3-letter currency code.")
	}
	if b.VenueCapacity != nil && *b.VenueCapacity < 1 {
		errs.Add("venue_capacity", "Venue capacity must be at least 1.")
	}

	if b.GuaranteeAmount.IsNegative() {
		errs.Add("guarantee_amount", "Guarantee amount must be positive.")
	}
	if b.BonusAmount.IsNegative() {
		errs.Add("bonus_amount", "Ensure this value is greater than or equal to 0.")
	}
	if b.ExpensesAmount.IsNegative() {
		errs.Add("expenses_amount", "Ensure this value is greater than or equal to 0.")
	}
	if b.BookingFeeAmount.IsNegative() {
		errs.Add("booking_fee_amount", "Ensure this value is greater than or equal to 0.")
	}
	checkPercentage(errs, "percentage_split", b.PercentageSplit, "Percentage must be between 0 and 100.")
	checkPercentage(errs, "door_percentage", b.DoorPercentage, "Door percentage must be between 0 and 100.")
	checkPercentage(errs, "booking_fee_percentage", b.BookingFeePercentage, "Booking fee percentage must be between 0 and 100.")

	validateEnums(errs, b)

	for field, v := range map[string]*string{
		"doors_time":             b.DoorsTime,
		"soundcheck_time":        b.SoundcheckTime,
		"performance_start_time": b.PerformanceStartTime,
		"performance_end_time":   b.PerformanceEndTime,
	} {
		if v != nil && !validation.IsClockTime(*v) {
			errs.Add(field, "Time has wrong format. Use HH:MM[:ss].")
		}
	}

	if b.ArtistFeeInvoice.PaidDate != nil && b.ArtistFeeInvoice.SentDate == nil {
		errs.Add("artist_fee_invoice_paid_date", "Cannot mark as paid without sent date.")
	}
	if b.BookingFeeInvoice.PaidDate != nil && b.BookingFeeInvoice.SentDate == nil {
		errs.Add("booking_fee_invoice_paid_date", "Cannot mark as paid without sent date.")
	}
	if b.ContractSignedDate != nil && b.ContractSentDate == nil {
		errs.Add("contract_signed_date", "Cannot mark as signed without sent date.")
	}
	if b.ContractStatus == models.ContractSigned && b.ContractSentDate == nil {
		errs.Add("contract_status", "Cannot mark as signed without sent date.")
	}
	if b.ArtistFeeInvoice.Status == models.InvoicePaid && b.ArtistFeeInvoice.SentDate == nil {
		errs.Add("artist_fee_invoice_status", "Cannot mark as paid without sent date.")
	}
	if b.BookingFeeInvoice.Status == models.InvoicePaid && b.BookingFeeInvoice.SentDate == nil {
		errs.Add("booking_fee_invoice_status", "Cannot mark as paid without sent date.")
	}
	if b.IsCancelled && b.CancellationReason == "" {
		errs.Add("cancellation_reason", "Cancellation reason is required when marking booking as cancelled.")
	}

	return errs
}

func checkPercentage(errs validation.FieldErrors, field string, v decimal.NullDecimal, msg string) {
	if !v.Valid {
		return
	}
	if v.Decimal.IsNegative() || v.Decimal.GreaterThan(hundred) {
		errs.Add(field, msg)
	}
}

func validateEnums(errs validation.FieldErrors, b *models.Booking) {
	if !oneOf(b.Status, models.BookingStatuses...) {
		errs.Add("status", invalidChoice(string(b.Status)))
	}
	if !oneOf(b.ContractStatus, models.ContractPending, models.ContractSent, models.ContractSigned, models.ContractCancelled) {
		errs.Add("contract_status", invalidChoice(string(b.ContractStatus)))
	}
	invoiceStatuses := []models.InvoiceStatus{
		models.InvoicePending, models.InvoiceSent, models.InvoicePaid, models.InvoiceOverdue, models.InvoiceCancelled,
	}
	if !oneOf(b.ArtistFeeInvoice.Status, invoiceStatuses...) {
		errs.Add("artist_fee_invoice_status", invalidChoice(string(b.ArtistFeeInvoice.Status)))
	}
	if !oneOf(b.BookingFeeInvoice.Status, invoiceStatuses...) {
		errs.Add("booking_fee_invoice_status", invalidChoice(string(b.BookingFeeInvoice.Status)))
	}
	if !oneOf(b.ItineraryStatus, models.ItineraryPending, models.ItineraryInProgress, models.ItineraryCompleted, models.ItineraryCancelled) {
		errs.Add("itinerary_status", invalidChoice(string(b.ItineraryStatus)))
	}
	if !oneOf(b.DealType, models.DealTypes...) {
		errs.Add("deal_type", invalidChoice(string(b.DealType)))
	}
}

func oneOf[T comparable](v T, allowed ...T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func invalidChoice(v string) string {
	return "\"" + v + "\" is not a valid choice."
}

// DeriveBookingFee sets the booking fee amount from the percentage of the
// guarantee, rounded to cents. It does nothing without a percentage.
func DeriveBookingFee(b *models.Booking) {
	if !b.BookingFeePercentage.Valid {
		return
	}
	b.BookingFeeAmount = b.GuaranteeAmount.Mul(b.BookingFeePercentage.Decimal).Div(hundred).Round(2)
}

// ApplyDefaults fills unset enum and money fields of a new booking
func ApplyDefaults(b *models.Booking) {
	if b.Status == "" {
		b.Status = models.StatusOption
	}
	if b.ContractStatus == "" {
		b.ContractStatus = models.ContractPending
	}
	if b.ArtistFeeInvoice.Status == "" {
		b.ArtistFeeInvoice.Status = models.InvoicePending
	}
	if b.BookingFeeInvoice.Status == "" {
		b.BookingFeeInvoice.Status = models.InvoicePending
	}
	if b.ItineraryStatus == "" {
		b.ItineraryStatus = models.ItineraryPending
	}
	if b.DealType == "" {
		b.DealType = models.DealAllIn
	}
	if b.Currency == "" {
		b.Currency = "USD"
	}
}
