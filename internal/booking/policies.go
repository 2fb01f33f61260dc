package booking

import (
	"time"

	"example.com/backstage/bookings/internal/models"
)

// ApplyWritePolicies runs the derived-state rules every save goes through,
// in order: cancellation normalisation, first-transition date stamping,
// overdue detection, completion inference. prev is the stored state before
// this write and is nil for a new booking.
func ApplyWritePolicies(prev, b *models.Booking, now time.Time) {
	ApplyCancellation(b, now)
	if prev != nil {
		StampTransitions(prev, b, now)
		ApplyOverdue(b, now)
	}
	ApplyCompletion(b, now)
}

// ApplyCancellation keeps the cancellation fields consistent with the flag
func ApplyCancellation(b *models.Booking, now time.Time) {
	if !b.IsCancelled {
		return
	}
	if b.CancellationDate == nil {
		t := now
		b.CancellationDate = &t
	}
	b.Status = models.StatusCancelled
}

// StampTransitions fills a missing date when a status moves into sent or
// signed for the first time.
func StampTransitions(prev, b *models.Booking, now time.Time) {
	stamp := func(dst **time.Time) {
		if *dst == nil {
			t := now
			*dst = &t
		}
	}
	if b.ArtistFeeInvoice.Status == models.InvoiceSent && prev.ArtistFeeInvoice.Status != models.InvoiceSent {
		stamp(&b.ArtistFeeInvoice.SentDate)
	}
	if b.BookingFeeInvoice.Status == models.InvoiceSent && prev.BookingFeeInvoice.Status != models.InvoiceSent {
		stamp(&b.BookingFeeInvoice.SentDate)
	}
	if b.ContractStatus == models.ContractSent && prev.ContractStatus != models.ContractSent {
		stamp(&b.ContractSentDate)
	}
	if b.ContractStatus == models.ContractSigned && prev.ContractStatus != models.ContractSigned {
		stamp(&b.ContractSignedDate)
	}
}

// ApplyOverdue flags sent invoices whose due date is before today. It only
// moves sent to overdue, so running it repeatedly is a no-op. It returns the
// invoice kinds it flagged.
func ApplyOverdue(b *models.Booking, now time.Time) []InvoiceKind {
	today := models.NewDate(now)
	var flagged []InvoiceKind
	for _, kind := range InvoiceKinds {
		inv := kind.Of(b)
		if inv.Status == models.InvoiceSent && inv.DueDate != nil && inv.DueDate.Before(today) {
			inv.Status = models.InvoiceOverdue
			flagged = append(flagged, kind)
		}
	}
	return flagged
}

// ReadyToComplete reports whether the booking meets every completion
// condition: the date has passed, the contract is signed, both invoices are
// paid and it is not cancelled.
func ReadyToComplete(b *models.Booking, now time.Time) bool {
	return b.BookingDate.Before(now) &&
		b.ContractStatus == models.ContractSigned &&
		b.AllInvoicesPaid() &&
		!b.IsCancelled
}

// ApplyCompletion reclassifies a finished booking as completed. It never
// touches a cancelled booking.
func ApplyCompletion(b *models.Booking, now time.Time) bool {
	if b.Status == models.StatusCompleted || !ReadyToComplete(b, now) {
		return false
	}
	b.Status = models.StatusCompleted
	return true
}

// InvoiceKind names one of the two invoices of a booking
type InvoiceKind string

const (
	ArtistFeeInvoice  InvoiceKind = "artist_fee"
	BookingFeeInvoice InvoiceKind = "booking_fee"
)

// InvoiceKinds lists both invoice kinds
var InvoiceKinds = []InvoiceKind{ArtistFeeInvoice, BookingFeeInvoice}

// Of returns the invoice of this kind on b
func (k InvoiceKind) Of(b *models.Booking) *models.Invoice {
	if k == ArtistFeeInvoice {
		return &b.ArtistFeeInvoice
	}
	return &b.BookingFeeInvoice
}

// Column returns the column prefix of this invoice kind
func (k InvoiceKind) Column() string {
	return string(k) + "_invoice_"
}
