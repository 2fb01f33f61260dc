// Package booking holds the booking state machine: explicit transition
// actions, the write-path policies and the read projections.
package booking

import (
	"time"

	"example.com/backstage/bookings/internal/models"
)

// ActionError is a rejected transition. It leaves the booking untouched.
type ActionError struct {
	Message string
}

func (e *ActionError) Error() string {
	return e.Message
}

var (
	ErrConfirmCancelled = &ActionError{Message: "Cannot confirm a cancelled booking."}
	ErrReasonRequired   = &ActionError{Message: "Cancellation reason is required."}
	ErrContractNotSent  = &ActionError{Message: "Contract must be sent before marking as signed."}
	ErrInvoiceNotSent   = &ActionError{Message: "Invoice must be sent before marking as paid."}
)

// Action names, used for events and logs
const (
	ActionConfirm            = "confirm"
	ActionCancel             = "cancel"
	ActionSendContract       = "send_contract"
	ActionMarkContractSigned = "mark_contract_signed"
	ActionSendArtistInvoice  = "send_artist_invoice"
	ActionMarkArtistPaid     = "mark_artist_paid"
	ActionSendBookingInvoice = "send_booking_invoice"
	ActionMarkBookingPaid    = "mark_booking_paid"
)

// Confirm moves a live booking to confirmed
func Confirm(b *models.Booking) error {
	if b.IsCancelled {
		return ErrConfirmCancelled
	}
	b.Status = models.StatusConfirmed
	return nil
}

// Cancel marks the booking cancelled with a mandatory reason
func Cancel(b *models.Booking, reason string, now time.Time) error {
	if reason == "" {
		return ErrReasonRequired
	}
	b.IsCancelled = true
	b.CancellationReason = reason
	b.CancellationDate = &now
	b.Status = models.StatusCancelled
	return nil
}

// SendContract marks the contract sent. Sending again refreshes the date.
func SendContract(b *models.Booking, now time.Time) {
	b.ContractStatus = models.ContractSent
	b.ContractSentDate = &now
}

// MarkContractSigned requires a previously sent contract
func MarkContractSigned(b *models.Booking, now time.Time) error {
	if b.ContractSentDate == nil {
		return ErrContractNotSent
	}
	b.ContractStatus = models.ContractSigned
	b.ContractSignedDate = &now
	return nil
}

// SendArtistInvoice issues the artist fee invoice
func SendArtistInvoice(b *models.Booking, due *models.Date, now time.Time) {
	sendInvoice(&b.ArtistFeeInvoice, due, now)
}

// MarkArtistPaid settles the artist fee invoice
func MarkArtistPaid(b *models.Booking, now time.Time) error {
	return payInvoice(&b.ArtistFeeInvoice, now)
}

// SendBookingInvoice issues the booking fee invoice to the promoter
func SendBookingInvoice(b *models.Booking, due *models.Date, now time.Time) {
	sendInvoice(&b.BookingFeeInvoice, due, now)
}

// MarkBookingPaid settles the booking fee invoice
func MarkBookingPaid(b *models.Booking, now time.Time) error {
	return payInvoice(&b.BookingFeeInvoice, now)
}

func sendInvoice(inv *models.Invoice, due *models.Date, now time.Time) {
	inv.Status = models.InvoiceSent
	inv.SentDate = &now
	if due := due.OrNil(); due != nil {
		d := *due
		inv.DueDate = &d
	}
}

func payInvoice(inv *models.Invoice, now time.Time) error {
	if inv.SentDate == nil {
		return ErrInvoiceNotSent
	}
	inv.Status = models.InvoicePaid
	inv.PaidDate = &now
	return nil
}
