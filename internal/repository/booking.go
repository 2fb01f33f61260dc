package repository

import (
	"context"
	"time"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingFilter narrows a booking list
type BookingFilter struct {
	ListOptions
	// IDs restricts the page to these bookings when non-empty
	IDs                     []uuid.UUID
	ArtistID                *uuid.UUID
	PromoterID              *uuid.UUID
	VenueID                 *uuid.UUID
	DateFrom                *time.Time
	DateTo                  *time.Time
	ShowCancelled           bool
	IsCancelled             *bool
	IsPrivate               *bool
	Status                  string
	ContractStatus          string
	ArtistFeeInvoiceStatus  string
	BookingFeeInvoiceStatus string
	LocationCountry         string
	DealType                string
}

// StatsFilter narrows the booking statistics
type StatsFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	ArtistID *uuid.UUID
}

// BookingStats are the aggregates over an agency's bookings. Monetary
// figures exclude cancelled bookings.
type BookingStats struct {
	TotalBookings     int64
	ConfirmedBookings int64
	PendingBookings   int64
	CancelledBookings int64
	TotalRevenue      decimal.Decimal
	TotalBookingFees  decimal.Decimal
	AvgGuarantee      decimal.Decimal
	OverdueInvoices   int64
	UpcomingShows     int64
	ContractsPending  int64
}

// OverdueCandidate is an invoice due before the sweep date but still marked sent
type OverdueCandidate struct {
	ID               uuid.UUID
	AgencyID         uuid.UUID
	BookingReference string
	EventName        string
	DueDate          models.Date
}

// BookingRepository provides access to bookings
type BookingRepository interface {
	Get(ctx context.Context, agencyID, id uuid.UUID) (*models.Booking, error)
	Create(ctx context.Context, b *models.Booking) error
	Save(ctx context.Context, b *models.Booking) error
	Delete(ctx context.Context, agencyID, id uuid.UUID) error
	List(ctx context.Context, agencyID uuid.UUID, f BookingFilter) (Page[models.Booking], error)
	Stats(ctx context.Context, agencyID uuid.UUID, f StatsFilter, now time.Time) (BookingStats, error)
	// Upcoming lists bookings that are not cancelled in [from, to], by date
	Upcoming(ctx context.Context, agencyID uuid.UUID, from, to time.Time) ([]models.Booking, error)
	// Between lists bookings in [from, to) by date
	Between(ctx context.Context, agencyID uuid.UUID, from, to time.Time, includeCancelled bool) ([]models.Booking, error)

	// OverdueCandidates lists invoices with the given column prefix that are
	// sent and due before today. agencyID nil means every agency.
	OverdueCandidates(ctx context.Context, agencyID *uuid.UUID, prefix string, today models.Date) ([]OverdueCandidate, error)
	// MarkOverdue moves the sent invoices among ids to overdue and returns
	// the ids it actually changed
	MarkOverdue(ctx context.Context, prefix string, ids []uuid.UUID, today models.Date) ([]uuid.UUID, error)
	CountOverdue(ctx context.Context, agencyID *uuid.UUID) (int64, error)
	// FindInBatches walks every booking, optionally of one agency
	FindInBatches(ctx context.Context, agencyID *uuid.UUID, size int, fn func([]models.Booking) error) error
}

var bookingOrdering = map[string]string{
	"booking_date":     "booking_date",
	"created_at":       "created_at",
	"guarantee_amount": "guarantee_amount",
	"status":           "status",
}

var bookingSearchColumns = []string{"booking_reference", "event_name", "location_city", "notes"}

type bookingRepo struct {
	tenantRepo[models.Booking]
}

func newBookingRepo(db *gorm.DB) *bookingRepo {
	return &bookingRepo{tenantRepo[models.Booking]{db: db}}
}

// Get loads one booking with its booking type
func (r *bookingRepo) Get(ctx context.Context, agencyID, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).Preload("BookingType").
		Where("agency_id = ? AND id = ?", agencyID, id).First(&b).Error
	if err != nil {
		return nil, translate(err, "failed to get booking")
	}
	return &b, nil
}

func (r *bookingRepo) Create(ctx context.Context, b *models.Booking) error {
	return translate(r.db.WithContext(ctx).Omit("Agency", "BookingType").Create(b).Error, "failed to create booking")
}

func (r *bookingRepo) List(ctx context.Context, agencyID uuid.UUID, f BookingFilter) (Page[models.Booking], error) {
	q := r.scoped(ctx, agencyID)
	q = dateRange(q, f.DateFrom, f.DateTo)
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}

	// An explicit is_cancelled filter wins over the default hiding
	switch {
	case f.IsCancelled != nil:
		q = q.Where("is_cancelled = ?", *f.IsCancelled)
	case !f.ShowCancelled:
		q = q.Where("is_cancelled = ?", false)
	}

	for column, id := range map[string]*uuid.UUID{
		"artist_id":   f.ArtistID,
		"promoter_id": f.PromoterID,
		"venue_id":    f.VenueID,
	} {
		if id != nil {
			q = q.Where(column+" = ?", *id)
		}
	}
	for column, v := range map[string]string{
		"status":                     f.Status,
		"contract_status":            f.ContractStatus,
		"artist_fee_invoice_status":  f.ArtistFeeInvoiceStatus,
		"booking_fee_invoice_status": f.BookingFeeInvoiceStatus,
		"location_country":           f.LocationCountry,
		"deal_type":                  f.DealType,
	} {
		if v != "" {
			q = q.Where(column+" = ?", v)
		}
	}
	if f.IsPrivate != nil {
		q = q.Where("is_private = ?", *f.IsPrivate)
	}

	q = applySearch(q, f.Search, bookingSearchColumns...)
	q = applyOrdering(q, f.Ordering, bookingOrdering, "booking_date DESC")

	page, err := paginate[models.Booking](q, f.ListOptions)
	return page, translate(err, "failed to list bookings")
}

func (r *bookingRepo) Stats(ctx context.Context, agencyID uuid.UUID, f StatsFilter, now time.Time) (BookingStats, error) {
	q := dateRange(r.scoped(ctx, agencyID), f.DateFrom, f.DateTo)
	if f.ArtistID != nil {
		q = q.Where("artist_id = ?", *f.ArtistID)
	}

	var stats BookingStats
	err := q.Select(
		"COUNT(*) AS total_bookings, "+
			"COUNT(*) FILTER (WHERE status = ?) AS confirmed_bookings, "+
			"COUNT(*) FILTER (WHERE status IN ?) AS pending_bookings, "+
			"COUNT(*) FILTER (WHERE is_cancelled) AS cancelled_bookings, "+
			"COALESCE(SUM(guarantee_amount) FILTER (WHERE NOT is_cancelled), 0) AS total_revenue, "+
			"COALESCE(SUM(booking_fee_amount) FILTER (WHERE NOT is_cancelled), 0) AS total_booking_fees, "+
			"COALESCE(AVG(guarantee_amount) FILTER (WHERE NOT is_cancelled), 0) AS avg_guarantee, "+
			"COUNT(*) FILTER (WHERE artist_fee_invoice_status = ? OR booking_fee_invoice_status = ?) AS overdue_invoices, "+
			"COUNT(*) FILTER (WHERE booking_date >= ? AND booking_date <= ? AND NOT is_cancelled) AS upcoming_shows, "+
			"COUNT(*) FILTER (WHERE contract_status = ?) AS contracts_pending",
		models.StatusConfirmed,
		[]models.BookingStatus{models.StatusOption, models.StatusHold, models.StatusPending},
		models.InvoiceOverdue, models.InvoiceOverdue,
		now, now.AddDate(0, 0, 30),
		models.ContractPending,
	).Scan(&stats).Error
	return stats, translate(err, "failed to compute booking stats")
}

func (r *bookingRepo) Upcoming(ctx context.Context, agencyID uuid.UUID, from, to time.Time) ([]models.Booking, error) {
	bookings := []models.Booking{}
	err := r.scoped(ctx, agencyID).
		Where("booking_date >= ? AND booking_date <= ? AND is_cancelled = ?", from, to, false).
		Order("booking_date").Find(&bookings).Error
	return bookings, translate(err, "failed to list upcoming bookings")
}

func (r *bookingRepo) Between(ctx context.Context, agencyID uuid.UUID, from, to time.Time, includeCancelled bool) ([]models.Booking, error) {
	q := r.scoped(ctx, agencyID).Where("booking_date >= ? AND booking_date < ?", from, to)
	if !includeCancelled {
		q = q.Where("is_cancelled = ?", false)
	}
	bookings := []models.Booking{}
	err := q.Order("booking_date").Find(&bookings).Error
	return bookings, translate(err, "failed to list bookings in range")
}

func (r *bookingRepo) OverdueCandidates(ctx context.Context, agencyID *uuid.UUID, prefix string, today models.Date) ([]OverdueCandidate, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("id, agency_id, booking_reference, event_name, "+prefix+"due_date AS due_date").
		Where(prefix+"status = ? AND "+prefix+"due_date < ?", models.InvoiceSent, today)
	if agencyID != nil {
		q = q.Where("agency_id = ?", *agencyID)
	}
	candidates := []OverdueCandidate{}
	err := q.Order("booking_reference").Scan(&candidates).Error
	return candidates, translate(err, "failed to find overdue invoices")
}

func (r *bookingRepo) MarkOverdue(ctx context.Context, prefix string, ids []uuid.UUID, today models.Date) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var marked []models.Booking
	err := r.db.WithContext(ctx).Model(&marked).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("id IN ? AND "+prefix+"status = ? AND "+prefix+"due_date < ?", ids, models.InvoiceSent, today).
		Updates(map[string]interface{}{
			prefix + "status": models.InvoiceOverdue,
			"updated_at":      time.Now().UTC(),
		}).Error
	if err != nil {
		return nil, translate(err, "failed to mark invoices overdue")
	}
	out := make([]uuid.UUID, len(marked))
	for i := range marked {
		out[i] = marked[i].ID
	}
	return out, nil
}

func (r *bookingRepo) CountOverdue(ctx context.Context, agencyID *uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{}).Select(
		"COUNT(*) FILTER (WHERE artist_fee_invoice_status = ?) + "+
			"COUNT(*) FILTER (WHERE booking_fee_invoice_status = ?)",
		models.InvoiceOverdue, models.InvoiceOverdue,
	)
	if agencyID != nil {
		q = q.Where("agency_id = ?", *agencyID)
	}
	var n int64
	err := q.Scan(&n).Error
	return n, translate(err, "failed to count overdue invoices")
}

func (r *bookingRepo) FindInBatches(ctx context.Context, agencyID *uuid.UUID, size int, fn func([]models.Booking) error) error {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if agencyID != nil {
		q = q.Where("agency_id = ?", *agencyID)
	}
	var batch []models.Booking
	err := q.FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
	return translate(err, "failed to walk bookings")
}

// dateRange bounds booking_date by whole days
func dateRange(q *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where("booking_date >= ?", models.NewDate(*from).Time)
	}
	if to != nil {
		q = q.Where("booking_date < ?", models.NewDate(*to).AddDate(0, 0, 1))
	}
	return q
}
