package service

import (
	"context"

	"example.com/backstage/bookings/internal/booking"
	"example.com/backstage/bookings/internal/messaging"
	"example.com/backstage/bookings/internal/metrics"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// OverdueService flags sent invoices whose due date has passed
type OverdueService struct {
	deps
}

// SweepOptions narrows an overdue sweep
type SweepOptions struct {
	// DryRun reports the invoices that would be flagged without writing
	DryRun bool
	// AgencyID limits the sweep to one agency; nil sweeps every agency
	AgencyID *uuid.UUID
}

// SweepResult is the outcome of the sweep for one invoice kind
type SweepResult struct {
	Kind       booking.InvoiceKind           `json:"kind"`
	Candidates []repository.OverdueCandidate `json:"candidates"`
	Marked     int64                         `json:"marked"`
}

// SweepReport summarises one sweep
type SweepReport struct {
	DryRun       bool          `json:"dry_run"`
	Today        models.Date   `json:"today"`
	Results      []SweepResult `json:"results"`
	TotalOverdue int64         `json:"total_overdue"`
}

// Marked is the number of invoices flagged across both kinds
func (r *SweepReport) Marked() int64 {
	var n int64
	for _, res := range r.Results {
		n += res.Marked
	}
	return n
}

type overdueEvent struct {
	BookingReference string              `json:"booking_reference"`
	Invoice          booking.InvoiceKind `json:"invoice"`
	DueDate          *models.Date        `json:"due_date"`
}

// Sweep moves every sent invoice due before today to overdue. It only
// tightens state, so running it again on the same data changes nothing.
func (s *OverdueService) Sweep(ctx context.Context, opts SweepOptions) (*SweepReport, error) {
	today := models.NewDate(s.now())
	report := &SweepReport{DryRun: opts.DryRun, Today: today, Results: make([]SweepResult, 0, len(booking.InvoiceKinds))}

	for _, kind := range booking.InvoiceKinds {
		prefix := kind.Column()
		candidates, err := s.repo.Bookings().OverdueCandidates(ctx, opts.AgencyID, prefix, today)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to find overdue %s invoices", kind)
		}
		result := SweepResult{Kind: kind, Candidates: candidates}

		if !opts.DryRun && len(candidates) > 0 {
			ids := make([]uuid.UUID, len(candidates))
			for i, c := range candidates {
				ids[i] = c.ID
			}
			marked, err := s.repo.Bookings().MarkOverdue(ctx, prefix, ids, today)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to mark %s invoices overdue", kind)
			}
			result.Marked = int64(len(marked))
			changed := make(map[uuid.UUID]bool, len(marked))
			for _, id := range marked {
				changed[id] = true
			}
			for _, c := range candidates {
				if !changed[c.ID] {
					continue
				}
				due := c.DueDate
				agencyID := c.AgencyID
				s.publish(ctx, messaging.NewEvent(messaging.EventInvoiceOverdue, &agencyID, c.ID, overdueEvent{
					BookingReference: c.BookingReference,
					Invoice:          kind,
					DueDate:          &due,
				}))
			}
		}

		s.log.WithFields(logrus.Fields{
			"invoice":    kind,
			"candidates": len(candidates),
			"marked":     result.Marked,
			"dry_run":    opts.DryRun,
		}).Info("Overdue sweep checked invoices")
		report.Results = append(report.Results, result)
	}

	total, err := s.repo.Bookings().CountOverdue(ctx, opts.AgencyID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count overdue invoices")
	}
	report.TotalOverdue = total

	if !opts.DryRun {
		metrics.Default().RecordSweep(int(report.Marked()))
	}
	return report, nil
}
