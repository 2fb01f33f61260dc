package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"example.com/backstage/bookings/internal/service"

	"github.com/spf13/cobra"
)

var (
	dryRun        bool
	overdueAgency string
)

var checkOverdueCmd = &cobra.Command{
	Use:   "check-overdue",
	Short: "Flag sent invoices past their due date as overdue",
	RunE:  runCheckOverdue,
}

func init() {
	checkOverdueCmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the invoices that would be flagged without changing them")
	checkOverdueCmd.Flags().StringVar(&overdueAgency, "agency", "", "only check one agency, by id or slug")
}

func runCheckOverdue(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Worker.SweepTimeout)
	defer cancel()

	agencyID, err := resolveAgency(ctx, a.repo.Agencies(), overdueAgency)
	if err != nil {
		return err
	}

	report, err := a.service.Overdue.Sweep(ctx, service.SweepOptions{DryRun: dryRun, AgencyID: agencyID})
	if err != nil {
		return err
	}
	return writeSweepReport(cmd.OutOrStdout(), report)
}

// writeSweepReport prints the invoices a sweep found and the counts per
// invoice kind
func writeSweepReport(out io.Writer, report *service.SweepReport) error {
	if report.DryRun {
		fmt.Fprintf(out, "Dry run for %s, nothing was changed\n", report.Today)
	} else {
		fmt.Fprintf(out, "Checked invoices due before %s\n", report.Today)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, res := range report.Results {
		for _, c := range res.Candidates {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.BookingReference, res.Kind, c.EventName, c.DueDate)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, res := range report.Results {
		if report.DryRun {
			fmt.Fprintf(out, "%s invoices: %d would be marked overdue\n", res.Kind, len(res.Candidates))
		} else {
			fmt.Fprintf(out, "%s invoices: %d marked overdue\n", res.Kind, res.Marked)
		}
	}
	_, err := fmt.Fprintf(out, "Total overdue invoices: %d\n", report.TotalOverdue)
	return err
}
