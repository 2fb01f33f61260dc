package cmd

import (
	"github.com/spf13/cobra"
)

var reindexAgency string

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the booking search index from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		agencyID, err := resolveAgency(ctx, a.repo.Agencies(), reindexAgency)
		if err != nil {
			return err
		}

		n, err := a.service.Bookings.Reindex(ctx, agencyID)
		if err != nil {
			return err
		}
		log.WithField("bookings", n).Info("Search index rebuilt")
		return nil
	},
}

func init() {
	reindexCmd.Flags().StringVar(&reindexAgency, "agency", "", "only reindex one agency, by id or slug")
}
