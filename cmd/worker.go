package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/backstage/bookings/config"
	"example.com/backstage/bookings/internal/service"
	"example.com/backstage/bookings/internal/telemetry"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that flags unpaid invoices as overdue on a schedule`,
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	configureZerolog(cfg.Log)

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer a.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zlog.Info().Dur("interval", cfg.Worker.OverdueInterval).Msg("Starting overdue sweep job")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Worker.OverdueInterval),
			gocron.NewTask(func() { runSweep(ctx, a) }),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return err
		}

		scheduler.Start()
		<-ctx.Done()
		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		zlog.Error().Err(err).Msg("Worker error")
		return err
	}

	zlog.Info().Msg("Worker shutting down gracefully")
	return nil
}

// runSweep runs one overdue sweep within the configured timeout
func runSweep(ctx context.Context, a *app) {
	txn, end := telemetry.StartBackground(a.nrApp, "overdue-sweep")
	defer end()

	ctx, cancel := context.WithTimeout(ctx, cfg.Worker.SweepTimeout)
	defer cancel()

	report, err := a.service.Overdue.Sweep(ctx, service.SweepOptions{})
	if err != nil {
		if txn != nil {
			txn.NoticeError(err)
		}
		zlog.Error().Err(err).Msg("Overdue sweep failed")
		return
	}

	zlog.Info().
		Int64("marked", report.Marked()).
		Int64("total_overdue", report.TotalOverdue).
		Str("today", report.Today.String()).
		Msg("Overdue sweep finished")
}

func configureZerolog(lc config.LogConfig) {
	if lc.Format == "text" {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
