package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/backstage/bookings/api"
	"example.com/backstage/bookings/api/handlers"
	"example.com/backstage/bookings/api/routes"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer a.Close()

	gormDB, err := a.db.DB()
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	server := api.NewServer(cfg, log, a.nrApp, routes.Dependencies{
		Service:  a.service,
		Agencies: a.repo.Agencies(),
		Profiles: a.repo.Profiles(),
		Probes: map[string]handlers.Probe{
			"database": sqlDB.PingContext,
			"cache":    a.cache.Ping,
		},
	})

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	log.Info("Server successfully shutdown")
	return nil
}
