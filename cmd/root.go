package cmd

import (
	"fmt"
	"os"

	"example.com/backstage/bookings/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Flags
	cfgFile  string
	logLevel string

	cfg *config.Config
	log = logrus.New()

	// Root command
	rootCmd = &cobra.Command{
		Use:   "bookings",
		Short: "Bookings Service",
		Long: `Bookings Service for talent agencies.

Functions:
- Manage agencies, their members and the artists they represent
- Keep the promoters, venues and contacts an agency books with
- Run bookings through contract, invoicing and payment
- Flag unpaid invoices as overdue on a schedule`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides log.level")

	// Add commands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(checkOverdueCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig loads the configuration and sets up logging
func initConfig(cmd *cobra.Command, args []string) error {
	if err := config.InitConfig(cfgFile); err != nil {
		return err
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	configureLogger(log, cfg.Log)
	return nil
}

func configureLogger(logger *logrus.Logger, lc config.LogConfig) {
	if lc.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}
