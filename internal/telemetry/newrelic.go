package telemetry

import (
	"time"

	"example.com/backstage/bookings/config"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// InitNewRelic initializes the New Relic application. It returns nil when
// monitoring is disabled.
func InitNewRelic(cfg config.NewRelicConfig) (*newrelic.Application, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, err
	}

	// Wait for the application to connect
	if err := app.WaitForConnection(5 * time.Second); err != nil {
		return nil, err
	}

	return app, nil
}

// Shutdown flushes pending data of app, if any
func Shutdown(app *newrelic.Application) {
	if app != nil {
		app.Shutdown(10 * time.Second)
	}
}

// StartBackground opens a non-web transaction for a background job. The
// returned end function is safe to call when app is nil.
func StartBackground(app *newrelic.Application, name string) (*newrelic.Transaction, func()) {
	if app == nil {
		return nil, func() {}
	}
	txn := app.StartTransaction(name)
	return txn, txn.End
}
