package telemetry

import (
	"testing"

	"example.com/backstage/bookings/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitNewRelic_Disabled(t *testing.T) {
	app, err := InitNewRelic(config.NewRelicConfig{Enabled: false, LicenseKey: "x"})
	require.NoError(t, err)
	assert.Nil(t, app)

	app, err = InitNewRelic(config.NewRelicConfig{Enabled: true})
	require.NoError(t, err)
	assert.Nil(t, app)
}

func TestStartBackground_NilApp(t *testing.T) {
	txn, end := StartBackground(nil, "overdue-sweep")
	assert.Nil(t, txn)
	assert.NotPanics(t, end)
	assert.NotPanics(t, func() { Shutdown(nil) })
}
