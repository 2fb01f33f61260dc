package messaging

import (
	"context"
	"testing"

	"example.com/backstage/bookings/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_WithoutConnectionStringLogs(t *testing.T) {
	logger, hook := test.NewNullLogger()

	pub, err := NewPublisher(config.ServiceBusConfig{}, "bookings", logger)
	require.NoError(t, err)
	defer pub.Close()

	agencyID := uuid.New()
	event := NewEvent(EventBookingCreated, &agencyID, uuid.New(), map[string]string{"ref": "BK-2026-ABCDEF"})
	require.NoError(t, pub.Publish(context.Background(), event))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, EventBookingCreated, entry.Data["event_type"])
	assert.Equal(t, agencyID.String(), entry.Data["session_id"])
}

func TestSessionID_FallsBackToEntity(t *testing.T) {
	entityID := uuid.New()
	event := NewEvent(EventVerificationRequested, nil, entityID, nil)

	assert.Equal(t, entityID.String(), sessionID(event))
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.OccurredAt.IsZero())
}
