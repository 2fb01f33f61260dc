package search

import (
	"context"
	"strings"
	"testing"
	"time"

	"example.com/backstage/bookings/config"
	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndex_DisabledWithoutConfig(t *testing.T) {
	idx, err := NewIndex(config.ElasticsearchConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, idx.Enabled())

	ctx := context.Background()
	assert.NoError(t, idx.IndexBooking(ctx, BookingDocument{ID: uuid.New()}))
	assert.NoError(t, idx.DeleteBooking(ctx, uuid.New()))
	ids, err := idx.SearchBookings(ctx, uuid.New(), "berlin", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBuildQuery_FiltersByAgency(t *testing.T) {
	agencyID := uuid.New()
	q := BuildQuery(agencyID, "techno night", 25)

	assert.Equal(t, 25, q["size"])
	boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})

	must := boolQuery["must"].([]interface{})[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "techno night", must["query"])
	assert.Contains(t, must["fields"], "booking_reference^3")

	filter := boolQuery["filter"].([]interface{})[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, agencyID.String(), filter["agency_id"])
}

func TestDecodeHits(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	body := `{"hits":{"hits":[{"_id":"` + first.String() + `"},{"_id":"not-a-uuid"},{"_id":"` + second.String() + `"}]}}`

	ids, err := decodeHits(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
}

func TestNewBookingDocument(t *testing.T) {
	b := &models.Booking{
		ID:               uuid.New(),
		AgencyID:         uuid.New(),
		BookingReference: "BK-2026-ABC123",
		BookingDate:      time.Date(2026, 7, 4, 21, 0, 0, 0, time.UTC),
		Status:           models.StatusConfirmed,
		EventName:        "Summer Opening",
		LocationCity:     "Ibiza",
	}

	doc := NewBookingDocument(b, "DJ Nova", "Sunset Events", "Amnesia")
	assert.Equal(t, b.ID, doc.ID)
	assert.Equal(t, b.AgencyID, doc.AgencyID)
	assert.Equal(t, "DJ Nova", doc.ArtistName)
	assert.Equal(t, "Amnesia", doc.VenueName)
	assert.Equal(t, models.StatusConfirmed, doc.Status)
}
