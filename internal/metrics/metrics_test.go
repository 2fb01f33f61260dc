package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	c := NewCollector()

	c.RecordHTTPRequest("GET", "/api/v1/bookings", 200, 10*time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/v1/bookings", 200, 30*time.Millisecond)
	c.RecordHTTPRequest("POST", "/api/v1/bookings", 400, 5*time.Millisecond)

	assert.Equal(t, int64(3), c.Counter(CounterHTTPRequests))
	assert.Equal(t, int64(2), c.Counter(CounterHTTPRequestsSuccess))
	assert.Equal(t, int64(1), c.Counter(CounterHTTPRequestsError))

	snap := c.Snapshot()
	latencies := snap["request_latencies_ms"].(map[string]float64)
	assert.Equal(t, 20.0, latencies["GET /api/v1/bookings"])
	counts := snap["request_counts"].(map[string]int64)
	assert.Equal(t, int64(1), counts["POST /api/v1/bookings"])
}

func TestRecordDatabaseQueryKeepsBoundedSamples(t *testing.T) {
	c := NewCollector()
	c.maxSamples = 2

	c.RecordDatabaseQuery(DBQueryTypeSelect, true, time.Millisecond)
	c.RecordDatabaseQuery(DBQueryTypeSelect, true, 3*time.Millisecond)
	c.RecordDatabaseQuery(DBQueryTypeSelect, false, 5*time.Millisecond)

	assert.Len(t, c.databaseLatencies[DBQueryTypeSelect], 2)
	assert.Equal(t, int64(3), c.Counter(CounterDBQueriesTotal))
	assert.Equal(t, int64(1), c.Counter(CounterDBQueriesError))
}

func TestRecordSweepAndEvents(t *testing.T) {
	c := NewCollector()

	c.RecordSweep(3)
	c.RecordSweep(0)
	c.RecordEvent("booking.created", true)
	c.RecordEvent("booking.created", false)

	assert.Equal(t, int64(2), c.Counter(CounterSweepRuns))
	assert.Equal(t, int64(3), c.Counter(CounterInvoicesMarked))
	assert.Equal(t, int64(1), c.Counter(CounterEventsPublished))
	assert.Equal(t, int64(1), c.Counter(CounterEventsFailed))
}
