package metrics

import (
	"sync"
	"time"
)

// Counter names
const (
	CounterHTTPRequests        = "http_requests_total"
	CounterHTTPRequestsSuccess = "http_requests_success_total"
	CounterHTTPRequestsError   = "http_requests_error_total"
	CounterDBQueriesTotal      = "db_queries_total"
	CounterDBQueriesError      = "db_queries_error_total"
	CounterEventsPublished     = "events_published_total"
	CounterEventsFailed        = "events_failed_total"
	CounterSearchIndexed       = "search_documents_indexed_total"
	CounterSearchFailed        = "search_index_errors_total"
	CounterSweepRuns           = "overdue_sweep_runs_total"
	CounterInvoicesMarked      = "overdue_invoices_marked_total"
)

// Database query types
const (
	DBQueryTypeSelect = "select"
	DBQueryTypeInsert = "insert"
	DBQueryTypeUpdate = "update"
	DBQueryTypeDelete = "delete"
	DBQueryTypeRaw    = "raw"
)

// Error types
const (
	ErrorTypeHTTP       = "http"
	ErrorTypeDatabase   = "database"
	ErrorTypeMessageBus = "message_bus"
	ErrorTypeSearch     = "search"
)

// Collector keeps process-local counters and latency samples
type Collector struct {
	mutex               sync.RWMutex
	counters            map[string]int64
	requestCounts       map[string]int64
	requestLatencies    map[string][]time.Duration
	databaseQueryCounts map[string]int64
	databaseLatencies   map[string][]time.Duration
	eventCounts         map[string]int64
	errorCounts         map[string]int64
	startTime           time.Time
	maxSamples          int
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		counters:            make(map[string]int64),
		requestCounts:       make(map[string]int64),
		requestLatencies:    make(map[string][]time.Duration),
		databaseQueryCounts: make(map[string]int64),
		databaseLatencies:   make(map[string][]time.Duration),
		eventCounts:         make(map[string]int64),
		errorCounts:         make(map[string]int64),
		startTime:           time.Now(),
		maxSamples:          1000,
	}
}

func (m *Collector) appendSample(samples map[string][]time.Duration, key string, latency time.Duration) {
	latencies := samples[key]
	if len(latencies) >= m.maxSamples {
		latencies = latencies[1:]
	}
	samples[key] = append(latencies, latency)
}

// RecordHTTPRequest records one served request. route is the matched
// route template, not the raw path.
func (m *Collector) RecordHTTPRequest(method, route string, statusCode int, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := method + " " + route
	m.counters[CounterHTTPRequests]++
	m.requestCounts[key]++
	m.appendSample(m.requestLatencies, key, latency)

	if statusCode >= 200 && statusCode < 400 {
		m.counters[CounterHTTPRequestsSuccess]++
	} else {
		m.counters[CounterHTTPRequestsError]++
		m.errorCounts[ErrorTypeHTTP]++
	}
}

// RecordDatabaseQuery records one gorm statement
func (m *Collector) RecordDatabaseQuery(queryType string, success bool, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.databaseQueryCounts[queryType]++
	m.counters[CounterDBQueriesTotal]++
	if !success {
		m.counters[CounterDBQueriesError]++
		m.errorCounts[ErrorTypeDatabase]++
	}
	m.appendSample(m.databaseLatencies, queryType, latency)
}

// RecordEvent records a published domain event
func (m *Collector) RecordEvent(eventType string, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if success {
		m.eventCounts[eventType]++
		m.counters[CounterEventsPublished]++
		return
	}
	m.counters[CounterEventsFailed]++
	m.errorCounts[ErrorTypeMessageBus]++
}

// RecordSearchIndex records a search projection write
func (m *Collector) RecordSearchIndex(success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if success {
		m.counters[CounterSearchIndexed]++
		return
	}
	m.counters[CounterSearchFailed]++
	m.errorCounts[ErrorTypeSearch]++
}

// RecordSweep records one overdue sweep and the invoices it flagged
func (m *Collector) RecordSweep(marked int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.counters[CounterSweepRuns]++
	m.counters[CounterInvoicesMarked] += int64(marked)
}

// Counter returns the current value of a counter
func (m *Collector) Counter(name string) int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.counters[name]
}

func averageMillis(samples map[string][]time.Duration) map[string]float64 {
	out := make(map[string]float64, len(samples))
	for key, latencies := range samples {
		if len(latencies) == 0 {
			continue
		}
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		out[key] = float64(sum.Milliseconds()) / float64(len(latencies))
	}
	return out
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Snapshot returns all collected metrics in a structured format
func (m *Collector) Snapshot() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":        time.Since(m.startTime).Seconds(),
		"counters":              copyCounts(m.counters),
		"request_counts":        copyCounts(m.requestCounts),
		"request_latencies_ms":  averageMillis(m.requestLatencies),
		"database_query_counts": copyCounts(m.databaseQueryCounts),
		"database_latencies_ms": averageMillis(m.databaseLatencies),
		"event_counts":          copyCounts(m.eventCounts),
		"error_counts":          copyCounts(m.errorCounts),
	}
}

var (
	globalCollector *Collector
	once            sync.Once
)

// Default returns the process-wide collector
func Default() *Collector {
	once.Do(func() {
		globalCollector = NewCollector()
	})
	return globalCollector
}
