package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"example.com/backstage/bookings/config"
	"example.com/backstage/bookings/internal/metrics"
	"example.com/backstage/bookings/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const bookingIndex = "bookings"

// searchFields are matched by full-text booking search, with boosts
var searchFields = []string{
	"booking_reference^3",
	"event_name^2",
	"artist_name^2",
	"promoter_name",
	"venue_name",
	"location_city",
	"notes",
}

// BookingDocument is the searchable projection of a booking
type BookingDocument struct {
	ID               uuid.UUID            `json:"id"`
	AgencyID         uuid.UUID            `json:"agency_id"`
	BookingReference string               `json:"booking_reference"`
	BookingDate      time.Time            `json:"booking_date"`
	Status           models.BookingStatus `json:"status"`
	EventName        string               `json:"event_name"`
	LocationCity     string               `json:"location_city"`
	LocationCountry  string               `json:"location_country"`
	Notes            string               `json:"notes"`
	ArtistName       string               `json:"artist_name"`
	PromoterName     string               `json:"promoter_name"`
	VenueName        string               `json:"venue_name"`
	IsCancelled      bool                 `json:"is_cancelled"`
}

// NewBookingDocument projects b with its resolved reference names
func NewBookingDocument(b *models.Booking, artist, promoter, venue string) BookingDocument {
	return BookingDocument{
		ID:               b.ID,
		AgencyID:         b.AgencyID,
		BookingReference: b.BookingReference,
		BookingDate:      b.BookingDate,
		Status:           b.Status,
		EventName:        b.EventName,
		LocationCity:     b.LocationCity,
		LocationCountry:  b.LocationCountry,
		Notes:            b.Notes,
		ArtistName:       artist,
		PromoterName:     promoter,
		VenueName:        venue,
		IsCancelled:      b.IsCancelled,
	}
}

// Index maintains and queries the booking search projection
type Index interface {
	Enabled() bool
	IndexBooking(ctx context.Context, doc BookingDocument) error
	DeleteBooking(ctx context.Context, id uuid.UUID) error
	// SearchBookings returns ids of the agency's bookings matching text, best first
	SearchBookings(ctx context.Context, agencyID uuid.UUID, text string, limit int) ([]uuid.UUID, error)
}

// ElasticIndex is the Elasticsearch implementation of Index
type ElasticIndex struct {
	client *elasticsearch.Client
	config config.ElasticsearchConfig
}

// NewIndex creates an Elasticsearch index, or a disabled one when search is
// not configured
func NewIndex(cfg config.ElasticsearchConfig) (Index, error) {
	if !cfg.Enabled || len(cfg.Addresses) == 0 {
		return Disabled(), nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticIndex{client: client, config: cfg}, nil
}

func (c *ElasticIndex) Enabled() bool { return true }

func (c *ElasticIndex) indexName() string {
	return c.config.FormatIndex(bookingIndex)
}

func (c *ElasticIndex) IndexBooking(ctx context.Context, doc BookingDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal booking document")
	}

	req := esapi.IndexRequest{
		Index:      c.indexName(),
		DocumentID: doc.ID.String(),
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		metrics.Default().RecordSearchIndex(false)
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if err := responseError(res); err != nil {
		metrics.Default().RecordSearchIndex(false)
		return errors.Wrap(err, "Elasticsearch index error")
	}
	metrics.Default().RecordSearchIndex(true)
	return nil
}

func (c *ElasticIndex) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	req := esapi.DeleteRequest{
		Index:      c.indexName(),
		DocumentID: id.String(),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil
	}
	return errors.Wrap(responseError(res), "Elasticsearch delete error")
}

func (c *ElasticIndex) SearchBookings(ctx context.Context, agencyID uuid.UUID, text string, limit int) ([]uuid.UUID, error) {
	body, err := json.Marshal(BuildQuery(agencyID, text, limit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	req := esapi.SearchRequest{
		Index: []string{c.indexName()},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if err := responseError(res); err != nil {
		return nil, errors.Wrap(err, "Elasticsearch search error")
	}
	return decodeHits(res.Body)
}

// BuildQuery builds the agency-filtered multi-field search request body
func BuildQuery(agencyID uuid.UUID, text string, limit int) map[string]interface{} {
	return map[string]interface{}{
		"size":    limit,
		"_source": false,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":     text,
							"fields":    searchFields,
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"agency_id": agencyID.String()},
					},
				},
			},
		},
	}
}

func decodeHits(r io.Reader) ([]uuid.UUID, error) {
	var result struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	ids := make([]uuid.UUID, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func responseError(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	var e map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
		return errors.Wrapf(err, "status %d", res.StatusCode)
	}
	return errors.Errorf("status %d: %v", res.StatusCode, e["error"])
}

// Disabled returns an Index that stores nothing and finds nothing
func Disabled() Index {
	return disabledIndex{}
}

// disabledIndex is used when Elasticsearch is not configured
type disabledIndex struct{}

func (disabledIndex) Enabled() bool { return false }

func (disabledIndex) IndexBooking(context.Context, BookingDocument) error { return nil }

func (disabledIndex) DeleteBooking(context.Context, uuid.UUID) error { return nil }

func (disabledIndex) SearchBookings(context.Context, uuid.UUID, string, int) ([]uuid.UUID, error) {
	return nil, nil
}
