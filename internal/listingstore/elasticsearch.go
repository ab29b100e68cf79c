package listingstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	apperrors "listing-workers/internal/common/errors"
	"listing-workers/internal/common/logger"
	"listing-workers/internal/common/metrics"
	"listing-workers/internal/models"
)

const sourceElasticsearch = "elasticsearch"

// ElasticsearchSource reads listing documents from one index. Documents use
// the camelCase field names of record; a missing id falls back to _id.
type ElasticsearchSource struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
	logger   logger.Logger
}

func NewElasticsearchSource(client *elasticsearch.Client, index string, pageSize int, log logger.Logger) *ElasticsearchSource {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &ElasticsearchSource{
		client:   client,
		index:    index,
		pageSize: pageSize,
		logger:   log.WithFields(map[string]interface{}{"source": sourceElasticsearch, "index": index}),
	}
}

type searchHit struct {
	ID     string          `json:"_id"`
	Source record          `json:"_source"`
	Sort   json.RawMessage `json:"sort"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type getResponse struct {
	ID     string `json:"_id"`
	Found  bool   `json:"found"`
	Source record `json:"_source"`
}

// GetListings reads every document of the index in _doc order, pageSize hits
// per request, continuing with search_after from the last hit's sort values.
func (s *ElasticsearchSource) GetListings(ctx context.Context) ([]models.Listing, error) {
	listings := make([]models.Listing, 0)
	var after json.RawMessage
	pages := 0

	for {
		hits, err := s.searchPage(ctx, after)
		if err != nil {
			return nil, err
		}
		pages++

		for _, hit := range hits {
			rec := hit.Source
			if rec.ID == "" {
				rec.ID = hit.ID
			}
			l, err := rec.toListing()
			if err != nil {
				s.logger.Warn("skipping listing document", map[string]interface{}{"id": hit.ID, "error": err})
				continue
			}
			listings = append(listings, l)
		}

		if len(hits) < s.pageSize {
			break
		}
		after = hits[len(hits)-1].Sort
		if len(after) == 0 {
			break
		}
	}

	metrics.ListingSnapshotSize.WithLabelValues(sourceElasticsearch).Set(float64(len(listings)))
	s.logger.Debug("listing snapshot loaded", map[string]interface{}{
		"count": len(listings),
		"pages": pages,
	})

	return listings, nil
}

func (s *ElasticsearchSource) searchPage(ctx context.Context, after json.RawMessage) ([]searchHit, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{"_doc": "asc"}},
	}
	if len(after) > 0 {
		query["search_after"] = after
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	size := s.pageSize
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, s.requestError(ctx, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewIndexNotFoundError(s.index)
	}
	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("search error: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("decode response: %w", err))
	}
	return parsed.Hits.Hits, nil
}

func (s *ElasticsearchSource) FindListing(ctx context.Context, id uuid.UUID) (models.Listing, error) {
	req := esapi.GetRequest{
		Index:      s.index,
		DocumentID: id.String(),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return models.Listing{}, s.requestError(ctx, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return models.Listing{}, ErrListingNotFound
	}
	if res.IsError() {
		return models.Listing{}, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("get error: %s", res.Status()))
	}

	var parsed getResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return models.Listing{}, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("decode response: %w", err))
	}
	if !parsed.Found {
		return models.Listing{}, ErrListingNotFound
	}

	rec := parsed.Source
	if rec.ID == "" {
		rec.ID = parsed.ID
	}
	l, err := rec.toListing()
	if err != nil {
		return models.Listing{}, apperrors.NewSearchQueryFailedError(s.index, err)
	}
	return l, nil
}

func (s *ElasticsearchSource) requestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(sourceElasticsearch)
	}
	return apperrors.NewElasticsearchConnectionFailedError(err)
}
