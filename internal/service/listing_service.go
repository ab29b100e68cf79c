// Package service runs listing queries end to end: it normalizes the raw
// request, reads a snapshot from the configured source, applies the filter
// pipeline and maps the result for presentation.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "listing-workers/internal/common/errors"
	"listing-workers/internal/common/logger"
	"listing-workers/internal/common/metrics"
	"listing-workers/internal/common/observability"
	"listing-workers/internal/listingfilter"
	"listing-workers/internal/listingstore"
	"listing-workers/internal/mapper"
	"listing-workers/internal/models"
)

const outcomeOK = "ok"

type Config struct {
	// SourceName labels source failures, e.g. "postgres".
	SourceName   string
	QueryTimeout time.Duration
}

type QueryRequest struct {
	Filters map[string]interface{}
	Sort    string
	Order   string
	// Channel names the caller for metrics ("zeebe", "http").
	Channel string
}

type QueryResult struct {
	Listings []models.ListingView
	Count    int
}

type Service struct {
	config Config
	source listingstore.Source
	mapper mapper.ListingMapper
	obs    *observability.Observability
	logger logger.Logger
}

func New(config Config, source listingstore.Source, m mapper.ListingMapper, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		config: config,
		source: source,
		mapper: m,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"component": "listing-service", "source": config.SourceName}),
	}
}

// Query validates the request before touching the source. Every returned
// error is a *apperrors.StandardError.
func (s *Service) Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "listings.query",
		attribute.String("channel", req.Channel),
		attribute.String("sort", req.Sort),
		attribute.String("order", req.Order),
	)
	defer span.End()

	result, err := s.query(ctx, req)

	outcome := outcomeOK
	if err != nil {
		stdErr := apperrors.Normalize(err)
		outcome = string(stdErr.Code)
		span.RecordError(err)
		span.SetStatus(codes.Error, stdErr.Message)
		err = stdErr
	} else {
		span.SetAttributes(attribute.Int("listings.count", result.Count))
	}

	metrics.ListingQueries.WithLabelValues(outcome).Inc()
	s.obs.RecordQuery(ctx, req.Channel, outcome, time.Since(start))

	return result, err
}

func (s *Service) query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	query, err := listingfilter.Normalize(req.Filters, req.Sort, req.Order)
	if err != nil {
		return QueryResult{}, validationError(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	snapshot, err := s.source.GetListings(ctx)
	if err != nil {
		return QueryResult{}, s.sourceError(err)
	}

	views := s.mapper.ToViews(listingfilter.Run(snapshot, query))
	metrics.ListingResultSize.Observe(float64(len(views)))

	s.logger.Debug("listing query served", map[string]interface{}{
		"criteria": len(query.Criteria),
		"sorted":   query.Sort != nil,
		"snapshot": len(snapshot),
		"count":    len(views),
	})

	return QueryResult{Listings: views, Count: len(views)}, nil
}

// Find returns the listing with the given id. Non-UUID ids are rejected as
// invalid input.
func (s *Service) Find(ctx context.Context, id string) (models.ListingView, error) {
	ctx, span := s.obs.StartSpan(ctx, "listings.find", attribute.String("listing.id", id))
	defer span.End()

	listingID, err := uuid.Parse(id)
	if err != nil {
		return models.ListingView{}, apperrors.NewInvalidInputError("listing id must be a UUID: " + id)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	listing, err := s.source.FindListing(ctx, listingID)
	if errors.Is(err, listingstore.ErrListingNotFound) {
		return models.ListingView{}, apperrors.NewListingNotFoundError(id)
	}
	if err != nil {
		span.RecordError(err)
		return models.ListingView{}, s.sourceError(err)
	}

	return s.mapper.ToView(listing), nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.QueryTimeout)
}

// sourceError keeps the codes sources already assign and wraps anything else
// as a source failure.
func (s *Service) sourceError(err error) error {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return apperrors.NewListingSourceFailedError(s.config.SourceName, err)
}

func validationError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, listingfilter.ErrUnknownFilter):
		return apperrors.NewUnknownFilterError(err)
	case errors.Is(err, listingfilter.ErrUnsupportedSort):
		return apperrors.NewUnsupportedSortError(err)
	case errors.Is(err, listingfilter.ErrUnsupportedOrder):
		return apperrors.NewUnsupportedOrderError(err)
	case errors.Is(err, listingfilter.ErrInvalidFilterValue):
		return apperrors.NewInvalidFilterValueError(err)
	default:
		return apperrors.NewInvalidInputError(err.Error())
	}
}
