package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	apperrors "listing-workers/internal/common/errors"
	"listing-workers/internal/common/logger"
	"listing-workers/internal/common/metrics"
	"listing-workers/internal/common/observability"
	"listing-workers/internal/listingstore"
	"listing-workers/internal/mapper"
	"listing-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSource struct {
	listings []models.Listing
	err      error
	calls    int
	deadline bool
}

func (f *fakeSource) GetListings(ctx context.Context) ([]models.Listing, error) {
	f.calls++
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

func (f *fakeSource) FindListing(ctx context.Context, id uuid.UUID) (models.Listing, error) {
	if f.err != nil {
		return models.Listing{}, f.err
	}
	for _, l := range f.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Listing{}, listingstore.ErrListingNotFound
}

var (
	flatID  = uuid.MustParse("3f1c2a9e-6b7d-4c8e-9f0a-1b2c3d4e5f60")
	roomID  = uuid.MustParse("7a8b9c0d-1e2f-4a3b-8c4d-5e6f7a8b9c0d")
	houseID = uuid.MustParse("c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f")
)

func testListings() []models.Listing {
	return []models.Listing{
		{
			ID: flatID, Title: "Flat in Zürich", Rent: 1800, Sqm: 65,
			AvailableTo: []models.Gender{models.GenderMale, models.GenderFemale},
			ListingType: models.ListingTypeFlat, Published: true,
			Address: models.Address{City: "Zurich", ZipCode: "8001"},
		},
		{
			ID: roomID, Title: "Room near station", Rent: 700, Sqm: 16,
			AvailableTo: []models.Gender{models.GenderFemale},
			ListingType: models.ListingTypeRoom, Published: true,
			Address: models.Address{City: "Bern", ZipCode: "3011"},
		},
		{
			ID: houseID, Title: "Family house", Rent: 3200, Sqm: 150,
			AvailableTo: []models.Gender{models.GenderMale, models.GenderFemale, models.GenderOther},
			ListingType: models.ListingTypeHouse, Published: false,
			Address: models.Address{City: "Zurich", ZipCode: "8044"},
		},
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createTestService(t *testing.T, source listingstore.Source) *Service {
	return New(Config{SourceName: "postgres", QueryTimeout: time.Second}, source, mapper.NewListingMapper(), nil, createTestLogger(t))
}

func viewIDs(views []models.ListingView) []string {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}

// ==========================
// Query Tests
// ==========================

func TestService_Query(t *testing.T) {
	tests := []struct {
		name    string
		req     QueryRequest
		wantIDs []string
	}{
		{
			name:    "no filters keeps snapshot order",
			req:     QueryRequest{},
			wantIDs: []string{flatID.String(), roomID.String(), houseID.String()},
		},
		{
			name:    "city filter",
			req:     QueryRequest{Filters: map[string]interface{}{"city": "Zurich"}},
			wantIDs: []string{flatID.String(), houseID.String()},
		},
		{
			name: "rent range sorted descending",
			req: QueryRequest{
				Filters: map[string]interface{}{"MIN_RENT": "500", "MAX_RENT": 2000.0},
				Sort:    "rent",
				Order:   "desc",
			},
			wantIDs: []string{flatID.String(), roomID.String()},
		},
		{
			name:    "search matches title and city spellings",
			req:     QueryRequest{Filters: map[string]interface{}{"SEARCH": "zuerich"}},
			wantIDs: []string{flatID.String(), houseID.String()},
		},
		{
			name:    "available to and listing type",
			req:     QueryRequest{Filters: map[string]interface{}{"AVAILABLE_TO": "MALE,FEMALE", "LISTING_TYPE": []string{"HOUSE", "FLAT"}}, Sort: "SQM"},
			wantIDs: []string{flatID.String(), houseID.String()},
		},
		{
			name:    "nothing matches",
			req:     QueryRequest{Filters: map[string]interface{}{"MIN_SQM": 1000}},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{listings: testListings()}
			svc := createTestService(t, source)

			result, err := svc.Query(context.Background(), tt.req)

			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, viewIDs(result.Listings))
			assert.Equal(t, len(tt.wantIDs), result.Count)
			assert.True(t, source.deadline, "source should be called with the query timeout")
		})
	}
}

func TestService_Query_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		req      QueryRequest
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "non numeric rent",
			req:      QueryRequest{Filters: map[string]interface{}{"MIN_RENT": "cheap"}},
			wantCode: apperrors.ErrCodeInvalidFilterValue,
		},
		{
			name:     "unknown gender",
			req:      QueryRequest{Filters: map[string]interface{}{"AVAILABLE_TO": "ANY"}},
			wantCode: apperrors.ErrCodeInvalidFilterValue,
		},
		{
			name:     "unknown filter",
			req:      QueryRequest{Filters: map[string]interface{}{"PETS": "yes"}},
			wantCode: apperrors.ErrCodeUnknownFilter,
		},
		{
			name:     "unsupported sort",
			req:      QueryRequest{Sort: "TITLE"},
			wantCode: apperrors.ErrCodeUnsupportedSort,
		},
		{
			name:     "unsupported order",
			req:      QueryRequest{Sort: "RENT", Order: "UP"},
			wantCode: apperrors.ErrCodeUnsupportedOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{listings: testListings()}
			svc := createTestService(t, source)
			before := testutil.ToFloat64(metrics.ListingQueries.WithLabelValues(string(tt.wantCode)))

			_, err := svc.Query(context.Background(), tt.req)

			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.False(t, stdErr.Retryable)
			assert.Equal(t, 0, source.calls, "validation must fail before the snapshot is read")
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.ListingQueries.WithLabelValues(string(tt.wantCode))))
		})
	}
}

func TestService_Query_SourceErrors(t *testing.T) {
	t.Run("plain error becomes source failure", func(t *testing.T) {
		svc := createTestService(t, &fakeSource{err: errors.New("connection refused")})

		_, err := svc.Query(context.Background(), QueryRequest{})

		var stdErr *apperrors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, apperrors.ErrCodeListingSourceFailed, stdErr.Code)
		assert.True(t, stdErr.Retryable)
		assert.Equal(t, "postgres", stdErr.Metadata["source"])
	})

	t.Run("standard error keeps its code", func(t *testing.T) {
		svc := createTestService(t, &fakeSource{err: apperrors.NewQueryTimeoutError("postgres")})

		_, err := svc.Query(context.Background(), QueryRequest{})

		var stdErr *apperrors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, apperrors.ErrCodeQueryTimeout, stdErr.Code)
	})
}

func TestService_Query_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := observability.New("listing-service-test",
		observability.WithRegisterer(prometheus.NewRegistry()),
		observability.WithSpanProcessor(recorder),
	)
	defer obs.Shutdown()

	svc := New(Config{SourceName: "postgres"}, &fakeSource{listings: testListings()}, mapper.NewListingMapper(), obs, createTestLogger(t))

	_, err := svc.Query(context.Background(), QueryRequest{Filters: map[string]interface{}{"CITY": "Bern"}, Channel: "http"})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "listings.query", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("channel", "http"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("listings.count", 1))
}

// ==========================
// Find Tests
// ==========================

func TestService_Find(t *testing.T) {
	svc := createTestService(t, &fakeSource{listings: testListings()})

	view, err := svc.Find(context.Background(), roomID.String())

	require.NoError(t, err)
	assert.Equal(t, roomID.String(), view.ID)
	assert.Equal(t, "ROOM", view.ListingType)
	assert.Equal(t, []string{"FEMALE"}, view.AvailableTo)
	assert.Equal(t, "Bern", view.Address.City)
}

func TestService_Find_Errors(t *testing.T) {
	tests := []struct {
		name     string
		source   *fakeSource
		id       string
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "malformed id",
			source:   &fakeSource{},
			id:       "42",
			wantCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name:     "unknown id",
			source:   &fakeSource{listings: testListings()},
			id:       uuid.NewString(),
			wantCode: apperrors.ErrCodeListingNotFound,
		},
		{
			name:     "source failure",
			source:   &fakeSource{err: errors.New("timeout")},
			id:       flatID.String(),
			wantCode: apperrors.ErrCodeListingSourceFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := createTestService(t, tt.source)

			_, err := svc.Find(context.Background(), tt.id)

			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}
