package listingfilter

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newListing(title string, rent, sqm int, city, zip string, lt models.ListingType, published bool, genders ...models.Gender) models.Listing {
	return models.Listing{
		ID:          uuid.New(),
		Title:       title,
		Description: "",
		Rent:        rent,
		Sqm:         sqm,
		AvailableTo: genders,
		ListingType: lt,
		Published:   published,
		Address:     models.Address{City: city, ZipCode: zip},
	}
}

func fixtureListings() []models.Listing {
	return []models.Listing{
		newListing("Studio Altstadt", 800, 25, "Zurich", "8001", models.ListingTypeFlat, true, models.GenderMale, models.GenderFemale),
		newListing("Zimmer in WG", 550, 18, "Zurich", "8004", models.ListingTypeRoom, true, models.GenderFemale),
		newListing("Family house", 2400, 140, "Bern", "3011", models.ListingTypeHouse, false, models.GenderMale, models.GenderFemale, models.GenderOther),
		newListing("Loft near lake", 1000, 60, "Zurich", "8002", models.ListingTypeFlat, true, models.GenderMale),
		newListing("Cheap room", 450, 12, "Basel", "4051", models.ListingTypeRoom, true, models.GenderMale, models.GenderFemale),
		newListing("Penthouse", 1000, 90, "zurich", "8001", models.ListingTypeFlat, false, models.GenderOther),
	}
}

func titles(listings []models.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.Title)
	}
	return out
}

// ==========================
// Filter Stage Tests
// ==========================

func TestFilter_SingleCriterion(t *testing.T) {
	tests := []struct {
		name      string
		criterion Criterion
		expected  []string
	}{
		{
			name:      "max rent",
			criterion: MaxRent(800),
			expected:  []string{"Studio Altstadt", "Zimmer in WG", "Cheap room"},
		},
		{
			name:      "available to both genders is a superset check",
			criterion: AvailableTo{models.GenderMale, models.GenderFemale},
			expected:  []string{"Studio Altstadt", "Family house", "Cheap room"},
		},
		{
			name:      "listing type membership",
			criterion: ListingTypes{models.ListingTypeRoom, models.ListingTypeHouse},
			expected:  []string{"Zimmer in WG", "Family house", "Cheap room"},
		},
		{
			name:      "city is case sensitive",
			criterion: City("Zurich"),
			expected:  []string{"Studio Altstadt", "Zimmer in WG", "Loft near lake"},
		},
		{
			name:      "zip code",
			criterion: ZipCode("8001"),
			expected:  []string{"Studio Altstadt", "Penthouse"},
		},
		{
			name:      "min sqm",
			criterion: MinSqm(60),
			expected:  []string{"Family house", "Loft near lake", "Penthouse"},
		},
		{
			name:      "max sqm",
			criterion: MaxSqm(18),
			expected:  []string{"Zimmer in WG", "Cheap room"},
		},
		{
			name:      "published only",
			criterion: Available(true),
			expected:  []string{"Studio Altstadt", "Zimmer in WG", "Loft near lake", "Cheap room"},
		},
		{
			name:      "unpublished only",
			criterion: Available(false),
			expected:  []string{"Family house", "Penthouse"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Filter(fixtureListings(), []Criterion{tt.criterion})
			assert.Equal(t, tt.expected, titles(result))
		})
	}
}

func TestFilter_MinRentKeepsExactlyQualifyingListings(t *testing.T) {
	input := fixtureListings()

	for _, threshold := range []int{0, 450, 451, 800, 1000, 2400, 5000} {
		result := Filter(input, []Criterion{MinRent(threshold)})

		expected := 0
		for _, l := range input {
			if l.Rent >= threshold {
				expected++
			}
		}
		for _, l := range result {
			assert.GreaterOrEqual(t, l.Rent, threshold)
		}
		assert.Len(t, result, expected, "threshold %d", threshold)
	}
}

func TestFilter_AvailableToRequiresEveryGender(t *testing.T) {
	onlyMale := newListing("Male only", 600, 20, "Zurich", "8001", models.ListingTypeRoom, true, models.GenderMale)
	both := newListing("Both", 600, 20, "Zurich", "8001", models.ListingTypeRoom, true, models.GenderFemale, models.GenderMale)

	result := Filter([]models.Listing{onlyMale, both}, []Criterion{AvailableTo{models.GenderMale, models.GenderFemale}})

	assert.Equal(t, []string{"Both"}, titles(result))
}

func TestFilter_CombinedCriteriaIntersect(t *testing.T) {
	result := Filter(fixtureListings(), []Criterion{City("Zurich"), MaxRent(1000), MinRent(500)})

	assert.Equal(t, []string{"Studio Altstadt", "Zimmer in WG", "Loft near lake"}, titles(result))
	for _, l := range result {
		assert.GreaterOrEqual(t, l.Rent, 500)
		assert.LessOrEqual(t, l.Rent, 1000)
		assert.Equal(t, "Zurich", l.Address.City)
	}
}

func TestFilter_OrderOfCriteriaDoesNotChangeResult(t *testing.T) {
	criteria := []Criterion{Available(true), MinSqm(15), ListingTypes{models.ListingTypeFlat, models.ListingTypeRoom}, MaxRent(900)}
	reversed := []Criterion{criteria[3], criteria[2], criteria[1], criteria[0]}

	assert.Equal(t, titles(Filter(fixtureListings(), criteria)), titles(Filter(fixtureListings(), reversed)))
}

func TestFilter_NoCriteriaReturnsInputUnchanged(t *testing.T) {
	input := fixtureListings()

	result := Filter(input, nil)

	assert.Equal(t, input, result)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	input := fixtureListings()
	before := make([]models.Listing, len(input))
	copy(before, input)

	_ = Run(input, Query{
		Criteria: []Criterion{MaxRent(1000)},
		Sort:     &SortDirective{Key: SortByRent, Direction: Descending},
	})

	assert.Equal(t, before, input)
}

// ==========================
// Sort Stage Tests
// ==========================

func TestSort_RentDescending(t *testing.T) {
	input := []models.Listing{
		newListing("a", 100, 10, "Zurich", "8001", models.ListingTypeRoom, true, models.GenderMale),
		newListing("b", 50, 10, "Zurich", "8001", models.ListingTypeRoom, true, models.GenderMale),
		newListing("c", 200, 10, "Zurich", "8001", models.ListingTypeRoom, true, models.GenderMale),
	}

	result := Sort(input, &SortDirective{Key: SortByRent, Direction: Descending})

	rents := []int{}
	for _, l := range result {
		rents = append(rents, l.Rent)
	}
	assert.Equal(t, []int{200, 100, 50}, rents)
}

func TestSort_StableForEqualKeys(t *testing.T) {
	tests := []struct {
		name      string
		directive *SortDirective
		expected  []string
	}{
		{
			name:      "rent ascending",
			directive: &SortDirective{Key: SortByRent, Direction: Ascending},
			expected:  []string{"Cheap room", "Zimmer in WG", "Studio Altstadt", "Loft near lake", "Penthouse", "Family house"},
		},
		{
			name:      "rent descending",
			directive: &SortDirective{Key: SortByRent, Direction: Descending},
			expected:  []string{"Family house", "Loft near lake", "Penthouse", "Studio Altstadt", "Zimmer in WG", "Cheap room"},
		},
		{
			name:      "sqm ascending",
			directive: &SortDirective{Key: SortBySqm, Direction: Ascending},
			expected:  []string{"Cheap room", "Zimmer in WG", "Studio Altstadt", "Loft near lake", "Penthouse", "Family house"},
		},
		{
			name:      "sqm descending",
			directive: &SortDirective{Key: SortBySqm, Direction: Descending},
			expected:  []string{"Family house", "Penthouse", "Loft near lake", "Studio Altstadt", "Zimmer in WG", "Cheap room"},
		},
		{
			name:      "no directive keeps order",
			directive: nil,
			expected:  []string{"Studio Altstadt", "Zimmer in WG", "Family house", "Loft near lake", "Cheap room", "Penthouse"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, titles(Sort(fixtureListings(), tt.directive)))
		})
	}
}

// ==========================
// End-to-end Query Tests
// ==========================

func TestRun_NormalizedQuery(t *testing.T) {
	q, err := Normalize(map[string]interface{}{
		"MIN_RENT": "500",
		"MAX_RENT": "1000",
		"CITY":     "Zurich",
	}, "rent", "desc")
	require.NoError(t, err)

	result := Run(fixtureListings(), q)

	assert.Equal(t, []string{"Loft near lake", "Studio Altstadt", "Zimmer in WG"}, titles(result))
}

func TestRun_EmptyQuery(t *testing.T) {
	input := fixtureListings()

	q, err := Normalize(nil, "", "")
	require.NoError(t, err)

	assert.Equal(t, input, Run(input, q))
}

func TestRun_UnsupportedSortYieldsNoQuery(t *testing.T) {
	q, err := Normalize(map[string]interface{}{"CITY": "Zurich"}, "PRICE", "")

	assert.ErrorIs(t, err, ErrUnsupportedSort)
	assert.Empty(t, q.Criteria)
	assert.Nil(t, q.Sort)
}
