package listingfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"listing-workers/internal/models"
)

func TestNormalizeSearch(t *testing.T) {
	assert.Equal(t, "zuerich", NormalizeSearch("Zürich"))
	assert.Equal(t, "schoene aussicht", NormalizeSearch("Schöne Aussicht"))
	assert.Equal(t, "aerger", NormalizeSearch("ÄRGER"))
	assert.Equal(t, "plain", NormalizeSearch("plain"))
}

func TestNewSearch_ExpandsEveryWord(t *testing.T) {
	s := NewSearch("Zürich café")

	assert.Equal(t, "zuerich café", s.Term())
	assert.ElementsMatch(t, []string{"zuerich", "zürich", "zurich", "café", "cafe"}, s.Terms())
}

func TestNewSearch_DigraphExpansion(t *testing.T) {
	s := NewSearch("ae")

	assert.ElementsMatch(t, []string{"ae", "ä", "a"}, s.Terms())
}

func TestSearch_MatchesAllSpellings(t *testing.T) {
	withUmlaut := models.Listing{Title: "Zimmer ä"}
	withDigraph := models.Listing{Title: "Zimmer ae"}
	stripped := models.Listing{Title: "Zimmer a"}
	unrelated := models.Listing{Title: "Zimmer o"}

	result := Filter([]models.Listing{withUmlaut, withDigraph, stripped, unrelated}, []Criterion{NewSearch("ae")})

	assert.Equal(t, []string{"Zimmer ä", "Zimmer ae", "Zimmer a"}, titles(result))
}

func TestSearch_Match(t *testing.T) {
	tests := []struct {
		name     string
		search   string
		listing  models.Listing
		expected bool
	}{
		{
			name:     "umlaut in listing, digraph typed",
			search:   "zuerich",
			listing:  models.Listing{Description: "Helles Zimmer in Zürich"},
			expected: true,
		},
		{
			name:     "umlaut typed, digraph in listing",
			search:   "Müller",
			listing:  models.Listing{Description: "Vermieter: Herr Mueller"},
			expected: true,
		},
		{
			name:     "umlaut typed, plain vowel in listing",
			search:   "März",
			listing:  models.Listing{Title: "Frei ab marz"},
			expected: true,
		},
		{
			name:     "city field",
			search:   "bern",
			listing:  models.Listing{Address: models.Address{City: "Bern"}},
			expected: true,
		},
		{
			name:     "zip code field",
			search:   "8001",
			listing:  models.Listing{Address: models.Address{ZipCode: "8001"}},
			expected: true,
		},
		{
			name:     "any word matches",
			search:   "garten balkon",
			listing:  models.Listing{Description: "Wohnung mit Balkon"},
			expected: true,
		},
		{
			name:     "whole tokens only",
			search:   "zimm",
			listing:  models.Listing{Title: "Zimmer"},
			expected: false,
		},
		{
			name:     "no overlap",
			search:   "loft",
			listing:  models.Listing{Title: "Zimmer", Description: "Ruhige Lage", Address: models.Address{City: "Basel", ZipCode: "4051"}},
			expected: false,
		},
		{
			name:     "blank search matches nothing",
			search:   "",
			listing:  models.Listing{Title: ""},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewSearch(tt.search).Match(tt.listing))
		})
	}
}
