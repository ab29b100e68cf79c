// internal/workers/listing/query-listings/models.go
package querylistings

import "listing-workers/internal/models"

// Input mirrors the process variables read by the task. Filter names are
// matched case-insensitively; values may be strings, numbers, booleans or
// lists of those.
type Input struct {
	Filters map[string]interface{} `json:"filters,omitempty"`
	Sort    string                 `json:"sort,omitempty"`
	Order   string                 `json:"order,omitempty"`
}

type Output struct {
	Listings []models.ListingView `json:"listings"`
	Count    int                  `json:"count"`
}
