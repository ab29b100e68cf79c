// Package listingstore reads point-in-time listing snapshots for the filter
// pipeline. Sources only read; they never filter or sort.
package listingstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"listing-workers/internal/models"
)

var ErrListingNotFound = errors.New("listing not found")

// Source supplies the full current listing collection.
type Source interface {
	GetListings(ctx context.Context) ([]models.Listing, error)
	FindListing(ctx context.Context, id uuid.UUID) (models.Listing, error)
}

// record is the flat storage form shared by the Postgres rows and the
// Elasticsearch documents.
type record struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Rent        int      `json:"rent"`
	Sqm         int      `json:"sqm"`
	AvailableTo []string `json:"availableTo"`
	ListingType string   `json:"listingType"`
	Published   bool     `json:"published"`
	City        string   `json:"city"`
	ZipCode     string   `json:"zipCode"`
}

func (r record) toListing() (models.Listing, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("listing id '%s': %w", r.ID, err)
	}

	lt, err := models.ParseListingType(r.ListingType)
	if err != nil {
		return models.Listing{}, fmt.Errorf("listing %s: %w", r.ID, err)
	}

	genders := make([]models.Gender, 0, len(r.AvailableTo))
	for _, g := range r.AvailableTo {
		gender, err := models.ParseGender(g)
		if err != nil {
			return models.Listing{}, fmt.Errorf("listing %s: %w", r.ID, err)
		}
		genders = append(genders, gender)
	}

	return models.Listing{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Rent:        r.Rent,
		Sqm:         r.Sqm,
		AvailableTo: genders,
		ListingType: lt,
		Published:   r.Published,
		Address:     models.Address{City: r.City, ZipCode: r.ZipCode},
	}, nil
}
