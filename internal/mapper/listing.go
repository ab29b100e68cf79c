package mapper

import (
	"listing-workers/internal/models"
)

// ListingMapper converts listings into their response representation.
type ListingMapper interface {
	ToView(l models.Listing) models.ListingView
	ToViews(listings []models.Listing) []models.ListingView
}

type DefaultListingMapper struct{}

func NewListingMapper() *DefaultListingMapper {
	return &DefaultListingMapper{}
}

func (m *DefaultListingMapper) ToView(l models.Listing) models.ListingView {
	availableTo := make([]string, 0, len(l.AvailableTo))
	for _, g := range l.AvailableTo {
		availableTo = append(availableTo, string(g))
	}
	return models.ListingView{
		ID:          l.ID.String(),
		Title:       l.Title,
		Description: l.Description,
		Rent:        l.Rent,
		Sqm:         l.Sqm,
		AvailableTo: availableTo,
		ListingType: string(l.ListingType),
		Published:   l.Published,
		Address: models.AddressView{
			City:    l.Address.City,
			ZipCode: l.Address.ZipCode,
		},
	}
}

// ToViews keeps the order of listings and never returns nil.
func (m *DefaultListingMapper) ToViews(listings []models.Listing) []models.ListingView {
	views := make([]models.ListingView, 0, len(listings))
	for _, l := range listings {
		views = append(views, m.ToView(l))
	}
	return views
}
