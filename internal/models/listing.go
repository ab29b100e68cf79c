package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

var genders = []Gender{GenderMale, GenderFemale, GenderOther}

// ParseGender matches s against the Gender values ignoring case.
func ParseGender(s string) (Gender, error) {
	for _, g := range genders {
		if strings.EqualFold(s, string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown gender '%s'", s)
}

type ListingType string

const (
	ListingTypeRoom  ListingType = "ROOM"
	ListingTypeFlat  ListingType = "FLAT"
	ListingTypeHouse ListingType = "HOUSE"
)

var listingTypes = []ListingType{ListingTypeRoom, ListingTypeFlat, ListingTypeHouse}

// ParseListingType matches s against the ListingType values ignoring case.
func ParseListingType(s string) (ListingType, error) {
	for _, lt := range listingTypes {
		if strings.EqualFold(s, string(lt)) {
			return lt, nil
		}
	}
	return "", fmt.Errorf("unknown listing type '%s'", s)
}

type Address struct {
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
}

// Listing is a rental offering as read from a listing source. The filter
// pipeline treats it as read-only.
type Listing struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Rent        int         `json:"rent"`
	Sqm         int         `json:"sqm"`
	AvailableTo []Gender    `json:"availableTo"`
	ListingType ListingType `json:"listingType"`
	Published   bool        `json:"published"`
	Address     Address     `json:"address"`
}

// IsAvailableTo reports whether every gender in want is in the listing's
// AvailableTo set.
func (l Listing) IsAvailableTo(want []Gender) bool {
	for _, w := range want {
		found := false
		for _, g := range l.AvailableTo {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type ListingView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Rent        int         `json:"rent"`
	Sqm         int         `json:"sqm"`
	AvailableTo []string    `json:"availableTo"`
	ListingType string      `json:"listingType"`
	Published   bool        `json:"published"`
	Address     AddressView `json:"address"`
}

type AddressView struct {
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
}
