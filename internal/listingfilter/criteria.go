// internal/listingfilter/criteria.go
package listingfilter

import (
	"fmt"
	"strings"

	"listing-workers/internal/models"
)

// Kind identifies a filter criterion. The numeric order of the constants is
// the order in which the pipeline evaluates criteria.
type Kind int

const (
	KindMinRent Kind = iota
	KindMaxRent
	KindAvailableTo
	KindListingType
	KindCity
	KindZipCode
	KindMinSqm
	KindMaxSqm
	KindAvailable
	KindSearch
)

var kindNames = [...]string{
	KindMinRent:     "MIN_RENT",
	KindMaxRent:     "MAX_RENT",
	KindAvailableTo: "AVAILABLE_TO",
	KindListingType: "LISTING_TYPE",
	KindCity:        "CITY",
	KindZipCode:     "ZIP_CODE",
	KindMinSqm:      "MIN_SQM",
	KindMaxSqm:      "MAX_SQM",
	KindAvailable:   "AVAILABLE",
	KindSearch:      "SEARCH",
}

// Kinds lists every filter kind in evaluation order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind resolves a filter name such as "min_rent" or "MIN_RENT".
func ParseKind(name string) (Kind, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range kindNames {
		if n == upper {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: '%s'", ErrUnknownFilter, name)
}

// Criterion is a single typed filter condition. The set of implementations
// is closed: one type per Kind, declared in this file.
type Criterion interface {
	Kind() Kind
	Match(l models.Listing) bool
	criterion()
}

type MinRent int

func (c MinRent) Kind() Kind { return KindMinRent }
func (c MinRent) Match(l models.Listing) bool { return l.Rent >= int(c) }
func (MinRent) criterion() {}

type MaxRent int

func (c MaxRent) Kind() Kind { return KindMaxRent }
func (c MaxRent) Match(l models.Listing) bool { return l.Rent <= int(c) }
func (MaxRent) criterion() {}

// AvailableTo keeps listings open to every listed gender, not just one of them.
type AvailableTo []models.Gender

func (c AvailableTo) Kind() Kind { return KindAvailableTo }
func (c AvailableTo) Match(l models.Listing) bool { return l.IsAvailableTo(c) }
func (AvailableTo) criterion() {}

type ListingTypes []models.ListingType

func (c ListingTypes) Kind() Kind { return KindListingType }
func (c ListingTypes) Match(l models.Listing) bool {
	for _, t := range c {
		if l.ListingType == t {
			return true
		}
	}
	return false
}
func (ListingTypes) criterion() {}

type City string

func (c City) Kind() Kind { return KindCity }
func (c City) Match(l models.Listing) bool { return l.Address.City == string(c) }
func (City) criterion() {}

type ZipCode string

func (c ZipCode) Kind() Kind { return KindZipCode }
func (c ZipCode) Match(l models.Listing) bool { return l.Address.ZipCode == string(c) }
func (ZipCode) criterion() {}

type MinSqm int

func (c MinSqm) Kind() Kind { return KindMinSqm }
func (c MinSqm) Match(l models.Listing) bool { return l.Sqm >= int(c) }
func (MinSqm) criterion() {}

type MaxSqm int

func (c MaxSqm) Kind() Kind { return KindMaxSqm }
func (c MaxSqm) Match(l models.Listing) bool { return l.Sqm <= int(c) }
func (MaxSqm) criterion() {}

type Available bool

func (c Available) Kind() Kind { return KindAvailable }
func (c Available) Match(l models.Listing) bool { return l.Published == bool(c) }
func (Available) criterion() {}

// NewCriterion builds the criterion for kind from an untyped payload. The
// payload must have exactly the Go type the kind carries: int for the rent
// and sqm bounds, []models.Gender, []models.ListingType, string for city,
// zip code and search, bool for availability.
func NewCriterion(kind Kind, payload interface{}) (Criterion, error) {
	switch kind {
	case KindMinRent, KindMaxRent, KindMinSqm, KindMaxSqm:
		v, ok := payload.(int)
		if !ok {
			return nil, mismatch(kind, "int", payload)
		}
		switch kind {
		case KindMinRent:
			return MinRent(v), nil
		case KindMaxRent:
			return MaxRent(v), nil
		case KindMinSqm:
			return MinSqm(v), nil
		default:
			return MaxSqm(v), nil
		}
	case KindAvailableTo:
		v, ok := payload.([]models.Gender)
		if !ok {
			return nil, mismatch(kind, "[]models.Gender", payload)
		}
		return AvailableTo(v), nil
	case KindListingType:
		v, ok := payload.([]models.ListingType)
		if !ok {
			return nil, mismatch(kind, "[]models.ListingType", payload)
		}
		return ListingTypes(v), nil
	case KindCity, KindZipCode, KindSearch:
		v, ok := payload.(string)
		if !ok {
			return nil, mismatch(kind, "string", payload)
		}
		switch kind {
		case KindCity:
			return City(v), nil
		case KindZipCode:
			return ZipCode(v), nil
		default:
			return NewSearch(v), nil
		}
	case KindAvailable:
		v, ok := payload.(bool)
		if !ok {
			return nil, mismatch(kind, "bool", payload)
		}
		return Available(v), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, kind)
}

// MustCriterion is like NewCriterion but panics on a payload of the wrong type.
func MustCriterion(kind Kind, payload interface{}) Criterion {
	c, err := NewCriterion(kind, payload)
	if err != nil {
		panic(err)
	}
	return c
}

func mismatch(kind Kind, want string, got interface{}) error {
	return fmt.Errorf("%w: %s expects %s, got %T", ErrTypeMismatch, kind, want, got)
}
