package listingfilter

import (
	"fmt"
	"strings"
)

type SortKey string

const (
	SortByRent SortKey = "RENT"
	SortBySqm  SortKey = "SQM"
)

type SortDirection string

const (
	Ascending  SortDirection = "ASC"
	Descending SortDirection = "DESC"
)

type SortDirective struct {
	Key       SortKey
	Direction SortDirection
}

// Query is the typed form of one listing request. It is built per request
// and never shared.
type Query struct {
	Criteria []Criterion
	Sort     *SortDirective
}

// ParseSort validates a sort and order name pair. An empty sortName means
// no sorting and the order name is then ignored. An empty orderName defaults
// to ascending.
func ParseSort(sortName, orderName string) (*SortDirective, error) {
	sortName = strings.TrimSpace(sortName)
	if sortName == "" {
		return nil, nil
	}

	var key SortKey
	switch SortKey(strings.ToUpper(sortName)) {
	case SortByRent:
		key = SortByRent
	case SortBySqm:
		key = SortBySqm
	default:
		return nil, fmt.Errorf("%w: '%s', only RENT and SQM are supported", ErrUnsupportedSort, sortName)
	}

	dir := Ascending
	if orderName = strings.TrimSpace(orderName); orderName != "" {
		switch SortDirection(strings.ToUpper(orderName)) {
		case Ascending:
		case Descending:
			dir = Descending
		default:
			return nil, fmt.Errorf("%w: '%s', only ASC and DESC are supported", ErrUnsupportedOrder, orderName)
		}
	}

	return &SortDirective{Key: key, Direction: dir}, nil
}
