package listingfilter

import (
	"sort"

	"listing-workers/internal/models"
)

// Run filters listings by q.Criteria and then applies q.Sort. The input
// slice is left untouched.
func Run(listings []models.Listing, q Query) []models.Listing {
	return Sort(Filter(listings, q.Criteria), q.Sort)
}

// Filter applies every criterion in kind order. Each stage only narrows the
// working set and returns a fresh slice, so listings itself is never
// modified.
func Filter(listings []models.Listing, criteria []Criterion) []models.Listing {
	ordered := make([]Criterion, len(criteria))
	copy(ordered, criteria)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Kind() < ordered[j].Kind()
	})

	current := make([]models.Listing, len(listings))
	copy(current, listings)

	for _, c := range ordered {
		next := make([]models.Listing, 0, len(current))
		for _, l := range current {
			if c.Match(l) {
				next = append(next, l)
			}
		}
		current = next
	}
	return current
}

// Sort returns a stably sorted copy of listings. A nil directive keeps the
// input order. DESC is the exact reverse comparison of ASC, so equal keys
// keep their relative order in both directions.
func Sort(listings []models.Listing, directive *SortDirective) []models.Listing {
	out := make([]models.Listing, len(listings))
	copy(out, listings)
	if directive == nil {
		return out
	}

	key := func(l models.Listing) int { return l.Rent }
	if directive.Key == SortBySqm {
		key = func(l models.Listing) int { return l.Sqm }
	}

	if directive.Direction == Descending {
		sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	}
	return out
}
