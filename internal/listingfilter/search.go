package listingfilter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"listing-workers/internal/models"
)

var (
	umlautToDigraph = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue")
	digraphToUmlaut = strings.NewReplacer("ae", "ä", "oe", "ö", "ue", "ü")
)

// NormalizeSearch lower-cases s and spells ä, ö and ü as ae, oe and ue.
func NormalizeSearch(s string) string {
	return umlautToDigraph.Replace(strings.ToLower(s))
}

// Search keeps listings whose title, description, city or zip code shares a
// whitespace-separated token with the search terms. Every term matches in
// three spellings: as typed (digraphs), with umlauts restored and with all
// diacritics removed, so "zuerich" finds "zürich" and "zurich".
type Search struct {
	term  string
	terms map[string]struct{}
}

// NewSearch normalizes s and precomputes its expanded term set.
func NewSearch(s string) Search {
	normalized := NormalizeSearch(s)
	terms := make(map[string]struct{})
	for _, word := range strings.Fields(normalized) {
		restored := digraphToUmlaut.Replace(word)
		terms[word] = struct{}{}
		terms[restored] = struct{}{}
		terms[stripDiacritics(restored)] = struct{}{}
	}
	return Search{term: normalized, terms: terms}
}

// Term returns the normalized search string.
func (c Search) Term() string { return c.term }

// Terms returns the expanded term set in no particular order.
func (c Search) Terms() []string {
	out := make([]string, 0, len(c.terms))
	for t := range c.terms {
		out = append(out, t)
	}
	return out
}

func (c Search) Kind() Kind { return KindSearch }

func (c Search) Match(l models.Listing) bool {
	if len(c.terms) == 0 {
		return false
	}
	for _, field := range []string{l.Title, l.Description, l.Address.City, l.Address.ZipCode} {
		for _, token := range strings.Fields(strings.ToLower(field)) {
			if _, ok := c.terms[token]; ok {
				return true
			}
		}
	}
	return false
}

func (Search) criterion() {}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
