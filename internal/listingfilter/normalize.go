// internal/listingfilter/normalize.go
package listingfilter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"listing-workers/internal/models"
)

// Normalize turns loosely typed request parameters into a Query.
//
// raw maps filter names (matched ignoring case) to a string, a list of
// strings or a decoded JSON scalar. List filters also accept a single
// comma-separated string. Absent or null filters produce no criterion.
// Criteria come back in evaluation order regardless of map order.
//
// Blank numeric bounds and a blank search are treated as absent.
//
// Boolean filters are lenient: only "true" (any case) is true, anything
// else is false.
//
// No filtering happens here, so every error is reported before the
// pipeline sees any data.
func Normalize(raw map[string]interface{}, sortName, orderName string) (Query, error) {
	var q Query

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		values [len(kindNames)]interface{}
		seen   [len(kindNames)]bool
	)
	for _, name := range names {
		kind, err := ParseKind(name)
		if err != nil {
			return Query{}, err
		}
		if seen[kind] {
			return Query{}, fmt.Errorf("%w: %s given more than once", ErrInvalidFilterValue, kind)
		}
		seen[kind] = true
		values[kind] = raw[name]
	}

	for _, kind := range Kinds() {
		if !seen[kind] || values[kind] == nil {
			continue
		}
		c, ok, err := parseCriterion(kind, values[kind])
		if err != nil {
			return Query{}, err
		}
		if ok {
			q.Criteria = append(q.Criteria, c)
		}
	}

	directive, err := ParseSort(sortName, orderName)
	if err != nil {
		return Query{}, err
	}
	q.Sort = directive

	return q, nil
}

func parseCriterion(kind Kind, raw interface{}) (Criterion, bool, error) {
	switch kind {
	case KindAvailableTo:
		items, err := listValues(kind, raw)
		if err != nil {
			return nil, false, err
		}
		set := make([]models.Gender, 0, len(items))
		for _, item := range items {
			g, err := models.ParseGender(item)
			if err != nil {
				return nil, false, fmt.Errorf("%w: %s: %v", ErrInvalidFilterValue, kind, err)
			}
			set = append(set, g)
		}
		return AvailableTo(set), true, nil

	case KindListingType:
		items, err := listValues(kind, raw)
		if err != nil {
			return nil, false, err
		}
		set := make([]models.ListingType, 0, len(items))
		for _, item := range items {
			lt, err := models.ParseListingType(item)
			if err != nil {
				return nil, false, fmt.Errorf("%w: %s: %v", ErrInvalidFilterValue, kind, err)
			}
			set = append(set, lt)
		}
		return ListingTypes(set), true, nil
	}

	if b, isBool := raw.(bool); isBool && kind == KindAvailable {
		return Available(b), true, nil
	}

	s, present, err := scalarValue(kind, raw)
	if err != nil || !present {
		return nil, false, err
	}

	switch kind {
	case KindMinRent, KindMaxRent, KindMinSqm, KindMaxSqm:
		if strings.TrimSpace(s) == "" {
			return nil, false, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s: '%s' is not an integer", ErrInvalidFilterValue, kind, s)
		}
		return MustCriterion(kind, n), true, nil
	case KindCity:
		return City(s), true, nil
	case KindZipCode:
		return ZipCode(s), true, nil
	case KindAvailable:
		return Available(strings.EqualFold(strings.TrimSpace(s), "true")), true, nil
	case KindSearch:
		if strings.TrimSpace(s) == "" {
			return nil, false, nil
		}
		return NewSearch(s), true, nil
	}
	return nil, false, fmt.Errorf("%w: %s", ErrUnknownFilter, kind)
}

// rawStrings flattens the accepted raw value shapes into strings.
func rawStrings(kind Kind, raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := scalarString(kind, item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, err := scalarString(kind, v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func scalarString(kind Kind, raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("%w: %s: unsupported value type %T", ErrInvalidFilterValue, kind, raw)
	}
}

func scalarValue(kind Kind, raw interface{}) (string, bool, error) {
	items, err := rawStrings(kind, raw)
	if err != nil {
		return "", false, err
	}
	switch len(items) {
	case 0:
		return "", false, nil
	case 1:
		return items[0], true, nil
	default:
		return "", false, fmt.Errorf("%w: %s accepts a single value, got %d", ErrInvalidFilterValue, kind, len(items))
	}
}

// listValues splits comma-separated entries and drops blanks. An empty
// result is an error: a list filter must name at least one value.
func listValues(kind Kind, raw interface{}) ([]string, error) {
	items, err := rawStrings(kind, raw)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s requires at least one value", ErrInvalidFilterValue, kind)
	}
	return out, nil
}
