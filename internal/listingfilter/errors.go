package listingfilter

import "errors"

var (
	ErrInvalidFilterValue = errors.New("INVALID_FILTER_VALUE")
	ErrUnknownFilter      = errors.New("UNKNOWN_FILTER")
	ErrUnsupportedSort    = errors.New("UNSUPPORTED_SORT")
	ErrUnsupportedOrder   = errors.New("UNSUPPORTED_ORDER")

	// ErrTypeMismatch is returned by NewCriterion when a payload does not
	// have the type of its kind. It indicates a programming error.
	ErrTypeMismatch = errors.New("TYPE_MISMATCH")
)
