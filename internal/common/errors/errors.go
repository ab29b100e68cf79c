package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Request validation, never retried
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidFilterValue ErrorCode = "INVALID_FILTER_VALUE"
	ErrCodeUnknownFilter      ErrorCode = "UNKNOWN_FILTER"
	ErrCodeUnsupportedSort    ErrorCode = "UNSUPPORTED_SORT"
	ErrCodeUnsupportedOrder   ErrorCode = "UNSUPPORTED_ORDER"
	ErrCodeListingNotFound    ErrorCode = "LISTING_NOT_FOUND"

	// Listing sources
	ErrCodeListingSourceFailed           ErrorCode = "LISTING_SOURCE_FAILED"
	ErrCodeDatabaseConnectionFailed      ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed          ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout                  ErrorCode = "QUERY_TIMEOUT"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidFilterValueError(err error) *StandardError {
	return newError(ErrCodeInvalidFilterValue, "Invalid filter value", err, false)
}

func NewUnknownFilterError(err error) *StandardError {
	return newError(ErrCodeUnknownFilter, "Unknown filter", err, false)
}

func NewUnsupportedSortError(err error) *StandardError {
	return newError(ErrCodeUnsupportedSort, "Sorting not supported", err, false)
}

func NewUnsupportedOrderError(err error) *StandardError {
	return newError(ErrCodeUnsupportedOrder, "Order not supported, only ASC and DESC", err, false)
}

func NewListingNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeListingNotFound,
		Message:   "Listing not found",
		Details:   fmt.Sprintf("listingId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewListingSourceFailedError(source string, err error) *StandardError {
	e := newError(ErrCodeListingSourceFailed, "Listing source error", err, true)
	e.Metadata = map[string]interface{}{"source": source}
	return e
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err, true)
}

func NewQueryExecutionFailedError(table string, err error) *StandardError {
	e := newError(ErrCodeQueryExecutionFailed, "Database query execution error", err, true)
	e.Details = fmt.Sprintf("table: %s, error: %s", table, err.Error())
	return e
}

func NewQueryTimeoutError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Listing query timeout",
		Details:   fmt.Sprintf("source: %s", source),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err, true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	e := newError(ErrCodeSearchQueryFailed, "Elasticsearch query error", err, true)
	e.Details = fmt.Sprintf("index: %s, error: %s", index, err.Error())
	return e
}

func NewIndexNotFoundError(index string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Elasticsearch index not found",
		Details:   fmt.Sprintf("indexName: %s", index),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewBrokerUnavailableError(operation string, err error) *StandardError {
	e := newError(ErrCodeBrokerUnavailable, "Zeebe broker unavailable", err, true)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// BPMNErrorMapping holds the error codes modelled as boundary events in the
// listing process. Codes missing here are thrown with their own name.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:        "LISTING_QUERY_INVALID",
	ErrCodeInvalidFilterValue:  "LISTING_QUERY_INVALID",
	ErrCodeUnknownFilter:       "LISTING_QUERY_INVALID",
	ErrCodeUnsupportedSort:     "LISTING_QUERY_INVALID",
	ErrCodeUnsupportedOrder:    "LISTING_QUERY_INVALID",
	ErrCodeListingNotFound:     "LISTING_NOT_FOUND",
	ErrCodeListingSourceFailed: "LISTING_SOURCE_FAILED",
	ErrCodeIndexNotFound:       "LISTING_SOURCE_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeListingSourceFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeBrokerUnavailable:
		return 3
	case ErrCodeQueryTimeout:
		return 2
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "FILTER") || strings.Contains(codeStr, "SORT") ||
		strings.Contains(codeStr, "ORDER") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "LISTING"):
		return "LISTING"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the response status of the listing API.
func HTTPStatus(code ErrorCode) int {
	switch {
	case GetErrorCategory(code) == "VALIDATION":
		return http.StatusBadRequest
	case code == ErrCodeListingNotFound:
		return http.StatusNotFound
	case code == ErrCodeQueryTimeout:
		return http.StatusGatewayTimeout
	case IsRetryableErrorCode(code), code == ErrCodeIndexNotFound:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
