package edge

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Category is the closed failure taxonomy for provider calls. Retry
// decisions and the orchestrator's idempotency handling branch on it.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryRateLimited
	CategoryAuthentication
	CategoryForbidden
	CategoryNotFound
	CategoryAlreadyExists
	CategoryInvalidRequest
	CategoryServerError
	CategoryNetworkError
)

// String returns the category name for logging.
func (c Category) String() string {
	switch c {
	case CategoryRateLimited:
		return "rate_limited"
	case CategoryAuthentication:
		return "authentication"
	case CategoryForbidden:
		return "forbidden"
	case CategoryNotFound:
		return "not_found"
	case CategoryAlreadyExists:
		return "already_exists"
	case CategoryInvalidRequest:
		return "invalid_request"
	case CategoryServerError:
		return "server_error"
	case CategoryNetworkError:
		return "network_error"
	}
	return "unknown"
}

// Retryable reports whether a failure in this category may succeed on a
// later attempt. Client errors other than rate limiting are permanent: the
// request itself is wrong and retrying cannot help.
func (c Category) Retryable() bool {
	switch c {
	case CategoryRateLimited, CategoryServerError, CategoryNetworkError:
		return true
	}
	return false
}

// Provider error codes. Resource-level outcomes (duplicate, missing) arrive
// as distinct numeric codes per resource type; they collapse into one
// logical category each. Any code not listed here maps to Unknown so that
// new provider codes surface as non-retryable failures instead of silently
// matching the wrong category.
const (
	codeAuthenticationError   = 10000
	codeInvalidAccessToken    = 9109
	codeInvalidZoneIdentifier = 1001
	codeObjectNotRoutable     = 7003
	codeDuplicateHostname     = 1406
	codeHostnameNotFound      = 1436
	codeDuplicateRoute        = 10020
	codeRouteNotFound         = 10021
	codeWorkerNotFound        = 10007
)

// APIError is a classified provider failure. It carries enough of the raw
// response to be logged and rendered, and the category the rest of the
// system branches on.
type APIError struct {
	Category   Category
	StatusCode int
	Errors     []ResponseError
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for _, pe := range e.Errors {
			parts = append(parts, fmt.Sprintf("[%d] %s", pe.Code, pe.Message))
		}
		return fmt.Sprintf("edge api error (%s, http %d): %s", e.Category, e.StatusCode, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("edge api error (%s, http %d): %s", e.Category, e.StatusCode, e.Message)
}

// Retryable reports whether the error may clear on retry.
func (e *APIError) Retryable() bool {
	return e.Category.Retryable()
}

// ClassifyResponse maps an HTTP status plus the provider's structured error
// list into a category. Provider codes take precedence over the bare status
// because the provider reports resource-level outcomes (duplicate hostname,
// route not found) under generic 4xx statuses.
func ClassifyResponse(statusCode int, respErrors []ResponseError) Category {
	for _, re := range respErrors {
		switch re.Code {
		case codeAuthenticationError, codeInvalidAccessToken:
			return CategoryAuthentication
		case codeDuplicateHostname, codeDuplicateRoute:
			return CategoryAlreadyExists
		case codeHostnameNotFound, codeRouteNotFound, codeInvalidZoneIdentifier, codeObjectNotRoutable, codeWorkerNotFound:
			return CategoryNotFound
		}
	}

	switch {
	case statusCode == 429:
		return CategoryRateLimited
	case statusCode == 401:
		return CategoryAuthentication
	case statusCode == 403:
		return CategoryForbidden
	case statusCode == 404:
		return CategoryNotFound
	case statusCode == 409:
		return CategoryAlreadyExists
	case statusCode >= 500:
		return CategoryServerError
	case statusCode >= 400:
		return CategoryInvalidRequest
	}
	return CategoryUnknown
}

// ClassifyTransportError maps a connection-level failure (refused, reset,
// DNS failure, timeout) to NetworkError. Anything unrecognized stays
// Unknown and therefore does not get retried.
func ClassifyTransportError(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryNetworkError
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CategoryNetworkError
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ETIMEDOUT):
		return CategoryNetworkError
	}

	return CategoryUnknown
}

// newResponseError builds a classified APIError from a provider response.
func newResponseError(statusCode int, respErrors []ResponseError) *APIError {
	return &APIError{
		Category:   ClassifyResponse(statusCode, respErrors),
		StatusCode: statusCode,
		Errors:     respErrors,
	}
}

// newTransportError wraps a connection-level failure.
func newTransportError(err error) *APIError {
	return &APIError{
		Category: ClassifyTransportError(err),
		Message:  err.Error(),
	}
}

// AsAPIError extracts an *APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsCategory reports whether err is an APIError of the given category.
func IsCategory(err error, c Category) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Category == c
}
