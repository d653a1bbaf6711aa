package fetcher

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited"
	KindForbidden   ErrorKind = "forbidden"
	KindNotFound    ErrorKind = "not_found"
	KindUpstream    ErrorKind = "upstream_failure"
	KindUnexpected  ErrorKind = "unexpected_status"
	KindNetwork     ErrorKind = "network"
	KindTimeout     ErrorKind = "timeout"
	KindTooLarge    ErrorKind = "body_too_large"
)

// FetchError is a classified fetch failure. errors.Is(err, domain.ErrFetchFailed)
// holds for every FetchError.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	URL        string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d for %s", e.Kind, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("fetch %s: %v for %s", e.Kind, e.Cause, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Cause }

func (e *FetchError) Is(target error) bool { return target == domain.ErrFetchFailed }

// ClassifyStatus builds a FetchError for a non-2xx response.
func ClassifyStatus(statusCode int, url string) *FetchError {
	kind := KindUnexpected
	switch {
	case statusCode == http.StatusTooManyRequests:
		kind = KindRateLimited
	case statusCode == http.StatusForbidden:
		kind = KindForbidden
	case statusCode == http.StatusNotFound, statusCode == http.StatusGone:
		kind = KindNotFound
	case statusCode >= http.StatusInternalServerError:
		kind = KindUpstream
	}
	return &FetchError{Kind: kind, StatusCode: statusCode, URL: url, Cause: fmt.Errorf("HTTP %d", statusCode)}
}

// ClassifyTransport builds a FetchError for a failure below HTTP: DNS,
// refused connection, deadline.
func ClassifyTransport(cause error, url string, timedOut bool) *FetchError {
	kind := KindNetwork
	if timedOut {
		kind = KindTimeout
	}
	return &FetchError{Kind: kind, URL: url, Cause: cause}
}

// KindOf returns the kind of a wrapped FetchError, or "" if err has none.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
