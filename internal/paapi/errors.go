package paapi

import (
	"errors"
	"fmt"
)

// ErrItemNotFound is matched by NotFoundError through errors.Is.
var ErrItemNotFound = errors.New("item not found in response")

// UpstreamError represents a non-2xx response from the vendor API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("PA-API HTTP %d: %s", e.StatusCode, e.Body)
}

// NotFoundError is returned when the response carries no item for the ASIN.
type NotFoundError struct {
	ASIN string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("PA-API: %s: %s", e.ASIN, ErrItemNotFound)
}

func (e *NotFoundError) Unwrap() error {
	return ErrItemNotFound
}
