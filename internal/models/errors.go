package models

import (
	"errors"
	"strings"
)

// Sentinel errors for the pipeline stages. Handlers map these to HTTP
// status codes; everything else is a 500.
var (
	// ErrMalformedBody means the request body was not valid JSON.
	ErrMalformedBody = errors.New("malformed request body")

	// ErrRateLimited means the client exhausted its request window.
	ErrRateLimited = errors.New("requests limit reached")

	// ErrUpstream means the weather provider failed or returned an
	// unusable response.
	ErrUpstream = errors.New("upstream failure")

	// ErrEmptyUpstreamResponse means the provider answered without either
	// temperature field.
	ErrEmptyUpstreamResponse = errors.New("upstream returned no temperature data")
)

// FieldError is a validation failure naming every offending field, in
// field declaration order (location, date, then unexpected extras).
type FieldError struct {
	Fields []string
}

func (e *FieldError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}
