package validation

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/kjstillabower/weather-query-service/internal/models"
)

// The query schema is strict: exactly the fields below, nothing else.
// An over-specified input is itself a validation failure.
const (
	fieldLocation = "location"
	fieldDate     = "date"
)

// ParseBody parses and validates a JSON request body into a WeatherQuery.
// A body that is not a JSON object at all yields models.ErrMalformedBody;
// a well-formed object with bad or unexpected fields yields a
// *models.FieldError naming every offending field.
func ParseBody(body []byte) (models.WeatherQuery, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.WeatherQuery{}, fmt.Errorf("%w: %v", models.ErrMalformedBody, err)
	}

	location, locationOK := stringField(raw, fieldLocation)
	date, dateOK := stringField(raw, fieldDate)

	var extras []string
	for name := range raw {
		if name != fieldLocation && name != fieldDate {
			extras = append(extras, name)
		}
	}

	return validate(location, locationOK, date, dateOK, extras)
}

// ParseQuery validates a GET query string. Unrecognized parameters are
// rejected the same way unexpected JSON fields are.
func ParseQuery(values url.Values) (models.WeatherQuery, error) {
	var extras []string
	for name := range values {
		if name != fieldLocation && name != fieldDate {
			extras = append(extras, name)
		}
	}

	return validate(values.Get(fieldLocation), true, values.Get(fieldDate), true, extras)
}

// validate applies the field rules and collects every failure. The error
// lists fields in declaration order, then extras (sorted, since map
// iteration order is not stable).
func validate(location string, locationOK bool, date string, dateOK bool, extras []string) (models.WeatherQuery, error) {
	var bad []string
	if !locationOK || location == "" {
		bad = append(bad, fieldLocation)
	}
	if !dateOK || !isDateTime(date) {
		bad = append(bad, fieldDate)
	}
	sort.Strings(extras)
	bad = append(bad, extras...)

	if len(bad) > 0 {
		return models.WeatherQuery{}, &models.FieldError{Fields: bad}
	}
	return models.WeatherQuery{Location: location, Date: date}, nil
}

// isDateTime accepts ISO-8601 date-time strings (RFC 3339, with or without
// fractional seconds). Looser date-like forms such as RFC 1123 are rejected.
func isDateTime(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

// stringField extracts a string-typed field from a decoded JSON object.
// Returns ok=false when the field is absent or not a string; either way
// the caller treats it as an offending field.
func stringField(raw map[string]json.RawMessage, name string) (string, bool) {
	msg, present := raw[name]
	if !present {
		return "", false
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return "", false
	}
	return s, true
}
