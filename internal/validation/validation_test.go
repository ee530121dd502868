package validation

import (
	"errors"
	"net/url"
	"testing"

	"github.com/kjstillabower/weather-query-service/internal/models"
)

// TestParseBody_Valid verifies that a well-formed body yields the query
// with fields carried through untouched.
func TestParseBody_Valid(t *testing.T) {
	q, err := ParseBody([]byte(`{"location":"Lille","date":"2024-02-22T14:48:00.000Z"}`))
	if err != nil {
		t.Fatalf("ParseBody() error = %v", err)
	}
	if q.Location != "Lille" {
		t.Errorf("Location = %q, want %q", q.Location, "Lille")
	}
	if q.Date != "2024-02-22T14:48:00.000Z" {
		t.Errorf("Date = %q, want %q", q.Date, "2024-02-22T14:48:00.000Z")
	}
}

// TestParseBody_FieldErrors verifies the validation rules: empty location,
// loosely formatted dates, wrongly typed fields and unexpected extras, with
// the error naming every offending field.
func TestParseBody_FieldErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{
			name:       "empty location",
			body:       `{"location":"","date":"2024-02-22T14:48:00.000Z"}`,
			wantFields: []string{"location"},
		},
		{
			name:       "missing location",
			body:       `{"date":"2024-02-22T14:48:00.000Z"}`,
			wantFields: []string{"location"},
		},
		{
			name:       "rfc1123 date rejected",
			body:       `{"location":"Lille","date":"Thu, 22 Feb 2024 14:48:00 GMT"}`,
			wantFields: []string{"date"},
		},
		{
			name:       "date without time rejected",
			body:       `{"location":"Lille","date":"2024-02-22"}`,
			wantFields: []string{"date"},
		},
		{
			name:       "non-string location",
			body:       `{"location":42,"date":"2024-02-22T14:48:00.000Z"}`,
			wantFields: []string{"location"},
		},
		{
			name:       "extra field fails even with valid fields",
			body:       `{"location":"Lille","date":"2024-02-22T14:48:00.000Z","unit":"celsius"}`,
			wantFields: []string{"unit"},
		},
		{
			name:       "everything wrong lists all in order",
			body:       `{"location":"","date":"yesterday","unit":"celsius"}`,
			wantFields: []string{"location", "date", "unit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBody([]byte(tt.body))
			var fieldErr *models.FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("ParseBody() error = %v, want *models.FieldError", err)
			}
			if len(fieldErr.Fields) != len(tt.wantFields) {
				t.Fatalf("Fields = %v, want %v", fieldErr.Fields, tt.wantFields)
			}
			for i, f := range tt.wantFields {
				if fieldErr.Fields[i] != f {
					t.Errorf("Fields[%d] = %q, want %q (all: %v)", i, fieldErr.Fields[i], f, fieldErr.Fields)
				}
			}
		})
	}
}

// TestParseBody_MalformedJSON verifies that a non-JSON body maps to
// ErrMalformedBody rather than a field error.
func TestParseBody_MalformedJSON(t *testing.T) {
	_, err := ParseBody([]byte(`not json at all`))
	if !errors.Is(err, models.ErrMalformedBody) {
		t.Errorf("ParseBody() error = %v, want ErrMalformedBody", err)
	}

	var fieldErr *models.FieldError
	if errors.As(err, &fieldErr) {
		t.Error("malformed body should not produce a FieldError")
	}
}

// TestParseBody_AcceptsRFC3339Offsets verifies that ISO-8601 date-times
// with explicit offsets pass.
func TestParseBody_AcceptsRFC3339Offsets(t *testing.T) {
	_, err := ParseBody([]byte(`{"location":"Lille","date":"2024-02-22T14:48:00+01:00"}`))
	if err != nil {
		t.Errorf("ParseBody() error = %v, want nil", err)
	}
}

// TestParseQuery verifies the GET query-string path, including rejection
// of unrecognized parameters.
func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(url.Values{
		"location": {"Lille"},
		"date":     {"2024-02-22T14:48:00.000Z"},
	})
	if err != nil {
		t.Fatalf("ParseQuery() error = %v", err)
	}
	if q.Location != "Lille" || q.Date != "2024-02-22T14:48:00.000Z" {
		t.Errorf("ParseQuery() = %+v", q)
	}

	_, err = ParseQuery(url.Values{
		"location": {"Lille"},
		"date":     {"2024-02-22T14:48:00.000Z"},
		"unit":     {"celsius"},
	})
	var fieldErr *models.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("ParseQuery() with extra param error = %v, want *models.FieldError", err)
	}
	if len(fieldErr.Fields) != 1 || fieldErr.Fields[0] != "unit" {
		t.Errorf("Fields = %v, want [unit]", fieldErr.Fields)
	}

	_, err = ParseQuery(url.Values{})
	if !errors.As(err, &fieldErr) {
		t.Fatalf("ParseQuery(empty) error = %v, want *models.FieldError", err)
	}
	if len(fieldErr.Fields) != 2 || fieldErr.Fields[0] != "location" || fieldErr.Fields[1] != "date" {
		t.Errorf("Fields = %v, want [location date]", fieldErr.Fields)
	}
}
