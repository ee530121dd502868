package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kjstillabower/weather-query-service/internal/models"
)

var testQuery = models.WeatherQuery{Location: "Lille", Date: "2024-02-22T14:48:00.000Z"}

func newTestClient(url string) *HTTPWeatherClient {
	return NewHTTPWeatherClient(url, 2*time.Second)
}

// TestFetch_BothFields verifies that a response carrying both fields is
// used as given, with no consistency cross-check.
func TestFetch_BothFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"celsius": 12.3, "fahrenheit": 99.9}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Fetch(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	want := models.Reading{Celsius: 12.3, Fahrenheit: 99.9}
	if got != want {
		t.Errorf("Fetch() = %+v, want %+v", got, want)
	}
}

// TestFetch_DerivesMissingUnit verifies the conversion of a partial
// response: celsius=10 yields fahrenheit=50 and vice versa, rounded to two
// decimals.
func TestFetch_DerivesMissingUnit(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.Reading
	}{
		{
			name: "celsius only",
			body: `{"celsius": 10}`,
			want: models.Reading{Celsius: 10, Fahrenheit: 50},
		},
		{
			name: "fahrenheit only",
			body: `{"fahrenheit": 50}`,
			want: models.Reading{Celsius: 10, Fahrenheit: 50},
		},
		{
			name: "rounding to two decimals",
			body: `{"celsius": 11.11}`,
			want: models.Reading{Celsius: 11.11, Fahrenheit: 52},
		},
		{
			name: "zero celsius is present, not absent",
			body: `{"celsius": 0}`,
			want: models.Reading{Celsius: 0, Fahrenheit: 32},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := newTestClient(srv.URL).Fetch(context.Background(), testQuery)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Fetch() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestFetch_EmptyResponse verifies that a body with neither field fails
// with ErrEmptyUpstreamResponse.
func TestFetch_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), testQuery)
	if !errors.Is(err, models.ErrEmptyUpstreamResponse) {
		t.Errorf("Fetch() error = %v, want ErrEmptyUpstreamResponse", err)
	}
}

// TestFetch_MalformedBody verifies that a non-JSON body with a success
// status is an upstream error, not a crash, and is not retried.
func TestFetch_MalformedBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), testQuery)
	if !errors.Is(err, models.ErrUpstream) {
		t.Errorf("Fetch() error = %v, want ErrUpstream", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("upstream calls = %d, want 1 (parse failures are not retried)", n)
	}
}

// TestFetch_RetriesOnceOnFailure verifies that a failed first attempt is
// retried exactly once with an identical request and the retry's result
// is returned.
func TestFetch_RetriesOnceOnFailure(t *testing.T) {
	var calls int32
	var firstBody, secondBody models.WeatherQuery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			json.NewDecoder(r.Body).Decode(&firstBody)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewDecoder(r.Body).Decode(&secondBody)
		w.Write([]byte(`{"celsius": 10, "fahrenheit": 50}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Fetch(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got != (models.Reading{Celsius: 10, Fahrenheit: 50}) {
		t.Errorf("Fetch() = %+v", got)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("upstream calls = %d, want 2", n)
	}
	if firstBody != secondBody {
		t.Errorf("retry payload differs: first %+v, second %+v", firstBody, secondBody)
	}
	if firstBody != testQuery {
		t.Errorf("payload = %+v, want %+v", firstBody, testQuery)
	}
}

// TestFetch_NoSecondRetry verifies that a failing upstream is called
// exactly twice and the failure surfaces as one coherent upstream error.
func TestFetch_NoSecondRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), testQuery)
	if !errors.Is(err, models.ErrUpstream) {
		t.Fatalf("Fetch() error = %v, want ErrUpstream", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("upstream calls = %d, want exactly 2", n)
	}
}

// TestFetch_TransportFailure verifies that an unreachable provider is an
// upstream error after the single retry.
func TestFetch_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening any more

	_, err := newTestClient(srv.URL).Fetch(context.Background(), testQuery)
	if !errors.Is(err, models.ErrUpstream) {
		t.Errorf("Fetch() error = %v, want ErrUpstream", err)
	}
}

// TestConversions pins the two derivation formulas.
func TestConversions(t *testing.T) {
	if got := FahrenheitToCelsius(50); got != 10 {
		t.Errorf("FahrenheitToCelsius(50) = %v, want 10", got)
	}
	if got := CelsiusToFahrenheit(10); got != 50 {
		t.Errorf("CelsiusToFahrenheit(10) = %v, want 50", got)
	}
	if got := FahrenheitToCelsius(99.9); got != 37.72 {
		t.Errorf("FahrenheitToCelsius(99.9) = %v, want 37.72", got)
	}
	if got := CelsiusToFahrenheit(-40); got != -40 {
		t.Errorf("CelsiusToFahrenheit(-40) = %v, want -40", got)
	}
}
