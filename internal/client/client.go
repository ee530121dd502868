package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/kjstillabower/weather-query-service/internal/models"
	"github.com/kjstillabower/weather-query-service/internal/observability"
)

// WeatherClient fetches a temperature reading from the upstream provider.
type WeatherClient interface {
	Fetch(ctx context.Context, query models.WeatherQuery) (models.Reading, error)
}

// HTTPWeatherClient calls the provider with the validated query as a JSON
// payload. A failed call (transport error or non-2xx status) is retried
// exactly once with an identical request; the retry's error is the one
// surfaced. Response bodies missing both temperature fields fail with
// models.ErrEmptyUpstreamResponse; a body carrying only one field has the
// other derived from it.
type HTTPWeatherClient struct {
	url    string
	client *http.Client
}

// NewHTTPWeatherClient returns a client for the provider at url. timeout
// bounds each individual attempt, not the fetch as a whole.
func NewHTTPWeatherClient(url string, timeout time.Duration) *HTTPWeatherClient {
	return &HTTPWeatherClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// upstreamResponse mirrors the provider's body. Pointer fields distinguish
// an absent temperature from a zero one.
type upstreamResponse struct {
	Celsius    *float64 `json:"celsius"`
	Fahrenheit *float64 `json:"fahrenheit"`
}

// Fetch implements WeatherClient.
func (c *HTTPWeatherClient) Fetch(ctx context.Context, query models.WeatherQuery) (models.Reading, error) {
	resp, err := c.call(ctx, query)
	if err != nil {
		observability.UpstreamRetriesTotal.Inc()
		resp, err = c.call(ctx, query)
		if err != nil {
			observability.UpstreamErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
			return models.Reading{}, err
		}
	}
	defer resp.Body.Close()

	reading, err := decodeReading(resp.Body)
	if err != nil {
		observability.UpstreamErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return models.Reading{}, err
	}
	return reading, nil
}

// call issues one POST of the query. Non-2xx statuses are converted to
// errors here so the caller's retry covers them alongside transport
// failures.
func (c *HTTPWeatherClient) call(ctx context.Context, query models.WeatherQuery) (*http.Response, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", models.ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", models.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start).Seconds()
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues("error").Inc()
		observability.UpstreamDuration.WithLabelValues("error").Observe(duration)
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}

	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(status).Inc()
	observability.UpstreamDuration.WithLabelValues(status).Observe(duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d", models.ErrUpstream, resp.StatusCode)
	}

	return resp, nil
}

// decodeReading parses the provider body and normalizes partial responses
// into a fully populated Reading.
func decodeReading(body io.Reader) (models.Reading, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return models.Reading{}, fmt.Errorf("%w: read response: %v", models.ErrUpstream, err)
	}

	var resp upstreamResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.Reading{}, fmt.Errorf("%w: parse response: %v", models.ErrUpstream, err)
	}

	switch {
	case resp.Celsius == nil && resp.Fahrenheit == nil:
		return models.Reading{}, models.ErrEmptyUpstreamResponse
	case resp.Celsius == nil:
		return models.Reading{
			Celsius:    FahrenheitToCelsius(*resp.Fahrenheit),
			Fahrenheit: *resp.Fahrenheit,
		}, nil
	case resp.Fahrenheit == nil:
		return models.Reading{
			Celsius:    *resp.Celsius,
			Fahrenheit: CelsiusToFahrenheit(*resp.Celsius),
		}, nil
	default:
		// Both supplied: taken as given, no consistency cross-check.
		return models.Reading{
			Celsius:    *resp.Celsius,
			Fahrenheit: *resp.Fahrenheit,
		}, nil
	}
}

// FahrenheitToCelsius converts and rounds to two decimals.
func FahrenheitToCelsius(f float64) float64 {
	return round2((f - 32) / 1.8)
}

// CelsiusToFahrenheit converts and rounds to two decimals.
func CelsiusToFahrenheit(c float64) float64 {
	return round2(c*1.8 + 32)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}
