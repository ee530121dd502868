package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-query-service/internal/models"
	"github.com/kjstillabower/weather-query-service/internal/observability"
	"github.com/kjstillabower/weather-query-service/internal/service"
	"github.com/kjstillabower/weather-query-service/internal/validation"
)

const maxBodyBytes = 1 << 16

// HealthChecks holds reachability probes for the stateful collaborators.
// A nil probe is skipped.
type HealthChecks struct {
	Counter func(ctx context.Context) error
	Cache   func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weatherService *service.WeatherService
	health         *HealthChecks
	logger         *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(weatherService *service.WeatherService, health *HealthChecks, logger *zap.Logger) *Handler {
	return &Handler{
		weatherService: weatherService,
		health:         health,
		logger:         logger,
	}
}

// GetWeather handles GET /weather?location=...&date=...
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	query, err := validation.ParseQuery(r.URL.Query())
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	h.serveWeather(w, r, query)
}

// PostWeather handles POST /weather with a JSON body {location, date}.
func (h *Handler) PostWeather(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read request body")
		return
	}

	query, err := validation.ParseBody(body)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	h.serveWeather(w, r, query)
}

// serveWeather runs the pipeline for a validated query. Validation already
// happened at the parse site, so this is the first point the rate limiter
// sees the client.
func (h *Handler) serveWeather(w http.ResponseWriter, r *http.Request, query models.WeatherQuery) {
	reading, err := h.weatherService.GetWeather(r.Context(), query, clientIP(r))
	if err != nil {
		h.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

// writeQueryError maps parse failures: malformed JSON is a 400, field
// validation failures are a 422 naming every offending field.
func (h *Handler) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErr *models.FieldError
	if errors.As(err, &fieldErr) {
		writeError(w, r, http.StatusUnprocessableEntity, fieldErr.Error())
		return
	}
	writeError(w, r, http.StatusBadRequest, err.Error())
}

// writePipelineError maps pipeline failures to status codes. Anything not
// explicitly recognized is an internal error; the caller gets a stable
// message while the detail goes to the log.
func (h *Handler) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, models.ErrRateLimited) {
		observability.RateLimitDeniedTotal.Inc()
		writeError(w, r, http.StatusTooManyRequests, "requests limit reached")
		return
	}

	loggerFrom(r, h.logger).Error("pipeline failure", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "something went wrong")
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := make(map[string]string)

	if h.health != nil {
		if h.health.Counter != nil {
			checks["rateCounter"] = probeResult(h.health.Counter(r.Context()))
		}
		if h.health.Cache != nil {
			checks["cache"] = probeResult(h.health.Cache())
		}
	}
	for _, v := range checks {
		if v != "healthy" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "weather-query-service",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func probeResult(err error) string {
	if err != nil {
		return "unhealthy"
	}
	return "healthy"
}

// NotFound is the catch-all handler for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "the path is not found")
}

// clientIP derives the rate-limiter key for a request: the first hop of
// X-Forwarded-For, then X-Real-IP, then the transport remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the structured error body:
// {statusCode, error: <status text>, message}.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"statusCode": status,
		"error":      http.StatusText(status),
		"message":    message,
	})
}

// loggerFrom returns the request-scoped logger, or fallback.
func loggerFrom(r *http.Request, fallback *zap.Logger) *zap.Logger {
	if l, ok := r.Context().Value("logger").(*zap.Logger); ok && l != nil {
		return l
	}
	return fallback
}
