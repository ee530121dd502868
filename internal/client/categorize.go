package client

import (
	"context"
	"errors"
	"strings"

	"github.com/kjstillabower/weather-query-service/internal/models"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as the upstreamErrorsTotal label.
const (
	ErrorCategoryTimeout     ErrorCategory = "timeout"
	ErrorCategoryNetwork     ErrorCategory = "network"
	ErrorCategoryUpstream5xx ErrorCategory = "upstream_5xx"
	ErrorCategoryParsing     ErrorCategory = "parsing"
	ErrorCategoryEmpty       ErrorCategory = "empty"
	ErrorCategoryUnknown     ErrorCategory = "unknown"
)

// CategorizeError maps a fetch error to a stable ErrorCategory for metrics.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}

	if errors.Is(err, models.ErrEmptyUpstreamResponse) {
		return ErrorCategoryEmpty
	}

	// Transport errors reach here flattened into the message, so fall back
	// to string matching the way net/http surfaces them.
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "context deadline exceeded") {
		return ErrorCategoryTimeout
	}

	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "no such host") {
		return ErrorCategoryNetwork
	}

	if strings.Contains(errStr, "HTTP 5") {
		return ErrorCategoryUpstream5xx
	}

	if strings.Contains(errStr, "parse") || strings.Contains(errStr, "unmarshal") ||
		strings.Contains(errStr, "read response") {
		return ErrorCategoryParsing
	}

	return ErrorCategoryUnknown
}
