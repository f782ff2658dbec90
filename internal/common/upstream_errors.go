package common

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"resumepilot/internal/errors"
)

// ClassifyTransportError maps client-side HTTP failures onto the error
// taxonomy: a deadline hit is TIMEOUT, anything else on the wire is
// NETWORK_UNREACHABLE. The operation name leads the user-facing message.
func ClassifyTransportError(operation string, err error) *errors.AppError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewNetworkError(errors.ErrCodeTimeout,
			fmt.Sprintf("%s timed out. The service may be busy, try again shortly", operation), err)
	}
	return errors.NewNetworkError(errors.ErrCodeNetworkUnreachable,
		fmt.Sprintf("%s service could not be reached. Check that it is running and the network is available", operation), err)
}

// UpstreamHTTPError builds an UPSTREAM_ERROR from a non-2xx response,
// preferring the body's message/error field over the HTTP status line
func UpstreamHTTPError(status string, statusCode int, payload []byte) *errors.AppError {
	message := upstreamMessage(payload)
	if message == "" {
		message = status
	}
	if hint := classifyUpstreamHint(message, statusCode); hint != "" {
		message = message + ". " + hint
	}
	return errors.NewUpstreamError(errors.ErrCodeUpstreamError, message, nil).
		WithContext("status_code", statusCode)
}

func upstreamMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(payload, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return ""
}

// classifyUpstreamHint adds a best-effort user-facing hint based on the
// status code and well-known substrings of the upstream error text
func classifyUpstreamHint(message string, statusCode int) string {
	lower := strings.ToLower(message)
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden ||
		strings.Contains(lower, "api key") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "authentication"):
		return "Check that the configured API key is valid"
	case statusCode == http.StatusTooManyRequests ||
		strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests"):
		return "The service is rate limiting requests, try again later"
	case strings.Contains(lower, "unsupported") || strings.Contains(lower, "format") ||
		strings.Contains(lower, "corrupt"):
		return "The file may be in an unsupported or corrupted format"
	}
	return ""
}
