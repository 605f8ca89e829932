package genai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the remote API.
type APIError struct {
	HTTPStatus int
	Code       string // e.g. "INVALID_ARGUMENT"
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("genai: api error (status %d)", e.HTTPStatus)
	}
	return fmt.Sprintf("genai: api error (status %d): %s", e.HTTPStatus, e.Message)
}

// parseAPIError decodes the standard error envelope, falling back to the
// raw body when the envelope is absent.
func parseAPIError(status int, body []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	apiErr := &APIError{HTTPStatus: status}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Code = envelope.Error.Status
	} else {
		apiErr.Message = truncate(string(body), 200)
	}
	return apiErr
}

// IsInvalidKey reports whether err is a rejection of the API credential,
// as opposed to any other request failure. Callers use it to prompt for
// a new key instead of showing a generic error.
func IsInvalidKey(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.HTTPStatus != 400 && apiErr.HTTPStatus != 401 && apiErr.HTTPStatus != 403 {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "api key") || strings.Contains(msg, "api_key_invalid") ||
		strings.Contains(msg, "unauthenticated")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
