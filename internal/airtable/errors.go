package airtable

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	// Type is the service's error code (ex. NOT_FOUND, INVALID_PERMISSIONS).
	Type    string
	Message string
	Method  string
	URL     string
}

func (e *APIError) Error() string {
	message := e.Message
	if message == "" {
		message = e.Type
	}
	if message == "" {
		message = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("airtable: %s %s: %d: %s", e.Method, e.URL, e.StatusCode, message)
}

// errorBody is `{"error": {"type": "...", "message": "..."}}` or, for some
// errors, `{"error": "NOT_FOUND"}`.
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

func parseError(statusCode int, method, url string, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Method:     method,
		URL:        url,
	}

	var parsed errorBody
	if json.Unmarshal(body, &parsed) != nil || len(parsed.Error) == 0 {
		return apiErr
	}

	var code string
	if json.Unmarshal(parsed.Error, &code) == nil {
		apiErr.Type = code
		return apiErr
	}

	var detailed struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if json.Unmarshal(parsed.Error, &detailed) == nil {
		apiErr.Type = detailed.Type
		apiErr.Message = detailed.Message
	}
	return apiErr
}
