package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrTransport marks failures where no usable response came back.
var ErrTransport = errors.New("backend unreachable")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Op     string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
}

func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// DetailOr returns the backend detail carried by err, or fallback.
func DetailOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// parseDetail reads {"detail": ...}. A list detail yields its first message.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		for _, item := range items {
			var entry struct {
				Msg string `json:"msg"`
			}
			if err := json.Unmarshal(item, &entry); err == nil && entry.Msg != "" {
				return entry.Msg
			}
			if err := json.Unmarshal(item, &text); err == nil && text != "" {
				return text
			}
		}
	}
	return ""
}
