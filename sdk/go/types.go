package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ScoreEntry mirrors one leaderboard row.
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int64  `json:"score"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// APIError is a non-2xx response. Message is the server's "error" field.
type APIError struct {
	Status  int
	Message string `json:"error"`
	Path    string `json:"path,omitempty"`
}

func (e *APIError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("request failed: status %d: %s (%s)", e.Status, e.Message, e.Path)
	}
	if e.Message != "" {
		return fmt.Sprintf("request failed: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed: status %d", e.Status)
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyName is returned when a score is submitted without a name.
var ErrEmptyName = errors.New("name is required")
