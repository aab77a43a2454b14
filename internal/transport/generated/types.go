// Package generated holds the kitfinder HTTP API models and chi bindings
// described by api/openapi.yaml.
package generated

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Defines values for ErrorResponseCode.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed       ErrorResponseCode = "validation_failed"
	ErrorResponseCodeInvalidPreferences     ErrorResponseCode = "invalid_preferences"
	ErrorResponseCodeUnauthorized           ErrorResponseCode = "unauthorized"
	ErrorResponseCodeRateLimited            ErrorResponseCode = "rate_limited"
	ErrorResponseCodeEmbeddingQuotaExceeded ErrorResponseCode = "embedding_quota_exceeded"
	ErrorResponseCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeIndexUnavailable       ErrorResponseCode = "index_unavailable"
	ErrorResponseCodeVideoSearchUnavailable ErrorResponseCode = "video_search_unavailable"
	ErrorResponseCodeNotImplemented         ErrorResponseCode = "not_implemented"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// Budget is a price ceiling: a JSON number, a numeric string or "None".
type Budget string

// UnmarshalJSON accepts a JSON number or a JSON string.
func (b *Budget) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode budget: %w", err)
		}
		*b = Budget(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("budget must be a number or a string, got %s", data)
	}
	*b = Budget(data)
	return nil
}

// SearchRequest defines model for SearchRequest.
type SearchRequest struct {
	Layout        *string `json:"layout,omitempty" validate:"omitempty,max=64"`
	Hotswap       *string `json:"hotswap,omitempty" validate:"omitempty,max=32"`
	Flexcuts      *string `json:"flexcuts,omitempty" validate:"omitempty,max=32"`
	Budget        *Budget `json:"budget,omitempty" validate:"omitempty,max=32"`
	MountingStyle *string `json:"mounting_style,omitempty" validate:"omitempty,max=64"`
	NResults      *int    `json:"n_results,omitempty" validate:"omitempty,gte=0,lte=1000"`
}

// SearchParams defines parameters for GetSearch.
type SearchParams struct {
	Layout        *string `form:"layout,omitempty" json:"layout,omitempty" validate:"omitempty,max=64"`
	Hotswap       *string `form:"hotswap,omitempty" json:"hotswap,omitempty" validate:"omitempty,max=32"`
	Flexcuts      *string `form:"flexcuts,omitempty" json:"flexcuts,omitempty" validate:"omitempty,max=32"`
	Budget        *string `form:"budget,omitempty" json:"budget,omitempty" validate:"omitempty,max=32"`
	MountingStyle *string `form:"mounting_style,omitempty" json:"mounting_style,omitempty" validate:"omitempty,max=64"`
	NResults      *int    `form:"n_results,omitempty" json:"n_results,omitempty" validate:"omitempty,gte=0,lte=1000"`
}

// KeyboardRow is one row of the results table.
type KeyboardRow struct {
	Keyboard      string `json:"keyboard"`
	Layout        string `json:"layout"`
	MountingStyle string `json:"mounting style"`
	Price         string `json:"price"`
	Features      string `json:"features"`
}

// VideoRow is one row of the videos table.
type VideoRow struct {
	Keyboard string `json:"keyboard"`
	Link     string `json:"link"`
}

// SearchResponse defines model for SearchResponse.
type SearchResponse struct {
	Query   string        `json:"query"`
	Results []KeyboardRow `json:"results"`
	Videos  []VideoRow    `json:"videos"`
}

// OptionsResponse lists the values accepted by the search endpoints.
type OptionsResponse struct {
	Layouts        []string `json:"layouts"`
	MountingStyles []string `json:"mounting_styles"`
	Budgets        []string `json:"budgets"`
	Choices        []string `json:"choices"`
	MaxResults     int      `json:"max_results"`
	DefaultResults int      `json:"default_results"`
}

// HealthResponseStatus defines model for HealthResponse.Status.
type HealthResponseStatus string

// HealthResponseChecks defines model for HealthResponse.Checks.
type HealthResponseChecks string

// BudgetStatus is the embedding token budget as reported by /health.
// Remaining values of -1 mean unlimited.
type BudgetStatus struct {
	Provider         string `json:"provider"`
	Action           string `json:"action"`
	DailyUsed        int64  `json:"daily_used"`
	DailyLimit       int64  `json:"daily_limit"`
	DailyRemaining   int64  `json:"daily_remaining"`
	MonthlyUsed      int64  `json:"monthly_used"`
	MonthlyLimit     int64  `json:"monthly_limit"`
	MonthlyRemaining int64  `json:"monthly_remaining"`
	IsExhausted      bool   `json:"is_exhausted"`
}

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status  HealthResponseStatus            `json:"status"`
	Checks  map[string]HealthResponseChecks `json:"checks"`
	Items   *int                            `json:"items,omitempty"`
	Version string                          `json:"version"`
	Budget  *BudgetStatus                   `json:"budget,omitempty"`
}
