package openai

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/kitfinder/internal/domain"
)

// classify names the failure for the errors_total metric and wraps it in
// domain.ErrEmbeddingProviderError.
func classify(err error) (kind string, wrapped error) {
	status, detail := 0, ""

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status, detail = apiErr.HTTPStatusCode, apiErr.Message
	case errors.As(err, &reqErr):
		status, detail = reqErr.HTTPStatusCode, bodyDetail(reqErr.Body)
	default:
		return "transport", fmt.Errorf("embedding request failed: %v: %w", err, domain.ErrEmbeddingProviderError)
	}

	return statusKind(status), fmt.Errorf("embedding API status %d: %s: %w",
		status, detail, domain.ErrEmbeddingProviderError)
}

func statusKind(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "auth"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status >= http.StatusInternalServerError:
		return "server"
	case status >= http.StatusBadRequest:
		return "bad_request"
	default:
		return "api_error"
	}
}

// bodyDetail reads the "detail" or "error.message" member some gateways put
// in non-standard error bodies, else returns the raw body.
func bodyDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Detail != "" {
			return parsed.Detail
		}
		if parsed.Error.Message != "" {
			return parsed.Error.Message
		}
	}
	return string(body)
}
