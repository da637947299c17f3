package llm

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse is returned when a reply carries no text content
var ErrEmptyResponse = errors.New("provider returned no text response")

// StatusCode extracts the HTTP status code carried by a provider error, or 0
func StatusCode(err error) int {
	if err == nil {
		return 0
	}

	var anthropicErr *anthropic.RequestError
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}

	// Fall back to the message for wrapped transport errors ("status 503")
	msg := err.Error()
	for _, code := range retryableCodes {
		if strings.Contains(msg, "status code: "+strconv.Itoa(code)) ||
			strings.Contains(msg, "status "+strconv.Itoa(code)) {
			return code
		}
	}
	return 0
}

var retryableCodes = []int{
	http.StatusTooManyRequests,     // 429
	http.StatusInternalServerError, // 500
	http.StatusBadGateway,          // 502
	http.StatusServiceUnavailable,  // 503
	http.StatusGatewayTimeout,      // 504
}

// IsRetryable reports whether a failed call is worth retrying. Auth and
// request errors are not.
func IsRetryable(err error) bool {
	code := StatusCode(err)
	for _, rc := range retryableCodes {
		if code == rc {
			return true
		}
	}
	return false
}
