package dispatch

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/throttlehq/throttle/types"
)

// mapUpstreamError translates an upstream HTTP status plus body excerpt
// into the proxy's typed error, following the same status-code switch the
// teacher's Claude adapter used, extended with the Anthropic-specific 529
// overload status.
func mapUpstreamError(provider string, status int, body io.Reader) *types.Error {
	msg := readErrBody(body)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewError(types.ErrUpstreamAuth, msg).WithHTTPStatus(status).WithProvider(provider)
	case http.StatusTooManyRequests:
		return types.NewError(types.ErrUpstreamRateLimit, msg).WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	case http.StatusBadRequest:
		return types.NewError(types.ErrInvalidRequest, msg).WithHTTPStatus(status).WithProvider(provider)
	case 529:
		return types.NewError(types.ErrUpstreamRateLimit, msg).WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	default:
		return types.NewError(types.ErrUpstreamError, msg).WithHTTPStatus(status).WithRetryable(status >= 500).WithProvider(provider)
	}
}

func readErrBody(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	return strings.TrimSpace(string(data))
}

func wrapNetworkError(provider string, err error) *types.Error {
	return types.NewError(types.ErrUpstreamError, fmt.Sprintf("%s: %v", provider, err)).
		WithHTTPStatus(http.StatusBadGateway).
		WithRetryable(true).
		WithProvider(provider).
		WithCause(err)
}
