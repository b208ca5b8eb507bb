package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/tognete/codi/pkg/coditypes"
)

// kindForStatus maps an HTTP status from a provider API to a backend error kind.
func kindForStatus(status int) coditypes.BackendErrorKind {
	switch {
	case status == 0:
		return coditypes.BackendNetwork
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return coditypes.BackendAuth
	case status == http.StatusTooManyRequests:
		return coditypes.BackendRateLimit
	case status >= 500 || status == http.StatusRequestTimeout:
		return coditypes.BackendNetwork
	default:
		return coditypes.BackendMalformed
	}
}

// backendError wraps a provider failure. status is 0 when no HTTP response was received.
func backendError(provider string, status int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return coditypes.NewBackendError(provider, coditypes.BackendNetwork, err)
	}
	return coditypes.NewBackendError(provider, kindForStatus(status), err)
}

var (
	errNoKey         = errors.New("API key not configured")
	errEmptyResponse = errors.New("empty response content")
)
