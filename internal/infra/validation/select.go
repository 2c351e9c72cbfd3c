package validation

import (
	"net/http"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

// Select picks the transport from configuration: a configured URL always
// wins; without one the simulated transport is used, except in production
// where a missing URL is a configuration error.
func Select(url string, production bool, httpClient *http.Client) (Transport, error) {
	if url != "" {
		return NewHTTPTransport(url, httpClient)
	}
	if production {
		return nil, domain.ErrValidationURL
	}
	return NewSimulatedTransport(nil), nil
}
