// Package handler provides HTTP handlers for the geoprovider API.
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/api/response"
	"github.com/mappatterns/geoprovider/internal/basemap"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/routing"
)

// writeServiceError maps a service error onto the documented status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	if provider.IsCanceled(r.Context(), err) {
		response.ClientClosed(w, r)
		return
	}

	switch {
	case errors.Is(err, routing.ErrInvalidRequest), errors.Is(err, basemap.ErrInvalidRequest):
		response.BadRequest(w, r, err.Error(), nil)
		return
	case errors.Is(err, routing.ErrProvidersExhausted), errors.Is(err, basemap.ErrProvidersExhausted):
		response.ServiceUnavailable(w, r, "no provider is configured for this capability")
		return
	}

	var perr *provider.Error
	if errors.As(err, &perr) {
		if provider.IsRateLimitError(err) {
			response.UpstreamUnavailable(w, r, perr.ProviderID, perr.Message)
			return
		}
		response.BadGateway(w, r, perr.ProviderID, perr.Message)
		return
	}

	logger.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected service error")
	response.InternalError(w, r, "an unexpected error occurred")
}

// setAttempted exposes the providers tried for a request, in dispatch order.
func setAttempted(w http.ResponseWriter, attempted []string) {
	if len(attempted) > 0 {
		w.Header().Set("X-Attempted-Providers", strings.Join(attempted, ","))
	}
}
