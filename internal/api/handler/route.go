package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/api/models"
	"github.com/mappatterns/geoprovider/internal/api/response"
	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/routing"
)

// maxBodyBytes bounds routing request bodies.
const maxBodyBytes = 1 << 20

// Router is the routing service used by RouteHandler.
type Router interface {
	Route(ctx context.Context, req routing.Request) (*routing.Response, error)
}

// Isochroner is the isochrone service used by RouteHandler.
type Isochroner interface {
	Isochrone(ctx context.Context, req routing.IsochroneRequest) (*routing.IsochroneResponse, error)
}

// RouteHandler handles routing and isochrone endpoints.
type RouteHandler struct {
	router     Router
	isochroner Isochroner
	logger     zerolog.Logger
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(router Router, isochroner Isochroner, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{router: router, isochroner: isochroner, logger: logger}
}

// ComputeRoute handles POST /v1/routes.
func (h *RouteHandler) ComputeRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	var fieldErrors []models.FieldError
	if len(input.Coordinates) < 2 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "coordinates", Message: "at least 2 positions are required"})
	}
	coords := make([]geo.LngLat, 0, len(input.Coordinates))
	for i, pos := range input.Coordinates {
		p, err := pos.LngLat()
		if err != nil {
			fieldErrors = append(fieldErrors, models.FieldError{Field: fmt.Sprintf("coordinates[%d]", i), Message: err.Error()})
			continue
		}
		coords = append(coords, p)
	}
	profile, err := routing.ParseProfile(input.Profile)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "profile", Message: "must be one of driving, walking, cycling"})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid route request", fieldErrors)
		return
	}

	resp, err := h.router.Route(r.Context(), routing.Request{
		Coordinates:  coords,
		Profile:      profile,
		Alternatives: input.Alternatives,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	setAttempted(w, resp.AttemptedProviders)
	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, models.NewRouteResponse(resp))
}

// ComputeIsochrone handles POST /v1/isochrones. The response is a GeoJSON FeatureCollection.
func (h *RouteHandler) ComputeIsochrone(w http.ResponseWriter, r *http.Request) {
	var input models.IsochroneRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	var fieldErrors []models.FieldError
	center, err := input.Center.LngLat()
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "center", Message: err.Error()})
	}
	profile, err := routing.ParseProfile(input.Profile)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "profile", Message: "must be one of driving, walking, cycling"})
	}
	if len(input.ContoursMinutes) == 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "contoursMinutes", Message: "at least one contour is required"})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid isochrone request", fieldErrors)
		return
	}

	resp, err := h.isochroner.Isochrone(r.Context(), routing.IsochroneRequest{
		Center:          center,
		Profile:         profile,
		ContoursMinutes: input.ContoursMinutes,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	body, err := json.Marshal(models.NewIsochroneCollection(resp))
	if err != nil {
		h.logger.Error().Err(err).Msg("encoding isochrone collection")
		response.InternalError(w, r, "failed to encode isochrone")
		return
	}

	setAttempted(w, resp.AttemptedProviders)
	w.Header().Set("Cache-Control", "private, max-age=60")
	response.Raw(w, r, http.StatusOK, "application/geo+json", body)
}
