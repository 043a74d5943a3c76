package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/api/models"
	"github.com/mappatterns/geoprovider/internal/api/response"
	"github.com/mappatterns/geoprovider/internal/geocoding"
)

// MaxGeocodeLimit caps the limit query parameter.
const MaxGeocodeLimit = 10

// Geocoder is the forward geocoding service used by GeocodeHandler.
type Geocoder interface {
	Geocode(ctx context.Context, req geocoding.Request) (*geocoding.Response, error)
}

// ReverseGeocoder is the reverse geocoding service used by GeocodeHandler.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, req geocoding.ReverseRequest) (*geocoding.Response, error)
}

// GeocodeHandler handles forward and reverse geocoding endpoints.
type GeocodeHandler struct {
	geocoder Geocoder
	reverse  ReverseGeocoder
	logger   zerolog.Logger
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(geocoder Geocoder, reverse ReverseGeocoder, logger zerolog.Logger) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder, reverse: reverse, logger: logger}
}

// Geocode handles GET /v1/geocode?q=&limit=.
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	q := geocoding.NormalizeQuery(r.URL.Query().Get("q"))
	if q == "" {
		response.BadRequest(w, r, "query is required", []models.FieldError{
			{Field: "q", Message: "must not be empty"},
		})
		return
	}

	limit, fieldErr := parseLimit(r)
	if fieldErr != nil {
		response.BadRequest(w, r, "invalid limit", []models.FieldError{*fieldErr})
		return
	}

	resp, err := h.geocoder.Geocode(r.Context(), geocoding.Request{Query: q, Limit: limit})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	setAttempted(w, resp.AttemptedProviders)
	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, models.NewGeocodeResponse(resp))
}

// ReverseGeocode handles GET /v1/reverse-geocode?lng=&lat=&limit=.
func (h *GeocodeHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	var fieldErrors []models.FieldError

	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lng", Message: "must be a number"})
	}
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lat", Message: "must be a number"})
	}
	limit, fieldErr := parseLimit(r)
	if fieldErr != nil {
		fieldErrors = append(fieldErrors, *fieldErr)
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid coordinate", fieldErrors)
		return
	}

	point, err := models.Position{lng, lat}.LngLat()
	if err != nil {
		response.BadRequest(w, r, "invalid coordinate", []models.FieldError{
			{Field: "lng,lat", Message: err.Error()},
		})
		return
	}

	resp, err := h.reverse.ReverseGeocode(r.Context(), geocoding.ReverseRequest{Point: point, Limit: limit})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	setAttempted(w, resp.AttemptedProviders)
	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, models.NewGeocodeResponse(resp))
}

// parseLimit reads the optional limit parameter. Zero means the service default.
func parseLimit(r *http.Request) (int, *models.FieldError) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > MaxGeocodeLimit {
		return 0, &models.FieldError{Field: "limit", Message: "must be an integer between 1 and " + strconv.Itoa(MaxGeocodeLimit)}
	}
	return limit, nil
}
