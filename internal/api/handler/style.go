package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/api/response"
	"github.com/mappatterns/geoprovider/internal/basemap"
)

// StyleResolver is the basemap service used by StyleHandler.
type StyleResolver interface {
	Style(ctx context.Context, req basemap.StyleRequest) (*basemap.Response, error)
}

// StyleHandler serves basemap style documents.
type StyleHandler struct {
	styles StyleResolver
	logger zerolog.Logger
}

// NewStyleHandler creates a new StyleHandler.
func NewStyleHandler(styles StyleResolver, logger zerolog.Logger) *StyleHandler {
	return &StyleHandler{styles: styles, logger: logger}
}

// GetStyle handles GET /v1/styles/{name}. The body is the provider's style
// document unchanged; the serving provider is reported in headers.
// Owner-qualified names are passed as "owner~id" or URL-escaped "owner/id".
func (h *StyleHandler) GetStyle(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		response.BadRequest(w, r, "invalid style name", nil)
		return
	}
	name = strings.ReplaceAll(name, "~", "/")

	resp, err := h.styles.Style(r.Context(), basemap.StyleRequest{Name: name})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("X-Style-Provider", resp.ProviderID)
	w.Header().Set("X-Style-Name", resp.Style.Name)
	setAttempted(w, resp.AttemptedProviders)
	if resp.Style.URL != "" {
		w.Header().Set("X-Style-Url", resp.Style.URL)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.Raw(w, r, http.StatusOK, "application/json", resp.Style.Document)
}
