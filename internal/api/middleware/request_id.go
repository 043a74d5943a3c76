// Package middleware provides HTTP middleware for the geoprovider API.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mappatterns/geoprovider/internal/telemetry"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

// maxRequestIDLen bounds caller-supplied ids; they end up in logs, spans and
// the provider event table.
const maxRequestIDLen = 64

// RequestID assigns every request an id and echoes it in X-Request-Id. A
// well-formed inbound id is kept so callers can correlate across hops;
// anything else is replaced. The id travels in the context via telemetry, so
// provider events emitted while serving the request carry it too.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID(requestID) {
			requestID = "req_" + uuid.New().String()[:22]
		}

		w.Header().Set(HeaderRequestID, requestID)

		ctx := telemetry.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return telemetry.RequestIDFrom(ctx)
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
