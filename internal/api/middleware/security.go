package middleware

import (
	"net/http"
	"strings"

	"github.com/mappatterns/geoprovider/internal/api/models"
)

// SecurityConfig controls the response hardening applied to every request.
type SecurityConfig struct {
	// RequireTLS rejects plain-HTTP requests forwarded by the load balancer
	// and turns on HSTS.
	RequireTLS bool
}

// SecurityHeaders sets the response headers for a JSON API whose style
// documents are also fetched cross-origin by browser map clients.
//
// Geocoding queries and coordinates travel in the URL, so no referrer is ever
// sent onward. Strict-Transport-Security is only sent when TLS is required.
func SecurityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cross-Origin-Resource-Policy", "cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), camera=(), microphone=()")
			if cfg.RequireTLS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireTLS rejects requests that reached the load balancer over plain HTTP,
// judged by X-Forwarded-Proto. Requests without the header (direct
// connections, local development) and platform health checks pass.
func RequireTLS(cfg SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.RequireTLS {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proto := strings.ToLower(r.Header.Get("X-Forwarded-Proto"))
			if proto != "" && proto != "https" && !isHealthCheck(r.URL.Path) {
				models.NewProblem(
					models.ProblemTypeTLSRequired,
					"TLS required",
					http.StatusForbidden,
					GetRequestID(r.Context()),
				).
					WithDetail("This endpoint requires HTTPS").
					WithInstance(r.URL.Path).
					Write(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isHealthCheck(path string) bool {
	return path == "/v1/ops/health" || path == "/v1/ops/ready"
}
