// Package provider contains the provider-agnostic pieces of the service layer:
// the typed provider error, the ordered fallback chain and the capability registry.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Machine-readable error codes carried by Error.Code.
const (
	CodeMissingToken    = "missing_token"
	CodeNetworkError    = "network_error"
	CodeCircuitOpen     = "circuit_open"
	CodeInvalidResponse = "invalid_response"
	CodeHTTPError       = "http_error"
	CodeThrottled       = "throttled"
	CodeNoRoute         = "no_route"
	CodeUnknownStyle    = "unknown_style"
)

// Sentinel errors for chain construction and dispatch.
var (
	// ErrNoProviders is returned by Chain.Run when the chain holds no providers.
	ErrNoProviders = errors.New("no providers configured")
	// ErrUnknownProvider is returned when a registry has no entry for an id.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Error describes a failed provider call.
type Error struct {
	Message    string // Human-readable description naming provider and operation
	ProviderID string // Provider that produced the error
	Status     int    // HTTP status, zero when no response was received
	Code       string // Machine-readable reason
	Err        error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MissingToken builds the error returned when a provider lacks its access token.
func MissingToken(providerID, operation string) *Error {
	return &Error{
		Message:    fmt.Sprintf("%s %s: access token is not configured", providerID, operation),
		ProviderID: providerID,
		Code:       CodeMissingToken,
	}
}

// StatusError builds the error returned for a non-2xx HTTP response.
func StatusError(providerID, operation string, status int) *Error {
	return &Error{
		Message:    fmt.Sprintf("%s %s failed with status %d", providerID, operation, status),
		ProviderID: providerID,
		Status:     status,
		Code:       CodeHTTPError,
	}
}

// InvalidResponse builds the error returned when a payload cannot be decoded.
func InvalidResponse(providerID, operation string, err error) *Error {
	return &Error{
		Message:    fmt.Sprintf("%s %s returned an unreadable response", providerID, operation),
		ProviderID: providerID,
		Code:       CodeInvalidResponse,
		Err:        err,
	}
}

// IsRateLimitError reports whether err is a provider Error with HTTP status 429.
func IsRateLimitError(err error) bool {
	var perr *Error
	if !errors.As(err, &perr) || perr == nil {
		return false
	}
	return perr.Status == http.StatusTooManyRequests
}

// IsCanceled reports whether err is the caller withdrawing interest rather than
// a provider failure: either an explicit context.Canceled, or any error
// observed after ctx itself is done. The caller's own deadline counts; a
// provider-side timeout while ctx is live does not.
func IsCanceled(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return ctx != nil && ctx.Err() != nil
}

// Describe renders err for telemetry as "<provider> status=<n> code=<c>: <message>".
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var perr *Error
	if !errors.As(err, &perr) || perr == nil {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(perr.ProviderID)
	if perr.Status != 0 {
		b.WriteString(" status=")
		b.WriteString(strconv.Itoa(perr.Status))
	}
	if perr.Code != "" {
		b.WriteString(" code=")
		b.WriteString(perr.Code)
	}
	b.WriteString(": ")
	b.WriteString(perr.Error())
	return b.String()
}
