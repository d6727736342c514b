// Package tiktok holds the types shared by the OAuth and Ads API
// clients: the platform response envelope, the canonical API error
// value and the HTTP status classification.
package tiktok

import (
	"encoding/json"
	"fmt"
)

const (
	// DefaultBaseURL is the TikTok Business API base.
	DefaultBaseURL = "https://business-api.tiktok.com/open_api/v1.3"
	// DefaultAuthorizeURL is the user-facing authorization endpoint.
	DefaultAuthorizeURL = "https://www.tiktok.com/v2/auth/authorize/"
)

// DefaultScopes is the fixed scope list requested at login.
var DefaultScopes = []string{
	"user.info.basic",
	"video.list",
	"video.upload",
	"ad_management.read",
	"ad_management.write",
}

// Response is the envelope every platform endpoint answers with. Code
// zero means success; any other value is a business error.
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Kind is the closed set of error classifications.
type Kind string

const (
	KindInvalidState        Kind = "INVALID_STATE"
	KindMissingVerifier     Kind = "MISSING_VERIFIER"
	KindTokenExchangeFailed Kind = "TOKEN_EXCHANGE_FAILED"
	KindNoRefreshToken      Kind = "NO_REFRESH_TOKEN"
	KindBadRequest          Kind = "BAD_REQUEST"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindPermissionDenied    Kind = "PERMISSION_DENIED"
	KindGeoRestricted       Kind = "GEO_RESTRICTED"
	KindNotFound            Kind = "NOT_FOUND"
	KindRateLimited         Kind = "RATE_LIMITED"
	KindServiceUnavailable  Kind = "SERVICE_UNAVAILABLE"
	KindNetworkError        Kind = "NETWORK_ERROR"
	KindTimeout             Kind = "TIMEOUT"
	KindUnknown             Kind = "UNKNOWN_ERROR"
)

// Retryable reports whether a request failing with this kind may be
// attempted again.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetworkError, KindServiceUnavailable, KindTimeout:
		return true
	}
	return false
}

// Error is the single error value type crossing the client boundary.
// PlatformCode carries the numeric business code when the platform
// envelope reported one; transport-level failures leave it zero.
type Error struct {
	Kind         Kind   `json:"kind"`
	PlatformCode int    `json:"platform_code,omitempty"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code(), e.Message)
}

// Code renders the error code shown to API consumers: the kind, or
// API_ERROR_<n> for business errors.
func (e *Error) Code() string {
	if e.PlatformCode != 0 {
		return fmt.Sprintf("API_ERROR_%d", e.PlatformCode)
	}
	return string(e.Kind)
}

// errorBody is a tolerant decoding of a non-2xx response body. The
// platform sends numeric codes on most errors but a string code on
// permission failures.
type errorBody struct {
	Code    any    `json:"code"`
	Message string `json:"message"`
}

// ClassifyStatus maps a non-2xx HTTP status and its decoded body to an
// Error.
func ClassifyStatus(status int, body []byte) *Error {
	var decoded errorBody
	_ = json.Unmarshal(body, &decoded)

	var details any
	if len(body) > 0 {
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err == nil {
			details = raw
		}
	}

	e := &Error{
		Kind:    KindUnknown,
		Message: "An unexpected error occurred",
		Details: details,
	}

	switch status {
	case 400:
		e.Kind = KindBadRequest
		e.Message = "Invalid request parameters"
		if decoded.Message != "" {
			e.Message = decoded.Message
		}
	case 401:
		e.Kind = KindUnauthorized
		e.Message = "Your session has expired. Please reconnect your TikTok account."
	case 403:
		if code, ok := decoded.Code.(string); ok && code == "PERMISSION_DENIED" {
			e.Kind = KindPermissionDenied
			e.Message = "Additional permissions required. Please reconnect and grant all requested permissions."
		} else {
			e.Kind = KindGeoRestricted
			e.Message = "TikTok Ads is not available in your region."
		}
	case 404:
		e.Kind = KindNotFound
		e.Message = "The requested resource was not found"
	case 429:
		e.Kind = KindRateLimited
		e.Message = "Too many requests. Please try again later."
	case 500, 502, 503, 504:
		e.Kind = KindServiceUnavailable
		e.Message = "TikTok Ads service is temporarily unavailable. Please try again later."
	}

	return e
}

// UserProfile is the authenticated TikTok user as rendered to the UI.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
