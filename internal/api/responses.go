package api

import (
	"github.com/jonesrussell/storefront-admin/internal/domain"
)

// ErrorResponse is the JSON envelope for failed requests.
type ErrorResponse struct {
	OK        bool             `json:"ok"`
	ErrorCode domain.ErrorCode `json:"error_code"`
	Details   string           `json:"details,omitempty"`
}

// ConnectivityResponse is the JSON envelope for connectivity tests.
type ConnectivityResponse struct {
	OK        bool             `json:"ok"`
	ErrorCode domain.ErrorCode `json:"error_code,omitempty"`
	LatencyMs int64            `json:"latency_ms"`
	RayIDs    []string         `json:"ray_ids,omitempty"`
	Details   string           `json:"details,omitempty"`
}

// PurgeResponse is the JSON envelope for purge endpoints.
type PurgeResponse struct {
	OK        bool             `json:"ok"`
	RayIDs    []string         `json:"ray_ids"`
	LatencyMs int64            `json:"latency_ms"`
	Attempts  int              `json:"attempts"`
	ErrorCode domain.ErrorCode `json:"error_code,omitempty"`
}

// TokenResponse is the JSON envelope for the automation token endpoint.
type TokenResponse struct {
	OK        bool   `json:"ok"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func errorResponse(code domain.ErrorCode, details string) ErrorResponse {
	return ErrorResponse{OK: false, ErrorCode: code, Details: details}
}
