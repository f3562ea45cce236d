package api

import (
	"encoding/json"
	"net/http"
)

// Error is the JSON body of every failed /api request.
type Error struct {
	Message string `json:"error"`
	Detail  string `json:"detail,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Error codes.
const (
	ErrCodeBadRequest          = "bad_request"
	ErrCodeNotFound            = "not_found"
	ErrCodeMethodNotAllowed    = "method_not_allowed"
	ErrCodeInternal            = "internal_error"
	ErrCodeUnconfigured        = "unconfigured"
	ErrCodeUpstreamError       = "upstream_error"
	ErrCodeUpstreamUnavailable = "upstream_unavailable"
	ErrCodeMalformedResponse   = "malformed_response"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes an Error body.
func writeError(w http.ResponseWriter, status int, code, message, detail string) {
	writeJSON(w, status, Error{
		Message: message,
		Detail:  detail,
		Code:    code,
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message, "")
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message, "")
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message, "")
}
