package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/trip-tracker/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the message because it knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return errorBody("not_found", message)
}

// validationBody returns an ErrorResponse for a domain validation failure.
func validationBody(err error) ErrorResponse {
	return errorBody("validation_error", unwrapMessage(err))
}

// requestBody returns an ErrorResponse for a request rejected before it
// reaches a store (malformed body or path parameter).
func requestBody(message string) ErrorResponse {
	return errorBody("validation_error", message)
}

// unwrapMessage strips the "pkg.Type.Method: validation error: " chain and
// keeps only the human-readable part.
// e.g. "service.ReportStore.Submit: validation error: email: email" → "email: email"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// fetchFailure maps the closed fetch taxonomy onto a status and code.
// An invalid URL is our own misconfiguration; the other two are upstream faults.
func fetchFailure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		return http.StatusInternalServerError, "invalid_upstream_url"
	case errors.Is(err, domain.ErrRequestFailed):
		return http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, domain.ErrDecodingFailed):
		return http.StatusBadGateway, "upstream_invalid_payload"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	writeJSON(w, status, body)
}

// internalError logs err and answers 500 without leaking its text.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
// It writes the error response itself and reports whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errorBody("payload_too_large", "request body too large"))
			return false
		}
		writeError(w, http.StatusUnprocessableEntity, requestBody("invalid request body: "+err.Error()))
		return false
	}
	return true
}
