package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/globe/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code errors.Code, msg string, details map[string]any) {
	s.writeJSON(w, status, errorBody{Error: errorDetail{Code: string(code), Message: msg, Details: details}})
}

// writeErr maps a coded error to its HTTP status.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error("request failed", "err", err)
	}
	s.writeError(w, status, code, errors.UserMessage(err), nil)
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeMapDisabled:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTaintedSurface:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNoActiveDrawing:
		return http.StatusConflict
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	switch {
	case code.IsNotFound():
		return http.StatusNotFound
	case code.IsValidation():
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

const maxJSONBody = 1 << 20

// decode reads a JSON request body into v. Unknown fields are rejected.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// idParam parses a numeric URL parameter. Malformed ids are reported as
// notFound since no entry can carry them.
func idParam(r *http.Request, name string, notFound errors.Code) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New(notFound, "%s %q not found", strings.TrimSuffix(name, "ID"), raw)
	}
	return id, nil
}
