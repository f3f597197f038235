package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// ErrorResponse is the body of every failed request. State carries the
// unchanged session for failed choices and chats so the client can show a
// toast without refetching.
type ErrorResponse struct {
	Error string           `json:"error"`
	Code  apperr.Code      `json:"code"`
	State *state.GameState `json:"state,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps err onto a status code. Unclassified errors are logged and
// hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	writeErrorWithState(w, r, err, nil, logger)
}

func writeErrorWithState(w http.ResponseWriter, r *http.Request, err error, gs *state.GameState, logger *slog.Logger) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		logger.Error("Request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error.",
			Code:  apperr.CodeUnknown,
			State: gs,
		}, logger)
		return
	}

	status := appErr.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "code", appErr.Code, "path", r.URL.Path)
	} else {
		logger.Debug("Request rejected", "error", err, "code", appErr.Code, "path", r.URL.Path)
	}
	writeJSON(w, status, ErrorResponse{Error: appErr.Message, Code: appErr.Code, State: gs}, logger)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, logger *slog.Logger, allowed ...string) {
	logger.Warn("Method not allowed",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error: "Method not allowed. Supported: " + strings.Join(allowed, ", ") + ".",
		Code:  apperr.CodeInvalidArgument,
	}, logger)
}

func notFoundRoute(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error: "No route for " + r.URL.Path,
		Code:  apperr.CodeNotFound,
	}, logger)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, "invalid request body", err)
	}
	return nil
}

// segments splits the path below prefix into non-empty parts.
func segments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
