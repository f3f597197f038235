// Package apperr provides the structured error taxonomy shared by the game core.
package apperr

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Lookup errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"

	// Spending more stat points, skill points or gold than available.
	CodeInsufficientResource Code = "INSUFFICIENT_RESOURCE"

	// Skill or episode prerequisites are not satisfied.
	CodePrerequisiteUnmet Code = "PREREQUISITE_UNMET"

	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeAtCapacity        Code = "AT_CAPACITY"
	CodeInvalidTransition Code = "INVALID_TRANSITION"

	// Provider and content errors never reach callers as failures; they are
	// logged under these codes and converted to fallbacks.
	CodeProviderFailure    Code = "PROVIDER_FAILURE"
	CodeContentLoadWarning Code = "CONTENT_LOAD_WARNING"

	CodeUnavailable Code = "UNAVAILABLE"
)

// HTTPStatus maps a code to the status used by the HTTP handlers.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeInsufficientResource, CodeAtCapacity, CodeInvalidTransition:
		return http.StatusConflict
	case CodePrerequisiteUnmet:
		return http.StatusPreconditionFailed
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeProviderFailure:
		return http.StatusBadGateway
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
