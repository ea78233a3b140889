package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/teamenforcer/internal/frame"
	"github.com/mcoot/teamenforcer/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeTargetNotFound     = "TARGET_NOT_FOUND"
	CodeAmbiguousTarget    = "AMBIGUOUS_TARGET"
	CodeNotInQueue         = "NOT_IN_QUEUE"
	CodeAlreadyInState     = "ALREADY_IN_STATE"
	CodeWrongRole          = "WRONG_ROLE"
	CodeDirectGuardJoin    = "DIRECT_GUARD_JOIN"
	CodeGuardKicked        = "GUARD_KICKED"
	CodeGuardBanned        = "GUARD_BANNED"
	CodeAlreadyBanned      = "ALREADY_BANNED"
	CodeHostUnreachable    = "HOST_UNREACHABLE"
	CodeNotBanned          = "NOT_BANNED"
	CodeInvalidDuration    = "INVALID_DURATION"
	CodeInvalidRounds      = "INVALID_ROUNDS"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeStorageFailure     = "STORAGE_FAILURE"
	CodeShuttingDown       = "SHUTTING_DOWN"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError. A command error's notice
// replaces the default message.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	mapped := mapModelError(err)
	var cmdErr *model.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Notice != "" {
		mapped.apiError.Message = cmdErr.Notice
	}
	return mapped
}

func mapModelError(err error) *httpError {
	switch {
	case errors.Is(err, model.ErrTargetNotFound), errors.Is(err, model.ErrStaleIdentity):
		return &httpError{http.StatusNotFound, APIError{CodeTargetNotFound, "Target not found"}}
	case errors.Is(err, model.ErrAmbiguousTarget):
		return &httpError{http.StatusConflict, APIError{CodeAmbiguousTarget, "Target matches more than one participant"}}
	case errors.Is(err, model.ErrItemNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNotInQueue, "Not in the guard queue"}}
	case errors.Is(err, model.ErrAlreadyInState), errors.Is(err, model.ErrDuplicateItem):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInState, "Already in that state"}}
	case errors.Is(err, model.ErrWrongRole):
		return &httpError{http.StatusConflict, APIError{CodeWrongRole, "Participant is not in the required role"}}
	case errors.Is(err, model.ErrDirectGuardJoin):
		return &httpError{http.StatusConflict, APIError{CodeDirectGuardJoin, "Guard role must be joined through the queue"}}
	case errors.Is(err, model.ErrGuardKicked):
		return &httpError{http.StatusForbidden, APIError{CodeGuardKicked, err.Error()}}
	case errors.Is(err, model.ErrGuardBanned):
		return &httpError{http.StatusForbidden, APIError{CodeGuardBanned, err.Error()}}
	case errors.Is(err, model.ErrAlreadyBanned):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyBanned, "Participant is already banned"}}
	case errors.Is(err, model.ErrBanNotFound), errors.Is(err, model.ErrUnbanNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNotBanned, "No active ban"}}
	case errors.Is(err, model.ErrInvalidDuration):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidDuration, "Ban duration must not be negative"}}
	case errors.Is(err, model.ErrInvalidRounds):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRounds, "Kick rounds must not be negative"}}
	case errors.Is(err, model.ErrServiceUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeServiceUnavailable, "Guard bans are unavailable"}}
	case errors.Is(err, model.ErrStorageFailure):
		return &httpError{http.StatusInternalServerError, APIError{CodeStorageFailure, "Ban storage failure"}}
	case errors.Is(err, model.ErrHostUnreachable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeHostUnreachable, "Game server is not connected to the event stream"}}
	case errors.Is(err, frame.ErrLoopClosed):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeShuttingDown, "Server is shutting down"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
