package core

import (
	"errors"
	"fmt"

	"github.com/dkeye/Telecall/internal/domain"
)

// Failure kinds. A SignalError matches its kind with errors.Is.
var (
	ErrValidation  = errors.New("validation")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnreachable = errors.New("unreachable")
	ErrThrottled   = errors.New("throttled")
)

// Reasons reported to the client in CallFailed / RegistrationFailed.
const (
	ReasonInvalidPayload = "invalid_payload"
	ReasonInvalidSignal  = "invalid_signal"
	ReasonNotRegistered  = "not_registered"
	ReasonSelfCall       = "self_call"
	ReasonUnavailable    = "unavailable"
	ReasonBusy           = "busy"
	ReasonAlreadyInCall  = "already_in_call"
	ReasonSessionExists  = "session_exists"
	ReasonCallNotFound   = "not_found"
	ReasonRateLimited    = "rate_limited"
)

// SignalError is a non-fatal failure of one inbound command. It is reported
// to the originating connection only and never changes shared state.
type SignalError struct {
	Kind   error
	Reason string
	CallID domain.CallID
}

func (e *SignalError) Error() string {
	if e.CallID != "" {
		return fmt.Sprintf("%v: %s (session %s)", e.Kind, e.Reason, e.CallID)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *SignalError) Unwrap() error { return e.Kind }

func Invalid(reason string, id domain.CallID) *SignalError {
	return &SignalError{Kind: ErrValidation, Reason: reason, CallID: id}
}

func NotFound(id domain.CallID) *SignalError {
	return &SignalError{Kind: ErrNotFound, Reason: ReasonCallNotFound, CallID: id}
}

func Conflict(reason string, id domain.CallID) *SignalError {
	return &SignalError{Kind: ErrConflict, Reason: reason, CallID: id}
}

func Unreachable(id domain.CallID) *SignalError {
	return &SignalError{Kind: ErrUnreachable, Reason: ReasonUnavailable, CallID: id}
}

func Throttled(id domain.CallID) *SignalError {
	return &SignalError{Kind: ErrThrottled, Reason: ReasonRateLimited, CallID: id}
}
