// Package apperr classifies errors by recovery kind so callers at the
// transport boundary know whether to surface, retry, or silently degrade.
package apperr

import "errors"

// Kind is a recovery category, not a concrete error type.
type Kind string

const (
	Validation      Kind = "validation"
	NotFound        Kind = "not_found"
	Unauthorized    Kind = "unauthorized"
	Forbidden       Kind = "forbidden"
	Database        Kind = "database"
	ExternalService Kind = "external_service"
	RateLimit       Kind = "rate_limit"
	Degraded        Kind = "degraded"
)

// Error wraps an underlying error with a recovery Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given kind and operation label. Returns nil if err is nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of err, or "" if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsDegraded reports whether err represents a component that should be
// silently bypassed rather than fail the request (cache/KV/KG/reranker
// unavailability per the propagation rule).
func IsDegraded(err error) bool {
	return KindOf(err) == Degraded
}
