// Package apperr classifies request failures so the boundary can decide whether
// to abort, degrade, or map them to an HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the classification of a request error.
type Kind int

const (
	// Unclassified is any failure that carries no explicit kind.
	Unclassified Kind = iota
	// Validation is missing or malformed input.
	Validation
	// Auth is a missing or invalid credential.
	Auth
	// Upstream is a failed mandatory capability call (embedding, temporal resolution).
	Upstream
	// PartialRetrieval is a single retrieval strategy failing; recovered locally.
	PartialRetrieval
	// SynthesisParse is a generative answer that did not parse; recovered locally.
	SynthesisParse
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Auth:
		return "auth"
	case Upstream:
		return "upstream"
	case PartialRetrieval:
		return "partial_retrieval"
	case SynthesisParse:
		return "synthesis_parse"
	default:
		return "unclassified"
	}
}

// Fatal reports whether an error of this kind aborts the request.
func (k Kind) Fatal() bool {
	switch k {
	case PartialRetrieval, SynthesisParse:
		return false
	default:
		return true
	}
}

// HTTPStatus maps the kind to the status returned to callers.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Auth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Op names the failing operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with kind and op. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validationf builds a Validation error from a format string.
func Validationf(format string, args ...any) error {
	return &Error{Kind: Validation, Err: fmt.Errorf(format, args...)}
}

// Authf builds an Auth error from a format string.
func Authf(format string, args ...any) error {
	return &Error{Kind: Auth, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unclassified
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage is the message safe to return to callers for err.
// Validation and auth messages describe the caller's mistake; everything else is generic.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case Validation, Auth:
			return e.Err.Error()
		case Upstream:
			return "upstream service unavailable"
		}
	}
	return "internal server error"
}
