// Package errors defines the typed error taxonomy shared across the
// platform core: the document substrate, the controller runtime, the
// ACL enforcer and the OAuth2 protocol core all wrap failures into an
// *Error so callers can switch on Type instead of parsing messages.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies a class of error. Values are stable and safe to log,
// compare, and map to transport status codes at the HTTP boundary.
type Type string

// Error taxonomy, as laid out in the platform design notes.
const (
	TypeRevisionConflict       Type = "revision_conflict"
	TypeNotFound               Type = "not_found"
	TypeInvalidClient          Type = "invalid_client"
	TypeInvalidGrant           Type = "invalid_grant"
	TypeInvalidScope           Type = "invalid_scope"
	TypeInvalidRedirectURI     Type = "invalid_redirect_uri"
	TypeInvalidRequest         Type = "invalid_request"
	TypeUnsupportedGrantType   Type = "unsupported_grant_type"
	TypeAccessDenied           Type = "access_denied"
	TypeServerError            Type = "server_error"
	TypeTemporarilyUnavailable Type = "temporarily_unavailable"
)

// Error is the common error value returned by every package in the core.
type Error struct {
	Type    Type
	Message string
	Cause   error
}

// New builds an *Error of the given type.
func New(t Type, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the caller should retry the operation that
// produced this error, per the propagation policy in the error design.
func (e *Error) Retryable() bool {
	switch e.Type {
	case TypeRevisionConflict, TypeServerError, TypeTemporarilyUnavailable:
		return true
	default:
		return false
	}
}

// NewRevisionConflictError reports a stale _rev on write.
func NewRevisionConflictError(message string, cause error) *Error {
	return New(TypeRevisionConflict, message, cause)
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(message string, cause error) *Error {
	return New(TypeNotFound, message, cause)
}

// NewInvalidClientError reports a failed OAuth client authentication.
func NewInvalidClientError(message string, cause error) *Error {
	return New(TypeInvalidClient, message, cause)
}

// NewInvalidGrantError reports an invalid authorization code, refresh
// token, or PKCE verifier.
func NewInvalidGrantError(message string, cause error) *Error {
	return New(TypeInvalidGrant, message, cause)
}

// NewInvalidScopeError reports a requested scope the client isn't
// permitted to request.
func NewInvalidScopeError(message string, cause error) *Error {
	return New(TypeInvalidScope, message, cause)
}

// NewInvalidRedirectURIError reports a redirect_uri outside the client's
// whitelist.
func NewInvalidRedirectURIError(message string, cause error) *Error {
	return New(TypeInvalidRedirectURI, message, cause)
}

// NewInvalidRequestError reports a malformed or missing OAuth parameter.
func NewInvalidRequestError(message string, cause error) *Error {
	return New(TypeInvalidRequest, message, cause)
}

// NewUnsupportedGrantTypeError reports an unrecognized grant_type.
func NewUnsupportedGrantTypeError(message string, cause error) *Error {
	return New(TypeUnsupportedGrantType, message, cause)
}

// NewAccessDeniedError reports an enforcer denial or a cross-client
// token operation.
func NewAccessDeniedError(message string, cause error) *Error {
	return New(TypeAccessDenied, message, cause)
}

// NewServerError reports a substrate or transport failure.
func NewServerError(message string, cause error) *Error {
	return New(TypeServerError, message, cause)
}

// NewTemporarilyUnavailableError reports a dependency up-check failure.
func NewTemporarilyUnavailableError(message string, cause error) *Error {
	return New(TypeTemporarilyUnavailable, message, cause)
}

// AsType extracts the Type of err if it is (or wraps) an *Error.
func AsType(err error) (Type, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type, true
	}
	return "", false
}
