package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error. The HTTP layer maps each kind to one status code.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthenticated
	KindNotFound
	KindConflict
	KindUnprocessable
	KindTooManyRequests
	KindServiceUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnprocessable:
		return "unprocessable"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindServiceUnavailable:
		return "service_unavailable"
	default:
		return "internal"
	}
}

// Error is a tagged domain error. Two errors are equal under errors.Is when their
// codes match, so sentinels stay comparable after WithCause/WithMessage copies.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of e with a different client-facing message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrNotFound = newError(KindNotFound, "NOT_FOUND", "resource not found")

	ErrAccessTokenMissing  = newError(KindUnauthenticated, "ACCESS_TOKEN_MISSING", "Access token missing")
	ErrInvalidAccessToken  = newError(KindUnauthenticated, "INVALID_ACCESS_TOKEN", "Invalid or expired access token")
	ErrRefreshTokenMissing = newError(KindUnauthenticated, "REFRESH_TOKEN_MISSING", "Refresh token missing")
	ErrInvalidRefreshToken = newError(KindUnauthenticated, "INVALID_REFRESH_TOKEN", "Invalid or expired refresh token")
	ErrInvalidCredentials  = newError(KindUnauthenticated, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrRegistrationFailed  = newError(KindUnauthenticated, "REGISTRATION_FAILED", "Unable to register with the identity provider")
	ErrMissingContext      = newError(KindUnauthenticated, "USER_CONTEXT_MISSING", "User context missing")
	ErrUnsupportedProvider = newError(KindUnauthenticated, "UNSUPPORTED_PROVIDER", "Only Google sign-ins are supported")
	ErrIdentityNotLinked   = newError(KindUnauthenticated, "IDENTITY_NOT_LINKED", "Google identity is not linked to this user")
	ErrIncompleteIdentity  = newError(KindUnauthenticated, "INCOMPLETE_IDENTITY", "Identity provider user payload incomplete")
	ErrMissingSubject      = newError(KindUnauthenticated, "MISSING_SUBJECT", "Google identity is missing a subject identifier")

	ErrProfileNotFound = newError(KindNotFound, "PROFILE_NOT_FOUND", "User profile not found")
	ErrNoChanges       = newError(KindConflict, "NO_CHANGES", "No profile changes supplied")

	ErrProviderUnavailable = newError(KindServiceUnavailable, "PROVIDER_UNAVAILABLE", "Unable to verify identity provider auth settings")
	ErrProviderDisabled    = newError(KindServiceUnavailable, "PROVIDER_DISABLED", "Authentication method is not enabled in the identity provider")
	ErrConfigExceeded      = newError(KindServiceUnavailable, "CONFIG_EXCEEDED", "Identity provider token lifetime exceeds the supported maximum")

	ErrValidation  = newError(KindUnprocessable, "VALIDATION_ERROR", "Validation failed")
	ErrBadRequest  = newError(KindBadRequest, "BAD_REQUEST", "Bad request")
	ErrRateLimited = newError(KindTooManyRequests, "RATE_LIMITED", "Too many authentication attempts, please try again later.")
)
