package domain

import (
	"errors"
	"sort"
	"strings"
)

// Session errors.
var (
	// ErrUnauthorized means there is no valid upstream session. During
	// bootstrap it is the normal logged-out outcome.
	ErrUnauthorized = errors.New("no valid session")
	// ErrInvalidCredentials means the upstream rejected a login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotAuthenticated is a caller bug: an operation that needs a user was
	// invoked on an anonymous store.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStoreClosed is returned when the visitor store was evicted mid-call.
	ErrStoreClosed = errors.New("session store closed")
)

// Input errors.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrDuplicateAccount = errors.New("an account with this email already exists")
)

// External service errors.
var (
	ErrTransportFailure = errors.New("job board API unavailable")
	ErrMalformedProfile = errors.New("malformed profile")
	ErrCircuitOpen      = errors.New("circuit breaker is open")
)

// Token errors.
var (
	ErrTokenInvalid      = errors.New("visitor token invalid")
	ErrCSRFSecretMissing = errors.New("CSRF secret not configured")
	ErrCSRFMismatch      = errors.New("CSRF token mismatch")
)

// Rate limiting errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

// FieldErrors carries per-field validation messages. It matches
// ErrValidationFailed with errors.Is.
type FieldErrors struct {
	Message string
	Fields  map[string]string
}

func (e *FieldErrors) Error() string {
	if len(e.Fields) == 0 {
		if e.Message != "" {
			return ErrValidationFailed.Error() + ": " + e.Message
		}
		return ErrValidationFailed.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, ", ")
}

// Is reports ErrValidationFailed as a match.
func (e *FieldErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

// UserMessage converts an error from the session core into the form-scoped
// message shown to the visitor.
func UserMessage(err error) string {
	var fe *FieldErrors
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrDuplicateAccount):
		return "An account with this email already exists."
	case errors.As(err, &fe) && fe.Message != "":
		return fe.Message
	case errors.Is(err, ErrValidationFailed):
		return "Please correct the highlighted fields."
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotAuthenticated):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrStoreClosed):
		return "Your session was reset. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
