package domain

// Status is the authentication state of a visitor session.
type Status int

const (
	// StatusUninitialized is the state of a store that has not started bootstrapping.
	StatusUninitialized Status = iota
	// StatusLoading means the bootstrap profile fetch is in flight.
	StatusLoading
	// StatusAuthenticated means a well-formed user is attached.
	StatusAuthenticated
	// StatusAnonymous means no session exists.
	StatusAnonymous
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of a session at one instant.
type Snapshot struct {
	Status Status
	User   *User
}

// IsLoading reports whether no final decision can be made yet.
// Uninitialized is treated exactly like Loading.
func (s Snapshot) IsLoading() bool {
	return s.Status == StatusUninitialized || s.Status == StatusLoading
}

// IsAuthenticated reports whether a user is attached.
func (s Snapshot) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// AuthResult is the outcome of Login and Signup. These operations never fail
// with a Go error; callers render Error and FieldErrors inline.
type AuthResult struct {
	Success     bool
	User        *User
	Error       string
	FieldErrors map[string]string
}
