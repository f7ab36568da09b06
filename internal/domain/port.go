package domain

import (
	"context"
	"time"
)

// SessionTransport is the upstream job-board API as seen by one visitor.
// Implementations carry the visitor's session cookie between calls.
type SessionTransport interface {
	FetchProfile(ctx context.Context, kind AccountKind) (*User, error)
	Login(ctx context.Context, kind AccountKind, creds Credentials) (*User, error)
	Signup(ctx context.Context, kind AccountKind, form SignupForm) (*CreatedAccount, error)
	Logout(ctx context.Context, kind AccountKind) error
	UpdateProfile(ctx context.Context, kind AccountKind, patch ProfilePatch) (*ProfilePatch, error)
	// ClearSession drops the upstream session cookies held for the visitor,
	// in memory and wherever they are persisted. It makes no upstream call.
	ClearSession(ctx context.Context) error
}

// DraftStore remembers unfinished form input per visitor.
type DraftStore interface {
	Save(ctx context.Context, visitorID, form string, values map[string]string) error
	Load(ctx context.Context, visitorID, form string) (map[string]string, error)
	Purge(ctx context.Context, visitorID string) error
}

// VisitorToken is a verified visitor cookie.
type VisitorToken struct {
	VisitorID string
	ExpiresAt time.Time
}

// VisitorTokenIssuer signs and verifies the visitor cookie.
type VisitorTokenIssuer interface {
	Issue(visitorID string) (string, error)
	Parse(token string) (VisitorToken, error)
}

// CSRFTokenGenerator generates CSRF tokens from visitor identifiers.
type CSRFTokenGenerator interface {
	Generate(visitorID string) (string, error)
	Verify(visitorID, token string) error
}

// CreatedAccount is the signup response payload.
type CreatedAccount struct {
	ID    string
	Email string
	Kind  AccountKind
}

// StoredCookie is an upstream cookie kept beyond one visitor's lifetime.
// URL is the request URL the cookie was set on.
type StoredCookie struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
	SameSite int       `json:"sameSite,omitempty"`
}

// Key identifies the cookie within a visitor's jar.
func (c StoredCookie) Key() string {
	return c.Domain + ";" + c.Path + ";" + c.Name
}

// CookieStore persists each visitor's upstream cookies so a session
// survives visitor eviction and restarts.
type CookieStore interface {
	Load(ctx context.Context, visitorID string) ([]StoredCookie, error)
	Put(ctx context.Context, visitorID string, c StoredCookie) error
	Delete(ctx context.Context, visitorID, key string) error
	// Clear drops every cookie of the visitor.
	Clear(ctx context.Context, visitorID string) error
	// Touch restarts the visitor's idle lifetime.
	Touch(ctx context.Context, visitorID string) error
}
