package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"wework-hub/internal/domain"
)

// Visitor is one browser's view of the application: its session store and
// the navigation state threaded from a guard redirect to the login handler.
type Visitor struct {
	ID    string
	Store *SessionStore

	mu       sync.Mutex
	returnTo string
}

// RememberLocation records where a guard turned the visitor away.
func (v *Visitor) RememberLocation(location string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.returnTo = location
}

// TakeReturnTo returns and clears the remembered location. Only local
// absolute paths are returned.
func (v *Visitor) TakeReturnTo() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	loc := v.returnTo
	v.returnTo = ""
	if !IsLocalPath(loc) {
		return ""
	}
	return loc
}

// Close detaches the visitor's store.
func (v *Visitor) Close() {
	v.Store.Close()
}

// IsLocalPath reports whether loc is an absolute path on this origin.
func IsLocalPath(loc string) bool {
	return strings.HasPrefix(loc, "/") && !strings.HasPrefix(loc, "//") && !strings.HasPrefix(loc, "/\\")
}

// VisitorCache stores visitors by ID. Implementations evict on their own
// schedule and must close evicted visitors.
type VisitorCache interface {
	Get(id string) (*Visitor, bool)
	Add(id string, v *Visitor)
	Remove(id string)
	Len() int
}

// TransportFactory creates the transport for a visitor. Its cookie jar holds
// whatever upstream cookies are remembered for visitorID.
type TransportFactory func(visitorID string) domain.SessionTransport

// VisitorsConfig configures new visitors.
type VisitorsConfig struct {
	ProbeOrder       []domain.AccountKind
	BootstrapTimeout time.Duration
	Drafts           domain.DraftStore
	// KeepAlive restarts the idle lifetime of whatever a visitor keeps
	// outside this process, such as its persisted upstream cookies.
	KeepAlive func(ctx context.Context, visitorID string) error
}

// Visitors resolves visitor IDs to live visitors, creating them on first
// sight.
type Visitors struct {
	mu           sync.Mutex
	cache        VisitorCache
	newTransport TransportFactory
	cfg          VisitorsConfig
	logger       *slog.Logger
}

// NewVisitors creates a visitor registry.
func NewVisitors(c VisitorCache, f TransportFactory, cfg VisitorsConfig, l *slog.Logger) *Visitors {
	return &Visitors{cache: c, newTransport: f, cfg: cfg, logger: l}
}

// Resolve returns the visitor for id, creating an Uninitialized one if
// unknown. The boolean reports whether the visitor was created.
func (vs *Visitors) Resolve(id string) (*Visitor, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if v, ok := vs.cache.Get(id); ok {
		return v, false
	}

	v := &Visitor{
		ID: id,
		Store: NewSessionStore(vs.newTransport(id), StoreConfig{
			VisitorID:        id,
			ProbeOrder:       vs.cfg.ProbeOrder,
			BootstrapTimeout: vs.cfg.BootstrapTimeout,
			Drafts:           vs.cfg.Drafts,
			Logger:           vs.logger,
		}),
	}
	vs.cache.Add(id, v)
	return v, true
}

// Touch marks an active visitor's persisted state as still in use.
func (vs *Visitors) Touch(ctx context.Context, id string) {
	if vs.cfg.KeepAlive == nil {
		return
	}
	if err := vs.cfg.KeepAlive(ctx, id); err != nil {
		vs.logger.WarnContext(ctx, "failed to extend visitor state", "error", err)
	}
}

// Forget drops a visitor immediately.
func (vs *Visitors) Forget(id string) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.cache.Remove(id)
}

// Len returns the number of live visitors.
func (vs *Visitors) Len() int {
	return vs.cache.Len()
}
