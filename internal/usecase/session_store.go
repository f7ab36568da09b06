package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"wework-hub/internal/domain"
)

// StoreConfig configures a SessionStore.
type StoreConfig struct {
	VisitorID string
	// ProbeOrder is the order in which account kinds are probed during
	// bootstrap. There is no cross-kind profile endpoint.
	ProbeOrder []domain.AccountKind
	// BootstrapTimeout bounds a background bootstrap started with Start.
	BootstrapTimeout time.Duration
	Drafts           domain.DraftStore
	Logger           *slog.Logger
}

// SessionStore is the single source of truth for one visitor's
// authentication state. All transport calls go through it.
type SessionStore struct {
	transport  domain.SessionTransport
	drafts     domain.DraftStore
	visitorID  string
	probeOrder []domain.AccountKind
	timeout    time.Duration
	logger     *slog.Logger

	mu     sync.RWMutex
	status domain.Status
	user   *domain.User
	closed bool
	// gen increments on every committed mutation except bootstrap, so a
	// bootstrap that resolves after a login does not overwrite it.
	gen uint64

	initOnce sync.Once
	settled  chan struct{}
}

// NewSessionStore creates an Uninitialized store.
func NewSessionStore(t domain.SessionTransport, cfg StoreConfig) *SessionStore {
	order := cfg.ProbeOrder
	if len(order) == 0 {
		order = domain.AllKinds
	}
	timeout := cfg.BootstrapTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	return &SessionStore{
		transport:  t,
		drafts:     cfg.Drafts,
		visitorID:  cfg.VisitorID,
		probeOrder: order,
		timeout:    timeout,
		logger:     l,
		status:     domain.StatusUninitialized,
		settled:    make(chan struct{}),
	}
}

// Snapshot returns a copy of the current state.
func (s *SessionStore) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Snapshot{Status: s.status, User: s.user.Clone()}
}

// Start runs the bootstrap in the background, detached from ctx's
// cancellation so an aborted request cannot leave the store loading.
func (s *SessionStore) Start(ctx context.Context) {
	go func() {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		s.Initialize(bctx)
	}()
}

// Initialize performs the bootstrap profile check. It runs at most once;
// concurrent and later callers wait for the first run. It never fails: any
// error resolves to Anonymous.
func (s *SessionStore) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		defer close(s.settled)

		startGen, ok := s.beginLoading()
		if !ok {
			return
		}

		user, err := s.probe(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "session bootstrap failed, continuing anonymous", "error", err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		if s.gen != startGen {
			// A login or logout resolved first; it wins.
			return
		}
		s.setLocked(user)
		s.logger.DebugContext(ctx, "session bootstrap settled", "status", s.status.String())
	})
}

// Wait blocks until the bootstrap settled or ctx is done.
func (s *SessionStore) Wait(ctx context.Context) error {
	select {
	case <-s.settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login authenticates against the kind's namespace. It never returns a Go
// error; failures leave the state exactly as it was.
func (s *SessionStore) Login(ctx context.Context, kind domain.AccountKind, creds domain.Credentials) domain.AuthResult {
	if creds.Email == "" || creds.Password == "" {
		return domain.AuthResult{Error: "Email and password are required."}
	}

	user, err := s.transport.Login(ctx, kind, creds)
	if err == nil {
		err = user.Validate()
	}
	if err != nil {
		s.logger.InfoContext(ctx, "login rejected", "account_kind", kind.String(), "error", err)
		return failure(err)
	}

	if !s.commit(user) {
		return failure(domain.ErrStoreClosed)
	}
	s.logger.InfoContext(ctx, "login succeeded", "account_kind", kind.String(), "user_id", user.ID)
	return domain.AuthResult{Success: true, User: user.Clone()}
}

// Signup registers an account. With a password in the form it logs in with
// the same credentials and returns that result; without one no session is
// established.
func (s *SessionStore) Signup(ctx context.Context, kind domain.AccountKind, form domain.SignupForm) domain.AuthResult {
	created, err := s.transport.Signup(ctx, kind, form)
	if err != nil {
		s.logger.InfoContext(ctx, "signup rejected", "account_kind", kind.String(), "error", err)
		return failure(err)
	}
	s.logger.InfoContext(ctx, "account created", "account_kind", kind.String(), "user_id", created.ID)

	if form.Password == "" {
		return domain.AuthResult{Success: true}
	}
	return s.Login(ctx, kind, domain.Credentials{Email: form.Email, Password: form.Password})
}

// Logout ends the session. The remote call is best-effort; its failure is
// logged and the store becomes Anonymous regardless. The upstream session
// cookie is always dropped locally, so a refresh or a later bootstrap for
// this visitor cannot find the session again. clearLocalData also purges the
// visitor's remembered form drafts.
func (s *SessionStore) Logout(ctx context.Context, clearLocalData bool) {
	snap := s.Snapshot()
	if snap.User != nil {
		if err := s.transport.Logout(ctx, snap.User.Kind); err != nil {
			s.logger.WarnContext(ctx, "remote logout failed, clearing local session anyway",
				"account_kind", snap.User.Kind.String(), "error", err)
		}
	}
	if err := s.transport.ClearSession(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to forget upstream session cookies", "error", err)
	}

	s.commit(nil)

	if clearLocalData && s.drafts != nil {
		if err := s.drafts.Purge(ctx, s.visitorID); err != nil {
			s.logger.WarnContext(ctx, "failed to purge local drafts", "error", err)
		}
	}
	s.logger.InfoContext(ctx, "logged out", "clear_local_data", clearLocalData)
}

// UpdateProfile patches the current account's profile and merges the server
// response into the user. Calling it while not authenticated is a caller bug
// and fails with domain.ErrNotAuthenticated.
func (s *SessionStore) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error) {
	snap := s.Snapshot()
	if !snap.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	if patch.IsEmpty() {
		return snap.User, nil
	}

	fields, err := s.transport.UpdateProfile(ctx, snap.User.Kind, patch)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.expire(ctx, snap.User.ID)
		}
		return nil, err
	}
	if fields == nil {
		fields = &patch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}
	if s.user == nil || s.user.ID != snap.User.ID {
		return nil, domain.ErrNotAuthenticated
	}
	s.user = s.user.Apply(*fields)
	s.gen++
	return s.user.Clone(), nil
}

// RefreshFromServer re-reads the profile. An Unauthorized answer moves the
// store to Anonymous; other errors leave it unchanged and are returned.
func (s *SessionStore) RefreshFromServer(ctx context.Context) error {
	snap := s.Snapshot()
	if snap.IsLoading() {
		s.Initialize(ctx)
		return nil
	}

	if !snap.IsAuthenticated() {
		user, err := s.probe(ctx)
		if err != nil {
			return err
		}
		if user != nil && !s.commit(user) {
			return domain.ErrStoreClosed
		}
		return nil
	}

	user, err := s.transport.FetchProfile(ctx, snap.User.Kind)
	if err == nil {
		err = user.Validate()
	}
	switch {
	case err == nil:
		if !s.commit(user) {
			return domain.ErrStoreClosed
		}
		return nil
	case errors.Is(err, domain.ErrUnauthorized):
		s.expire(ctx, snap.User.ID)
		return nil
	default:
		return err
	}
}

// Close detaches the store. Later resolutions of in-flight calls are dropped.
func (s *SessionStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// probe asks each kind's profile endpoint in order. It returns the first
// well-formed profile, or nil when none answered. The error is the last
// non-Unauthorized failure, reported only when no profile was found.
func (s *SessionStore) probe(ctx context.Context) (*domain.User, error) {
	var lastErr error
	for _, kind := range s.probeOrder {
		user, err := s.transport.FetchProfile(ctx, kind)
		if err == nil {
			err = user.Validate()
		}
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domain.ErrUnauthorized) {
			lastErr = err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (s *SessionStore) beginLoading() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false
	}
	if s.status == domain.StatusUninitialized {
		s.status = domain.StatusLoading
	}
	return s.gen, true
}

// commit sets the user (nil means Anonymous). It reports false, changing
// nothing, once the store is closed.
func (s *SessionStore) commit(user *domain.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.setLocked(user)
	s.gen++
	return true
}

// expire drops to Anonymous if the session still belongs to userID.
func (s *SessionStore) expire(ctx context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.user == nil || s.user.ID != userID {
		return
	}
	s.setLocked(nil)
	s.gen++
	s.logger.InfoContext(ctx, "upstream session expired")
}

// setLocked keeps status and user consistent. Callers hold mu.
func (s *SessionStore) setLocked(user *domain.User) {
	if user == nil {
		s.status = domain.StatusAnonymous
		s.user = nil
		return
	}
	s.status = domain.StatusAuthenticated
	s.user = user.Clone()
}

func failure(err error) domain.AuthResult {
	res := domain.AuthResult{Error: domain.UserMessage(err)}
	var fe *domain.FieldErrors
	if errors.As(err, &fe) && len(fe.Fields) > 0 {
		res.FieldErrors = fe.Fields
	}
	return res
}
