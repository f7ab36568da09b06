package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"wework-hub/internal/domain"
)

// storeTimeout bounds each cookie store call made from inside the jar, which
// has no request context.
const storeTimeout = 2 * time.Second

// persistentJar is a cookiejar.Jar that writes every change through to a
// domain.CookieStore and re-seeds itself from the store on first use. With a
// nil store it only lives in memory.
type persistentJar struct {
	// mu guards the inner pointer. cookiejar.Jar is itself safe for
	// concurrent use.
	mu        sync.RWMutex
	inner     *cookiejar.Jar
	store     domain.CookieStore
	visitorID string
	logger    *slog.Logger
	now       func() time.Time

	loadOnce sync.Once
}

func newPersistentJar(store domain.CookieStore, visitorID string, l *slog.Logger) *persistentJar {
	if l == nil {
		l = slog.Default()
	}
	return &persistentJar{inner: newMemoryJar(), store: store, visitorID: visitorID, logger: l, now: time.Now}
}

func newMemoryJar() *cookiejar.Jar {
	// cookiejar.New only fails on a broken PublicSuffixList, and none is set.
	jar, _ := cookiejar.New(nil)
	return jar
}

func (j *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.loadOnce.Do(j.load)
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.inner.Cookies(u)
}

func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.loadOnce.Do(j.load)
	j.mu.RLock()
	j.inner.SetCookies(u, cookies)
	j.mu.RUnlock()
	if j.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	now := j.now()
	for _, c := range cookies {
		sc := domain.StoredCookie{
			URL:      u.String(),
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: int(c.SameSite),
		}
		if c.MaxAge > 0 {
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}

		var err error
		if c.MaxAge < 0 || (!sc.Expires.IsZero() && !sc.Expires.After(now)) {
			err = j.store.Delete(ctx, j.visitorID, sc.Key())
		} else {
			err = j.store.Put(ctx, j.visitorID, sc)
		}
		if err != nil {
			j.logger.WarnContext(ctx, "failed to persist upstream cookie", "cookie", c.Name, "error", err)
		}
	}
}

// Clear empties the jar and forgets the persisted cookies. A store failure
// is returned after the in-memory jar is already empty.
func (j *persistentJar) Clear(ctx context.Context) error {
	// A jar cleared before first use must not re-seed afterwards.
	j.loadOnce.Do(func() {})

	j.mu.Lock()
	j.inner = newMemoryJar()
	j.mu.Unlock()

	if j.store == nil {
		return nil
	}
	return j.store.Clear(ctx, j.visitorID)
}

// load copies the remembered cookies into the in-memory jar. A store failure
// leaves the jar empty, which reads as signed out.
func (j *persistentJar) load() {
	if j.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	stored, err := j.store.Load(ctx, j.visitorID)
	if err != nil {
		j.logger.WarnContext(ctx, "failed to load upstream cookies", "error", err)
		return
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	for _, sc := range stored {
		u, err := url.Parse(sc.URL)
		if err != nil {
			continue
		}
		j.inner.SetCookies(u, []*http.Cookie{{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Domain:   sc.Domain,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HttpOnly,
			SameSite: http.SameSite(sc.SameSite),
		}})
	}
}
