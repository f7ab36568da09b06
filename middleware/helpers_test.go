package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"wework-hub/internal/domain"
	"wework-hub/internal/infrastructure/cache"
	"wework-hub/internal/usecase"
)

// stubTransport answers profile probes from a fixed map. Login and friends
// are not used by middleware tests.
type stubTransport struct {
	mu       sync.Mutex
	profiles map[domain.AccountKind]*domain.User
	block    chan struct{}
}

func (s *stubTransport) FetchProfile(ctx context.Context, kind domain.AccountKind) (*domain.User, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.profiles[kind]; ok {
		return u.Clone(), nil
	}
	return nil, domain.ErrUnauthorized
}

func (s *stubTransport) Login(context.Context, domain.AccountKind, domain.Credentials) (*domain.User, error) {
	return nil, domain.ErrTransportFailure
}

func (s *stubTransport) Signup(context.Context, domain.AccountKind, domain.SignupForm) (*domain.CreatedAccount, error) {
	return nil, domain.ErrTransportFailure
}

func (s *stubTransport) Logout(context.Context, domain.AccountKind) error { return nil }

func (s *stubTransport) ClearSession(context.Context) error { return nil }

func (s *stubTransport) UpdateProfile(context.Context, domain.AccountKind, domain.ProfilePatch) (*domain.ProfilePatch, error) {
	return nil, domain.ErrTransportFailure
}

// fakeTokens signs visitor IDs with a recognisable prefix. An optional
// "@<unix seconds>" suffix carries the expiry.
type fakeTokens struct{}

func (fakeTokens) Issue(id string) (string, error) { return "tok:" + id, nil }

func (fakeTokens) Parse(token string) (domain.VisitorToken, error) {
	rest, ok := strings.CutPrefix(token, "tok:")
	if !ok || rest == "" {
		return domain.VisitorToken{}, domain.ErrTokenInvalid
	}
	id, exp, hasExp := strings.Cut(rest, "@")
	tok := domain.VisitorToken{VisitorID: id}
	if hasExp {
		sec, err := strconv.ParseInt(exp, 10, 64)
		if err != nil {
			return domain.VisitorToken{}, domain.ErrTokenInvalid
		}
		tok.ExpiresAt = time.Unix(sec, 0)
	}
	return tok, nil
}

// fakeCSRF accepts "csrf-" + visitor ID.
type fakeCSRF struct{}

func (fakeCSRF) Generate(id string) (string, error) { return "csrf-" + id, nil }

func (fakeCSRF) Verify(id, token string) error {
	if token != "csrf-"+id {
		return domain.ErrCSRFMismatch
	}
	return nil
}

// nameRenderer writes the template name so tests can tell pages apart.
type nameRenderer struct{}

func (nameRenderer) Render(w io.Writer, name string, _ any, _ echo.Context) error {
	_, err := io.WriteString(w, "template:"+name)
	return err
}

var testRoutes = domain.Routes{
	SignIn:           "/login",
	CompanySignIn:    "/company/login",
	StudentDashboard: "/dashboard",
	CompanyDashboard: "/company/dashboard",
}

func studentUser() *domain.User {
	return &domain.User{
		Kind:    domain.KindStudent,
		ID:      "stu-1",
		Email:   "ada@example.com",
		Student: &domain.StudentProfile{FirstName: "Ada", LastName: "Lovelace"},
	}
}

func companyUser() *domain.User {
	return &domain.User{
		Kind:    domain.KindCompany,
		ID:      "co-1",
		Email:   "hr@acme.test",
		Company: &domain.CompanyProfile{CompanyName: "Acme", ContactPersonName: "Wile"},
	}
}

type testApp struct {
	e        *echo.Echo
	visitors *usecase.Visitors
	guards   *Guards

	mu      sync.Mutex
	touched []string
}

func (a *testApp) touchedIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.touched...)
}

func newTestApp(t *testing.T, tr *stubTransport, wait time.Duration) *testApp {
	t.Helper()

	app := &testApp{}
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := cache.NewExpiringCache[*usecase.Visitor](16, time.Minute, func(_ string, v *usecase.Visitor) { v.Close() })
	visitors := usecase.NewVisitors(c, func(string) domain.SessionTransport { return tr }, usecase.VisitorsConfig{
		BootstrapTimeout: time.Second,
		KeepAlive: func(_ context.Context, id string) error {
			app.mu.Lock()
			defer app.mu.Unlock()
			app.touched = append(app.touched, id)
			return nil
		},
	}, l)

	e := echo.New()
	e.Renderer = nameRenderer{}
	e.Use(Visitor(VisitorConfig{
		Tokens:    fakeTokens{},
		Visitors:  visitors,
		CookieTTL: time.Hour,
		NewID:     func() string { return "v-1" },
		Logger:    l,
	}))

	app.e = e
	app.visitors = visitors
	app.guards = NewGuards(GuardConfig{Routes: testRoutes, BootstrapWait: wait, Logger: l})
	return app
}

func (a *testApp) do(method, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func visitorCookie(id string) *http.Cookie {
	return &http.Cookie{Name: VisitorCookieName, Value: "tok:" + id}
}

func renderChildren(c echo.Context) error { return c.String(http.StatusOK, "children") }

