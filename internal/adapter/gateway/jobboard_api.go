package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wework-hub/internal/domain"
	"wework-hub/internal/infrastructure/resilience"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// maxBodyBytes bounds upstream response bodies.
const maxBodyBytes = 1 << 20

// APIGateway builds per-visitor clients for the job board REST API. All
// clients share one pooled transport and one circuit breaker.
type APIGateway struct {
	baseURL   *url.URL
	timeout   time.Duration
	transport http.RoundTripper
	breaker   *resilience.CircuitBreaker

	cookies domain.CookieStore
	logger  *slog.Logger
}

// NewAPIGateway creates a gateway with a tuned HTTP transport.
func NewAPIGateway(baseURL string, timeout time.Duration, breaker *resilience.CircuitBreaker) (*APIGateway, error) {
	return NewAPIGatewayWithTransport(baseURL, timeout, breaker, nil)
}

// NewAPIGatewayWithTransport creates a gateway with a custom transport.
// If transport is nil a pooled http.Transport is used.
func NewAPIGatewayWithTransport(baseURL string, timeout time.Duration, breaker *resilience.CircuitBreaker, transport http.RoundTripper) (*APIGateway, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse API base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("API base URL %q must be absolute", baseURL)
	}
	if transport == nil {
		transport = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.DefaultConfig())
	}
	return &APIGateway{baseURL: u, timeout: timeout, transport: transport, breaker: breaker}, nil
}

// NewClient returns a client with an empty, unpersisted cookie jar.
func (g *APIGateway) NewClient() *APIClient {
	return g.newClient(newPersistentJar(nil, "", g.logger))
}

// UseCookieStore makes clients from NewVisitorClient keep their upstream
// cookies in store. Call it before serving traffic.
func (g *APIGateway) UseCookieStore(store domain.CookieStore, l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	g.cookies = store
	g.logger = l
}

// NewVisitorClient returns the client for visitorID. With a cookie store the
// jar starts from the cookies remembered for that visitor, so the upstream
// session outlives the visitor itself.
func (g *APIGateway) NewVisitorClient(visitorID string) *APIClient {
	if g.cookies == nil {
		return g.NewClient()
	}
	return g.newClient(newPersistentJar(g.cookies, visitorID, g.logger))
}

func (g *APIGateway) newClient(jar *persistentJar) *APIClient {
	return &APIClient{
		gw:  g,
		jar: jar,
		http: &http.Client{
			Timeout:   g.timeout,
			Transport: g.transport,
			Jar:       jar,
			// Upstream redirects are never part of the contract.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// APIClient implements domain.SessionTransport for one visitor. The cookie
// jar holds the upstream session cookie; nothing else is retained.
type APIClient struct {
	gw   *APIGateway
	jar  *persistentJar
	http *http.Client
}

// envelope is the canonical success body: {"data": ...}.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// errorBody is the canonical failure body.
type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// profileWire is the profile payload. Pointer fields distinguish absent keys
// from empty values so updates merge shallowly.
type profileWire struct {
	ID                string   `json:"id,omitempty"`
	Email             *string  `json:"email,omitempty"`
	Kind              string   `json:"kind,omitempty"`
	FirstName         *string  `json:"firstName,omitempty"`
	LastName          *string  `json:"lastName,omitempty"`
	Phone             *string  `json:"phone,omitempty"`
	Headline          *string  `json:"headline,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	CompanyName       *string  `json:"companyName,omitempty"`
	ContactPersonName *string  `json:"contactPersonName,omitempty"`
	Industry          *string  `json:"industry,omitempty"`
	Website           *string  `json:"website,omitempty"`
}

// patchWire is the PATCH body. Unlike profileWire it sends an empty skills
// list, which clears the skills.
type patchWire struct {
	Email             *string   `json:"email,omitempty"`
	FirstName         *string   `json:"firstName,omitempty"`
	LastName          *string   `json:"lastName,omitempty"`
	Phone             *string   `json:"phone,omitempty"`
	Headline          *string   `json:"headline,omitempty"`
	Skills            *[]string `json:"skills,omitempty"`
	CompanyName       *string   `json:"companyName,omitempty"`
	ContactPersonName *string   `json:"contactPersonName,omitempty"`
	Industry          *string   `json:"industry,omitempty"`
	Website           *string   `json:"website,omitempty"`
}

type credentialsWire struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupWire struct {
	Email             string `json:"email"`
	Password          string `json:"password,omitempty"`
	FirstName         string `json:"firstName,omitempty"`
	LastName          string `json:"lastName,omitempty"`
	Phone             string `json:"phone,omitempty"`
	CompanyName       string `json:"companyName,omitempty"`
	ContactPersonName string `json:"contactPersonName,omitempty"`
	Industry          string `json:"industry,omitempty"`
	Website           string `json:"website,omitempty"`
}

type createdWire struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// FetchProfile returns the profile behind the ambient session cookie.
func (c *APIClient) FetchProfile(ctx context.Context, kind domain.AccountKind) (*domain.User, error) {
	var wire profileWire
	if err := c.call(ctx, http.MethodGet, kind, "profile", nil, &wire, domain.ErrUnauthorized); err != nil {
		return nil, err
	}
	return wire.toUser(kind)
}

// Login posts credentials; the upstream sets the session cookie and returns
// the profile in the same response.
func (c *APIClient) Login(ctx context.Context, kind domain.AccountKind, creds domain.Credentials) (*domain.User, error) {
	var wire profileWire
	body := credentialsWire{Email: creds.Email, Password: creds.Password}
	if err := c.call(ctx, http.MethodPost, kind, "login", body, &wire, domain.ErrInvalidCredentials); err != nil {
		return nil, err
	}
	return wire.toUser(kind)
}

// Signup creates an account. It does not establish a session.
func (c *APIClient) Signup(ctx context.Context, kind domain.AccountKind, form domain.SignupForm) (*domain.CreatedAccount, error) {
	body := signupWire{Email: form.Email, Password: form.Password}
	switch kind {
	case domain.KindStudent:
		if form.Student != nil {
			body.FirstName = form.Student.FirstName
			body.LastName = form.Student.LastName
			body.Phone = form.Student.Phone
		}
	case domain.KindCompany:
		if form.Company != nil {
			body.CompanyName = form.Company.CompanyName
			body.ContactPersonName = form.Company.ContactPersonName
			body.Phone = form.Company.Phone
			body.Industry = form.Company.Industry
			body.Website = form.Company.Website
		}
	}

	var wire createdWire
	if err := c.call(ctx, http.MethodPost, kind, "signup", body, &wire, domain.ErrUnauthorized); err != nil {
		return nil, err
	}
	if wire.ID == "" {
		return nil, fmt.Errorf("%w: signup response without id", domain.ErrTransportFailure)
	}
	email := wire.Email
	if email == "" {
		email = form.Email
	}
	return &domain.CreatedAccount{ID: wire.ID, Email: email, Kind: kind}, nil
}

// Logout invalidates the upstream session. The jar is cleared by the
// upstream's expiring Set-Cookie.
func (c *APIClient) Logout(ctx context.Context, kind domain.AccountKind) error {
	return c.call(ctx, http.MethodPost, kind, "logout", nil, nil, domain.ErrUnauthorized)
}

// ClearSession forgets the upstream session cookies locally, whether or not
// the upstream still honours them.
func (c *APIClient) ClearSession(ctx context.Context) error {
	return c.jar.Clear(ctx)
}

// UpdateProfile patches the profile and returns the fields present in the
// server response.
func (c *APIClient) UpdateProfile(ctx context.Context, kind domain.AccountKind, patch domain.ProfilePatch) (*domain.ProfilePatch, error) {
	body := patchWire{
		Email:             patch.Email,
		FirstName:         patch.FirstName,
		LastName:          patch.LastName,
		Phone:             patch.Phone,
		Headline:          patch.Headline,
		CompanyName:       patch.CompanyName,
		ContactPersonName: patch.ContactPersonName,
		Industry:          patch.Industry,
		Website:           patch.Website,
	}
	if patch.Skills != nil {
		skills := append([]string{}, patch.Skills...)
		body.Skills = &skills
	}

	var wire profileWire
	if err := c.call(ctx, http.MethodPatch, kind, "profile", body, &wire, domain.ErrUnauthorized); err != nil {
		return nil, err
	}
	return &domain.ProfilePatch{
		Email:             wire.Email,
		FirstName:         wire.FirstName,
		LastName:          wire.LastName,
		Phone:             wire.Phone,
		Headline:          wire.Headline,
		Skills:            wire.Skills,
		CompanyName:       wire.CompanyName,
		ContactPersonName: wire.ContactPersonName,
		Industry:          wire.Industry,
		Website:           wire.Website,
	}, nil
}

// call performs one request through the circuit breaker. authErr is the
// error returned on 401/403.
func (c *APIClient) call(ctx context.Context, method string, kind domain.AccountKind, action string, in, out any, authErr error) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: invalid account kind %q", domain.ErrTransportFailure, kind)
	}
	_, err := resilience.Execute(c.gw.breaker, isUpstreamFailure, func() (struct{}, error) {
		return struct{}{}, c.do(ctx, method, kind, action, in, out, authErr)
	})
	if errors.Is(err, domain.ErrCircuitOpen) {
		return fmt.Errorf("%w: %w", domain.ErrTransportFailure, err)
	}
	return err
}

func (c *APIClient) do(ctx context.Context, method string, kind domain.AccountKind, action string, in, out any, authErr error) error {
	endpoint := c.gw.baseURL.JoinPath(string(kind), action)

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode request: %w", domain.ErrTransportFailure, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransportFailure, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		// The caller gave up; the upstream is not at fault.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", domain.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: read response: %w", domain.ErrTransportFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, raw, authErr)
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: decode envelope: %w", domain.ErrTransportFailure, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: response without data", domain.ErrTransportFailure)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %w", domain.ErrTransportFailure, err)
	}
	return nil
}

// statusError maps a non-2xx response onto the domain taxonomy.
func statusError(status int, raw []byte, authErr error) error {
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if eb.Message != "" {
			return fmt.Errorf("%w: %s", authErr, eb.Message)
		}
		return authErr
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &domain.FieldErrors{Message: eb.Message, Fields: eb.Errors}
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", &domain.FieldErrors{Fields: eb.Errors}, domain.ErrDuplicateAccount)
	default:
		return fmt.Errorf("%w: upstream returned status %d", domain.ErrTransportFailure, status)
	}
}

// isUpstreamFailure reports whether err should count against the breaker.
func isUpstreamFailure(err error) bool {
	return errors.Is(err, domain.ErrTransportFailure)
}

func (w profileWire) toUser(kind domain.AccountKind) (*domain.User, error) {
	if w.Kind != "" && domain.AccountKind(w.Kind) != kind {
		return nil, fmt.Errorf("%w: %w: %s endpoint returned a %s profile",
			domain.ErrTransportFailure, domain.ErrMalformedProfile, kind, w.Kind)
	}
	u := &domain.User{Kind: kind, ID: w.ID, Email: deref(w.Email)}
	switch kind {
	case domain.KindStudent:
		u.Student = &domain.StudentProfile{
			FirstName: deref(w.FirstName),
			LastName:  deref(w.LastName),
			Phone:     deref(w.Phone),
			Headline:  deref(w.Headline),
			Skills:    w.Skills,
		}
	case domain.KindCompany:
		u.Company = &domain.CompanyProfile{
			CompanyName:       deref(w.CompanyName),
			ContactPersonName: deref(w.ContactPersonName),
			Phone:             deref(w.Phone),
			Industry:          deref(w.Industry),
			Website:           deref(w.Website),
		}
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransportFailure, err)
	}
	return u, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
