package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"wework-hub/internal/domain"
)

// LoadingTemplate is the template rendered while a session bootstrap is in
// flight.
const LoadingTemplate = "loading"

// LoadingPage is the data handed to LoadingTemplate.
type LoadingPage struct {
	Location     string
	RetrySeconds int
}

// GuardConfig configures route guards.
type GuardConfig struct {
	Routes domain.Routes
	// BootstrapWait is how long a guard blocks on an unsettled bootstrap
	// before rendering the loading page.
	BootstrapWait time.Duration
	Logger        *slog.Logger
}

// Guards builds the route guard middleware variants.
type Guards struct {
	cfg GuardConfig
}

// NewGuards creates the guard set.
func NewGuards(cfg GuardConfig) *Guards {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Guards{cfg: cfg}
}

// Protected admits any authenticated visitor.
func (g *Guards) Protected() echo.MiddlewareFunc {
	return g.guard(domain.RequireProtected())
}

// CompanyProtected admits company accounts only.
func (g *Guards) CompanyProtected() echo.MiddlewareFunc {
	return g.guard(domain.RequireRole(domain.KindCompany))
}

// PublicOnly admits anonymous visitors. An authenticated visitor is sent to
// landing, or to the dashboard of their account kind when landing is empty.
func (g *Guards) PublicOnly(landing string) echo.MiddlewareFunc {
	return g.guard(domain.RequirePublicOnly(landing))
}

func (g *Guards) guard(req domain.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, ok := VisitorFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusInternalServerError).
					SetInternal(errors.New("route guard used without visitor middleware"))
			}

			ctx := c.Request().Context()
			if g.cfg.BootstrapWait > 0 && v.Store.Snapshot().IsLoading() {
				wctx, cancel := context.WithTimeout(ctx, g.cfg.BootstrapWait)
				_ = v.Store.Wait(wctx)
				cancel()
			}

			location := c.Request().URL.RequestURI()
			d := domain.Decide(v.Store.Snapshot(), req, g.cfg.Routes, location)

			switch d.Action {
			case domain.ActionRenderChildren:
				return next(c)
			case domain.ActionRenderLoading:
				retry := 1
				c.Response().Header().Set("Refresh", strconv.Itoa(retry))
				c.Response().Header().Set("Cache-Control", "no-store")
				return c.Render(http.StatusOK, LoadingTemplate, LoadingPage{Location: location, RetrySeconds: retry})
			case domain.ActionRedirect:
				if d.From != "" {
					v.RememberLocation(d.From)
				}
				g.cfg.Logger.DebugContext(ctx, "route guard redirect", "from", location, "to", d.Target)
				return c.Redirect(redirectStatus(c), d.Target)
			default:
				return echo.NewHTTPError(http.StatusInternalServerError)
			}
		}
	}
}

// redirectStatus turns unsafe requests into a GET on the target.
func redirectStatus(c echo.Context) int {
	switch c.Request().Method {
	case http.MethodGet, http.MethodHead:
		return http.StatusFound
	default:
		return http.StatusSeeOther
	}
}
