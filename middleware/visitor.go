package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"wework-hub/internal/domain"
	"wework-hub/internal/usecase"
	"wework-hub/utils/logger"
)

// VisitorCookieName is the signed cookie carrying the visitor ID.
const VisitorCookieName = "jb_visitor"

const visitorContextKey = "wework.visitor"

// VisitorConfig configures the Visitor middleware.
type VisitorConfig struct {
	Tokens       domain.VisitorTokenIssuer
	Visitors     *usecase.Visitors
	CookieTTL    time.Duration
	CookieSecure bool
	// NewID defaults to uuid.NewString.
	NewID func() string
	// Now defaults to time.Now.
	Now func() time.Time
	// Skipper exempts routes such as health probes from visitor tracking.
	Skipper echomiddleware.Skipper
	Logger  *slog.Logger
}

// Visitor binds every request to a visitor. A missing or invalid cookie
// mints a new visitor ID. A visitor seen for the first time starts its
// session bootstrap in the background. A cookie past half its lifetime is
// re-issued, so CookieTTL is an idle lifetime rather than an absolute one.
func Visitor(cfg VisitorConfig) echo.MiddlewareFunc {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}
			ctx := c.Request().Context()

			id, fresh, renew := "", false, false
			if cookie, err := c.Cookie(VisitorCookieName); err == nil {
				tok, perr := cfg.Tokens.Parse(cookie.Value)
				if perr != nil {
					cfg.Logger.DebugContext(ctx, "discarding visitor cookie", "error", perr)
				} else {
					id = tok.VisitorID
					renew = !tok.ExpiresAt.IsZero() && tok.ExpiresAt.Sub(cfg.Now()) < cfg.CookieTTL/2
				}
			}
			if id == "" {
				id, fresh = cfg.NewID(), true
			}

			v, created := cfg.Visitors.Resolve(id)
			if fresh || created || renew {
				// A restarted process forgets visitors; re-issuing keeps the
				// cookie expiry in step with the new registry entry.
				if err := setVisitorCookie(c, cfg, id); err != nil {
					cfg.Logger.ErrorContext(ctx, "failed to issue visitor cookie", "error", err)
					return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
				}
			}

			ctx = logger.WithVisitorID(ctx, id)
			c.SetRequest(c.Request().WithContext(ctx))
			if created {
				v.Store.Start(ctx)
			} else if renew {
				cfg.Visitors.Touch(ctx, id)
			}

			c.Set(visitorContextKey, v)
			return next(c)
		}
	}
}

// VisitorFrom returns the visitor bound by the Visitor middleware.
func VisitorFrom(c echo.Context) (*usecase.Visitor, bool) {
	v, ok := c.Get(visitorContextKey).(*usecase.Visitor)
	return v, ok && v != nil
}

func setVisitorCookie(c echo.Context, cfg VisitorConfig, id string) error {
	token, err := cfg.Tokens.Issue(id)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     VisitorCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.CookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
