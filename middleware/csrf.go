package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"wework-hub/internal/domain"
)

const (
	// CSRFFormField is the hidden form field carrying the token.
	CSRFFormField = "_csrf"
	// CSRFHeader carries the token for script-driven requests.
	CSRFHeader = "X-CSRF-Token"

	csrfContextKey = "wework.csrf"
)

// CSRF exposes the visitor's token to handlers and verifies it on unsafe
// methods. It must run after Visitor and skip the same routes.
func CSRF(gen domain.CSRFTokenGenerator, skipper echomiddleware.Skipper, l *slog.Logger) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echomiddleware.DefaultSkipper
	}
	if l == nil {
		l = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			v, ok := VisitorFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusInternalServerError)
			}

			token, err := gen.Generate(v.ID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
			}
			c.Set(csrfContextKey, token)

			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			submitted := c.Request().Header.Get(CSRFHeader)
			if submitted == "" {
				submitted = c.FormValue(CSRFFormField)
			}
			if err := gen.Verify(v.ID, submitted); err != nil {
				l.WarnContext(c.Request().Context(), "csrf token rejected",
					"method", c.Request().Method, "path", c.Path())
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token").SetInternal(err)
			}
			return next(c)
		}
	}
}

// CSRFToken returns the token for the current visitor, for embedding in forms.
func CSRFToken(c echo.Context) string {
	s, _ := c.Get(csrfContextKey).(string)
	return s
}
