package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"wework-hub/internal/domain"
	appmiddleware "wework-hub/middleware"
)

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
func mapDomainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, domain.UserMessage(err))

	case errors.Is(err, domain.ErrDuplicateAccount):
		return echo.NewHTTPError(http.StatusConflict, domain.UserMessage(err))

	case errors.Is(err, domain.ErrValidationFailed):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, domain.UserMessage(err))

	case errors.Is(err, domain.ErrTransportFailure),
		errors.Is(err, domain.ErrCircuitOpen):
		return echo.NewHTTPError(http.StatusBadGateway, "job board service unavailable")

	case errors.Is(err, domain.ErrStoreClosed):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session expired, please retry")

	case errors.Is(err, domain.ErrCSRFMismatch):
		return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")

	case errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrCSRFSecretMissing):
		return echo.NewHTTPError(http.StatusInternalServerError, "token generation error")

	case errors.Is(err, domain.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// NewHTTPErrorHandler renders errors as an HTML page for browsers and as
// {"message": ...} JSON for API and script clients.
func NewHTTPErrorHandler(routes domain.Routes, l *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			he = mapDomainError(err)
		}
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(he.Code)
		}
		if he.Code >= http.StatusInternalServerError {
			l.ErrorContext(c.Request().Context(), "request error", "status", he.Code, "error", err)
		}

		var werr error
		switch {
		case c.Request().Method == http.MethodHead:
			werr = c.NoContent(he.Code)
		case wantsJSON(c):
			werr = c.JSON(he.Code, map[string]string{"message": msg})
		default:
			p := Page{Title: msg, Routes: routes, CSRF: appmiddleware.CSRFToken(c)}
			werr = c.Render(he.Code, "error", p)
		}
		if werr != nil {
			l.ErrorContext(c.Request().Context(), "failed to write error response", "error", werr)
		}
	}
}

func wantsJSON(c echo.Context) bool {
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		return true
	}
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}
