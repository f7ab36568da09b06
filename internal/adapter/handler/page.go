package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"wework-hub/internal/domain"
	"wework-hub/internal/usecase"
	appmiddleware "wework-hub/middleware"
)

// visitor returns the request's visitor or a 500 when the middleware chain
// is misconfigured.
func visitor(c echo.Context) (*usecase.Visitor, error) {
	v, ok := appmiddleware.VisitorFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "visitor not bound")
	}
	return v, nil
}

// newPage fills the fields every layout page needs.
func newPage(c echo.Context, routes domain.Routes, title string) Page {
	p := Page{
		Title:  title,
		CSRF:   appmiddleware.CSRFToken(c),
		Routes: routes,
	}
	if v, ok := appmiddleware.VisitorFrom(c); ok {
		if snap := v.Store.Snapshot(); snap.IsAuthenticated() {
			p.User = snap.User
		}
	}
	return p
}

// failedPage copies an auth failure into the page.
func failedPage(p Page, res domain.AuthResult, values map[string]string) Page {
	p.Error = res.Error
	p.FieldErrors = res.FieldErrors
	p.Values = values
	return p
}
