package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"wework-hub/internal/domain"
)

// HomeHandler serves the landing page.
type HomeHandler struct {
	routes domain.Routes
}

func NewHomeHandler(routes domain.Routes) *HomeHandler {
	return &HomeHandler{routes: routes}
}

func (h *HomeHandler) Handle(c echo.Context) error {
	return c.Render(http.StatusOK, "home", newPage(c, h.routes, "Home"))
}
