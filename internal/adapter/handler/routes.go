package handler

import (
	"github.com/labstack/echo/v4"

	"wework-hub/internal/domain"
	appmiddleware "wework-hub/middleware"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Home      *HomeHandler
	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Session   *SessionHandler
	Health    *HealthHandler
}

// HealthPath is exempt from visitor tracking.
const HealthPath = "/health"

// RegisterRoutes mounts the page and API routes. Every route except
// HealthPath must run behind the Visitor and CSRF middleware. authLimit
// guards the sign-in and sign-up posts and may be nil.
func RegisterRoutes(e *echo.Echo, routes domain.Routes, h Handlers, guards *appmiddleware.Guards, authLimit echo.MiddlewareFunc) {
	var limit []echo.MiddlewareFunc
	if authLimit != nil {
		limit = append(limit, authLimit)
	}
	publicOnly := guards.PublicOnly("")

	e.GET(HealthPath, h.Health.Handle)
	e.GET("/", h.Home.Handle)

	for _, kind := range domain.AllKinds {
		login := routes.SignIn
		if kind == domain.KindCompany {
			login = routes.CompanySignIn
		}
		signup := signupPath(kind)

		e.GET(login, h.Auth.ShowLogin(kind), publicOnly)
		e.POST(login, h.Auth.Login(kind), append([]echo.MiddlewareFunc{publicOnly}, limit...)...)
		e.GET(signup, h.Auth.ShowSignup(kind), publicOnly)
		e.POST(signup, h.Auth.Signup(kind), append([]echo.MiddlewareFunc{publicOnly}, limit...)...)
	}
	e.POST("/logout", h.Auth.Logout)

	student := e.Group(routes.StudentDashboard, guards.Protected())
	student.GET("", h.Dashboard.Show)
	student.GET("/profile", h.Dashboard.ShowProfile)
	student.POST("/profile", h.Dashboard.UpdateProfile)

	company := e.Group(routes.CompanyDashboard, guards.CompanyProtected())
	company.GET("", h.Dashboard.Show)
	company.GET("/profile", h.Dashboard.ShowProfile)
	company.POST("/profile", h.Dashboard.UpdateProfile)

	api := e.Group("/api")
	api.GET("/session", h.Session.Handle)
	api.POST("/session/refresh", h.Session.Refresh)
}
