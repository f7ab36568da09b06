package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"wework-hub/internal/domain"
	"wework-hub/utils/logger"
)

// DashboardHandler serves the authenticated areas. Routes are mounted behind
// the matching guard, so a visitor here is authenticated with the right kind.
type DashboardHandler struct {
	routes    domain.Routes
	validator *FormValidator
	logger    *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(routes domain.Routes, v *FormValidator, l *slog.Logger) *DashboardHandler {
	return &DashboardHandler{routes: routes, validator: v, logger: l}
}

func (h *DashboardHandler) profilePath(kind domain.AccountKind) string {
	return h.routes.Dashboard(kind) + "/profile"
}

func profileTemplate(kind domain.AccountKind) string {
	if kind == domain.KindCompany {
		return "profile_company"
	}
	return "profile_student"
}

// Show renders the dashboard of the signed-in account.
func (h *DashboardHandler) Show(c echo.Context) error {
	p := newPage(c, h.routes, "Dashboard")
	if p.User == nil {
		return c.Redirect(http.StatusFound, h.routes.SignIn)
	}
	p.Action = h.profilePath(p.User.Kind)
	if p.User.Kind == domain.KindCompany {
		return c.Render(http.StatusOK, "dashboard_company", p)
	}
	return c.Render(http.StatusOK, "dashboard_student", p)
}

// ShowProfile renders the profile form prefilled with the current profile.
func (h *DashboardHandler) ShowProfile(c echo.Context) error {
	p := newPage(c, h.routes, "Edit profile")
	if p.User == nil {
		return c.Redirect(http.StatusFound, h.routes.SignIn)
	}
	p.Action = h.profilePath(p.User.Kind)
	p.Kind = p.User.Kind
	p.Values = profileValues(p.User)
	if c.QueryParam("saved") != "" {
		p.Notice = "Profile saved."
	}
	return c.Render(http.StatusOK, profileTemplate(p.User.Kind), p)
}

// UpdateProfile submits the changed profile fields.
func (h *DashboardHandler) UpdateProfile(c echo.Context) error {
	v, err := visitor(c)
	if err != nil {
		return err
	}
	p := newPage(c, h.routes, "Edit profile")
	if p.User == nil {
		return c.Redirect(http.StatusSeeOther, h.routes.SignIn)
	}
	user := p.User
	p.Action = h.profilePath(user.Kind)
	p.Kind = user.Kind

	var (
		patch  domain.ProfilePatch
		values map[string]string
	)
	switch user.Kind {
	case domain.KindCompany:
		var f companyProfileForm
		err = h.validator.bindForm(c, &f)
		patch = f.patch(user.Company)
		values = map[string]string{
			"company_name":        f.CompanyName,
			"contact_person_name": f.ContactPersonName,
			"phone":               f.Phone,
			"industry":            f.Industry,
			"website":             f.Website,
		}
	default:
		var f studentProfileForm
		err = h.validator.bindForm(c, &f)
		patch = f.patch(user.Student)
		values = map[string]string{
			"first_name": f.FirstName,
			"last_name":  f.LastName,
			"phone":      f.Phone,
			"headline":   f.Headline,
			"skills":     f.Skills,
		}
	}
	if err != nil {
		return renderFormError(c, profileTemplate(user.Kind), p, err, values)
	}

	ctx := logger.WithOperation(logger.WithUserID(c.Request().Context(), user.ID), "update_profile")
	_, err = v.Store.UpdateProfile(ctx, patch)
	switch {
	case err == nil:
		return c.Redirect(http.StatusSeeOther, h.profilePath(user.Kind)+"?saved=1")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotAuthenticated):
		v.RememberLocation(h.profilePath(user.Kind))
		signIn := h.routes.SignIn
		if user.Kind == domain.KindCompany {
			signIn = h.routes.CompanySignIn
		}
		return c.Redirect(http.StatusSeeOther, signIn)
	case errors.Is(err, domain.ErrValidationFailed):
		var fe *domain.FieldErrors
		if errors.As(err, &fe) {
			p.FieldErrors = fe.Fields
		}
		p.Error = domain.UserMessage(err)
		p.Values = values
		return c.Render(http.StatusUnprocessableEntity, profileTemplate(user.Kind), p)
	default:
		h.logger.ErrorContext(ctx, "profile update failed", "error", err)
		p.Error = domain.UserMessage(err)
		p.Values = values
		return c.Render(mapDomainError(err).Code, profileTemplate(user.Kind), p)
	}
}

func profileValues(u *domain.User) map[string]string {
	switch u.Kind {
	case domain.KindCompany:
		return map[string]string{
			"company_name":        u.Company.CompanyName,
			"contact_person_name": u.Company.ContactPersonName,
			"phone":               u.Company.Phone,
			"industry":            u.Company.Industry,
			"website":             u.Company.Website,
		}
	default:
		return map[string]string{
			"first_name": u.Student.FirstName,
			"last_name":  u.Student.LastName,
			"phone":      u.Student.Phone,
			"headline":   u.Student.Headline,
			"skills":     strings.Join(u.Student.Skills, ", "),
		}
	}
}
