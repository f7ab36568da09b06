package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"wework-hub/internal/domain"
	appmiddleware "wework-hub/middleware"
	"wework-hub/utils/logger"
)

// AuthHandler serves the sign-in, sign-up and logout forms for both account
// kinds.
type AuthHandler struct {
	routes    domain.Routes
	validator *FormValidator
	drafts    domain.DraftStore
	logger    *slog.Logger
}

// NewAuthHandler creates a new auth handler. drafts may be nil.
func NewAuthHandler(routes domain.Routes, v *FormValidator, drafts domain.DraftStore, l *slog.Logger) *AuthHandler {
	return &AuthHandler{routes: routes, validator: v, drafts: drafts, logger: l}
}

func loginTitle(kind domain.AccountKind) string {
	if kind == domain.KindCompany {
		return "Company sign in"
	}
	return "Sign in"
}

func signupTitle(kind domain.AccountKind) string {
	if kind == domain.KindCompany {
		return "Register your company"
	}
	return "Create your student account"
}

func (h *AuthHandler) loginPath(kind domain.AccountKind) string {
	if kind == domain.KindCompany {
		return h.routes.CompanySignIn
	}
	return h.routes.SignIn
}

func signupPath(kind domain.AccountKind) string {
	if kind == domain.KindCompany {
		return "/company/signup"
	}
	return "/signup"
}

func signupTemplate(kind domain.AccountKind) string {
	if kind == domain.KindCompany {
		return "signup_company"
	}
	return "signup_student"
}

func signupDraft(kind domain.AccountKind) string {
	if kind == domain.KindCompany {
		return draftCompanySignup
	}
	return draftStudentSignup
}

// ShowLogin renders the sign-in form for kind.
func (h *AuthHandler) ShowLogin(kind domain.AccountKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := newPage(c, h.routes, loginTitle(kind))
		p.Action = h.loginPath(kind)
		p.Kind = kind
		if c.QueryParam("created") != "" {
			p.Notice = "Account created. Sign in once you have set your password."
		}
		return c.Render(http.StatusOK, "login", p)
	}
}

// Login authenticates against kind's namespace and honours the location a
// guard remembered.
func (h *AuthHandler) Login(kind domain.AccountKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		v, err := visitor(c)
		if err != nil {
			return err
		}
		ctx := logger.WithOperation(logger.WithAccountKind(c.Request().Context(), kind.String()), "login")

		p := newPage(c, h.routes, loginTitle(kind))
		p.Action = h.loginPath(kind)
		p.Kind = kind

		var form loginForm
		if err := h.validator.bindForm(c, &form); err != nil {
			return renderFormError(c, "login", p, err, map[string]string{"email": form.Email})
		}

		res := v.Store.Login(ctx, kind, domain.Credentials{Email: form.Email, Password: form.Password})
		if !res.Success {
			return c.Render(http.StatusUnprocessableEntity, "login", failedPage(p, res, map[string]string{"email": form.Email}))
		}

		target := v.TakeReturnTo()
		if target == "" {
			target = h.routes.Dashboard(res.User.Kind)
		}
		return c.Redirect(http.StatusSeeOther, target)
	}
}

// ShowSignup renders the registration form, prefilled from a saved draft.
func (h *AuthHandler) ShowSignup(kind domain.AccountKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := newPage(c, h.routes, signupTitle(kind))
		p.Action = signupPath(kind)
		p.Kind = kind
		if v, ok := appmiddleware.VisitorFrom(c); ok && h.drafts != nil {
			values, err := h.drafts.Load(c.Request().Context(), v.ID, signupDraft(kind))
			if err != nil {
				h.logger.WarnContext(c.Request().Context(), "failed to load signup draft", "error", err)
			}
			p.Values = values
		}
		return c.Render(http.StatusOK, signupTemplate(kind), p)
	}
}

// Signup registers an account. A failed attempt keeps the entered values,
// except the password, as a draft.
func (h *AuthHandler) Signup(kind domain.AccountKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		v, err := visitor(c)
		if err != nil {
			return err
		}
		ctx := logger.WithOperation(logger.WithAccountKind(c.Request().Context(), kind.String()), "signup")

		p := newPage(c, h.routes, signupTitle(kind))
		p.Action = signupPath(kind)
		p.Kind = kind

		var (
			form   domain.SignupForm
			values map[string]string
		)
		switch kind {
		case domain.KindCompany:
			var f companySignupForm
			err = h.validator.bindForm(c, &f)
			form, values = f.toDomain(), f.draft()
		default:
			var f studentSignupForm
			err = h.validator.bindForm(c, &f)
			form, values = f.toDomain(), f.draft()
		}
		if err != nil {
			h.saveDraft(c, v.ID, kind, values)
			return renderFormError(c, signupTemplate(kind), p, err, values)
		}

		res := v.Store.Signup(ctx, kind, form)
		if !res.Success {
			h.saveDraft(c, v.ID, kind, values)
			return c.Render(http.StatusUnprocessableEntity, signupTemplate(kind), failedPage(p, res, values))
		}
		h.saveDraft(c, v.ID, kind, nil)

		if res.User == nil {
			return c.Redirect(http.StatusSeeOther, h.loginPath(kind)+"?created=1")
		}
		return c.Redirect(http.StatusSeeOther, h.routes.Dashboard(res.User.Kind))
	}
}

// Logout ends the session. The clear_local_data field also purges drafts.
func (h *AuthHandler) Logout(c echo.Context) error {
	v, err := visitor(c)
	if err != nil {
		return err
	}
	raw := c.FormValue("clear_local_data")
	clearLocal, _ := strconv.ParseBool(raw)
	if raw == "on" {
		clearLocal = true
	}

	v.Store.Logout(logger.WithOperation(c.Request().Context(), "logout"), clearLocal)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) saveDraft(c echo.Context, visitorID string, kind domain.AccountKind, values map[string]string) {
	if h.drafts == nil {
		return
	}
	if err := h.drafts.Save(c.Request().Context(), visitorID, signupDraft(kind), values); err != nil {
		h.logger.WarnContext(c.Request().Context(), "failed to save signup draft", "error", err)
	}
}

// renderFormError re-renders a form after caller-side validation failed.
func renderFormError(c echo.Context, name string, p Page, err error, values map[string]string) error {
	var fe *domain.FieldErrors
	if !errors.As(err, &fe) {
		return err
	}
	p.Error = domain.UserMessage(fe)
	p.FieldErrors = fe.Fields
	p.Values = values
	return c.Render(http.StatusUnprocessableEntity, name, p)
}
