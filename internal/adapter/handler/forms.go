package handler

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"wework-hub/internal/domain"
)

// Draft form names.
const (
	draftStudentSignup = "signup:student"
	draftCompanySignup = "signup:company"
)

type loginForm struct {
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,max=128"`
}

type studentSignupForm struct {
	Email     string `form:"email" validate:"required,email,max=254"`
	Password  string `form:"password" validate:"omitempty,min=8,max=128"`
	FirstName string `form:"first_name" validate:"required,max=100"`
	LastName  string `form:"last_name" validate:"required,max=100"`
	Phone     string `form:"phone" validate:"omitempty,max=32"`
}

type companySignupForm struct {
	Email             string `form:"email" validate:"required,email,max=254"`
	Password          string `form:"password" validate:"omitempty,min=8,max=128"`
	CompanyName       string `form:"company_name" validate:"required,max=200"`
	ContactPersonName string `form:"contact_person_name" validate:"required,max=100"`
	Phone             string `form:"phone" validate:"omitempty,max=32"`
	Industry          string `form:"industry" validate:"omitempty,max=100"`
	Website           string `form:"website" validate:"omitempty,url,max=2048"`
}

type studentProfileForm struct {
	FirstName string `form:"first_name" validate:"required,max=100"`
	LastName  string `form:"last_name" validate:"required,max=100"`
	Phone     string `form:"phone" validate:"omitempty,max=32"`
	Headline  string `form:"headline" validate:"omitempty,max=200"`
	Skills    string `form:"skills" validate:"omitempty,max=1000"`
}

type companyProfileForm struct {
	CompanyName       string `form:"company_name" validate:"required,max=200"`
	ContactPersonName string `form:"contact_person_name" validate:"required,max=100"`
	Phone             string `form:"phone" validate:"omitempty,max=32"`
	Industry          string `form:"industry" validate:"omitempty,max=100"`
	Website           string `form:"website" validate:"omitempty,url,max=2048"`
}

// FormValidator checks submitted forms before they reach the session store.
type FormValidator struct {
	validate *validator.Validate
}

// NewFormValidator creates a validator reporting errors by form field name.
func NewFormValidator() *FormValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &FormValidator{validate: v}
}

// bindForm trims and binds the request form into dst and validates it. The
// returned error is a *domain.FieldErrors when the form is invalid.
func (fv *FormValidator) bindForm(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return &domain.FieldErrors{Message: "The form could not be read."}
	}
	trimStrings(dst)

	err := fv.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &domain.FieldErrors{Message: "Please correct the highlighted fields.", Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// trimStrings trims surrounding whitespace from every string field except
// passwords.
func trimStrings(dst any) {
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()
	for i := range rv.NumField() {
		f := rv.Field(i)
		if f.Kind() != reflect.String || !f.CanSet() || rt.Field(i).Name == "Password" {
			continue
		}
		f.SetString(strings.TrimSpace(f.String()))
	}
}

func (f studentSignupForm) toDomain() domain.SignupForm {
	return domain.SignupForm{
		Email:    f.Email,
		Password: f.Password,
		Student:  &domain.StudentProfile{FirstName: f.FirstName, LastName: f.LastName, Phone: f.Phone},
	}
}

func (f studentSignupForm) draft() map[string]string {
	return map[string]string{
		"email":      f.Email,
		"first_name": f.FirstName,
		"last_name":  f.LastName,
		"phone":      f.Phone,
	}
}

func (f companySignupForm) toDomain() domain.SignupForm {
	return domain.SignupForm{
		Email:    f.Email,
		Password: f.Password,
		Company: &domain.CompanyProfile{
			CompanyName:       f.CompanyName,
			ContactPersonName: f.ContactPersonName,
			Phone:             f.Phone,
			Industry:          f.Industry,
			Website:           f.Website,
		},
	}
}

func (f companySignupForm) draft() map[string]string {
	return map[string]string{
		"email":               f.Email,
		"company_name":        f.CompanyName,
		"contact_person_name": f.ContactPersonName,
		"phone":               f.Phone,
		"industry":            f.Industry,
		"website":             f.Website,
	}
}

// patch returns only the fields that differ from the current profile.
func (f studentProfileForm) patch(cur *domain.StudentProfile) domain.ProfilePatch {
	var p domain.ProfilePatch
	p.FirstName = changed(cur.FirstName, f.FirstName)
	p.LastName = changed(cur.LastName, f.LastName)
	p.Phone = changed(cur.Phone, f.Phone)
	p.Headline = changed(cur.Headline, f.Headline)
	if skills := splitSkills(f.Skills); !slices.Equal(skills, cur.Skills) {
		p.Skills = skills
	}
	return p
}

func (f companyProfileForm) patch(cur *domain.CompanyProfile) domain.ProfilePatch {
	var p domain.ProfilePatch
	p.CompanyName = changed(cur.CompanyName, f.CompanyName)
	p.ContactPersonName = changed(cur.ContactPersonName, f.ContactPersonName)
	p.Phone = changed(cur.Phone, f.Phone)
	p.Industry = changed(cur.Industry, f.Industry)
	p.Website = changed(cur.Website, f.Website)
	return p
}

func changed(cur, next string) *string {
	if cur == next {
		return nil
	}
	return &next
}

func splitSkills(s string) []string {
	out := []string{}
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
