package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wework-hub/internal/domain"
)

func formContext(values url.Values) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestBindForm_TrimsAllButPassword(t *testing.T) {
	var f loginForm
	err := NewFormValidator().bindForm(formContext(url.Values{
		"email":    {"  ada@example.com "},
		"password": {" spaced "},
	}), &f)

	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", f.Email)
	assert.Equal(t, " spaced ", f.Password)
}

func TestBindForm_ReportsFieldsByFormName(t *testing.T) {
	var f companySignupForm
	err := NewFormValidator().bindForm(formContext(url.Values{
		"email":    {"hr@acme.test"},
		"password": {"short"},
		"website":  {"not a url"},
	}), &f)

	var fe *domain.FieldErrors
	require.ErrorAs(t, err, &fe)
	require.ErrorIs(t, err, domain.ErrValidationFailed)
	assert.Equal(t, "company name is required", fe.Fields["company_name"])
	assert.Equal(t, "contact person name is required", fe.Fields["contact_person_name"])
	assert.Equal(t, "must be at least 8 characters long", fe.Fields["password"])
	assert.Equal(t, "must be a valid URL", fe.Fields["website"])
	assert.NotContains(t, fe.Fields, "email")
}

func TestBindForm_OptionalPassword(t *testing.T) {
	var f studentSignupForm
	err := NewFormValidator().bindForm(formContext(url.Values{
		"email":      {"ada@example.com"},
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
	}), &f)

	require.NoError(t, err)
	assert.Empty(t, f.toDomain().Password)
	assert.NotContains(t, f.draft(), "password")
}

func TestStudentProfileForm_PatchHasOnlyChanges(t *testing.T) {
	cur := &domain.StudentProfile{FirstName: "Ada", LastName: "Lovelace", Skills: []string{"math", "poetry"}}
	f := studentProfileForm{FirstName: "Ada", LastName: "King", Skills: "math, poetry"}

	p := f.patch(cur)

	require.NotNil(t, p.LastName)
	assert.Equal(t, "King", *p.LastName)
	assert.Nil(t, p.FirstName)
	assert.Nil(t, p.Headline)
	assert.Nil(t, p.Skills, "reformatted but equal skills are unchanged")
}

func TestStudentProfileForm_ClearingSkills(t *testing.T) {
	cur := &domain.StudentProfile{FirstName: "Ada", LastName: "Lovelace", Skills: []string{"math"}}
	f := studentProfileForm{FirstName: "Ada", LastName: "Lovelace", Skills: " , "}

	p := f.patch(cur)

	assert.NotNil(t, p.Skills)
	assert.Empty(t, p.Skills)
}

func TestCompanyProfileForm_Patch(t *testing.T) {
	cur := &domain.CompanyProfile{CompanyName: "Acme", ContactPersonName: "Wile"}
	f := companyProfileForm{CompanyName: "Acme", ContactPersonName: "Wile", Industry: "Anvils"}

	p := f.patch(cur)

	require.NotNil(t, p.Industry)
	assert.Equal(t, "Anvils", *p.Industry)
	assert.Nil(t, p.CompanyName)
	assert.False(t, p.IsEmpty())
}

func TestSplitSkills(t *testing.T) {
	assert.Equal(t, []string{"go", "sql"}, splitSkills(" go ,, sql,"))
	assert.Equal(t, []string{}, splitSkills(""))
}
