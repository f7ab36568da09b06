package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wework-hub/internal/domain"
)

func TestProtected_AnonymousRedirectsAndRemembersLocation(t *testing.T) {
	app := newTestApp(t, &stubTransport{}, time.Second)
	app.e.GET("/dashboard/profile", renderChildren, app.guards.Protected())

	rec := app.do(http.MethodGet, "/dashboard/profile?tab=skills")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	v, _ := app.visitors.Resolve("v-1")
	assert.Equal(t, "/dashboard/profile?tab=skills", v.TakeReturnTo())
}

func TestProtected_AuthenticatedRendersChildren(t *testing.T) {
	tr := &stubTransport{profiles: map[domain.AccountKind]*domain.User{domain.KindStudent: studentUser()}}
	app := newTestApp(t, tr, time.Second)
	app.e.GET("/dashboard", renderChildren, app.guards.Protected())

	rec := app.do(http.MethodGet, "/dashboard")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "children", rec.Body.String())
}

func TestProtected_LoadingRendersPlaceholder(t *testing.T) {
	tr := &stubTransport{block: make(chan struct{})}
	defer close(tr.block)
	app := newTestApp(t, tr, 20*time.Millisecond)
	app.e.GET("/dashboard", renderChildren, app.guards.Protected())

	rec := app.do(http.MethodGet, "/dashboard")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "template:"+LoadingTemplate, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("Refresh"))
	assert.Empty(t, rec.Header().Get("Location"), "no redirect while loading")

	v, _ := app.visitors.Resolve("v-1")
	assert.Empty(t, v.TakeReturnTo())
}

func TestPublicOnly_LoadingBlocksToo(t *testing.T) {
	tr := &stubTransport{block: make(chan struct{})}
	defer close(tr.block)
	app := newTestApp(t, tr, 0)
	app.e.GET("/login", renderChildren, app.guards.PublicOnly(""))

	rec := app.do(http.MethodGet, "/login")

	assert.Equal(t, "template:"+LoadingTemplate, rec.Body.String())
}

func TestCompanyProtected(t *testing.T) {
	tests := []struct {
		name         string
		profiles     map[domain.AccountKind]*domain.User
		wantStatus   int
		wantLocation string
		wantReturnTo string
	}{
		{
			name:         "anonymous goes to company sign in",
			wantStatus:   http.StatusFound,
			wantLocation: "/company/login",
			wantReturnTo: "/company/dashboard",
		},
		{
			name:         "student goes to generic sign in",
			profiles:     map[domain.AccountKind]*domain.User{domain.KindStudent: studentUser()},
			wantStatus:   http.StatusFound,
			wantLocation: "/login",
		},
		{
			name:       "company renders",
			profiles:   map[domain.AccountKind]*domain.User{domain.KindCompany: companyUser()},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, &stubTransport{profiles: tt.profiles}, time.Second)
			app.e.GET("/company/dashboard", renderChildren, app.guards.CompanyProtected())

			rec := app.do(http.MethodGet, "/company/dashboard")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			v, _ := app.visitors.Resolve("v-1")
			assert.Equal(t, tt.wantReturnTo, v.TakeReturnTo())
		})
	}
}

func TestPublicOnly_AuthenticatedRedirectsToDashboard(t *testing.T) {
	tests := []struct {
		name    string
		user    *domain.User
		landing string
		want    string
	}{
		{"student", studentUser(), "", "/dashboard"},
		{"company", companyUser(), "", "/company/dashboard"},
		{"override", studentUser(), "/welcome", "/welcome"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &stubTransport{profiles: map[domain.AccountKind]*domain.User{tt.user.Kind: tt.user}}
			app := newTestApp(t, tr, time.Second)
			app.e.GET("/login", renderChildren, app.guards.PublicOnly(tt.landing))

			rec := app.do(http.MethodGet, "/login")

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}
}

func TestPublicOnly_AnonymousRendersChildren(t *testing.T) {
	app := newTestApp(t, &stubTransport{}, time.Second)
	app.e.GET("/login", renderChildren, app.guards.PublicOnly(""))

	rec := app.do(http.MethodGet, "/login")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "children", rec.Body.String())
}

func TestGuard_PostRedirectUsesSeeOther(t *testing.T) {
	app := newTestApp(t, &stubTransport{}, time.Second)
	app.e.POST("/dashboard/profile", renderChildren, app.guards.Protected())

	rec := app.do(http.MethodPost, "/dashboard/profile")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
