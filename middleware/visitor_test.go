package middleware

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitor_IssuesCookieForNewVisitor(t *testing.T) {
	app := newTestApp(t, &stubTransport{}, 0)
	var seen string
	app.e.GET("/", func(c echo.Context) error {
		v, found := VisitorFrom(c)
		require.True(t, found)
		seen = v.ID
		return c.NoContent(http.StatusOK)
	})

	rec := app.do(http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v-1", seen)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, VisitorCookieName, cookies[0].Name)
	assert.Equal(t, "tok:v-1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, 1, app.visitors.Len())
}

func TestVisitor_ReusesKnownVisitor(t *testing.T) {
	app := newTestApp(t, &stubTransport{}, 0)
	app.e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	first := app.do(http.MethodGet, "/")
	require.Len(t, first.Result().Cookies(), 1)

	second := app.do(http.MethodGet, "/", visitorCookie("v-1"))
	assert.Empty(t, second.Result().Cookies(), "a known visitor keeps its cookie")
	assert.Equal(t, 1, app.visitors.Len())
}

func TestVisitor_InvalidCookieMintsNewVisitor(t *testing.T) {
	app := newTestApp(t, &stubTransport{}, 0)
	app.e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := app.do(http.MethodGet, "/", &http.Cookie{Name: VisitorCookieName, Value: "forged"})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tok:v-1", cookies[0].Value)
}

func TestVisitor_BootstrapResolvesSession(t *testing.T) {
	app := newTestApp(t, &stubTransport{}, 0)
	app.e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	app.do(http.MethodGet, "/")
	v, _ := app.visitors.Resolve("v-1")

	assert.Eventually(t, func() bool {
		return !v.Store.Snapshot().IsLoading()
	}, time.Second, 5*time.Millisecond, "bootstrap settles without further requests")
	assert.False(t, v.Store.Snapshot().IsAuthenticated())
}

func expiringCookie(id string, in time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:  VisitorCookieName,
		Value: "tok:" + id + "@" + strconv.FormatInt(time.Now().Add(in).Unix(), 10),
	}
}

func TestVisitor_RenewsCookiePastHalfLife(t *testing.T) {
	app := newTestApp(t, &stubTransport{}, 0)
	app.e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	app.do(http.MethodGet, "/")

	young := app.do(http.MethodGet, "/", expiringCookie("v-1", 50*time.Minute))
	assert.Empty(t, young.Result().Cookies(), "a young cookie is left alone")
	assert.Empty(t, app.touchedIDs())

	old := app.do(http.MethodGet, "/", expiringCookie("v-1", 10*time.Minute))
	cookies := old.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tok:v-1", cookies[0].Value, "the same visitor gets a fresh cookie")
	assert.Equal(t, int(time.Hour.Seconds()), cookies[0].MaxAge)
	assert.Equal(t, []string{"v-1"}, app.touchedIDs())
	assert.Equal(t, 1, app.visitors.Len())
}

