package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeNext(t *testing.T) {
	tests := []struct {
		name     string
		next     string
		expected string
	}{
		{"Relative path", "/rooms", "/rooms"},
		{"Path with query", "/rooms?department=CSE", "/rooms?department=CSE"},
		{"Empty", "", ""},
		{"Absolute URL", "https://evil.example/phish", ""},
		{"Protocol-relative URL", "//evil.example/phish", ""},
		{"No leading slash", "rooms", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeNext(tt.next)
			if result != tt.expected {
				t.Errorf("sanitizeNext(%q) = %q; expected %q", tt.next, result, tt.expected)
			}
		})
	}
}

// A gated route visited without a session renders the sign-in surface in
// place, carrying the requested URL so sign-in can return there.
func TestRequireUserRendersLogin(t *testing.T) {
	h := NewAuthHandler(testState(), &RealGothicProvider{})

	e := echo.New()
	renderer := &recordingRenderer{}
	e.Renderer = renderer
	e.Use(echosession.Middleware(sessions.NewCookieStore([]byte("auth-test-secret"))))
	e.GET("/rooms", func(c echo.Context) error {
		t.Fatal("gated handler should not run without a session user")
		return nil
	}, h.RequireUser())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rooms?department=CSE", nil)
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "login.html", renderer.lastName)

	data, ok := renderer.lastData.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/rooms?department=CSE", data["Next"])
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		user     goth.User
		expected string
	}{
		{"Full name set", goth.User{Name: "Ada Lovelace", NickName: "ada"}, "Ada Lovelace"},
		{"First and last name", goth.User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"First name only", goth.User{FirstName: "Ada"}, "Ada"},
		{"Nickname fallback", goth.User{NickName: "ada"}, "ada"},
		{"Nothing set", goth.User{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := displayName(tt.user)
			if result != tt.expected {
				t.Errorf("displayName(%+v) = %q; expected %q", tt.user, result, tt.expected)
			}
		})
	}
}
