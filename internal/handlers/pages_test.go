package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-playground/validator"
	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campustour-web/internal/common"
	"campustour-web/internal/config"
	"campustour-web/internal/email"
	"campustour-web/internal/models"
)

// Every home-page tile must link to a department code the backend accepts,
// including the tiles whose display name differs from the code.
func TestDepartmentTileCodesAreValid(t *testing.T) {
	for _, tile := range departmentTiles {
		if !models.IsValidDepartment(tile.Code) {
			t.Errorf("tile %q links to unknown department code %q", tile.Name, tile.Code)
		}
	}
}

type fakeEmailClient struct {
	contacts []email.ContactMessage
}

func (f *fakeEmailClient) SendAsync(toEmail, subject, htmlBody string) {}

func (f *fakeEmailClient) SendContactEmail(msg email.ContactMessage) {
	f.contacts = append(f.contacts, msg)
}

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newContactTestServer(t *testing.T) (*echo.Echo, *fakeEmailClient) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Auth.SessionSecret = "pages-test-secret"
	emails := &fakeEmailClient{}
	h := NewPageHandler(common.ServerState{
		Config:      cfg,
		EmailClient: emails,
	})

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}
	e.Use(echosession.Middleware(sessions.NewCookieStore([]byte("pages-test-secret"))))
	e.POST("/contact", h.SubmitContact)
	return e, emails
}

func postContact(e *echo.Echo, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSubmitContact(t *testing.T) {
	e, emails := newContactTestServer(t)

	rec := postContact(e, url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"When are campus visits open?"},
	})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/contact", rec.Header().Get("Location"))
	require.Len(t, emails.contacts, 1)
	assert.Equal(t, "Ada", emails.contacts[0].Name)
	assert.Equal(t, "ada@example.com", emails.contacts[0].ReplyTo)
}

func TestSubmitContactRejections(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{
			name: "Missing message",
			form: url.Values{"name": {"Ada"}, "email": {"ada@example.com"}},
		},
		{
			name: "Invalid email",
			form: url.Values{"name": {"Ada"}, "email": {"not-an-email"}, "message": {"hi"}},
		},
		{
			name: "Burner email",
			form: url.Values{"name": {"Ada"}, "email": {"ada@mailinator.com"}, "message": {"hi"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, emails := newContactTestServer(t)

			rec := postContact(e, tt.form)

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/contact", rec.Header().Get("Location"))
			assert.Empty(t, emails.contacts, "no email should be sent")
		})
	}
}
