package handlers

import (
	"net/http"
	"strings"

	"campustour-web/internal/common"
	"campustour-web/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
)

// AuthHandler owns the sign-in/sign-out surface. Identity comes entirely
// from the external providers wired through goth; there is no local
// credential store.
type AuthHandler struct {
	common.ServerState
	SocialAuth common.SocialAuthProvider
}

func NewAuthHandler(state common.ServerState, socialAuth common.SocialAuthProvider) *AuthHandler {
	return &AuthHandler{
		ServerState: state,
		SocialAuth:  socialAuth,
	}
}

type RealGothicProvider struct{}

func (r *RealGothicProvider) CompleteUserAuth(res http.ResponseWriter, req *http.Request) (goth.User, error) {
	return gothic.CompleteUserAuth(res, req)
}

// LoginPage renders the provider buttons. A `next` query parameter carries
// the gated path the user originally asked for.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return h.renderSignInSurface(c, "login.html")
}

// SignupPage renders the same provider buttons with sign-up copy.
func (h *AuthHandler) SignupPage(c echo.Context) error {
	return h.renderSignInSurface(c, "signup.html")
}

func (h *AuthHandler) renderSignInSurface(c echo.Context, template string) error {
	if user := common.CurrentUser(c); user != nil {
		return c.Redirect(http.StatusFound, "/rooms")
	}
	data := map[string]interface{}{
		"Next":  sanitizeNext(c.QueryParam("next")),
		"Flash": common.PopFlash(c),
	}
	return c.Render(http.StatusOK, template, data)
}

// SocialLogin begins the OAuth flow for the provider in the path.
func (h *AuthHandler) SocialLogin(c echo.Context) error {
	provider := c.Param("provider")

	if next := sanitizeNext(c.QueryParam("next")); next != "" {
		sess, err := session(c)
		if err == nil {
			sess.Values["post_login_redirect"] = next
			sess.Save(c.Request(), c.Response())
		}
	}

	req := c.Request()
	// Set the provider in the query parameters for gothic to work
	q := req.URL.Query()
	q.Set("provider", provider)
	req.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Response(), req)
	return nil
}

// SocialLoginCallback completes the OAuth flow and stores the identity in
// the session.
func (h *AuthHandler) SocialLoginCallback(c echo.Context) error {
	gothUser, err := h.SocialAuth.CompleteUserAuth(c.Response(), c.Request())
	if err != nil {
		return err
	}

	if gothUser.Email == "" {
		c.Logger().Error("User email is empty from provider")
		return echo.NewHTTPError(http.StatusBadRequest, "Email is required but not provided by the authentication provider")
	}

	user := &models.User{
		Email:     gothUser.Email,
		Name:      displayName(gothUser),
		AvatarURL: gothUser.AvatarURL,
		Provider:  c.Param("provider"),
	}

	if err := common.SaveUser(c, user); err != nil {
		c.Logger().Errorf("Failed to save session: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save session")
	}

	redirect := "/rooms"
	sess, err := session(c)
	if err == nil {
		if next, ok := sess.Values["post_login_redirect"].(string); ok && next != "" {
			redirect = next
		}
		delete(sess.Values, "post_login_redirect")
		sess.Save(c.Request(), c.Response())
	}

	c.Logger().Infof("Signed in %s via %s", user.Email, user.Provider)
	return c.Redirect(http.StatusFound, redirect)
}

// Logout clears the session identity.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := common.ClearUser(c); err != nil {
		c.Logger().Warnf("Failed to clear session: %v", err)
	}
	return c.Redirect(http.StatusFound, "/")
}

// ProfilePage shows the provider-supplied identity.
func (h *AuthHandler) ProfilePage(c echo.Context) error {
	user := common.CurrentUser(c)
	data := map[string]interface{}{
		"User":    user,
		"IsAdmin": user.IsAdmin(h.Config.Admin.Emails),
	}
	return c.Render(http.StatusOK, "profile.html", data)
}

// RequireUser gates a route group. Unauthenticated requests get the sign-in
// surface rendered in place of the requested screen, never the screen
// itself.
func (h *AuthHandler) RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if common.CurrentUser(c) == nil {
				data := map[string]interface{}{
					"Next": c.Request().URL.RequestURI(),
				}
				return c.Render(http.StatusOK, "login.html", data)
			}
			return next(c)
		}
	}
}

func displayName(u goth.User) string {
	if u.Name != "" {
		return u.Name
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return u.NickName
}

// sanitizeNext keeps post-login redirects on this site.
func sanitizeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
