package common

import (
	"encoding/gob"
	"net/http"

	"campustour-web/internal/backend"
	"campustour-web/internal/config"
	"campustour-web/internal/email"
	"campustour-web/internal/models"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/redis/go-redis/v9"
	"github.com/wader/gormstore/v2"
	"gorm.io/gorm"
)

const (
	// SessionName is the cookie-backed session every screen shares.
	SessionName = "session"

	sessionUserKey  = "user"
	sessionFlashKey = "flash"
)

func init() {
	gob.Register(&models.User{})
	gob.Register(Flash{})
}

type SocialAuthProvider interface {
	CompleteUserAuth(res http.ResponseWriter, req *http.Request) (goth.User, error)
}

type ServerState struct {
	Echo        *echo.Echo
	Config      *config.Config
	Backend     *backend.Client
	DB          *gorm.DB
	Store       *gormstore.Store
	Redis       *redis.Client
	EmailClient email.EmailClient
}

// Flash is a one-shot banner carried through the session across a
// redirect-after-post. Kind is "success" or "error".
type Flash struct {
	Kind    string
	Message string
}

// CurrentUser returns the signed-in identity stored in the session, or nil.
func CurrentUser(c echo.Context) *models.User {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return nil
	}
	user, ok := sess.Values[sessionUserKey].(*models.User)
	if !ok {
		return nil
	}
	return user
}

// SaveUser stores the identity in the session after a completed sign-in.
func SaveUser(c echo.Context, user *models.User) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionUserKey] = user
	return sess.Save(c.Request(), c.Response())
}

// ClearUser drops the identity from the session.
func ClearUser(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, sessionUserKey)
	return sess.Save(c.Request(), c.Response())
}

// SetFlash queues a one-shot banner for the next rendered page.
func SetFlash(c echo.Context, kind, message string) {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return
	}
	sess.Values[sessionFlashKey] = Flash{Kind: kind, Message: message}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnf("Failed to save flash message: %v", err)
	}
}

// PopFlash returns the queued banner, if any, and removes it.
func PopFlash(c echo.Context) *Flash {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return nil
	}
	flash, ok := sess.Values[sessionFlashKey].(Flash)
	if !ok {
		return nil
	}
	delete(sess.Values, sessionFlashKey)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnf("Failed to clear flash message: %v", err)
	}
	return &flash
}
