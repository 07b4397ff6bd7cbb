package handlers

import (
	"campustour-web/internal/common"

	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

func session(c echo.Context) (*sessions.Session, error) {
	return echosession.Get(common.SessionName, c)
}
