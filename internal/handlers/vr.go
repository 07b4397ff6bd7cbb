package handlers

import (
	"fmt"
	"net/http"
	"time"

	"campustour-web/internal/common"
	"campustour-web/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const viewerTokenTTL = 10 * time.Minute

// issueViewerToken mints the short-lived token that carries panorama state
// from the catalog to the viewer. The viewer has no identity of its own:
// once the token expires the state is gone and /vr falls back to not-found.
func (h *RoomHandler) issueViewerToken(room models.Room) (string, error) {
	claims := jwt.MapClaims{
		"image_url":  room.ImageURL,
		"room_name":  room.RoomName,
		"department": room.Department,
		"exp":        jwt.NewNumericDate(time.Now().Add(viewerTokenTTL)),
		"iat":        jwt.NewNumericDate(time.Now()),
		"purpose":    "vr_view",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.Config.Auth.SessionSecret))
}

// VRHandler renders the immersive viewer screen.
type VRHandler struct {
	common.ServerState
}

func NewVRHandler(state common.ServerState) *VRHandler {
	return &VRHandler{ServerState: state}
}

// ViewerPage renders the panorama for a valid handoff token. Any missing,
// expired or malformed token renders the not-found fallback; a panorama is
// never rendered without a valid image URL.
func (h *VRHandler) ViewerPage(c echo.Context) error {
	room, err := h.parseViewerToken(c.QueryParam("token"))
	if err != nil {
		c.Logger().Infof("Viewer opened without valid state: %v", err)
		return c.Render(http.StatusOK, "room-not-found.html", nil)
	}

	data := map[string]interface{}{
		"ImageURL":   room.ImageURL,
		"RoomName":   room.RoomName,
		"Department": room.Department,
	}
	return c.Render(http.StatusOK, "vr.html", data)
}

func (h *VRHandler) parseViewerToken(tokenString string) (*models.Room, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}

	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(h.Config.Auth.SessionSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing viewer token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	purpose, ok := claims["purpose"].(string)
	if !ok || purpose != "vr_view" {
		return nil, fmt.Errorf("invalid token purpose")
	}

	imageURL, ok := claims["image_url"].(string)
	if !ok || imageURL == "" {
		return nil, fmt.Errorf("missing image URL in token")
	}

	room := &models.Room{ImageURL: imageURL}
	if name, ok := claims["room_name"].(string); ok {
		room.RoomName = name
	}
	if dept, ok := claims["department"].(string); ok {
		room.Department = dept
	}
	return room, nil
}
