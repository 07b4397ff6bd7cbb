package handlers

import (
	"context"
	"net/http"
	"net/url"

	"campustour-web/internal/catalog"
	"campustour-web/internal/common"

	"github.com/labstack/echo/v4"
)

// RoomHandler serves the catalog screen and the admin room mutations
// reachable from it. Every mutation redirects back to /rooms so the next
// request re-fetches the list from the backend; there is no optimistic
// local patching.
type RoomHandler struct {
	common.ServerState
}

func NewRoomHandler(state common.ServerState) *RoomHandler {
	return &RoomHandler{ServerState: state}
}

// RoomsPage renders the catalog. The department criterion lives in the URL
// so a filtered view stays shareable; search and sort are per-request.
func (h *RoomHandler) RoomsPage(c echo.Context) error {
	// First visit without a department gets redirected once to the
	// configured default. A department already in the URL is never
	// overwritten.
	if !c.QueryParams().Has("department") {
		params := c.QueryParams()
		params.Set("department", h.Config.Catalog.DefaultDepartment)
		return c.Redirect(http.StatusFound, "/rooms?"+params.Encode())
	}

	query := catalog.Query{
		Department: c.QueryParam("department"),
		Search:     c.QueryParam("q"),
		Sort:       c.QueryParam("sort"),
	}.Normalize()

	user := common.CurrentUser(c)
	data := map[string]interface{}{
		"User":    user,
		"IsAdmin": user.IsAdmin(h.Config.Admin.Emails),
		"Query":   query,
		"Flash":   common.PopFlash(c),
	}

	rooms, err := h.Backend.ListRooms(c.Request().Context(), true)
	if err != nil {
		c.Logger().Errorf("Failed to fetch rooms: %v", err)
		CaptureError(err)
		data["Error"] = "Failed to load rooms"
		data["RetryURL"] = c.Request().URL.RequestURI()
		return c.Render(http.StatusOK, "rooms.html", data)
	}

	data["Rooms"] = catalog.Project(rooms, query)
	return c.Render(http.StatusOK, "rooms.html", data)
}

// ViewRoom hands a room off to the viewer: it validates the room still
// exists, mints a short-lived viewer token carrying the panorama state and
// redirects to /vr. Opening /vr without going through here has no state and
// renders the not-found fallback.
func (h *RoomHandler) ViewRoom(c echo.Context) error {
	roomID := c.Param("id")

	rooms, err := h.Backend.ListRooms(c.Request().Context(), true)
	if err != nil {
		c.Logger().Errorf("Failed to fetch rooms for viewer handoff: %v", err)
		common.SetFlash(c, "error", "Failed to load rooms")
		return c.Redirect(http.StatusFound, "/rooms")
	}

	for _, room := range rooms {
		if room.ID != roomID {
			continue
		}
		token, err := h.issueViewerToken(room)
		if err != nil {
			c.Logger().Errorf("Failed to issue viewer token: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open room")
		}
		return c.Redirect(http.StatusFound, "/vr?token="+url.QueryEscape(token))
	}

	common.SetFlash(c, "error", "Room not found")
	return c.Redirect(http.StatusFound, "/rooms")
}

// DeleteRoom permanently removes a room. The confirmation step happens in
// the template before this POST is issued.
func (h *RoomHandler) DeleteRoom(c echo.Context) error {
	return h.mutate(c, "delete", h.Backend.DeleteRoom)
}

// DeactivateRoom hides a room from the explore flow.
func (h *RoomHandler) DeactivateRoom(c echo.Context) error {
	return h.mutate(c, "deactivate", h.Backend.DeactivateRoom)
}

// RestoreRoom reactivates a deactivated room.
func (h *RoomHandler) RestoreRoom(c echo.Context) error {
	return h.mutate(c, "restore", h.Backend.RestoreRoom)
}

func (h *RoomHandler) mutate(c echo.Context, action string, call func(ctx context.Context, id string) error) error {
	roomID := c.Param("id")

	if err := call(c.Request().Context(), roomID); err != nil {
		c.Logger().Errorf("Failed to %s room %s: %v", action, roomID, err)
		common.SetFlash(c, "error", "Failed to "+action+" room")
	}

	// Unconditional re-fetch on the redirected GET keeps the screen
	// consistent without request sequencing.
	return c.Redirect(http.StatusFound, "/rooms")
}
