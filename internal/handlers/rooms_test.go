package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campustour-web/internal/backend"
	"campustour-web/internal/common"
	"campustour-web/internal/config"
)

func roomsState(backendURL string) common.ServerState {
	cfg := &config.Config{}
	cfg.Auth.SessionSecret = "rooms-test-secret"
	cfg.Catalog.DefaultDepartment = "CSE"
	return common.ServerState{
		Config:  cfg,
		Backend: backend.New(backendURL, 5*time.Second),
	}
}

// A catalog URL without a department gets one redirect to the configured
// default; everything else in the query string rides along.
func TestRoomsPageDefaultDepartmentRedirect(t *testing.T) {
	h := NewRoomHandler(roomsState("http://backend.invalid"))

	tests := []struct {
		name         string
		target       string
		wantLocation string
	}{
		{"Bare URL", "/rooms", "/rooms?department=CSE"},
		{"Search preserved", "/rooms?q=lab", "/rooms?department=CSE&q=lab"},
		{"Search and sort preserved", "/rooms?q=lab&sort=name", "/rooms?department=CSE&q=lab&sort=name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, h.RoomsPage(c))
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}
}

// An explicit department, even an empty or unknown one, is never rewritten.
func TestRoomsPageKeepsExplicitDepartment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": []}`))
	}))
	defer srv.Close()

	h := NewRoomHandler(roomsState(srv.URL))

	e := echo.New()
	renderer := &recordingRenderer{}
	e.Renderer = renderer
	req := httptest.NewRequest(http.MethodGet, "/rooms?department=CHEM", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.RoomsPage(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rooms.html", renderer.lastName)
}

// A backend failure renders the catalog with an error banner and a retry
// link pointing back at the same URL, not an error page.
func TestRoomsPageBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"success": false, "error": "upstream down"}`))
	}))
	defer srv.Close()

	h := NewRoomHandler(roomsState(srv.URL))

	e := echo.New()
	renderer := &recordingRenderer{}
	e.Renderer = renderer
	req := httptest.NewRequest(http.MethodGet, "/rooms?department=CSE&q=lab", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.RoomsPage(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rooms.html", renderer.lastName)

	data, ok := renderer.lastData.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Failed to load rooms", data["Error"])
	assert.Equal(t, "/rooms?department=CSE&q=lab", data["RetryURL"])
	assert.NotContains(t, data, "Rooms")
}

func TestViewRoomRedirectsWithToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"data": [{"_id": "r1", "roomName": "Physics Lab", "department": "CSE", "url": "https://cdn.example/pano.jpg", "isActive": true}]
		}`))
	}))
	defer srv.Close()

	state := roomsState(srv.URL)
	h := NewRoomHandler(state)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/rooms/r1/view", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("r1")

	require.NoError(t, h.ViewRoom(c))
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/vr", location.Path)

	// The handed-off token must decode back to the room it was minted for.
	vr := NewVRHandler(state)
	room, err := vr.parseViewerToken(location.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "Physics Lab", room.RoomName)
	assert.Equal(t, "https://cdn.example/pano.jpg", room.ImageURL)
}

func TestViewRoomUnknownIDRedirectsToCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": []}`))
	}))
	defer srv.Close()

	h := NewRoomHandler(roomsState(srv.URL))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/rooms/missing/view", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	require.NoError(t, h.ViewRoom(c))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/rooms", rec.Header().Get("Location"))
}

// Mutations redirect back to the catalog whether the backend call worked or
// not; the redirected GET re-fetches and shows reality.
func TestRoomMutationsAlwaysRedirect(t *testing.T) {
	tests := []struct {
		name    string
		backend http.HandlerFunc
		call    func(h *RoomHandler, c echo.Context) error
	}{
		{
			name: "Delete success",
			backend: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success": true}`))
			},
			call: func(h *RoomHandler, c echo.Context) error { return h.DeleteRoom(c) },
		},
		{
			name: "Delete failure",
			backend: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"success": false, "error": "nope"}`))
			},
			call: func(h *RoomHandler, c echo.Context) error { return h.DeleteRoom(c) },
		},
		{
			name: "Deactivate failure",
			backend: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"success": false, "error": "nope"}`))
			},
			call: func(h *RoomHandler, c echo.Context) error { return h.DeactivateRoom(c) },
		},
		{
			name: "Restore success",
			backend: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success": true}`))
			},
			call: func(h *RoomHandler, c echo.Context) error { return h.RestoreRoom(c) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.backend)
			defer srv.Close()

			h := NewRoomHandler(roomsState(srv.URL))

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/rooms/r1/delete", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues("r1")

			require.NoError(t, tt.call(h, c))
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/rooms", rec.Header().Get("Location"))
		})
	}
}
