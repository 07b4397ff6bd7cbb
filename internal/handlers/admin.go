package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"campustour-web/internal/backend"
	"campustour-web/internal/common"
	"campustour-web/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxUploadBytes caps panorama uploads at 10 MiB, matching the backend's
// own limit so oversized files are rejected before leaving this process.
const maxUploadBytes = 10 << 20

// AdminHandler serves the management panel: the upload form and the room
// table with per-row delete.
type AdminHandler struct {
	common.ServerState
}

func NewAdminHandler(state common.ServerState) *AdminHandler {
	return &AdminHandler{ServerState: state}
}

// AdminPage renders the upload form and the management table.
func (h *AdminHandler) AdminPage(c echo.Context) error {
	user := common.CurrentUser(c)
	data := map[string]interface{}{
		"User":        user,
		"IsAdmin":     user.IsAdmin(h.Config.Admin.Emails),
		"Departments": models.DepartmentCodes,
		"Flash":       common.PopFlash(c),
	}

	rooms, err := h.Backend.ListRooms(c.Request().Context(), true)
	if err != nil {
		c.Logger().Errorf("Failed to fetch rooms for admin panel: %v", err)
		CaptureError(err)
		data["Error"] = "Failed to load rooms"
		return c.Render(http.StatusOK, "admin.html", data)
	}

	data["Rooms"] = rooms
	return c.Render(http.StatusOK, "admin.html", data)
}

// UploadRoom validates the upload form and forwards it to the backend's
// multipart endpoint. Validation failures flash an error and never issue a
// backend request.
func (h *AdminHandler) UploadRoom(c echo.Context) error {
	// Reject oversized bodies while they stream in rather than buffering
	// them. Leave headroom for the non-file form fields.
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxUploadBytes+64<<10)

	// Parse the form up front so a tripped body cap surfaces here, where it
	// can be reported as a size problem instead of as missing fields.
	if err := c.Request().ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return h.uploadRejected(c, "File size must be less than 10MB")
		}
		c.Logger().Warnf("Failed to parse upload form: %v", err)
		return h.uploadRejected(c, "Invalid upload form")
	}

	roomName := strings.TrimSpace(c.FormValue("roomName"))
	department := strings.TrimSpace(c.FormValue("department"))
	description := strings.TrimSpace(c.FormValue("description"))

	if roomName == "" || department == "" {
		return h.uploadRejected(c, "Room name and department are required")
	}
	if !models.IsValidDepartment(department) {
		return h.uploadRejected(c, "Unknown department code")
	}

	fileHeader, err := c.FormFile("panoramaImage")
	if err != nil {
		return h.uploadRejected(c, "Please select a panorama image")
	}
	if fileHeader.Size > maxUploadBytes {
		return h.uploadRejected(c, "File size must be less than 10MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Logger().Errorf("Failed to open uploaded file: %v", err)
		return h.uploadRejected(c, "Failed to read uploaded file")
	}
	defer file.Close()

	if !isImage(file, fileHeader) {
		return h.uploadRejected(c, "Please select an image file")
	}

	traceID := newUploadTraceID()
	err = h.Backend.UploadRoom(c.Request().Context(), backend.UploadRequest{
		RoomName:    roomName,
		Department:  department,
		Description: description,
		Filename:    fileHeader.Filename,
		File:        file,
		TraceID:     traceID,
	})
	if err != nil {
		c.Logger().Errorf("Upload %s failed: %v", traceID, err)
		if apiErr, ok := err.(*backend.APIError); ok && apiErr.Message != "" {
			// The backend's own error string is shown verbatim.
			common.SetFlash(c, "error", apiErr.Message)
		} else {
			CaptureError(err)
			common.SetFlash(c, "error", "Upload failed")
		}
		return c.Redirect(http.StatusFound, "/admin")
	}

	c.Logger().Infof("Upload %s succeeded: %q (%s)", traceID, roomName, department)
	common.SetFlash(c, "success", "Room uploaded successfully!")
	// Redirect-after-post resets the form and re-fetches the table.
	return c.Redirect(http.StatusFound, "/admin")
}

// DeleteRoom removes a room from the management table. The confirm dialog
// runs in the template before this POST.
func (h *AdminHandler) DeleteRoom(c echo.Context) error {
	roomID := c.Param("id")

	if err := h.Backend.DeleteRoom(c.Request().Context(), roomID); err != nil {
		c.Logger().Errorf("Failed to delete room %s: %v", roomID, err)
		if apiErr, ok := err.(*backend.APIError); ok && apiErr.Message != "" {
			common.SetFlash(c, "error", apiErr.Message)
		} else {
			common.SetFlash(c, "error", "Delete failed")
		}
		return c.Redirect(http.StatusFound, "/admin")
	}

	common.SetFlash(c, "success", "Room deleted successfully")
	return c.Redirect(http.StatusFound, "/admin")
}

func (h *AdminHandler) uploadRejected(c echo.Context, message string) error {
	common.SetFlash(c, "error", message)
	return c.Redirect(http.StatusFound, "/admin")
}

// isImage sniffs the file content rather than trusting the client-supplied
// header alone.
func isImage(file multipart.File, header *multipart.FileHeader) bool {
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if _, err := file.Seek(0, 0); err != nil {
		return false
	}
	if strings.HasPrefix(http.DetectContentType(buf[:n]), "image/") {
		return true
	}
	// SVG and some camera formats sniff as text/xml or octet-stream; fall
	// back to the declared type for those.
	return strings.HasPrefix(header.Header.Get("Content-Type"), "image/")
}

func newUploadTraceID() string {
	// UUIDv7 keeps trace IDs time-ordered in logs.
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
