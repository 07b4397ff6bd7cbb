// Package backend wraps the rooms REST API. Most endpoints answer with the
// {success, data|error} envelope; /api/health and /api/departments are raw
// JSON, so those are parsed defensively with gjson instead of being bound to
// the envelope.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"campustour-web/internal/models"
)

// APIError is an application-level failure: the backend answered, but with
// success=false. The message is the backend's own error string and is shown
// to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend request failed with status %d", e.StatusCode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	return raw, resp.StatusCode, nil
}

// doEnvelope performs a request against an enveloped endpoint and returns the
// data payload, converting success=false into an *APIError.
func (c *Client) doEnvelope(ctx context.Context, method, path string, body io.Reader, contentType string) (json.RawMessage, error) {
	raw, status, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding response envelope: %w", err)
	}
	if !env.Success {
		return nil, &APIError{StatusCode: status, Message: env.Error}
	}
	return env.Data, nil
}

// ListRooms fetches every room. With includeInactive the backend also
// returns deactivated rooms so administrators can restore them.
func (c *Client) ListRooms(ctx context.Context, includeInactive bool) ([]models.Room, error) {
	path := fmt.Sprintf("/rooms?includeInactive=%t", includeInactive)
	data, err := c.doEnvelope(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}

	var rooms []models.Room
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rooms); err != nil {
			return nil, fmt.Errorf("decoding rooms: %w", err)
		}
	}
	return rooms, nil
}

// UploadRequest is the multipart payload for creating a room. File is
// streamed; Size is used only for the multipart writer, the 10 MiB cap is
// enforced by the caller before any network traffic happens.
type UploadRequest struct {
	RoomName    string
	Department  string
	Description string
	Filename    string
	File        io.Reader
	TraceID     string
}

// UploadRoom posts the multipart form to /upload.
func (c *Client) UploadRoom(ctx context.Context, req UploadRequest) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("panoramaImage", req.Filename)
	if err != nil {
		return fmt.Errorf("creating multipart file field: %w", err)
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return fmt.Errorf("copying upload body: %w", err)
	}

	fields := map[string]string{
		"roomName":    req.RoomName,
		"description": req.Description,
		"department":  req.Department,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("writing multipart field %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	if req.TraceID != "" {
		httpReq.Header.Set("X-Upload-Id", req.TraceID)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decoding response envelope: %w", err)
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	return nil
}

// DeleteRoom removes a room permanently.
func (c *Client) DeleteRoom(ctx context.Context, id string) error {
	_, err := c.doEnvelope(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(id), nil, "")
	return err
}

// DeactivateRoom hides a room from the explore flow without deleting it.
func (c *Client) DeactivateRoom(ctx context.Context, id string) error {
	_, err := c.doEnvelope(ctx, http.MethodPatch, "/rooms/"+url.PathEscape(id)+"/deactivate", nil, "")
	return err
}

// RestoreRoom makes a deactivated room active again.
func (c *Client) RestoreRoom(ctx context.Context, id string) error {
	_, err := c.doEnvelope(ctx, http.MethodPatch, "/rooms/"+url.PathEscape(id)+"/restore", nil, "")
	return err
}

// Health fetches the raw (non-enveloped) health payload. Missing fields stay
// at their zero values; the monitoring page renders placeholders for them.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	raw, status, err := c.do(ctx, http.MethodGet, "/api/health", nil, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Message: "health endpoint unavailable"}
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("health endpoint returned invalid JSON")
	}

	doc := gjson.ParseBytes(raw)
	h := &models.Health{
		Status:      doc.Get("status").String(),
		Uptime:      doc.Get("uptime").Float(),
		Environment: doc.Get("environment").String(),
	}
	if mem := doc.Get("memory"); mem.Exists() {
		h.Memory = &models.HealthMemory{
			RSS:       mem.Get("rss").Int(),
			HeapUsed:  mem.Get("heapUsed").Int(),
			HeapTotal: mem.Get("heapTotal").Int(),
		}
	}
	return h, nil
}

// Stats fetches the enveloped /api/stats payload.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	data, err := c.doEnvelope(ctx, http.MethodGet, "/api/stats", nil, "")
	if err != nil {
		return nil, err
	}

	var stats models.Stats
	if len(data) > 0 {
		if err := json.Unmarshal(data, &stats); err != nil {
			return nil, fmt.Errorf("decoding stats: %w", err)
		}
	}
	return &stats, nil
}

// Departments fetches the raw /api/departments array.
func (c *Client) Departments(ctx context.Context) ([]models.Department, error) {
	raw, status, err := c.do(ctx, http.MethodGet, "/api/departments", nil, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Message: "departments endpoint unavailable"}
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("departments endpoint returned invalid JSON")
	}

	var departments []models.Department
	gjson.ParseBytes(raw).ForEach(func(_, item gjson.Result) bool {
		departments = append(departments, models.Department{
			ID:   item.Get("_id").String(),
			Name: item.Get("name").String(),
		})
		return true
	})
	return departments, nil
}
