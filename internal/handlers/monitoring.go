package handlers

import (
	"fmt"
	"net/http"
	"sync"

	"campustour-web/internal/common"
	"campustour-web/internal/models"

	"github.com/labstack/echo/v4"
)

// MonitoringHandler renders the backend health/stats dashboard. The two
// fetches run concurrently and a failure of either is logged, not surfaced
// as a blocking error; missing data renders as placeholders.
type MonitoringHandler struct {
	common.ServerState
}

func NewMonitoringHandler(state common.ServerState) *MonitoringHandler {
	return &MonitoringHandler{ServerState: state}
}

// monitoringSnapshot is one poll of both endpoints. Either field may be nil
// after a partial failure.
type monitoringSnapshot struct {
	Health *models.Health `json:"health"`
	Stats  *models.Stats  `json:"stats"`
}

func (h *MonitoringHandler) fetch(c echo.Context) monitoringSnapshot {
	ctx := c.Request().Context()
	var snap monitoringSnapshot

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		health, err := h.Backend.Health(ctx)
		if err != nil {
			c.Logger().Warnf("Failed to fetch health: %v", err)
			return
		}
		snap.Health = health
	}()
	go func() {
		defer wg.Done()
		stats, err := h.Backend.Stats(ctx)
		if err != nil {
			c.Logger().Warnf("Failed to fetch stats: %v", err)
			return
		}
		snap.Stats = stats
	}()
	wg.Wait()

	return snap
}

// MonitoringPage renders the dashboard. The template refreshes itself every
// 30 seconds and the Refresh button reloads the same URL immediately.
func (h *MonitoringHandler) MonitoringPage(c echo.Context) error {
	snap := h.fetch(c)

	user := common.CurrentUser(c)
	data := map[string]interface{}{
		"User":            user,
		"Health":          snap.Health,
		"Stats":           snap.Stats,
		"RefreshSeconds":  30,
		"Status":          "Unknown",
		"Uptime":          "N/A",
		"Environment":     "Unknown",
		"MemoryRSS":       "N/A",
		"MemoryHeapUsed":  "N/A",
		"MemoryHeapTotal": "N/A",
	}

	if snap.Health != nil {
		if snap.Health.Status != "" {
			data["Status"] = snap.Health.Status
		}
		data["Uptime"] = FormatUptime(snap.Health.Uptime)
		if snap.Health.Environment != "" {
			data["Environment"] = snap.Health.Environment
		}
		if mem := snap.Health.Memory; mem != nil {
			data["MemoryRSS"] = FormatMemory(mem.RSS)
			data["MemoryHeapUsed"] = FormatMemory(mem.HeapUsed)
			data["MemoryHeapTotal"] = FormatMemory(mem.HeapTotal)
		}
	}

	return c.Render(http.StatusOK, "monitoring.html", data)
}

// MonitoringData serves the merged snapshot as JSON for in-page polling.
func (h *MonitoringHandler) MonitoringData(c echo.Context) error {
	return c.JSON(http.StatusOK, h.fetch(c))
}

// FormatUptime renders seconds as "Xh Ym".
func FormatUptime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// FormatMemory renders bytes as MiB with two decimals.
func FormatMemory(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)
}
