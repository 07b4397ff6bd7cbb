package models

// Health mirrors the backend's raw /api/health payload. The endpoint is not
// wrapped in the usual success envelope, so every field is optional and
// callers fall back to placeholders when something is missing.
type Health struct {
	Status      string        `json:"status"`
	Uptime      float64       `json:"uptime"`
	Environment string        `json:"environment"`
	Memory      *HealthMemory `json:"memory,omitempty"`
}

type HealthMemory struct {
	RSS       int64 `json:"rss"`
	HeapUsed  int64 `json:"heapUsed"`
	HeapTotal int64 `json:"heapTotal"`
}

// Stats is the data field of the enveloped /api/stats response.
type Stats struct {
	TotalRooms    int    `json:"totalRooms"`
	RecentUploads []Room `json:"recentUploads"`
}

// Department is an entry of the raw /api/departments array.
type Department struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}
