package models

import (
	"strings"
	"time"
)

// Room is a single 360° panorama entry as the backend serves it.
// The backend keys records by Mongo-style `_id` and stores the panorama
// location under `url`.
type Room struct {
	ID          string    `json:"_id"`
	RoomName    string    `json:"roomName"`
	Department  string    `json:"department"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"url"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DepartmentCodes is the fixed set of short codes the backend accepts.
var DepartmentCodes = []string{"CSE", "ECE", "EEE", "ME", "CE", "IT", "CHEM", "MET", "CC"}

// IsValidDepartment reports whether code is one of the known short codes.
func IsValidDepartment(code string) bool {
	for _, c := range DepartmentCodes {
		if c == code {
			return true
		}
	}
	return false
}

// DisplayDescription returns the description or the generic fallback copy
// used on room cards.
func (r Room) DisplayDescription() string {
	if strings.TrimSpace(r.Description) == "" {
		return "Experience this space in 360° virtual reality"
	}
	return r.Description
}
