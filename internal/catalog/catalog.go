// Package catalog derives the room projection shown on the catalog screen:
// the last-fetched room list filtered by department and search term, then
// ordered by the selected sort mode. The computation is pure; the source
// slice is never mutated and equal keys keep their relative order.
package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"campustour-web/internal/models"
)

const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortName   = "name"

	// DepartmentAll disables the department filter.
	DepartmentAll = "all"
)

// Query is the ephemeral, client-only catalog state. Department mirrors the
// page URL; search and sort reset per request.
type Query struct {
	Department string
	Search     string
	Sort       string
}

// Normalize fills unset fields with their defaults. An unrecognized sort
// value falls back to newest rather than failing.
func (q Query) Normalize() Query {
	switch q.Sort {
	case SortNewest, SortOldest, SortName:
	default:
		q.Sort = SortNewest
	}
	if q.Department == "" {
		q.Department = DepartmentAll
	}
	return q
}

var nameCollator = collate.New(language.English, collate.IgnoreCase)

// Project returns the filtered and sorted subset of rooms for q.
func Project(rooms []models.Room, q Query) []models.Room {
	q = q.Normalize()

	out := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if !matchesDepartment(r, q.Department) {
			continue
		}
		if !matchesSearch(r, q.Search) {
			continue
		}
		out = append(out, r)
	}

	switch q.Sort {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return nameCollator.CompareString(out[i].RoomName, out[j].RoomName) < 0
		})
	}

	return out
}

func matchesDepartment(r models.Room, department string) bool {
	return department == DepartmentAll || r.Department == department
}

func matchesSearch(r models.Room, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	if strings.Contains(strings.ToLower(r.RoomName), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(r.Description), needle)
}
