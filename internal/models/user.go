package models

// User is the session identity handed back by the external auth provider.
// Nothing about it is persisted locally; the session cookie is the only
// storage.
type User struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Provider  string `json:"provider"`
}

// IsAdmin reports whether the user's email is on the configured
// administrator allow-list. This only gates what the UI shows; the rooms
// backend is the real authorization boundary.
func (u *User) IsAdmin(allowList []string) bool {
	if u == nil || u.Email == "" {
		return false
	}
	for _, email := range allowList {
		if email == u.Email {
			return true
		}
	}
	return false
}
