package session

// Session is the server-side record of a completed login. It holds
// identifiers and principal names only.
type Session struct {
	ID         string   `json:"-"`
	Username   string   `json:"u"`
	Chain      string   `json:"c,omitempty"`
	Method     string   `json:"m,omitempty"`
	AttemptID  string   `json:"a,omitempty"`
	Principals []string `json:"p,omitempty"`

	CreatedAt int64 `json:"ct"`
	ExpiresAt int64 `json:"et"`
}

// HasPrincipal reports whether the session carries the rendered principal,
// e.g. "role:admin".
func (s *Session) HasPrincipal(p string) bool {
	for _, have := range s.Principals {
		if have == p {
			return true
		}
	}
	return false
}
