package chatrelay

import (
	"sort"
	"time"
)

// Session is one conversation: an ordered list of turns.
type Session struct {
	ID        string
	Summary   string
	Turns     []Turn
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Title returns the summary when known, otherwise the first user input.
func (s Session) Title() string {
	if s.Summary != "" {
		return s.Summary
	}
	if len(s.Turns) > 0 {
		return s.Turns[0].User
	}
	return s.ID
}

// Clone returns a copy whose turn slice does not alias s.
func (s Session) Clone() Session {
	c := s
	c.Turns = append([]Turn(nil), s.Turns...)
	return c
}

// Registry maps session IDs to sessions.
type Registry map[string]Session

// Put stores a session under its ID.
func (r Registry) Put(s Session) {
	r[s.ID] = s
}

// Get returns the session with the given ID.
func (r Registry) Get(id string) (Session, bool) {
	s, ok := r[id]
	return s, ok
}

// List returns all sessions, most recently updated first. Ties are broken by
// ID so the order is stable.
func (r Registry) List() []Session {
	out := make([]Session, 0, len(r))
	for _, s := range r {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
