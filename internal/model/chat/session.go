package chat

import "time"

// Context carries the client-side circumstances a session was opened under.
type Context struct {
	CurrentPage  string          `json:"currentPage"`
	UserProgress map[string]bool `json:"userProgress,omitempty"`
}

// Session captures one visitor conversation. Messages are append-only for
// the lifetime of the widget instance that owns the session.
type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	Context   Context   `json:"context,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
