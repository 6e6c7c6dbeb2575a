package store

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Chat struct {
	ID        string    `json:"id"`    // UUID
	Title     *string   `json:"title"` // Nullable; "New chat" until auto-titled
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID        string      `json:"id"` // UUID
	ChatID    string      `json:"chat_id"`
	Role      string      `json:"role"` // "user" or "assistant"
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Sources   []SourceRef `json:"sources,omitempty"`  // frozen at generation time
	Feedback  *string     `json:"feedback,omitempty"` // "like" or "dislike"
}

// SourceRef is the persisted snapshot of a passage that grounded an
// assistant message. Source is null for passages with no known origin.
type SourceRef struct {
	Source  *string `json:"source"`
	Content string  `json:"content"`
}

type DataChunk struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Embedding []float32 `json:"-"` // stored as a JSON string in the DB
}
