// Package core implements the conversational retrieval-and-answer
// pipeline: composing a retrieval query from chat history, ranking and
// filtering supporting passages (local or web), generating a grounded
// answer and maintaining derived chat state such as titles.
//
// External capabilities are expressed as interfaces and injected into
// the services; adapters live in internal/llm, internal/search,
// internal/store and internal/vector.
package core

import (
	"context"

	"github.com/ragchatbot/server/internal/store"
)

// Passage is a unit of retrieved text used as grounding context for
// generation. Source is nil when the origin is unknown. Score is a
// distance (lower = more relevant) and only meaningful for passages
// returned by a scored search.
type Passage struct {
	Content string
	Source  *string
	Score   float64
}

// Embedder generates vector embeddings for text; the vector index
// uses it to embed queries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// VectorIndex performs similarity search against the local knowledge
// base. The three methods are progressively degraded fallbacks: scored
// search first, plain search when scores are unavailable, and a
// generic retrieval query as the last resort.
type VectorIndex interface {
	SearchWithScores(ctx context.Context, query string, k int) ([]Passage, error)
	Search(ctx context.Context, query string, k int) ([]Passage, error)
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

// WebSearcher queries a live web search provider. Implementations fail
// when no credential is configured; callers tolerate that silently.
type WebSearcher interface {
	Search(ctx context.Context, query string, num int) ([]Passage, error)
}

// ChatStore persists chats and messages. Message listings are ordered
// by creation time ascending.
type ChatStore interface {
	CreateChat(title *string) (*store.Chat, error)
	GetChatByID(chatID string) (*store.Chat, error)
	ListChats() ([]store.Chat, error)
	UpdateChatTitle(chatID string, title string) error
	TouchChat(chatID string) error
	DeleteChat(chatID string) error

	CreateMessage(msg *store.Message) error
	GetMessageByID(messageID string) (*store.Message, error)
	GetMessagesByChatID(chatID string) ([]store.Message, error)
	UpdateMessageFeedback(messageID string, feedback string) error
}
