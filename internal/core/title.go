package core

import (
	"context"
	"log"
	"strings"
)

const (
	titleMaxWords = 6
	titleMaxChars = 40
)

// DefaultTitle is the sentinel a new chat starts with; auto-titling
// only ever fires while the title still equals a sentinel.
const DefaultTitle = "New chat"

// TitleMaintainer derives a short chat title from conversation history
// once, while the chat is still untitled. Failures are always
// non-fatal; the title simply stays unchanged.
type TitleMaintainer struct {
	gen   Generator
	store ChatStore
}

func NewTitleMaintainer(gen Generator, store ChatStore) *TitleMaintainer {
	return &TitleMaintainer{gen: gen, store: store}
}

// IsDefaultTitle reports whether a title is still a placeholder.
func IsDefaultTitle(title *string) bool {
	if title == nil {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(*title)) {
	case "", "new chat", "untitled":
		return true
	}
	return false
}

// MaybeRetitle generates and persists a title for the chat when its
// current title is still a default sentinel. It returns the new title
// and true only when the title was actually updated.
func (t *TitleMaintainer) MaybeRetitle(ctx context.Context, chatID string, currentTitle *string, basis string) (string, bool) {
	if !IsDefaultTitle(currentTitle) {
		return "", false
	}

	prompt := "Provide a concise 3-6 word title summarizing the conversation so far. " +
		"Return only the title text without extra punctuation.\n\nConversation:\n" + basis

	raw, err := t.gen.Generate(ctx, prompt, 0)
	if err != nil {
		log.Printf("Failed to generate title for chat %s: %v", chatID, err)
		return "", false
	}

	title := SanitizeTitle(raw)
	if title == "" {
		return "", false
	}

	if err := t.store.UpdateChatTitle(chatID, title); err != nil {
		log.Printf("Failed to save generated title %q for chat %s: %v", title, chatID, err)
		return "", false
	}
	return title, true
}

// SanitizeTitle normalizes a generated title: collapses whitespace,
// keeps the first 6 words, truncates to 40 characters and strips
// trailing punctuation. Idempotent.
func SanitizeTitle(raw string) string {
	words := strings.Fields(raw)
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}
	cleaned := strings.Join(words, " ")

	if runes := []rune(cleaned); len(runes) > titleMaxChars {
		cleaned = strings.TrimRight(string(runes[:titleMaxChars]), " ")
	}
	return strings.TrimRight(cleaned, " .,:;!-")
}
