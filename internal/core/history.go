package core

import (
	"strings"

	"github.com/ragchatbot/server/internal/store"
)

// WindowSize is the number of recent messages considered when building
// retrieval queries and conversation history.
const WindowSize = 10

const (
	queryUserMessages      = 3
	queryAssistantMessages = 2
)

// Window returns the most recent n messages in chronological order.
func Window(messages []store.Message, n int) []store.Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

// ComposeQuery builds a single retrieval query string from the
// conversation window plus the new user message. Recent user intent
// dominates, assistant context disambiguates follow-ups, and the new
// message always comes last so it carries the most weight in
// similarity scoring.
func ComposeQuery(window []store.Message, newMessage string) string {
	var userContents, assistantContents []string
	for _, m := range window {
		switch m.Role {
		case store.RoleUser:
			userContents = append(userContents, m.Content)
		case store.RoleAssistant:
			assistantContents = append(assistantContents, m.Content)
		}
	}

	var parts []string
	if len(userContents) > 0 {
		parts = append(parts, strings.Join(lastN(userContents, queryUserMessages), " "))
	}
	if len(assistantContents) > 0 {
		parts = append(parts, strings.Join(lastN(assistantContents, queryAssistantMessages), " "))
	}
	parts = append(parts, newMessage)
	return strings.Join(parts, " ")
}

// FormatHistory renders the window as "Role: content" lines, oldest
// first, for inclusion in a grounded prompt.
func FormatHistory(window []store.Message) string {
	lines := make([]string, 0, len(window))
	for _, m := range window {
		lines = append(lines, capitalize(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func lastN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
