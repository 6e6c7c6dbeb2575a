package core

import (
	"testing"

	"github.com/ragchatbot/server/internal/store"
)

func msg(role, content string) store.Message {
	return store.Message{Role: role, Content: content}
}

func TestWindow_Empty(t *testing.T) {
	if got := Window(nil, 10); len(got) != 0 {
		t.Errorf("expected empty window, got %d messages", len(got))
	}
}

func TestWindow_FewerThanN(t *testing.T) {
	msgs := []store.Message{msg("user", "a"), msg("assistant", "b")}
	got := Window(msgs, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
}

func TestWindow_KeepsMostRecentChronological(t *testing.T) {
	var msgs []store.Message
	for i := 0; i < 15; i++ {
		msgs = append(msgs, msg("user", string(rune('a'+i))))
	}
	got := Window(msgs, 10)
	if len(got) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(got))
	}
	if got[0].Content != "f" || got[9].Content != "o" {
		t.Errorf("window not chronological tail: first=%q last=%q", got[0].Content, got[9].Content)
	}
}

func TestComposeQuery_OrderAndLimits(t *testing.T) {
	window := []store.Message{
		msg("user", "u1"),
		msg("assistant", "a1"),
		msg("user", "u2"),
		msg("assistant", "a2"),
		msg("user", "u3"),
		msg("assistant", "a3"),
		msg("user", "u4"),
	}
	got := ComposeQuery(window, "new question")
	want := "u2 u3 u4 a2 a3 new question"
	if got != want {
		t.Errorf("composed query = %q, want %q", got, want)
	}
}

func TestComposeQuery_Deterministic(t *testing.T) {
	window := []store.Message{msg("user", "hello"), msg("assistant", "hi")}
	first := ComposeQuery(window, "again")
	second := ComposeQuery(window, "again")
	if first != second {
		t.Errorf("composer not deterministic: %q vs %q", first, second)
	}
}

func TestComposeQuery_NoEmptySegments(t *testing.T) {
	// No assistant messages: the query must not contain a doubled
	// separator where the assistant segment would have been.
	window := []store.Message{msg("user", "only user")}
	if got := ComposeQuery(window, "q"); got != "only user q" {
		t.Errorf("composed query = %q, want %q", got, "only user q")
	}

	// No window at all: just the new message.
	if got := ComposeQuery(nil, "solo"); got != "solo" {
		t.Errorf("composed query = %q, want %q", got, "solo")
	}

	// Only assistant messages.
	window = []store.Message{msg("assistant", "bot said")}
	if got := ComposeQuery(window, "q"); got != "bot said q" {
		t.Errorf("composed query = %q, want %q", got, "bot said q")
	}
}

func TestFormatHistory(t *testing.T) {
	window := []store.Message{
		msg("user", "What is Go?"),
		msg("assistant", "A language."),
	}
	got := FormatHistory(window)
	want := "User: What is Go?\nAssistant: A language."
	if got != want {
		t.Errorf("history = %q, want %q", got, want)
	}
}

func TestFormatHistory_Empty(t *testing.T) {
	if got := FormatHistory(nil); got != "" {
		t.Errorf("expected empty history, got %q", got)
	}
}
