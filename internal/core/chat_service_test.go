package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ragchatbot/server/internal/store"
)

// mockChatStore is an in-memory ChatStore.
type mockChatStore struct {
	chats    map[string]*store.Chat
	messages []store.Message
}

func newMockChatStore() *mockChatStore {
	return &mockChatStore{chats: make(map[string]*store.Chat)}
}

func (m *mockChatStore) CreateChat(title *string) (*store.Chat, error) {
	now := time.Now().UTC()
	chat := &store.Chat{ID: uuid.NewString(), Title: title, CreatedAt: now, UpdatedAt: now}
	m.chats[chat.ID] = chat
	return chat, nil
}

func (m *mockChatStore) GetChatByID(chatID string) (*store.Chat, error) {
	return m.chats[chatID], nil
}

func (m *mockChatStore) ListChats() ([]store.Chat, error) {
	var chats []store.Chat
	for _, c := range m.chats {
		chats = append(chats, *c)
	}
	return chats, nil
}

func (m *mockChatStore) UpdateChatTitle(chatID string, title string) error {
	chat, ok := m.chats[chatID]
	if !ok {
		return errors.New("chat not found, title not updated")
	}
	chat.Title = &title
	return nil
}

func (m *mockChatStore) TouchChat(chatID string) error {
	chat, ok := m.chats[chatID]
	if !ok {
		return errors.New("chat not found")
	}
	chat.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockChatStore) DeleteChat(chatID string) error {
	delete(m.chats, chatID)
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.ChatID != chatID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

func (m *mockChatStore) CreateMessage(msg *store.Message) error {
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockChatStore) GetMessageByID(messageID string) (*store.Message, error) {
	for i := range m.messages {
		if m.messages[i].ID == messageID {
			return &m.messages[i], nil
		}
	}
	return nil, nil
}

func (m *mockChatStore) GetMessagesByChatID(chatID string) ([]store.Message, error) {
	var msgs []store.Message
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

func (m *mockChatStore) UpdateMessageFeedback(messageID string, feedback string) error {
	for i := range m.messages {
		if m.messages[i].ID == messageID {
			m.messages[i].Feedback = &feedback
			return nil
		}
	}
	return errors.New("message not found, feedback not updated")
}

func newTestService(st ChatStore, gen *mockGenerator, index *mockIndex, web *mockSearcher) *ChatService {
	return NewChatService(
		st,
		NewRetrievalEngine(index, web),
		NewAnswerGenerator(gen, web),
		NewTitleMaintainer(gen, st),
	)
}

func defaultParams(content string) PostMessageParams {
	return PostMessageParams{Content: content, TopK: 4, Temperature: 0.3, MaxTokens: 1000}
}

func TestPostMessage_FullPipeline(t *testing.T) {
	st := newMockChatStore()
	def := DefaultTitle
	chat, _ := st.CreateChat(&def)

	gen := &mockGenerator{responses: []string{
		"Go routines are lightweight threads [Source 1].",
		"Goroutines and Concurrency in Go",
	}}
	index := &mockIndex{scored: []Passage{{Content: "goroutine docs", Source: strPtr("go.md"), Score: 0.2}}}
	svc := newTestService(st, gen, index, &mockSearcher{})

	before := chat.UpdatedAt
	result, err := svc.PostMessage(context.Background(), chat.ID, defaultParams("what are goroutines?"))
	if err != nil {
		t.Fatalf("post message failed: %v", err)
	}

	if result.Answer != "Go routines are lightweight threads [Source 1]." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if len(result.Sources) != 1 || result.Sources[0].Content != "goroutine docs" {
		t.Errorf("unexpected sources: %v", result.Sources)
	}

	msgs, _ := st.GetMessagesByChatID(chat.ID)
	if len(msgs) != 2 {
		t.Fatalf("expected user + assistant messages persisted, got %d", len(msgs))
	}
	if msgs[0].Role != store.RoleUser || msgs[1].Role != store.RoleAssistant {
		t.Errorf("message roles wrong: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	if len(msgs[1].Sources) != 1 {
		t.Errorf("assistant message missing frozen source snapshot")
	}

	if !st.chats[chat.ID].UpdatedAt.After(before) && !st.chats[chat.ID].UpdatedAt.Equal(before) {
		t.Errorf("chat updated_at not bumped")
	}

	// Default-titled chat gets retitled on this turn.
	if result.Title == "" {
		t.Errorf("expected title in result for default-titled chat")
	}
	if st.chats[chat.ID].Title == nil || *st.chats[chat.ID].Title != result.Title {
		t.Errorf("title not persisted")
	}
}

// Scenario E: posting to a nonexistent chat fails with NotFound and
// persists nothing.
func TestPostMessage_ChatNotFound(t *testing.T) {
	st := newMockChatStore()
	gen := &mockGenerator{responses: []string{"unused"}}
	svc := newTestService(st, gen, &mockIndex{}, &mockSearcher{})

	_, err := svc.PostMessage(context.Background(), uuid.NewString(), defaultParams("hello"))
	if !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
	if len(st.messages) != 0 {
		t.Errorf("messages persisted despite missing chat")
	}
	if gen.calls != 0 {
		t.Errorf("generation invoked despite missing chat")
	}
}

func TestPostMessage_InvalidChatID(t *testing.T) {
	st := newMockChatStore()
	svc := newTestService(st, &mockGenerator{}, &mockIndex{}, &mockSearcher{})

	_, err := svc.PostMessage(context.Background(), "not-a-uuid", defaultParams("hello"))
	if !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestPostMessage_GenerationFailureNoAssistantPersisted(t *testing.T) {
	st := newMockChatStore()
	def := DefaultTitle
	chat, _ := st.CreateChat(&def)

	gen := &mockGenerator{err: errors.New("model unavailable")}
	svc := newTestService(st, gen, &mockIndex{}, &mockSearcher{})

	_, err := svc.PostMessage(context.Background(), chat.ID, defaultParams("hello"))
	if err == nil {
		t.Fatal("expected generation failure to surface")
	}

	msgs, _ := st.GetMessagesByChatID(chat.ID)
	if len(msgs) != 1 || msgs[0].Role != store.RoleUser {
		t.Errorf("expected only the user message persisted, got %d messages", len(msgs))
	}
}

// Retitle trigger is monotonic: once titled, later messages never
// re-trigger titling.
func TestPostMessage_RetitleOnlyOnce(t *testing.T) {
	st := newMockChatStore()
	def := DefaultTitle
	chat, _ := st.CreateChat(&def)

	gen := &mockGenerator{responses: []string{
		"first answer",
		"A Generated Title",
		"second answer",
	}}
	svc := newTestService(st, gen, &mockIndex{}, &mockSearcher{})

	first, err := svc.PostMessage(context.Background(), chat.ID, defaultParams("first"))
	if err != nil {
		t.Fatalf("first post failed: %v", err)
	}
	if first.Title == "" {
		t.Fatal("expected first turn to retitle")
	}

	second, err := svc.PostMessage(context.Background(), chat.ID, defaultParams("second"))
	if err != nil {
		t.Fatalf("second post failed: %v", err)
	}
	if second.Title != "" {
		t.Errorf("second turn re-triggered retitling")
	}
	if gen.calls != 3 {
		t.Errorf("expected 3 generation calls (2 answers + 1 title), got %d", gen.calls)
	}
}

func TestPostMessage_WebSourcesFrozenOnMessage(t *testing.T) {
	st := newMockChatStore()
	title := "Already titled"
	chat, _ := st.CreateChat(&title)

	// Local index empty; web supplies the passages (Scenario B end to
	// end through the orchestrator).
	gen := &mockGenerator{responses: []string{"answer from web context"}}
	web := &mockSearcher{results: []Passage{
		{Content: "web1", Source: strPtr("https://a")},
		{Content: "web2", Source: strPtr("https://b")},
	}}
	svc := newTestService(st, gen, &mockIndex{}, web)

	result, err := svc.PostMessage(context.Background(), chat.ID, defaultParams("fresh topic"))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("expected 2 web sources, got %d", len(result.Sources))
	}
	if result.Sources[0].Source == nil || *result.Sources[0].Source != "https://a" {
		t.Errorf("web source URL not preserved: %v", result.Sources[0])
	}

	msgs, _ := st.GetMessagesByChatID(chat.ID)
	if len(msgs[1].Sources) != 2 {
		t.Errorf("assistant message sources not frozen: %v", msgs[1].Sources)
	}
}

func TestSetMessageFeedback(t *testing.T) {
	st := newMockChatStore()
	def := DefaultTitle
	chat, _ := st.CreateChat(&def)
	msg := store.Message{ChatID: chat.ID, Role: store.RoleAssistant, Content: "a"}
	st.CreateMessage(&msg)

	svc := newTestService(st, &mockGenerator{}, &mockIndex{}, &mockSearcher{})

	updated, err := svc.SetMessageFeedback(msg.ID, "like")
	if err != nil {
		t.Fatalf("feedback failed: %v", err)
	}
	if updated.Feedback == nil || *updated.Feedback != "like" {
		t.Errorf("feedback not set: %v", updated.Feedback)
	}

	// Overwritable.
	updated, err = svc.SetMessageFeedback(msg.ID, "dislike")
	if err != nil {
		t.Fatalf("feedback overwrite failed: %v", err)
	}
	if *updated.Feedback != "dislike" {
		t.Errorf("feedback not overwritten: %v", *updated.Feedback)
	}
}

func TestSetMessageFeedback_NotFoundAndInvalid(t *testing.T) {
	svc := newTestService(newMockChatStore(), &mockGenerator{}, &mockIndex{}, &mockSearcher{})

	if _, err := svc.SetMessageFeedback(uuid.NewString(), "like"); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("expected ErrMessageNotFound, got %v", err)
	}
	if _, err := svc.SetMessageFeedback("garbage", "like"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestGetChatDetails_NotFound(t *testing.T) {
	svc := newTestService(newMockChatStore(), &mockGenerator{}, &mockIndex{}, &mockSearcher{})

	if _, _, err := svc.GetChatDetails(uuid.NewString()); !errors.Is(err, ErrChatNotFound) {
		t.Errorf("expected ErrChatNotFound, got %v", err)
	}
}
