package core

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/ragchatbot/server/internal/store"
)

// PostMessageParams carries the tunables for a single message turn.
type PostMessageParams struct {
	Content     string
	TopK        int
	Temperature float32
	MaxTokens   int
}

// PostMessageResult is the outcome of a message turn: the generated
// answer, the frozen source snapshot and, when auto-titling fired on
// this turn, the new chat title.
type PostMessageResult struct {
	Answer  string            `json:"answer"`
	Sources []store.SourceRef `json:"sources"`
	Title   string            `json:"title,omitempty"`
}

// ChatService owns message ordering and chat metadata and ties the
// pipeline stages together per incoming message. Each message runs
// synchronously end-to-end; concurrent messages are independent tasks
// sharing only the read-only configuration.
type ChatService struct {
	store     ChatStore
	retriever *RetrievalEngine
	answerer  *AnswerGenerator
	titler    *TitleMaintainer
}

func NewChatService(st ChatStore, retriever *RetrievalEngine, answerer *AnswerGenerator, titler *TitleMaintainer) *ChatService {
	return &ChatService{
		store:     st,
		retriever: retriever,
		answerer:  answerer,
		titler:    titler,
	}
}

func (s *ChatService) CreateChat(title *string) (*store.Chat, error) {
	if title == nil {
		def := DefaultTitle
		title = &def
	}
	chat, err := s.store.CreateChat(title)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

func (s *ChatService) ListChats() ([]store.Chat, error) {
	return s.store.ListChats()
}

func (s *ChatService) GetChatDetails(chatID string) (*store.Chat, []store.Message, error) {
	if _, err := uuid.Parse(chatID); err != nil {
		return nil, nil, ErrInvalidID
	}
	chat, err := s.store.GetChatByID(chatID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if chat == nil {
		return nil, nil, ErrChatNotFound
	}
	messages, err := s.store.GetMessagesByChatID(chatID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get messages for chat: %w", err)
	}
	return chat, messages, nil
}

func (s *ChatService) DeleteChat(chatID string) error {
	if _, err := uuid.Parse(chatID); err != nil {
		return ErrInvalidID
	}
	return s.store.DeleteChat(chatID)
}

// PostMessage runs the full turn pipeline: validate the chat, persist
// the user message, build the conversation window, compose a retrieval
// query, retrieve passages (local or web), generate a grounded answer
// (with a possible web-assisted retry), persist the assistant message
// with its frozen source snapshot, bump the chat timestamp and
// conditionally retitle the chat.
func (s *ChatService) PostMessage(ctx context.Context, chatID string, params PostMessageParams) (*PostMessageResult, error) {
	if _, err := uuid.Parse(chatID); err != nil {
		return nil, ErrInvalidID
	}

	chat, err := s.store.GetChatByID(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify chat: %w", err)
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}

	userMsg := store.Message{
		ChatID:  chatID,
		Role:    store.RoleUser,
		Content: params.Content,
	}
	if err := s.store.CreateMessage(&userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	messages, err := s.store.GetMessagesByChatID(chatID)
	if err != nil {
		log.Printf("Error getting chat history for chat %s: %v. Proceeding without history.", chatID, err)
		messages = []store.Message{userMsg}
	}
	window := Window(messages, WindowSize)

	query := ComposeQuery(window, params.Content)
	passages := s.retriever.Retrieve(ctx, query, params.Content, params.TopK)
	history := FormatHistory(window)

	answer, effective, err := s.answerer.Answer(ctx, params.Content, history, passages, params.Temperature, params.MaxTokens)
	if err != nil {
		return nil, err
	}

	sources := toSourceRefs(effective)
	assistantMsg := store.Message{
		ChatID:  chatID,
		Role:    store.RoleAssistant,
		Content: answer,
		Sources: sources,
	}
	if err := s.store.CreateMessage(&assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	if err := s.store.TouchChat(chatID); err != nil {
		log.Printf("Failed to bump updated_at for chat %s: %v", chatID, err)
	}

	result := &PostMessageResult{Answer: answer, Sources: sources}

	basis := history
	if basis == "" {
		basis = params.Content
	}
	if title, updated := s.titler.MaybeRetitle(ctx, chatID, chat.Title, basis); updated {
		result.Title = title
	}

	return result, nil
}

// SetMessageFeedback attaches feedback to a message, overwriting any
// previous value, and returns the updated message.
func (s *ChatService) SetMessageFeedback(messageID string, feedback string) (*store.Message, error) {
	if _, err := uuid.Parse(messageID); err != nil {
		return nil, ErrInvalidID
	}
	msg, err := s.store.GetMessageByID(messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if err := s.store.UpdateMessageFeedback(messageID, feedback); err != nil {
		return nil, fmt.Errorf("failed to update feedback: %w", err)
	}
	return s.store.GetMessageByID(messageID)
}

func toSourceRefs(passages []Passage) []store.SourceRef {
	refs := make([]store.SourceRef, 0, len(passages))
	for _, p := range passages {
		refs = append(refs, store.SourceRef{Source: p.Source, Content: p.Content})
	}
	return refs
}
