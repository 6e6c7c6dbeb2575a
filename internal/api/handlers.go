package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ragchatbot/server/internal/core"
	"github.com/ragchatbot/server/internal/store"
)

type APIHandler struct {
	chatService *core.ChatService
}

func NewAPIHandler(cs *core.ChatService) *APIHandler {
	return &APIHandler{chatService: cs}
}

type CreateChatRequest struct {
	Title *string `json:"title,omitempty"`
}

func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateChatRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	chat, err := h.chatService.CreateChat(req.Title)
	if err != nil {
		log.Printf("Error creating chat: %v", err)
		http.Error(w, "Failed to create chat", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(chat)
}

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chatService.ListChats()
	if err != nil {
		log.Printf("Error listing chats: %v", err)
		http.Error(w, "Failed to list chats", http.StatusInternalServerError)
		return
	}
	if chats == nil {
		chats = []store.Chat{}
	}
	json.NewEncoder(w).Encode(chats)
}

type GetChatDetailsResponse struct {
	*store.Chat
	Messages []store.Message `json:"messages"`
}

func (h *APIHandler) GetChatDetailsHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	chat, messages, err := h.chatService.GetChatDetails(chatID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to get chat details", chatID)
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}

	json.NewEncoder(w).Encode(GetChatDetailsResponse{Chat: chat, Messages: messages})
}

func (h *APIHandler) DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	if err := h.chatService.DeleteChat(chatID); err != nil {
		h.writeServiceError(w, err, "Failed to delete chat", chatID)
		return
	}
	json.NewEncoder(w).Encode(map[string]bool{"deleted": true})
}

type PostMessageRequest struct {
	Content     string   `json:"content"`
	TopK        *int     `json:"top_k,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

const (
	defaultTopK        = 4
	defaultTemperature = float32(0.3)
	defaultMaxTokens   = 1000
)

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "Message content cannot be empty", http.StatusBadRequest)
		return
	}

	params := core.PostMessageParams{
		Content:     req.Content,
		TopK:        clampInt(req.TopK, defaultTopK, 1, 20),
		Temperature: clampFloat(req.Temperature, defaultTemperature, 0, 1),
		MaxTokens:   clampInt(req.MaxTokens, defaultMaxTokens, 100, 4000),
	}

	result, err := h.chatService.PostMessage(r.Context(), chatID, params)
	if err != nil {
		h.writeServiceError(w, err, "Failed to post message", chatID)
		return
	}
	json.NewEncoder(w).Encode(result)
}

type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

func (h *APIHandler) MessageFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Feedback != "like" && req.Feedback != "dislike" {
		http.Error(w, "Feedback must be 'like' or 'dislike'", http.StatusBadRequest)
		return
	}

	msg, err := h.chatService.SetMessageFeedback(messageID, req.Feedback)
	if err != nil {
		h.writeServiceError(w, err, "Failed to set feedback", messageID)
		return
	}
	json.NewEncoder(w).Encode(msg)
}

func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error, logMsg, id string) {
	switch {
	case errors.Is(err, core.ErrInvalidID):
		http.Error(w, "Invalid id", http.StatusBadRequest)
	case errors.Is(err, core.ErrChatNotFound):
		http.Error(w, "Chat not found", http.StatusNotFound)
	case errors.Is(err, core.ErrMessageNotFound):
		http.Error(w, "Message not found", http.StatusNotFound)
	default:
		log.Printf("%s (%s): %v", logMsg, id, err)
		http.Error(w, logMsg, http.StatusInternalServerError)
	}
}

func clampInt(v *int, def, min, max int) int {
	if v == nil {
		return def
	}
	if *v < min {
		return min
	}
	if *v > max {
		return max
	}
	return *v
}

func clampFloat(v *float32, def, min, max float32) float32 {
	if v == nil {
		return def
	}
	if *v < min {
		return min
	}
	if *v > max {
		return max
	}
	return *v
}
