package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS chats (
        id TEXT PRIMARY KEY, -- UUID
        title TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        chat_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        sources_json TEXT,
        feedback TEXT,
        feedback_at DATETIME,
        FOREIGN KEY (chat_id) REFERENCES chats (id)
    );

    CREATE TABLE IF NOT EXISTS data_chunks (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        content TEXT NOT NULL,
        source TEXT,
        embedding_json TEXT -- JSON string of []float32
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Chat methods

func (s *SQLiteStore) CreateChat(title *string) (*Chat, error) {
	chatID := uuid.NewString()
	stmt, err := s.db.Prepare("INSERT INTO chats (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare chat insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	_, err = stmt.Exec(chatID, title, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute chat insert: %w", err)
	}
	return &Chat{ID: chatID, Title: title, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetChatByID(chatID string) (*Chat, error) {
	var chat Chat
	var title sql.NullString
	err := s.db.QueryRow("SELECT id, title, created_at, updated_at FROM chats WHERE id = ?", chatID).
		Scan(&chat.ID, &title, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if title.Valid {
		chat.Title = &title.String
	}
	return &chat, nil
}

// ListChats returns all chats, most recently active first.
func (s *SQLiteStore) ListChats() ([]Chat, error) {
	rows, err := s.db.Query("SELECT id, title, created_at, updated_at FROM chats ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var chat Chat
		var title sql.NullString
		if err := rows.Scan(&chat.ID, &title, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat row: %w", err)
		}
		if title.Valid {
			chat.Title = &title.String
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

func (s *SQLiteStore) UpdateChatTitle(chatID string, title string) error {
	res, err := s.db.Exec("UPDATE chats SET title = ? WHERE id = ?", title, chatID)
	if err != nil {
		return fmt.Errorf("failed to execute chat title update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("chat not found, title not updated")
	}
	return nil
}

// TouchChat bumps a chat's updated_at timestamp.
func (s *SQLiteStore) TouchChat(chatID string) error {
	_, err := s.db.Exec("UPDATE chats SET updated_at = ? WHERE id = ?", time.Now().UTC(), chatID)
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}
	return nil
}

// DeleteChat removes a chat and all of its messages.
func (s *SQLiteStore) DeleteChat(chatID string) error {
	if _, err := s.db.Exec("DELETE FROM messages WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM chats WHERE id = ?", chatID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}

// Message methods

func (s *SQLiteStore) CreateMessage(msg *Message) error {
	msg.ID = uuid.NewString()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	var sourcesJSON sql.NullString
	if msg.Sources != nil {
		b, err := json.Marshal(msg.Sources)
		if err != nil {
			return fmt.Errorf("failed to marshal message sources: %w", err)
		}
		sourcesJSON = sql.NullString{String: string(b), Valid: true}
	}

	stmt, err := s.db.Prepare("INSERT INTO messages (id, chat_id, role, content, created_at, sources_json, feedback) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(msg.ID, msg.ChatID, msg.Role, msg.Content, msg.CreatedAt, sourcesJSON, msg.Feedback)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

func scanMessage(scan func(dest ...any) error) (*Message, error) {
	var msg Message
	var sourcesJSON, feedback sql.NullString
	if err := scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &msg.CreatedAt, &sourcesJSON, &feedback); err != nil {
		return nil, err
	}
	if sourcesJSON.Valid && sourcesJSON.String != "" {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &msg.Sources); err != nil {
			log.Printf("Warning: failed to unmarshal sources for message %s: %v", msg.ID, err)
			msg.Sources = nil
		}
	}
	if feedback.Valid {
		msg.Feedback = &feedback.String
	}
	return &msg, nil
}

func (s *SQLiteStore) GetMessageByID(messageID string) (*Message, error) {
	row := s.db.QueryRow("SELECT id, chat_id, role, content, created_at, sources_json, feedback FROM messages WHERE id = ?", messageID)
	msg, err := scanMessage(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// GetMessagesByChatID returns a chat's messages oldest first.
func (s *SQLiteStore) GetMessagesByChatID(chatID string) ([]Message, error) {
	rows, err := s.db.Query("SELECT id, chat_id, role, content, created_at, sources_json, feedback FROM messages WHERE chat_id = ? ORDER BY created_at ASC", chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, *msg)
	}
	return messages, nil
}

func (s *SQLiteStore) UpdateMessageFeedback(messageID string, feedback string) error {
	res, err := s.db.Exec("UPDATE messages SET feedback = ?, feedback_at = ? WHERE id = ?", feedback, time.Now().UTC(), messageID)
	if err != nil {
		return fmt.Errorf("failed to execute feedback update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("message not found, feedback not updated")
	}
	return nil
}

// DataChunk methods (knowledge base)

func (s *SQLiteStore) createDataChunk(chunk *DataChunk) error {
	embeddingBytes, err := json.Marshal(chunk.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	res, err := s.db.Exec("INSERT INTO data_chunks (content, source, embedding_json) VALUES (?, ?, ?)",
		chunk.Content, chunk.Source, string(embeddingBytes))
	if err != nil {
		return fmt.Errorf("failed to execute data_chunk insert: %w", err)
	}
	chunk.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) GetAllDataChunks() ([]DataChunk, error) {
	rows, err := s.db.Query("SELECT id, content, source, embedding_json FROM data_chunks")
	if err != nil {
		return nil, fmt.Errorf("failed to query data_chunks: %w", err)
	}
	defer rows.Close()

	var chunks []DataChunk
	for rows.Next() {
		var chunk DataChunk
		var source, embeddingJSON sql.NullString
		if err := rows.Scan(&chunk.ID, &chunk.Content, &source, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan data_chunk row: %w", err)
		}
		chunk.Source = source.String
		if embeddingJSON.Valid && embeddingJSON.String != "" {
			if err := json.Unmarshal([]byte(embeddingJSON.String), &chunk.Embedding); err != nil {
				log.Printf("Warning: failed to unmarshal embedding for chunk %d: %v. Embedding will be empty.", chunk.ID, err)
				chunk.Embedding = nil
			}
		} else {
			log.Printf("Warning: empty embedding_json for chunk ID %d. Embedding will be empty.", chunk.ID)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func (s *SQLiteStore) ClearDataChunks() error {
	if _, err := s.db.Exec("DELETE FROM data_chunks"); err != nil {
		return fmt.Errorf("failed to delete data_chunks: %w", err)
	}
	return nil
}
