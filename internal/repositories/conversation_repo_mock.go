package repositories

import (
	"fmt"
	"sync"
	"time"

	"shopai/internal/models"

	"github.com/google/uuid"
)

// MockConversationRepository is an in-memory implementation of
// ConversationRepository.
type MockConversationRepository struct {
	sessions map[string]models.ConversationSession
	messages map[string][]models.ConversationMessage
	nextID   uint
	mu       sync.RWMutex
}

// NewMockConversationRepository creates a new instance of
// MockConversationRepository.
func NewMockConversationRepository() *MockConversationRepository {
	return &MockConversationRepository{
		sessions: make(map[string]models.ConversationSession),
		messages: make(map[string][]models.ConversationMessage),
	}
}

// CreateSession adds a new conversation session.
func (r *MockConversationRepository) CreateSession(session *models.ConversationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	session.UpdatedAt = time.Now()
	r.sessions[session.ID] = *session
	return nil
}

// GetSession returns a conversation session by its ID.
func (r *MockConversationRepository) GetSession(id string) (*models.ConversationSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("conversation session with ID %s not found", id)
	}
	return &session, nil
}

// GetMessages returns a session's messages in chronological order, keeping
// only the most recent limit messages when limit is positive.
func (r *MockConversationRepository) GetMessages(sessionID string, limit int) ([]models.ConversationMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := r.messages[sessionID]
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	out := make([]models.ConversationMessage, len(messages))
	copy(out, messages)
	return out, nil
}

// AddMessage appends a message to a session.
func (r *MockConversationRepository) AddMessage(message *models.ConversationMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	message.ID = r.nextID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	r.messages[message.SessionID] = append(r.messages[message.SessionID], *message)
	return nil
}
