package repositories

import (
	"shopai/internal/models"
)

// ConversationRepository defines the interface for chat session and message
// data access.
type ConversationRepository interface {
	CreateSession(session *models.ConversationSession) error
	GetSession(id string) (*models.ConversationSession, error)
	// GetMessages returns a session's messages in chronological order. A
	// positive limit keeps only the most recent limit messages.
	GetMessages(sessionID string, limit int) ([]models.ConversationMessage, error)
	AddMessage(message *models.ConversationMessage) error
}
