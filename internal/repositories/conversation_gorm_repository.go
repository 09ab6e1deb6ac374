package repositories

import (
	"fmt"
	"shopai/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMConversationRepository is a GORM implementation of
// ConversationRepository.
type GORMConversationRepository struct {
	db *gorm.DB
}

// NewGORMConversationRepository creates a new instance of
// GORMConversationRepository.
func NewGORMConversationRepository(db *gorm.DB) *GORMConversationRepository {
	return &GORMConversationRepository{
		db: db,
	}
}

// CreateSession creates a new conversation session in the database.
func (r *GORMConversationRepository) CreateSession(session *models.ConversationSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create conversation session: %w", err)
	}
	return nil
}

// GetSession retrieves a conversation session by its ID from the database.
func (r *GORMConversationRepository) GetSession(id string) (*models.ConversationSession, error) {
	var session models.ConversationSession
	if err := r.db.First(&session, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("conversation session with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get conversation session by ID %s: %w", id, err)
	}
	return &session, nil
}

// GetMessages retrieves a session's messages in chronological order, keeping
// only the most recent limit messages when limit is positive.
func (r *GORMConversationRepository) GetMessages(sessionID string, limit int) ([]models.ConversationMessage, error) {
	var messages []models.ConversationMessage
	query := r.db.Where("session_id = ?", sessionID)
	if limit > 0 {
		// Fetch the newest messages first, then restore chronological order.
		query = query.Order("id DESC").Limit(limit)
	} else {
		query = query.Order("id ASC")
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to get messages for session %s: %w", sessionID, err)
	}
	if limit > 0 {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}
	return messages, nil
}

// AddMessage appends a message to a session.
func (r *GORMConversationRepository) AddMessage(message *models.ConversationMessage) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("failed to add conversation message: %w", err)
	}
	return nil
}
