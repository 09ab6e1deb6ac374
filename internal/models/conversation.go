package models

import "time"

// ConversationSession groups the messages of a single chat conversation.
// UserID is nil for anonymous sessions.
type ConversationSession struct {
	ID        string                `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    *string               `json:"user_id,omitempty" gorm:"type:varchar(36);index"`
	IsActive  bool                  `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Messages  []ConversationMessage `json:"messages,omitempty" gorm:"foreignKey:SessionID"`
}

// ConversationMessage is a single turn in a conversation. Entities, ToolCalls
// and ToolResults hold JSON-encoded payloads recorded for assistant turns.
type ConversationMessage struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID   string    `json:"session_id" gorm:"type:varchar(36);index;not null"`
	Role        string    `json:"role" gorm:"not null"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	Intent      string    `json:"intent,omitempty"`
	Entities    string    `json:"-" gorm:"type:text"`
	ToolCalls   string    `json:"-" gorm:"type:text"`
	ToolResults string    `json:"-" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}
