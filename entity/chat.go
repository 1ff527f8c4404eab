package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatSession is one AI content-generation conversation owned by a user.
type ChatSession struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Messages []ChatMessage `json:"-" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Jobs     []Job         `json:"-" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// ChatMessage belongs to a session. For assistant messages carrying media,
// exactly one of MediaURL (stored reference) and InlineData (raw payload
// fallback when the storage upload failed) is populated.
type ChatMessage struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID  uuid.UUID  `json:"session_id" gorm:"type:uuid;not null;index"`
	Role       string     `json:"role" binding:"required,oneof=user assistant" gorm:"type:varchar(20);not null"`
	Content    string     `json:"content" gorm:"type:text"`
	MediaURL   string     `json:"media_url,omitempty" gorm:"type:varchar(1024)"`
	InlineData []byte     `json:"inline_data,omitempty" gorm:"type:bytea"`
	JobID      *uuid.UUID `json:"job_id,omitempty" gorm:"type:uuid;index"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null;autoCreateTime"`
}
