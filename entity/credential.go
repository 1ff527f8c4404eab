package entity

import (
	"time"

	"github.com/google/uuid"
)

// AICredential is a per-owner override of the process-wide generation
// credential. Version increments on every update; generation clients are
// cached keyed by (owner_id, version), so bumping the version retires the
// cached client without an explicit invalidation call.
type AICredential struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;uniqueIndex"`
	APIKey    string    `json:"-" gorm:"not null"`
	Model     string    `json:"model" gorm:"type:varchar(100)"`
	Version   int       `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
