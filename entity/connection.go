package entity

import (
	"time"

	"github.com/google/uuid"
)

// Connection is a registered external catalog store owned by one user.
type Connection struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID        uuid.UUID  `json:"owner_id" gorm:"type:uuid;not null;index"`
	Name           string     `json:"name" binding:"required,min=1,max=128" gorm:"not null"`
	BaseURL        string     `json:"base_url" binding:"required,url" gorm:"not null"`
	ConsumerKey    string     `json:"consumer_key" gorm:"not null"`
	ConsumerSecret string     `json:"-" gorm:"not null"`
	LastSyncAt     *time.Time `json:"last_sync_at"`
	CreatedAt      time.Time  `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Products []Product `json:"-" gorm:"foreignKey:ConnectionID;constraint:OnDelete:CASCADE"`
	Jobs     []Job     `json:"-" gorm:"foreignKey:ConnectionID;constraint:OnDelete:CASCADE"`
}
