package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Product mirrors one item of an external catalog store.
// (external_id, connection_id) is the natural key: re-syncing the same
// connection never creates a second row for the same external item.
type Product struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ConnectionID  uuid.UUID      `json:"connection_id" gorm:"type:uuid;not null;uniqueIndex:idx_products_natural_key"`
	ExternalID    int64          `json:"external_id" gorm:"not null;uniqueIndex:idx_products_natural_key"`
	ParentID      *uuid.UUID     `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	Name          string         `json:"name" gorm:"type:varchar(512);not null"`
	Type          string         `json:"type" gorm:"type:varchar(50)"` // e.g. "simple", "variable", "variation"
	Price         string         `json:"price" gorm:"type:varchar(50)"`
	InStock       bool           `json:"in_stock"`
	StockQuantity int            `json:"stock_quantity"`
	ImageURL      string         `json:"image_url" gorm:"type:varchar(1024)"`
	Attributes    datatypes.JSON `json:"attributes,omitempty" gorm:"type:jsonb"`
	SyncedAt      time.Time      `json:"synced_at" gorm:"not null;index"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}
