package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobTypeSync       = "sync"
	JobTypeGeneration = "generation"

	JobStatusPending    = "pending"
	JobStatusFetching   = "fetching"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job is one asynchronous unit of work. A single table carries both
// families; family-specific columns are nullable on the other family.
// Only the owning orchestrator mutates a job, and a terminal status
// (completed/failed) is never written over.
type Job struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Type        string     `json:"type" binding:"required,oneof=sync generation" gorm:"not null;index"`
	Status      string     `json:"status" binding:"required,oneof=pending fetching processing completed failed" gorm:"not null;index"`
	OwnerID     uuid.UUID  `json:"owner_id" gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;autoCreateTime"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ErrorMsg    string     `json:"error_message,omitempty" gorm:"column:error_message;type:text"`

	// Sync family
	ConnectionID      *uuid.UUID `json:"connection_id,omitempty" gorm:"type:uuid;index"`
	OnlyInStock       bool       `json:"only_in_stock"`
	TotalProducts     int        `json:"total_products"`
	ProcessedProducts int        `json:"processed_products"`
	CreatedCount      int        `json:"created_count"`
	UpdatedCount      int        `json:"updated_count"`
	SkippedCount      int        `json:"skipped_count"`

	// Generation family
	SessionID *uuid.UUID     `json:"session_id,omitempty" gorm:"type:uuid;index"`
	MessageID *uuid.UUID     `json:"message_id,omitempty" gorm:"type:uuid"`
	ProductID *uuid.UUID     `json:"product_id,omitempty" gorm:"type:uuid"`
	Progress  int            `json:"progress"`
	Input     datatypes.JSON `json:"input,omitempty" gorm:"type:jsonb"`
	Output    datatypes.JSON `json:"output,omitempty" gorm:"type:jsonb"`
}

// Terminal reports whether the job can never transition again.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Active reports whether the job still has an orchestrator running it.
func (j *Job) Active() bool {
	return !j.Terminal()
}
