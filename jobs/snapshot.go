package jobs

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora/catalog-service/entity"
)

// Snapshot is one observable progress state of a job, published on every
// store update and emitted on the live-update channel.
type Snapshot struct {
	JobID             uuid.UUID `json:"job_id"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	OwnerID           uuid.UUID `json:"owner_id"`
	Progress          int       `json:"progress,omitempty"`
	TotalProducts     int       `json:"total_products,omitempty"`
	ProcessedProducts int       `json:"processed_products,omitempty"`
	CreatedCount      int       `json:"created_count,omitempty"`
	UpdatedCount      int       `json:"updated_count,omitempty"`
	SkippedCount      int       `json:"skipped_count,omitempty"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Terminal reports whether the snapshot is of a terminal state.
func (s Snapshot) Terminal() bool {
	return s.Status == entity.JobStatusCompleted || s.Status == entity.JobStatusFailed
}

// SnapshotOf builds a Snapshot from the current job row.
func SnapshotOf(job *entity.Job) Snapshot {
	return Snapshot{
		JobID:             job.ID,
		Type:              job.Type,
		Status:            job.Status,
		OwnerID:           job.OwnerID,
		Progress:          job.Progress,
		TotalProducts:     job.TotalProducts,
		ProcessedProducts: job.ProcessedProducts,
		CreatedCount:      job.CreatedCount,
		UpdatedCount:      job.UpdatedCount,
		SkippedCount:      job.SkippedCount,
		ErrorMessage:      job.ErrorMsg,
		Timestamp:         time.Now().UTC(),
	}
}
