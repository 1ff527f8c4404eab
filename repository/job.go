package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora/catalog-service/entity"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// FindByID returns (nil, nil) when no job exists for the id.
func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	var job entity.Job
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateFields applies a partial update and returns the reloaded row.
func (r *JobRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*entity.Job, error) {
	if err := r.db.WithContext(ctx).Model(&entity.Job{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return nil, err
	}

	var job entity.Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, status string) ([]entity.Job, error) {
	var jobs []entity.Job
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// FindActiveByOwner lists jobs that still have an orchestrator running them.
func (r *JobRepository) FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Job, error) {
	var jobs []entity.Job
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status IN ?", ownerID,
			[]string{entity.JobStatusPending, entity.JobStatusFetching, entity.JobStatusProcessing}).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// FindActiveSyncForConnection returns the most recent non-terminal sync job
// for a connection, or (nil, nil) when none is running.
func (r *JobRepository) FindActiveSyncForConnection(ctx context.Context, connectionID uuid.UUID) (*entity.Job, error) {
	var job entity.Job
	err := r.db.WithContext(ctx).
		Where("connection_id = ? AND type = ? AND status IN ?", connectionID, entity.JobTypeSync,
			[]string{entity.JobStatusPending, entity.JobStatusFetching, entity.JobStatusProcessing}).
		Order("created_at DESC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}
