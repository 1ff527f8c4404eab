package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/velora/catalog-service/entity"
)

// Store is the job persistence boundary. It owns no orchestration logic;
// its one addition over the raw records is publishing a progress snapshot
// after every update and guarding the terminal invariant at the single
// write path: a completed/failed status is never overwritten and
// completed_at is set exactly once.
type Store struct {
	records  JobRecords
	notifier *Notifier
}

func NewStore(records JobRecords, notifier *Notifier) *Store {
	return &Store{
		records:  records,
		notifier: notifier,
	}
}

// Create persists a new job. Callers set status to pending before the
// returned id is handed out, so the job is immediately pollable.
func (s *Store) Create(ctx context.Context, job *entity.Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	return s.records.Create(ctx, job)
}

// GetByID loads one job, failing with ErrJobNotFound if absent.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	job, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// UpdateFields applies a partial update and publishes the resulting
// snapshot to the notifier.
func (s *Store) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*entity.Job, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Terminal() {
		if status, ok := fields["status"]; ok && status != current.Status {
			return nil, fmt.Errorf("job %s is terminal (%s), refusing transition to %v", id, current.Status, status)
		}
	}
	if _, ok := fields["completed_at"]; ok && current.CompletedAt != nil {
		// Filter on a copy; the caller's map stays untouched.
		filtered := make(map[string]interface{}, len(fields))
		for column, value := range fields {
			if column != "completed_at" {
				filtered[column] = value
			}
		}
		fields = filtered
	}

	updated, err := s.records.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(updated.ID, SnapshotOf(updated))
	return updated, nil
}
