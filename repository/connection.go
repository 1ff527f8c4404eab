package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora/catalog-service/entity"
)

type ConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) Create(ctx context.Context, conn *entity.Connection) error {
	return r.db.WithContext(ctx).Create(conn).Error
}

// FindByID returns (nil, nil) when no connection exists for the id.
func (r *ConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Connection, error) {
	var conn entity.Connection
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *ConnectionRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Connection, error) {
	var conns []entity.Connection
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *ConnectionRepository) Update(ctx context.Context, conn *entity.Connection) error {
	return r.db.WithContext(ctx).Save(conn).Error
}

func (r *ConnectionRepository) UpdateLastSync(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Connection{}).
		Where("id = ?", id).
		Update("last_sync_at", syncedAt).Error
}

// Delete removes the connection; jobs and mirrored products cascade.
func (r *ConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Connection{}, "id = ?", id).Error
}
