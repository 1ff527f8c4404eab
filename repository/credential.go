package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora/catalog-service/entity"
)

type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// FindByOwner returns (nil, nil) when the owner carries no override.
func (r *CredentialRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.AICredential, error) {
	var cred entity.AICredential
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Upsert creates or replaces the owner's override. Version increments on
// every update so cached generation clients keyed by (owner, version) are
// retired structurally.
func (r *CredentialRepository) Upsert(ctx context.Context, ownerID uuid.UUID, apiKey, model string) (*entity.AICredential, error) {
	existing, err := r.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		cred := &entity.AICredential{
			ID:      uuid.New(),
			OwnerID: ownerID,
			APIKey:  apiKey,
			Model:   model,
			Version: 1,
		}
		if err := r.db.WithContext(ctx).Create(cred).Error; err != nil {
			return nil, err
		}
		return cred, nil
	}

	existing.APIKey = apiKey
	existing.Model = model
	existing.Version++
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, ownerID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.AICredential{}, "owner_id = ?", ownerID).Error
}
