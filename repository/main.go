package repository

import (
	"github.com/velora/catalog-service/infra"
)

type Repository struct {
	ConnectionRepo *ConnectionRepository
	ProductRepo    *ProductRepository
	JobRepo        *JobRepository
	ChatRepo       *ChatRepository
	CredentialRepo *CredentialRepository
}

var repository *Repository

func InitRepository(infra *infra.Infra) *Repository {
	repository = &Repository{
		ConnectionRepo: NewConnectionRepository(infra.Postgres.DB),
		ProductRepo:    NewProductRepository(infra.Postgres.DB),
		JobRepo:        NewJobRepository(infra.Postgres.DB),
		ChatRepo:       NewChatRepository(infra.Postgres.DB),
		CredentialRepo: NewCredentialRepository(infra.Postgres.DB),
	}
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}
