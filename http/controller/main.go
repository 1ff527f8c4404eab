package controller

import (
	"github.com/velora/catalog-service/config"
	"github.com/velora/catalog-service/infra"
	"github.com/velora/catalog-service/jobs"
	"github.com/velora/catalog-service/repository"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Store      *jobs.Store
	Notifier   *jobs.Notifier
	Supervisor *jobs.Supervisor
}

func NewController(
	config *config.Config,
	infra *infra.Infra,
	repo *repository.Repository,
	store *jobs.Store,
	notifier *jobs.Notifier,
	supervisor *jobs.Supervisor,
) *Controller {
	if repo == nil {
		panic("Failed to initialize Repository")
	}
	if supervisor == nil {
		panic("Failed to initialize Supervisor")
	}
	return &Controller{
		Config:     config,
		Infra:      infra,
		Repository: repo,
		Store:      store,
		Notifier:   notifier,
		Supervisor: supervisor,
	}
}
