package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/velora/catalog-service/config"
	"github.com/velora/catalog-service/http/controller"
	routes "github.com/velora/catalog-service/http/route"
	infraPkg "github.com/velora/catalog-service/infra"
	"github.com/velora/catalog-service/jobs"
	"github.com/velora/catalog-service/repository"
)

func main() {
	err := godotenv.Load("staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	notifier := jobs.NewNotifier()
	store := jobs.NewStore(repo.JobRepo, notifier)

	syncs := jobs.NewSyncOrchestrator(
		store,
		repo.ProductRepo,
		repo.ConnectionRepo,
		infra.Source,
		notifier,
		infra.Produce.JobEvents,
		infra.Logger,
		cfg.EnvConfig.Sync.PageSize,
	)

	generatorFactory := infraPkg.InitGenerationFactory(cfg.EnvConfig, repo.CredentialRepo)
	generations := jobs.NewGenerationOrchestrator(
		store,
		repo.ChatRepo,
		generatorFactory,
		infra.Minio,
		notifier,
		infra.Produce.JobEvents,
		infra.Logger,
	)

	supervisor := jobs.NewSupervisor(
		store,
		repo.ConnectionRepo,
		repo.ChatRepo,
		syncs,
		generations,
		infra.Logger,
	)

	ctrl := controller.NewController(cfg, infra, repo, store, notifier, supervisor)
	router := routes.SetupRouter(ctrl)

	server := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("HTTP Server started on :8080")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Let dispatched orchestrator runs finish so no job is stranded in a
	// non-terminal status.
	supervisor.WaitAll()

	infra.Telemetry.Shutdown(shutdownCtx)
	log.Println("Shutdown complete")
}
