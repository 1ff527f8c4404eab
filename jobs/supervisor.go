package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/velora/catalog-service/entity"
)

// SyncParams describes a catalog reconciliation request.
type SyncParams struct {
	ConnectionID uuid.UUID
	OnlyInStock  bool
}

// GenerationParams describes an AI content-generation request. Content is
// the user-authored chat message; Input is captured verbatim onto the job.
type GenerationParams struct {
	SessionID uuid.UUID
	Content   string
	Input     GenerationInput
}

// Supervisor accepts job-creation requests, persists the initial record
// synchronously so the returned id is immediately valid for lookup, then
// dispatches the matching orchestrator without awaiting it. Each dispatched
// run is a tracked task: tests and shutdown can Wait on it while the
// production caller path returns immediately.
type Supervisor struct {
	store       *Store
	connections ConnectionStore
	chats       ChatStore
	syncs       *SyncOrchestrator
	generations *GenerationOrchestrator
	logger      Logger

	mu    sync.Mutex
	tasks map[uuid.UUID]chan struct{}
}

func NewSupervisor(
	store *Store,
	connections ConnectionStore,
	chats ChatStore,
	syncs *SyncOrchestrator,
	generations *GenerationOrchestrator,
	logger Logger,
) *Supervisor {
	return &Supervisor{
		store:       store,
		connections: connections,
		chats:       chats,
		syncs:       syncs,
		generations: generations,
		logger:      logger,
		tasks:       make(map[uuid.UUID]chan struct{}),
	}
}

// CreateSyncJob validates the owning connection, persists a pending sync
// job and dispatches its orchestrator. Validation failures surface
// synchronously and no job row is ever written for them.
func (s *Supervisor) CreateSyncJob(ctx context.Context, ownerID uuid.UUID, params SyncParams) (*entity.Job, error) {
	conn, err := s.connections.FindByID(ctx, params.ConnectionID)
	if err != nil {
		return nil, fmt.Errorf("resolve connection: %w", err)
	}
	if conn == nil || conn.OwnerID != ownerID {
		return nil, &ValidationError{Reason: fmt.Sprintf("connection %s not found", params.ConnectionID)}
	}

	connectionID := params.ConnectionID
	job := &entity.Job{
		ID:           uuid.New(),
		Type:         entity.JobTypeSync,
		Status:       entity.JobStatusPending,
		OwnerID:      ownerID,
		ConnectionID: &connectionID,
		OnlyInStock:  params.OnlyInStock,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}

	dispatched := *job
	s.dispatch(job.ID, func(runCtx context.Context) {
		s.syncs.Run(runCtx, &dispatched)
	})
	return job, nil
}

// CreateGenerationJob validates the owning session, persists the
// user-authored message first, then the pending job referencing it (so the
// message's createdAt precedes every progress update), and dispatches the
// orchestrator.
func (s *Supervisor) CreateGenerationJob(ctx context.Context, ownerID uuid.UUID, params GenerationParams) (*entity.Job, error) {
	session, err := s.chats.FindSessionByID(ctx, params.SessionID)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if session == nil || session.OwnerID != ownerID {
		return nil, &ValidationError{Reason: fmt.Sprintf("session %s not found", params.SessionID)}
	}
	if params.Input.Prompt == "" {
		return nil, &ValidationError{Reason: "prompt is required"}
	}

	userMsg := &entity.ChatMessage{
		ID:        uuid.New(),
		SessionID: params.SessionID,
		Role:      entity.ChatRoleUser,
		Content:   params.Content,
	}
	if err := s.chats.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	input, err := json.Marshal(params.Input)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}

	sessionID := params.SessionID
	job := &entity.Job{
		ID:        uuid.New(),
		Type:      entity.JobTypeGeneration,
		Status:    entity.JobStatusPending,
		OwnerID:   ownerID,
		SessionID: &sessionID,
		MessageID: &userMsg.ID,
		ProductID: params.Input.ProductID,
		Input:     datatypes.JSON(input),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}

	s.dispatch(job.ID, func(runCtx context.Context) {
		s.generations.Run(runCtx, job.ID)
	})
	return job, nil
}

// dispatch schedules the orchestrator run as a tracked task. The run gets a
// fresh background context: the HTTP request context is canceled the moment
// the caller receives the job id.
func (s *Supervisor) dispatch(jobID uuid.UUID, run func(ctx context.Context)) {
	done := make(chan struct{})
	s.mu.Lock()
	s.tasks[jobID] = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			delete(s.tasks, jobID)
			s.mu.Unlock()
		}()
		run(context.Background())
	}()
}

// Wait blocks until the dispatched run for jobID finishes. Returns
// immediately when no task is tracked (already finished or never existed).
func (s *Supervisor) Wait(jobID uuid.UUID) {
	s.mu.Lock()
	done := s.tasks[jobID]
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// WaitAll blocks until every in-flight run finishes. Used on shutdown.
func (s *Supervisor) WaitAll() {
	s.mu.Lock()
	pending := make([]chan struct{}, 0, len(s.tasks))
	for _, done := range s.tasks {
		pending = append(pending, done)
	}
	s.mu.Unlock()
	for _, done := range pending {
		<-done
	}
}
