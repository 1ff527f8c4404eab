package jobs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/velora/catalog-service/entity"
)

// GenerationInput is the full generation request, captured once at job
// creation. The orchestrator replays it from the job row and never reads
// live caller state: the triggering request has already returned.
type GenerationInput struct {
	Prompt          string     `json:"prompt"`
	Model           string     `json:"model,omitempty"`
	WantImage       bool       `json:"want_image,omitempty"`
	ReferenceImages []string   `json:"reference_images,omitempty"`
	ProductID       *uuid.UUID `json:"product_id,omitempty"`
}

// GenerationOutput is the summary persisted on a completed generation job.
type GenerationOutput struct {
	HasText   bool      `json:"has_text"`
	HasMedia  bool      `json:"has_media"`
	MessageID uuid.UUID `json:"message_id"`
}

// GenerationOrchestrator drives one AI content-generation job end-to-end:
// pending → processing → completed|failed.
type GenerationOrchestrator struct {
	store    *Store
	chats    ChatStore
	clients  GeneratorFactory
	storage  BlobStorage
	notifier *Notifier
	events   Events
	logger   Logger
}

func NewGenerationOrchestrator(
	store *Store,
	chats ChatStore,
	clients GeneratorFactory,
	storage BlobStorage,
	notifier *Notifier,
	events Events,
	logger Logger,
) *GenerationOrchestrator {
	return &GenerationOrchestrator{
		store:    store,
		chats:    chats,
		clients:  clients,
		storage:  storage,
		notifier: notifier,
		events:   events,
		logger:   logger,
	}
}

// Run executes the job to a terminal state. The top-level catch-all turns
// any unexpected failure into a best-effort terminal write; nothing ever
// propagates to the original caller.
func (o *GenerationOrchestrator) Run(ctx context.Context, jobID uuid.UUID) {
	defer o.notifier.Unregister(jobID)

	job, err := o.store.GetByID(ctx, jobID)
	if err != nil {
		o.logger.ErrorWithContextf(ctx, err, "[Generation] job %s vanished before dispatch", jobID)
		return
	}
	if job.Status != entity.JobStatusPending {
		// Duplicate dispatch; another run already owns this job.
		o.logger.WarningWithContextf(ctx, "[Generation] job %s already %s, skipping", jobID, job.Status)
		return
	}

	if err := o.run(ctx, job); err != nil {
		o.fail(ctx, job, err)
	}
	o.publishTerminalEvent(ctx, job.ID)
}

func (o *GenerationOrchestrator) run(ctx context.Context, job *entity.Job) error {
	if job.SessionID == nil {
		return fmt.Errorf("generation job %s has no session", job.ID)
	}

	if _, err := o.store.UpdateFields(ctx, job.ID, map[string]interface{}{
		"status":     entity.JobStatusProcessing,
		"started_at": time.Now().UTC(),
		"progress":   10,
	}); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	var input GenerationInput
	if err := json.Unmarshal(job.Input, &input); err != nil {
		return fmt.Errorf("decode persisted input: %w", err)
	}

	if _, err := o.store.UpdateFields(ctx, job.ID, map[string]interface{}{"progress": 30}); err != nil {
		return fmt.Errorf("persist progress: %w", err)
	}

	generator, err := o.clients.ClientFor(ctx, job.OwnerID)
	if err != nil {
		return o.failForUser(ctx, job, &AdapterError{Op: "resolve generation credential", Err: err})
	}

	result, err := generator.Generate(ctx, GenerationRequest{
		Prompt:          input.Prompt,
		Model:           input.Model,
		WantImage:       input.WantImage,
		ReferenceImages: input.ReferenceImages,
	})
	if err != nil {
		return o.failForUser(ctx, job, &AdapterError{Op: "generate", Err: err})
	}

	if _, err := o.store.UpdateFields(ctx, job.ID, map[string]interface{}{"progress": 80}); err != nil {
		return fmt.Errorf("persist progress: %w", err)
	}

	msg := &entity.ChatMessage{
		ID:        uuid.New(),
		SessionID: *job.SessionID,
		Role:      entity.ChatRoleAssistant,
		Content:   result.Text,
		JobID:     &job.ID,
	}
	if result.MediaB64 != "" {
		o.attachMedia(ctx, job, result.MediaB64, msg)
	}

	if err := o.chats.CreateMessage(ctx, msg); err != nil {
		return fmt.Errorf("persist assistant message: %w", err)
	}
	if err := o.chats.TouchSession(ctx, *job.SessionID); err != nil {
		o.logger.WarningWithContextf(ctx, "[Generation] job %s: session touch failed: %v", job.ID, err)
	}

	output, err := json.Marshal(GenerationOutput{
		HasText:   result.Text != "",
		HasMedia:  result.MediaB64 != "",
		MessageID: msg.ID,
	})
	if err != nil {
		return fmt.Errorf("encode output summary: %w", err)
	}

	if _, err := o.store.UpdateFields(ctx, job.ID, map[string]interface{}{
		"status":       entity.JobStatusCompleted,
		"completed_at": time.Now().UTC(),
		"progress":     100,
		"output":       datatypes.JSON(output),
	}); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	o.logger.InfoWithContextf(ctx, "[Generation] job %s completed, message %s", job.ID, msg.ID)
	return nil
}

// attachMedia persists the binary result via the Storage Adapter. An upload
// failure is non-fatal: the raw payload is kept inline on the message
// instead of a reference URL.
func (o *GenerationOrchestrator) attachMedia(ctx context.Context, job *entity.Job, mediaB64 string, msg *entity.ChatMessage) {
	payload, err := base64.StdEncoding.DecodeString(mediaB64)
	if err != nil {
		payload = []byte(mediaB64)
	}

	filename := fmt.Sprintf("%s.png", job.ID)
	blob, err := o.storage.Store(ctx, payload, job.OwnerID, filename)
	if err != nil {
		o.logger.WarningWithContextf(ctx, "[Generation] job %s: media upload failed, keeping payload inline: %v", job.ID, err)
		msg.InlineData = payload
		return
	}
	msg.MediaURL = blob.URL
}

// failForUser handles an adapter-reported error: the end user gets an
// assistant message describing the failure, the job goes terminal failed.
// No partial output is persisted.
func (o *GenerationOrchestrator) failForUser(ctx context.Context, job *entity.Job, cause error) error {
	msg := &entity.ChatMessage{
		ID:        uuid.New(),
		SessionID: *job.SessionID,
		Role:      entity.ChatRoleAssistant,
		Content:   fmt.Sprintf("Generation failed: %v. Please try again.", cause),
		JobID:     &job.ID,
	}
	if err := o.chats.CreateMessage(ctx, msg); err != nil {
		// Fall through to the catch-all; the terminal write still happens.
		return fmt.Errorf("persist failure message after %v: %w", cause, err)
	}
	if err := o.chats.TouchSession(ctx, *job.SessionID); err != nil {
		o.logger.WarningWithContextf(ctx, "[Generation] job %s: session touch failed: %v", job.ID, err)
	}

	o.fail(ctx, job, cause)
	return nil
}

func (o *GenerationOrchestrator) fail(ctx context.Context, job *entity.Job, cause error) {
	o.logger.ErrorWithContextf(ctx, cause, "[Generation] job %s failed", job.ID)
	if _, err := o.store.UpdateFields(ctx, job.ID, map[string]interface{}{
		"status":        entity.JobStatusFailed,
		"error_message": cause.Error(),
		"completed_at":  time.Now().UTC(),
		"progress":      100,
	}); err != nil {
		// Best effort only. Never propagate: the caller already returned.
		o.logger.ErrorWithContextf(ctx, err, "[Generation] job %s: failed to record terminal failure", job.ID)
	}
}

func (o *GenerationOrchestrator) publishTerminalEvent(ctx context.Context, jobID uuid.UUID) {
	if o.events == nil {
		return
	}
	job, err := o.store.GetByID(ctx, jobID)
	if err != nil || !job.Terminal() {
		return
	}
	if err := o.events.PublishJobEvent(ctx, SnapshotOf(job)); err != nil {
		o.logger.WarningWithContextf(ctx, "[Generation] job %s: event publish failed: %v", jobID, err)
	}
}
