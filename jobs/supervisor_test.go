package jobs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora/catalog-service/entity"
)

type supervisorHarness struct {
	sync       *syncHarness
	generation *generationHarness
	supervisor *Supervisor
}

// newSupervisorHarness wires both orchestrators over a single store so jobs
// of either family land in the same records.
func newSupervisorHarness(t *testing.T) *supervisorHarness {
	t.Helper()
	sh := newSyncHarness(t, 100, makeItems(12))
	gh := newGenerationHarness(t, &GenerationResult{Text: "done"})

	// Share the sync harness's store for both families.
	gh.store = sh.store
	gh.orchestrator = NewGenerationOrchestrator(
		sh.store, gh.chats, gh.factory, gh.storage, sh.notifier, gh.events, nopLogger{},
	)

	supervisor := NewSupervisor(
		sh.store, sh.connections, gh.chats, sh.orchestrator, gh.orchestrator, nopLogger{},
	)
	return &supervisorHarness{sync: sh, generation: gh, supervisor: supervisor}
}

func TestCreateSyncJobUnknownConnection(t *testing.T) {
	h := newSupervisorHarness(t)

	_, err := h.supervisor.CreateSyncJob(context.Background(), uuid.New(), SyncParams{
		ConnectionID: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	// No job row is written for a rejected request.
	assert.Empty(t, h.sync.records.jobs)
}

func TestCreateSyncJobWrongOwner(t *testing.T) {
	h := newSupervisorHarness(t)

	_, err := h.supervisor.CreateSyncJob(context.Background(), uuid.New(), SyncParams{
		ConnectionID: h.sync.connection.ID,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCreateSyncJobReturnsPendingImmediately(t *testing.T) {
	h := newSupervisorHarness(t)

	job, err := h.supervisor.CreateSyncJob(context.Background(), h.sync.connection.OwnerID, SyncParams{
		ConnectionID: h.sync.connection.ID,
		OnlyInStock:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusPending, job.Status)
	assert.True(t, job.OnlyInStock)

	h.supervisor.Wait(job.ID)

	final, err := h.sync.store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
	assert.Equal(t, 12, final.ProcessedProducts)
}

func TestCreateGenerationJobUnknownSession(t *testing.T) {
	h := newSupervisorHarness(t)

	_, err := h.supervisor.CreateGenerationJob(context.Background(), uuid.New(), GenerationParams{
		SessionID: uuid.New(),
		Content:   "hello",
		Input:     GenerationInput{Prompt: "hello"},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Empty(t, h.generation.chats.allMessages())
}

func TestCreateGenerationJobRequiresPrompt(t *testing.T) {
	h := newSupervisorHarness(t)

	_, err := h.supervisor.CreateGenerationJob(context.Background(), h.generation.session.OwnerID, GenerationParams{
		SessionID: h.generation.session.ID,
		Content:   "",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCreateGenerationJobPersistsUserMessageFirst(t *testing.T) {
	h := newSupervisorHarness(t)

	job, err := h.supervisor.CreateGenerationJob(context.Background(), h.generation.session.OwnerID, GenerationParams{
		SessionID: h.generation.session.ID,
		Content:   "write me a product description",
		Input:     GenerationInput{Prompt: "write me a product description"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusPending, job.Status)
	require.NotNil(t, job.MessageID)

	h.supervisor.Wait(job.ID)

	messages := h.generation.chats.allMessages()
	require.Len(t, messages, 2)
	assert.Equal(t, entity.ChatRoleUser, messages[0].Role)
	assert.Equal(t, *job.MessageID, messages[0].ID)
	assert.Equal(t, entity.ChatRoleAssistant, messages[1].Role)

	final, err := h.sync.store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
	assert.Equal(t, 100, final.Progress)
}

func TestSupervisorWaitAll(t *testing.T) {
	h := newSupervisorHarness(t)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		job, err := h.supervisor.CreateSyncJob(context.Background(), h.sync.connection.OwnerID, SyncParams{
			ConnectionID: h.sync.connection.ID,
		})
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}

	h.supervisor.WaitAll()

	for _, id := range ids {
		final, err := h.sync.store.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, final.Terminal())
	}
}

func TestSupervisorWaitUnknownJobReturns(t *testing.T) {
	h := newSupervisorHarness(t)
	h.supervisor.Wait(uuid.New())
}
