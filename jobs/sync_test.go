package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora/catalog-service/entity"
)

func makeItems(n int) []SourceProduct {
	items := make([]SourceProduct, n)
	for i := range items {
		items[i] = SourceProduct{
			ExternalID:    int64(i + 1),
			Name:          fmt.Sprintf("Product %d", i+1),
			Type:          "simple",
			Price:         "9.99",
			InStock:       true,
			StockQuantity: 10,
		}
	}
	return items
}

type syncHarness struct {
	records      *fakeJobRecords
	products     *fakeProductStore
	connections  *fakeConnectionStore
	source       *fakeSource
	notifier     *Notifier
	events       *fakeEvents
	store        *Store
	orchestrator *SyncOrchestrator
	connection   *entity.Connection
}

func newSyncHarness(t *testing.T, pageSize int, items []SourceProduct) *syncHarness {
	t.Helper()
	conn := &entity.Connection{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Name:    "test store",
		BaseURL: "http://store.local",
	}
	h := &syncHarness{
		records:     newFakeJobRecords(),
		products:    newFakeProductStore(),
		connections: newFakeConnectionStore(conn),
		source:      newFakeSource(pageSize, items),
		notifier:    NewNotifier(),
		events:      &fakeEvents{},
		connection:  conn,
	}
	h.store = NewStore(h.records, h.notifier)
	h.orchestrator = NewSyncOrchestrator(
		h.store, h.products, h.connections, h.source, h.notifier, h.events, nopLogger{}, pageSize,
	)
	return h
}

func (h *syncHarness) newJob(t *testing.T, onlyInStock bool) *entity.Job {
	t.Helper()
	connID := h.connection.ID
	job := &entity.Job{
		ID:           uuid.New(),
		Type:         entity.JobTypeSync,
		Status:       entity.JobStatusPending,
		OwnerID:      h.connection.OwnerID,
		ConnectionID: &connID,
		OnlyInStock:  onlyInStock,
	}
	require.NoError(t, h.store.Create(context.Background(), job))
	return job
}

func TestSyncCompletesAcrossPages(t *testing.T) {
	h := newSyncHarness(t, 100, makeItems(250))
	job := h.newJob(t, false)

	h.orchestrator.Run(context.Background(), job)

	final, err := h.store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
	assert.Equal(t, 250, final.TotalProducts)
	assert.Equal(t, 250, final.ProcessedProducts)
	assert.Equal(t, 250, final.CreatedCount)
	assert.Equal(t, 0, final.UpdatedCount)
	assert.Equal(t, 0, final.SkippedCount)
	assert.NotNil(t, final.StartedAt)
	assert.NotNil(t, final.CompletedAt)
	assert.Equal(t, 250, h.products.count())

	// Pages requested strictly in order.
	assert.Equal(t, []int{1, 2, 3}, h.source.pageCalls)

	// last_sync_at reflects the run start.
	lastSync, ok := h.connections.lastSync[h.connection.ID]
	require.True(t, ok)
	assert.Equal(t, *final.StartedAt, lastSync)
}

func TestSyncSecondRunUpdatesExistingRows(t *testing.T) {
	h := newSyncHarness(t, 100, makeItems(30))

	first := h.newJob(t, false)
	h.orchestrator.Run(context.Background(), first)

	second := h.newJob(t, false)
	h.orchestrator.Run(context.Background(), second)

	final, err := h.store.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
	assert.Equal(t, 0, final.CreatedCount)
	assert.Equal(t, 30, final.UpdatedCount)
	assert.Equal(t, 30, h.products.count())
}

func TestSyncSkipsInvalidAndOutOfStockItems(t *testing.T) {
	items := makeItems(4)
	items[1].ExternalID = 0
	items[2].InStock = false

	h := newSyncHarness(t, 100, items)
	job := h.newJob(t, true)

	h.orchestrator.Run(context.Background(), job)

	final, err := h.store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
	assert.Equal(t, 4, final.ProcessedProducts)
	assert.Equal(t, 2, final.CreatedCount)
	assert.Equal(t, 2, final.SkippedCount)
}

func TestSyncVariationFailureDoesNotAbortJob(t *testing.T) {
	items := makeItems(3)
	items[0].Type = "variable"

	h := newSyncHarness(t, 100, items)
	h.source.childErrs[items[0].ExternalID] = errors.New("boom")
	job := h.newJob(t, false)

	h.orchestrator.Run(context.Background(), job)

	final, err := h.store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
	assert.Equal(t, 3, final.ProcessedProducts)
	assert.Equal(t, 3, final.CreatedCount)
}

func TestSyncVariationsUpsertedUnderParent(t *testing.T) {
	items := makeItems(1)
	items[0].Type = "variable"

	h := newSyncHarness(t, 100, items)
	h.source.children[items[0].ExternalID] = []SourceProduct{
		{
			ExternalID: 100,
			Price:      "12.99",
			InStock:    true,
			Attributes: []SourceAttribute{
				{Name: "Color", Option: "Red"},
				{Name: "Size", Option: "XL"},
			},
		},
		{
			ExternalID: 101,
			Price:      "11.99",
			InStock:    true,
		},
	}
	job := h.newJob(t, false)

	h.orchestrator.Run(context.Background(), job)

	parent := h.products.get(h.connection.ID, items[0].ExternalID)
	require.NotNil(t, parent)

	withAttrs := h.products.get(h.connection.ID, 100)
	require.NotNil(t, withAttrs)
	assert.Equal(t, "Red / XL", withAttrs.Name)
	assert.Equal(t, "variation", withAttrs.Type)
	require.NotNil(t, withAttrs.ParentID)
	assert.Equal(t, parent.ID, *withAttrs.ParentID)

	withoutAttrs := h.products.get(h.connection.ID, 101)
	require.NotNil(t, withoutAttrs)
	assert.Equal(t, "Product 1 - Variation 101", withoutAttrs.Name)

	// Children do not move the parent-level counters.
	final, err := h.store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, final.ProcessedProducts)
	assert.Equal(t, 1, final.CreatedCount)
}

func TestSyncAdapterFailureGoesTerminalFailed(t *testing.T) {
	h := newSyncHarness(t, 100, makeItems(5))
	h.source.pageErrs[1] = errors.New("connection refused")
	job := h.newJob(t, false)

	h.orchestrator.Run(context.Background(), job)

	final, err := h.store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, final.Status)
	assert.Contains(t, final.ErrorMsg, "connection refused")
	assert.NotNil(t, final.CompletedAt)
}

func TestSyncMidRunPageFailureKeepsPartialCounters(t *testing.T) {
	h := newSyncHarness(t, 10, makeItems(25))
	h.source.pageErrs[3] = errors.New("timeout")
	job := h.newJob(t, false)

	h.orchestrator.Run(context.Background(), job)

	final, err := h.store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, final.Status)
	// Two full pages of ten were flushed before the failure.
	assert.Equal(t, 20, final.ProcessedProducts)
	assert.Equal(t, 20, final.CreatedCount)
}

func TestSyncCounterFlushCadence(t *testing.T) {
	h := newSyncHarness(t, 100, makeItems(7))
	job := h.newJob(t, false)

	sink := &collectSink{}
	h.notifier.Register(job.ID, sink)

	h.orchestrator.Run(context.Background(), job)

	var flushed []int
	for _, snapshot := range sink.all() {
		if snapshot.ProcessedProducts > 0 && !snapshot.Terminal() {
			flushed = append(flushed, snapshot.ProcessedProducts)
		}
	}
	// One flush every five items plus one for the final item; the terminal
	// update carries the counters again but is not an in-flight flush.
	assert.Equal(t, []int{5, 7}, flushed)
}

func TestSyncProgressMonotonicity(t *testing.T) {
	h := newSyncHarness(t, 10, makeItems(32))
	job := h.newJob(t, false)

	sink := &collectSink{}
	h.notifier.Register(job.ID, sink)

	h.orchestrator.Run(context.Background(), job)

	last := -1
	for _, snapshot := range sink.all() {
		assert.GreaterOrEqual(t, snapshot.ProcessedProducts, last)
		last = snapshot.ProcessedProducts
	}
	assert.Equal(t, 32, last)
}

func TestSyncDeletedConnectionFailsJob(t *testing.T) {
	h := newSyncHarness(t, 100, makeItems(5))
	missing := uuid.New()
	job := &entity.Job{
		ID:           uuid.New(),
		Type:         entity.JobTypeSync,
		Status:       entity.JobStatusPending,
		OwnerID:      uuid.New(),
		ConnectionID: &missing,
	}
	require.NoError(t, h.store.Create(context.Background(), job))

	h.orchestrator.Run(context.Background(), job)

	final, err := h.store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, final.Status)
	assert.Contains(t, final.ErrorMsg, "no longer exists")
}

func TestSyncPublishesTerminalEvent(t *testing.T) {
	h := newSyncHarness(t, 100, makeItems(3))
	job := h.newJob(t, false)

	h.orchestrator.Run(context.Background(), job)

	published := h.events.all()
	require.Len(t, published, 1)
	assert.Equal(t, job.ID, published[0].JobID)
	assert.Equal(t, entity.JobStatusCompleted, published[0].Status)
}

func TestVariationName(t *testing.T) {
	child := SourceProduct{
		ExternalID: 42,
		Attributes: []SourceAttribute{
			{Name: "Color", Option: "Blue"},
			{Name: "Material", Option: ""},
			{Name: "Size", Option: "M"},
		},
	}
	assert.Equal(t, "Blue / M", variationName("Shirt", child))

	bare := SourceProduct{ExternalID: 42}
	assert.Equal(t, "Shirt - Variation 42", variationName("Shirt", bare))
}
