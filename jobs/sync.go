package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/velora/catalog-service/entity"
)

// counterFlushInterval is how many processed items pass between persisted
// progress updates. The last item of the job always flushes.
const counterFlushInterval = 5

// SyncOrchestrator drives one catalog reconciliation job end-to-end:
// pending → fetching → processing → completed|failed. Pages are fetched and
// reconciled strictly in order so the running counters stay consistent with
// the total discovered on page 1. A single item's variation failure is
// isolated; any other error is terminal for the job (retry means creating a
// new job).
type SyncOrchestrator struct {
	store       *Store
	products    ProductStore
	connections ConnectionStore
	source      SourceAdapter
	notifier    *Notifier
	events      Events
	logger      Logger
	pageSize    int
}

func NewSyncOrchestrator(
	store *Store,
	products ProductStore,
	connections ConnectionStore,
	source SourceAdapter,
	notifier *Notifier,
	events Events,
	logger Logger,
	pageSize int,
) *SyncOrchestrator {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &SyncOrchestrator{
		store:       store,
		products:    products,
		connections: connections,
		source:      source,
		notifier:    notifier,
		events:      events,
		logger:      logger,
		pageSize:    pageSize,
	}
}

type syncCounters struct {
	processed int
	created   int
	updated   int
	skipped   int
}

func (c *syncCounters) fields() map[string]interface{} {
	return map[string]interface{}{
		"processed_products": c.processed,
		"created_count":      c.created,
		"updated_count":      c.updated,
		"skipped_count":      c.skipped,
	}
}

// Run executes the job to a terminal state. Nothing escapes: every failure
// becomes an observable terminal job state, never an error visible to the
// caller that triggered the job (it has already received a response).
func (o *SyncOrchestrator) Run(ctx context.Context, job *entity.Job) {
	defer o.notifier.Unregister(job.ID)

	if err := o.run(ctx, job); err != nil {
		o.fail(ctx, job, err)
	}
	o.publishTerminalEvent(ctx, job.ID)
}

func (o *SyncOrchestrator) run(ctx context.Context, job *entity.Job) error {
	if job.ConnectionID == nil {
		return fmt.Errorf("sync job %s has no connection", job.ID)
	}
	conn, err := o.connections.FindByID(ctx, *job.ConnectionID)
	if err != nil {
		return fmt.Errorf("resolve connection: %w", err)
	}
	if conn == nil {
		return fmt.Errorf("connection %s no longer exists", *job.ConnectionID)
	}

	startedAt := time.Now().UTC()
	if _, err := o.store.UpdateFields(ctx, job.ID, map[string]interface{}{
		"status":     entity.JobStatusFetching,
		"started_at": startedAt,
	}); err != nil {
		return fmt.Errorf("mark fetching: %w", err)
	}

	// Page 1 carries the authoritative totals.
	page, err := o.source.ListPage(ctx, conn, 1, o.pageSize, job.OnlyInStock)
	if err != nil {
		return &AdapterError{Op: "list page 1", Err: err}
	}
	totalPages := page.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}

	if _, err := o.store.UpdateFields(ctx, job.ID, map[string]interface{}{
		"status":         entity.JobStatusProcessing,
		"total_products": page.TotalCount,
	}); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	o.logger.InfoWithContextf(ctx, "[Sync] job %s: %d products across %d pages", job.ID, page.TotalCount, totalPages)

	var counters syncCounters
	for pageNum := 1; ; pageNum++ {
		if pageNum > 1 {
			// Page N+1 is never requested before page N's items are
			// fully upserted.
			page, err = o.source.ListPage(ctx, conn, pageNum, o.pageSize, job.OnlyInStock)
			if err != nil {
				return &AdapterError{Op: fmt.Sprintf("list page %d", pageNum), Err: err}
			}
		}

		for i, item := range page.Items {
			if err := o.reconcileItem(ctx, conn, job, item, &counters); err != nil {
				return err
			}
			counters.processed++

			lastItem := pageNum >= totalPages && i == len(page.Items)-1
			if counters.processed%counterFlushInterval == 0 || lastItem {
				if _, err := o.store.UpdateFields(ctx, job.ID, counters.fields()); err != nil {
					return fmt.Errorf("persist counters: %w", err)
				}
			}
		}

		if pageNum >= totalPages {
			break
		}
	}

	if err := o.connections.UpdateLastSync(ctx, conn.ID, startedAt); err != nil {
		return fmt.Errorf("update connection last_sync_at: %w", err)
	}

	fields := counters.fields()
	fields["status"] = entity.JobStatusCompleted
	fields["completed_at"] = time.Now().UTC()
	if _, err := o.store.UpdateFields(ctx, job.ID, fields); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	o.logger.InfoWithContextf(ctx, "[Sync] job %s completed: %d processed, %d created, %d updated, %d skipped",
		job.ID, counters.processed, counters.created, counters.updated, counters.skipped)
	return nil
}

// reconcileItem upserts one source item by its natural key. Exactly one of
// created/updated/skipped moves per item. A failure while fetching or
// upserting the item's variations is logged and swallowed; it must never
// abort the job.
func (o *SyncOrchestrator) reconcileItem(ctx context.Context, conn *entity.Connection, job *entity.Job, item SourceProduct, counters *syncCounters) error {
	if item.ExternalID == 0 || (job.OnlyInStock && !item.InStock) {
		counters.skipped++
		return nil
	}

	parent, created, err := o.upsert(ctx, conn, item, nil, item.Name)
	if err != nil {
		return err
	}
	if created {
		counters.created++
	} else {
		counters.updated++
	}

	if item.HasVariations() {
		if err := o.reconcileVariations(ctx, conn, parent, item); err != nil {
			partial := &PartialItemError{ExternalID: item.ExternalID, Err: err}
			o.logger.WarningWithContextf(ctx, "[Sync] job %s: variations failed, continuing: %v", job.ID, partial)
		}
	}
	return nil
}

func (o *SyncOrchestrator) reconcileVariations(ctx context.Context, conn *entity.Connection, parent *entity.Product, item SourceProduct) error {
	children, err := o.source.ListChildren(ctx, conn, item.ExternalID)
	if err != nil {
		return &AdapterError{Op: fmt.Sprintf("list children of %d", item.ExternalID), Err: err}
	}
	for _, child := range children {
		if child.ExternalID == 0 {
			continue
		}
		name := variationName(parent.Name, child)
		if _, _, err := o.upsert(ctx, conn, child, &parent.ID, name); err != nil {
			return err
		}
	}
	return nil
}

// upsert inserts or wholesale-overwrites a product row by natural key.
func (o *SyncOrchestrator) upsert(ctx context.Context, conn *entity.Connection, item SourceProduct, parentID *uuid.UUID, name string) (*entity.Product, bool, error) {
	existing, err := o.products.FindByNaturalKey(ctx, conn.ID, item.ExternalID)
	if err != nil {
		return nil, false, fmt.Errorf("lookup product %d: %w", item.ExternalID, err)
	}

	attrs, err := marshalAttributes(item.Attributes)
	if err != nil {
		return nil, false, fmt.Errorf("encode attributes of %d: %w", item.ExternalID, err)
	}

	now := time.Now().UTC()
	itemType := item.Type
	if parentID != nil {
		itemType = "variation"
	}

	if existing == nil {
		product := &entity.Product{
			ID:            uuid.New(),
			ConnectionID:  conn.ID,
			ExternalID:    item.ExternalID,
			ParentID:      parentID,
			Name:          name,
			Type:          itemType,
			Price:         item.Price,
			InStock:       item.InStock,
			StockQuantity: item.StockQuantity,
			ImageURL:      item.ImageURL,
			Attributes:    attrs,
			SyncedAt:      now,
		}
		if err := o.products.Create(ctx, product); err != nil {
			return nil, false, fmt.Errorf("insert product %d: %w", item.ExternalID, err)
		}
		return product, true, nil
	}

	existing.ParentID = parentID
	existing.Name = name
	existing.Type = itemType
	existing.Price = item.Price
	existing.InStock = item.InStock
	existing.StockQuantity = item.StockQuantity
	existing.ImageURL = item.ImageURL
	existing.Attributes = attrs
	existing.SyncedAt = now
	if err := o.products.Update(ctx, existing); err != nil {
		return nil, false, fmt.Errorf("update product %d: %w", item.ExternalID, err)
	}
	return existing, false, nil
}

func (o *SyncOrchestrator) fail(ctx context.Context, job *entity.Job, cause error) {
	o.logger.ErrorWithContextf(ctx, cause, "[Sync] job %s failed", job.ID)
	if _, err := o.store.UpdateFields(ctx, job.ID, map[string]interface{}{
		"status":        entity.JobStatusFailed,
		"error_message": cause.Error(),
		"completed_at":  time.Now().UTC(),
	}); err != nil {
		o.logger.ErrorWithContextf(ctx, err, "[Sync] job %s: failed to record terminal failure", job.ID)
	}
}

func (o *SyncOrchestrator) publishTerminalEvent(ctx context.Context, jobID uuid.UUID) {
	if o.events == nil {
		return
	}
	job, err := o.store.GetByID(ctx, jobID)
	if err != nil || !job.Terminal() {
		return
	}
	if err := o.events.PublishJobEvent(ctx, SnapshotOf(job)); err != nil {
		o.logger.WarningWithContextf(ctx, "[Sync] job %s: event publish failed: %v", jobID, err)
	}
}

// variationName joins the variation's attribute options with " / ". When the
// variation carries no attributes the name falls back to
// "<parent name> - Variation <externalID>".
func variationName(parentName string, child SourceProduct) string {
	options := make([]string, 0, len(child.Attributes))
	for _, attr := range child.Attributes {
		if attr.Option != "" {
			options = append(options, attr.Option)
		}
	}
	if len(options) == 0 {
		return fmt.Sprintf("%s - Variation %d", parentName, child.ExternalID)
	}
	return strings.Join(options, " / ")
}

func marshalAttributes(attrs []SourceAttribute) (datatypes.JSON, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
