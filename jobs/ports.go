package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/velora/catalog-service/entity"
)

// SourceAttribute is one attribute of a source catalog item. Parent items
// carry the full option list; variation items carry the single chosen option.
type SourceAttribute struct {
	Name    string   `json:"name"`
	Option  string   `json:"option,omitempty"`
	Options []string `json:"options,omitempty"`
}

// SourceProduct is one item as returned by the external catalog store.
type SourceProduct struct {
	ExternalID    int64             `json:"id"`
	Name          string            `json:"name"`
	Type          string            `json:"type"`
	Price         string            `json:"price"`
	InStock       bool              `json:"in_stock"`
	StockQuantity int               `json:"stock_quantity"`
	ImageURL      string            `json:"image_url"`
	Attributes    []SourceAttribute `json:"attributes"`
}

// HasVariations reports whether the item owns child variations that must be
// fetched through a second adapter call.
func (p SourceProduct) HasVariations() bool {
	return p.Type == "variable"
}

// SourcePage is one page of the external listing. TotalCount and TotalPages
// are authoritative on page 1.
type SourcePage struct {
	Items      []SourceProduct
	TotalCount int
	TotalPages int
}

// SourceAdapter is the paginated external product API.
type SourceAdapter interface {
	ListPage(ctx context.Context, conn *entity.Connection, page, pageSize int, onlyInStock bool) (*SourcePage, error)
	ListChildren(ctx context.Context, conn *entity.Connection, parentExternalID int64) ([]SourceProduct, error)
}

// JobRecords is the persistence boundary for job rows. No business logic.
type JobRecords interface {
	Create(ctx context.Context, job *entity.Job) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*entity.Job, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
}

// ProductStore persists mirrored catalog items. FindByNaturalKey returns
// (nil, nil) when no row exists for the key.
type ProductStore interface {
	FindByNaturalKey(ctx context.Context, connectionID uuid.UUID, externalID int64) (*entity.Product, error)
	Create(ctx context.Context, product *entity.Product) error
	Update(ctx context.Context, product *entity.Product) error
}

// ConnectionStore resolves and touches owning connections. FindByID returns
// (nil, nil) when the connection does not exist.
type ConnectionStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Connection, error)
	UpdateLastSync(ctx context.Context, id uuid.UUID, syncedAt time.Time) error
}

// ChatStore persists chat sessions and messages. FindSessionByID returns
// (nil, nil) when the session does not exist.
type ChatStore interface {
	FindSessionByID(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error)
	CreateMessage(ctx context.Context, msg *entity.ChatMessage) error
	TouchSession(ctx context.Context, id uuid.UUID) error
}

// GenerationRequest is the adapter-facing shape of one generation call,
// resolved exclusively from the job's persisted input.
type GenerationRequest struct {
	Prompt          string
	Model           string
	WantImage       bool
	ReferenceImages []string
}

// GenerationResult is what the Generation Adapter produced. MediaB64 is the
// base64-encoded binary payload when the result includes media.
type GenerationResult struct {
	Text     string
	MediaB64 string
}

// Generator is the external AI content-generation call.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// GeneratorFactory resolves the generation client for a job's owner: the
// per-owner credential override when present, else the process-wide default.
type GeneratorFactory interface {
	ClientFor(ctx context.Context, ownerID uuid.UUID) (Generator, error)
}

// StoredBlob is the result of persisting a binary payload.
type StoredBlob struct {
	URL string
	Key string
}

// BlobStorage persists binary media payloads.
type BlobStorage interface {
	Store(ctx context.Context, payload []byte, ownerID uuid.UUID, filename string) (*StoredBlob, error)
	Delete(ctx context.Context, key string) error
}

// Events receives terminal job events for external observers. Publishing is
// best-effort; the Job Store stays authoritative.
type Events interface {
	PublishJobEvent(ctx context.Context, snapshot Snapshot) error
}

// Logger is the subset of the infra logger the orchestrators use.
type Logger interface {
	InfoWithContextf(ctx context.Context, format string, args ...interface{})
	WarningWithContextf(ctx context.Context, format string, args ...interface{})
	ErrorWithContextf(ctx context.Context, err error, format string, args ...interface{})
}
