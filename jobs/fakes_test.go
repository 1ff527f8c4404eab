package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/velora/catalog-service/entity"
)

type fakeJobRecords struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entity.Job
}

func newFakeJobRecords() *fakeJobRecords {
	return &fakeJobRecords{jobs: make(map[uuid.UUID]*entity.Job)}
}

func (f *fakeJobRecords) Create(_ context.Context, job *entity.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *job
	f.jobs[job.ID] = &stored
	return nil
}

func (f *fakeJobRecords) FindByID(_ context.Context, id uuid.UUID) (*entity.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRecords) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) (*entity.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	for key, value := range fields {
		switch key {
		case "status":
			job.Status = value.(string)
		case "error_message":
			job.ErrorMsg = value.(string)
		case "started_at":
			t := value.(time.Time)
			job.StartedAt = &t
		case "completed_at":
			t := value.(time.Time)
			job.CompletedAt = &t
		case "total_products":
			job.TotalProducts = value.(int)
		case "processed_products":
			job.ProcessedProducts = value.(int)
		case "created_count":
			job.CreatedCount = value.(int)
		case "updated_count":
			job.UpdatedCount = value.(int)
		case "skipped_count":
			job.SkippedCount = value.(int)
		case "progress":
			job.Progress = value.(int)
		case "output":
			job.Output = value.(datatypes.JSON)
		default:
			return nil, fmt.Errorf("unexpected field %q", key)
		}
	}
	copied := *job
	return &copied, nil
}

type productKey struct {
	connectionID uuid.UUID
	externalID   int64
}

type fakeProductStore struct {
	mu       sync.Mutex
	products map[productKey]*entity.Product
	creates  int
	updates  int
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[productKey]*entity.Product)}
}

func (f *fakeProductStore) FindByNaturalKey(_ context.Context, connectionID uuid.UUID, externalID int64) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[productKey{connectionID, externalID}]
	if !ok {
		return nil, nil
	}
	copied := *product
	return &copied, nil
}

func (f *fakeProductStore) Create(_ context.Context, product *entity.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *product
	f.products[productKey{product.ConnectionID, product.ExternalID}] = &stored
	f.creates++
	return nil
}

func (f *fakeProductStore) Update(_ context.Context, product *entity.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *product
	f.products[productKey{product.ConnectionID, product.ExternalID}] = &stored
	f.updates++
	return nil
}

func (f *fakeProductStore) get(connectionID uuid.UUID, externalID int64) *entity.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[productKey{connectionID, externalID}]
}

func (f *fakeProductStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products)
}

type fakeConnectionStore struct {
	mu          sync.Mutex
	connections map[uuid.UUID]*entity.Connection
	lastSync    map[uuid.UUID]time.Time
}

func newFakeConnectionStore(conns ...*entity.Connection) *fakeConnectionStore {
	f := &fakeConnectionStore{
		connections: make(map[uuid.UUID]*entity.Connection),
		lastSync:    make(map[uuid.UUID]time.Time),
	}
	for _, conn := range conns {
		f.connections[conn.ID] = conn
	}
	return f
}

func (f *fakeConnectionStore) FindByID(_ context.Context, id uuid.UUID) (*entity.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn, ok := f.connections[id]
	if !ok {
		return nil, nil
	}
	copied := *conn
	return &copied, nil
}

func (f *fakeConnectionStore) UpdateLastSync(_ context.Context, id uuid.UUID, syncedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSync[id] = syncedAt
	return nil
}

type fakeChatStore struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*entity.ChatSession
	messages   []entity.ChatMessage
	touched    []uuid.UUID
	messageErr error
}

func newFakeChatStore(sessions ...*entity.ChatSession) *fakeChatStore {
	f := &fakeChatStore{sessions: make(map[uuid.UUID]*entity.ChatSession)}
	for _, session := range sessions {
		f.sessions[session.ID] = session
	}
	return f
}

func (f *fakeChatStore) FindSessionByID(_ context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (f *fakeChatStore) CreateMessage(_ context.Context, msg *entity.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.messageErr != nil {
		return f.messageErr
	}
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeChatStore) TouchSession(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeChatStore) allMessages() []entity.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.ChatMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

// fakeSource serves a fixed item list sliced into pages, plus per-parent
// variation children. Error injection is per page number.
type fakeSource struct {
	mu        sync.Mutex
	items     []SourceProduct
	children  map[int64][]SourceProduct
	pageSize  int
	pageErrs  map[int]error
	childErrs map[int64]error
	pageCalls []int
}

func newFakeSource(pageSize int, items []SourceProduct) *fakeSource {
	return &fakeSource{
		items:     items,
		children:  make(map[int64][]SourceProduct),
		pageSize:  pageSize,
		pageErrs:  make(map[int]error),
		childErrs: make(map[int64]error),
	}
}

func (f *fakeSource) ListPage(_ context.Context, _ *entity.Connection, page, pageSize int, onlyInStock bool) (*SourcePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls = append(f.pageCalls, page)
	if err := f.pageErrs[page]; err != nil {
		return nil, err
	}

	totalPages := (len(f.items) + f.pageSize - 1) / f.pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	start := (page - 1) * f.pageSize
	end := start + f.pageSize
	if start > len(f.items) {
		start = len(f.items)
	}
	if end > len(f.items) {
		end = len(f.items)
	}

	return &SourcePage{
		Items:      f.items[start:end],
		TotalCount: len(f.items),
		TotalPages: totalPages,
	}, nil
}

func (f *fakeSource) ListChildren(_ context.Context, _ *entity.Connection, parentExternalID int64) ([]SourceProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.childErrs[parentExternalID]; err != nil {
		return nil, err
	}
	return f.children[parentExternalID], nil
}

type fakeGenerator struct {
	result  *GenerationResult
	err     error
	calls   int
	lastReq GenerationRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req GenerationRequest) (*GenerationResult, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeGeneratorFactory struct {
	generator *fakeGenerator
	err       error
}

func (f *fakeGeneratorFactory) ClientFor(_ context.Context, _ uuid.UUID) (Generator, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.generator, nil
}

type fakeBlobStorage struct {
	mu       sync.Mutex
	storeErr error
	stored   []string
}

func (f *fakeBlobStorage) Store(_ context.Context, payload []byte, ownerID uuid.UUID, filename string) (*StoredBlob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	key := fmt.Sprintf("%s/%s", ownerID, filename)
	f.stored = append(f.stored, key)
	return &StoredBlob{URL: "http://media.local/generated-media/" + key, Key: key}, nil
}

func (f *fakeBlobStorage) Delete(_ context.Context, _ string) error {
	return nil
}

type fakeEvents struct {
	mu        sync.Mutex
	published []Snapshot
}

func (f *fakeEvents) PublishJobEvent(_ context.Context, snapshot Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, snapshot)
	return nil
}

func (f *fakeEvents) all() []Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Snapshot, len(f.published))
	copy(out, f.published)
	return out
}

type nopLogger struct{}

func (nopLogger) InfoWithContextf(context.Context, string, ...interface{})         {}
func (nopLogger) WarningWithContextf(context.Context, string, ...interface{})      {}
func (nopLogger) ErrorWithContextf(context.Context, error, string, ...interface{}) {}

// collectSink records every snapshot it receives.
type collectSink struct {
	mu        sync.Mutex
	snapshots []Snapshot
	err       error
}

func (s *collectSink) Send(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func (s *collectSink) all() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Snapshot, len(s.snapshots))
	copy(out, s.snapshots)
	return out
}
