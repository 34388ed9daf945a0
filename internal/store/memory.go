package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"franchise-leads/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	collection string
	leads      map[string]*models.Lead
	documents  map[string][]map[string]interface{}
	failures   map[string]error
	clock      *monotonicClock
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(collection string) *MemoryStore {
	return &MemoryStore{
		collection: collection,
		leads:      make(map[string]*models.Lead),
		documents:  make(map[string][]map[string]interface{}),
		failures:   make(map[string]error),
		clock:      newMonotonicClock(nil),
	}
}

// WithClock replaces the time source; used to make ordering deterministic.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.clock = newMonotonicClock(now)
	return m
}

// Seed adds raw documents to a secondary collection such as a legacy one.
func (m *MemoryStore) Seed(collection string, docs ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[collection] = append(m.documents[collection], docs...)
}

// FailCollection makes every read of collection return err. A nil err clears it.
func (m *MemoryStore) FailCollection(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, collection)
		return
	}
	m.failures[collection] = err
}

func (m *MemoryStore) Create(ctx context.Context, sub models.LeadSubmission) (*models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures[m.collection]; err != nil {
		return nil, fmt.Errorf("%w: insert lead: %v", ErrStorage, err)
	}

	lead := models.NewLead(uuid.New().String(), sub, m.clock.Next())
	stored := *lead
	m.leads[lead.ID] = &stored
	return lead, nil
}

func (m *MemoryStore) List(ctx context.Context, opts ListOptions) (*ListPage, error) {
	after, err := decodeCursor(opts.Cursor)
	if err != nil {
		return nil, err
	}
	limit := normalizeLimit(opts.Limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failures[m.collection]; err != nil {
		return nil, fmt.Errorf("%w: list leads: %v", ErrStorage, err)
	}

	items := make([]models.Lead, 0, len(m.leads))
	for _, l := range m.leads {
		if after != nil && !after.admits(*l) {
			continue
		}
		items = append(items, *l)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if limit > 0 && len(items) > limit+1 {
		items = items[:limit+1]
	}
	return paginate(items, limit), nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, status models.InterestStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures[m.collection]; err != nil {
		return fmt.Errorf("%w: update status: %v", ErrStorage, err)
	}

	lead, ok := m.leads[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	lead.InterestStatus = status
	return nil
}

func (m *MemoryStore) Documents(ctx context.Context, collection string) ([]map[string]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failures[collection]; err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, collection, err)
	}

	if collection != m.collection {
		return cloneDocuments(m.documents[collection]), nil
	}

	leads := make([]*models.Lead, 0, len(m.leads))
	for _, l := range m.leads {
		leads = append(leads, l)
	}
	sort.Slice(leads, func(i, j int) bool {
		if leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].ID < leads[j].ID
		}
		return leads[i].CreatedAt.Before(leads[j].CreatedAt)
	})

	docs := make([]map[string]interface{}, 0, len(leads))
	for _, l := range leads {
		docs = append(docs, l.Document())
	}
	return docs, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func cloneDocuments(in []map[string]interface{}) []map[string]interface{} {
	if len(in) == 0 {
		return nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil
	}
	var out []map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return out
}
