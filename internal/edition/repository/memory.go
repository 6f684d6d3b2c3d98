package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
)

// MemoryRepo is an in-memory repository used in tests and for running the
// service without MongoDB. Apply holds the write lock for the whole change
// set, which makes it serializable.
type MemoryRepo struct {
	mu        sync.RWMutex
	documents map[string]*edition.Document
	editions  map[string]*edition.Edition
	now       func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		documents: make(map[string]*edition.Document),
		editions:  make(map[string]*edition.Edition),
		now:       time.Now,
	}
}

func (m *MemoryRepo) CreateDocument(ctx context.Context, doc *edition.Document, first *edition.Edition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if first.ID == "" {
		first.ID = uuid.NewString()
	}
	doc.CreatedAt, doc.UpdatedAt = now, now
	first.DocumentID = doc.ID
	first.CreatedAt, first.UpdatedAt = now, now
	doc.LatestEditionID = first.ID
	d := *doc
	m.documents[doc.ID] = &d
	m.editions[first.ID] = first.Clone()
	return nil
}

func (m *MemoryRepo) GetDocument(ctx context.Context, id string) (*edition.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	if !ok {
		return nil, &edition.NotFoundError{Kind: "document", ID: id}
	}
	out := *d
	return &out, nil
}

func (m *MemoryRepo) AddEdition(ctx context.Context, e *edition.Edition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[e.DocumentID]
	if !ok {
		return &edition.NotFoundError{Kind: "document", ID: e.DocumentID}
	}
	for _, other := range m.editions {
		if other.DocumentID == e.DocumentID && other.Version == e.Version {
			return &edition.ConcurrentStateChange{EditionID: other.ID}
		}
	}
	now := m.now().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt, e.UpdatedAt = now, now
	m.editions[e.ID] = e.Clone()
	d.LatestEditionID = e.ID
	d.UpdatedAt = now
	return nil
}

func (m *MemoryRepo) GetEdition(ctx context.Context, id string) (*edition.Edition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.editions[id]
	if !ok {
		return nil, &edition.NotFoundError{Kind: "edition", ID: id}
	}
	return e.Clone(), nil
}

func (m *MemoryRepo) ListEditions(ctx context.Context, documentID string) ([]*edition.Edition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*edition.Edition{}
	for _, e := range m.editions {
		if e.DocumentID == documentID {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (m *MemoryRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]*edition.Edition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*edition.Edition{}
	for _, e := range m.editions {
		if e.State == edition.StateScheduled && e.ScheduledPublication != nil && !e.ScheduledPublication.After(now) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledPublication.Before(*out[j].ScheduledPublication) })
	return out, nil
}

func (m *MemoryRepo) Apply(ctx context.Context, cs ChangeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range cs.Editions {
		cur, ok := m.editions[w.Edition.ID]
		if !ok {
			return &edition.NotFoundError{Kind: "edition", ID: w.Edition.ID}
		}
		if cur.LockVersion != w.Expected {
			return &edition.ConcurrentStateChange{EditionID: w.Edition.ID}
		}
	}
	if cs.Live != nil {
		if _, ok := m.documents[cs.Live.DocumentID]; !ok {
			return &edition.NotFoundError{Kind: "document", ID: cs.Live.DocumentID}
		}
	}
	now := m.now().UTC()
	for _, w := range cs.Editions {
		e := stamp(w, now)
		m.editions[e.ID] = e
		w.Edition.LockVersion = e.LockVersion
		w.Edition.UpdatedAt = now
	}
	if cs.Live != nil {
		d := m.documents[cs.Live.DocumentID]
		d.LiveEditionID = cs.Live.EditionID
		d.UpdatedAt = now
	}
	return nil
}
