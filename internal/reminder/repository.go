package reminder

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
)

// Query selects reminder candidates: consultations awaiting a response that
// closed in (ClosedAfter, ClosedBy], and unsent reviews due by ReviewDueBy.
type Query struct {
	ClosedAfter time.Time
	ClosedBy    time.Time
	ReviewDueBy time.Time
}

type Repository interface {
	Create(ctx context.Context, s *Subject) error
	Get(ctx context.Context, id string) (*Subject, error)
	// Update writes s if the stored LockVersion still matches s.LockVersion,
	// otherwise it returns ErrConflict.
	Update(ctx context.Context, s *Subject) error
	ListCandidates(ctx context.Context, q Query) ([]*Subject, error)
}

type MemoryRepo struct {
	mu       sync.RWMutex
	subjects map[string]*Subject
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{subjects: make(map[string]*Subject)}
}

func (m *MemoryRepo) Create(ctx context.Context, s *Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	m.subjects[s.ID] = s.Clone()
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subjects[id]
	if !ok {
		return nil, &edition.NotFoundError{Kind: "reminder", ID: id}
	}
	return s.Clone(), nil
}

func (m *MemoryRepo) Update(ctx context.Context, s *Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.subjects[s.ID]
	if !ok {
		return &edition.NotFoundError{Kind: "reminder", ID: s.ID}
	}
	if cur.LockVersion != s.LockVersion {
		return ErrConflict
	}
	s.LockVersion++
	s.UpdatedAt = time.Now().UTC()
	m.subjects[s.ID] = s.Clone()
	return nil
}

func (m *MemoryRepo) ListCandidates(ctx context.Context, q Query) ([]*Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Subject{}
	for _, s := range m.subjects {
		if q.matches(s) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (q Query) matches(s *Subject) bool {
	switch s.Kind {
	case KindConsultation:
		return !s.ResponsePublished && s.Deadline.After(q.ClosedAfter) && !s.Deadline.After(q.ClosedBy)
	case KindReview:
		return s.ReminderSentAt == nil && !s.Deadline.After(q.ReviewDueBy)
	}
	return false
}
