package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/govpub/govpub/backend/go-services/internal/edition/repository"
	"github.com/stretchr/testify/require"
)

var (
	writer   = auth.Actor{ID: "u-writer", Roles: []string{auth.RoleWriter}}
	editor   = auth.Actor{ID: "u-editor", Roles: []string{auth.RoleEditor}}
	managing = auth.Actor{ID: "u-managing", Roles: []string{auth.RoleManagingEditor}}
	admin    = auth.Actor{ID: "u-admin", Roles: []string{auth.RoleAdmin}}
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeSearch struct {
	mu      sync.Mutex
	indexed []string
	removed []string
	err     error
}

func (f *fakeSearch) Index(ctx context.Context, doc *edition.Document, e *edition.Edition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, doc.ID)
	return f.err
}

func (f *fakeSearch) Remove(ctx context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, documentID)
	return f.err
}

type fakeNotifier struct {
	mu          sync.Mutex
	published   []string
	unpublished []string
}

func (f *fakeNotifier) NotifyPublished(ctx context.Context, doc *edition.Document, e *edition.Edition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, e.ID)
	return nil
}

func (f *fakeNotifier) NotifyUnpublished(ctx context.Context, doc *edition.Document, e *edition.Edition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unpublished = append(f.unpublished, e.ID)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *repository.MemoryRepo
	search   *fakeSearch
	notifier *fakeNotifier
	clock    *testClock
}

func newFixture(t *testing.T, extra map[edition.Kind][]edition.Precondition) *fixture {
	t.Helper()
	f := &fixture{
		repo:     repository.NewMemoryRepo(),
		search:   &fakeSearch{},
		notifier: &fakeNotifier{},
		clock:    &testClock{t: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)},
	}
	f.svc = New(f.repo, Deps{Search: f.search, Notifier: f.notifier, Now: f.clock.Now, ExtraPreconditions: extra})
	return f
}

func (f *fixture) ctx() context.Context { return context.Background() }

// submitted creates a document whose first edition is submitted.
func (f *fixture) submitted(t *testing.T, slug string) *edition.Edition {
	t.Helper()
	_, e, err := f.svc.CreateDocument(f.ctx(), NewDocument{ContentType: "speech", Slug: slug, Title: "Title " + slug, Body: "Body"}, writer)
	require.NoError(t, err)
	_, err = f.svc.Submit(f.ctx(), e.ID, writer)
	require.NoError(t, err)
	return f.get(t, e.ID)
}

// published creates a document whose first edition is live.
func (f *fixture) published(t *testing.T, slug string) *edition.Edition {
	t.Helper()
	e := f.submitted(t, slug)
	_, err := f.svc.RequestPublish(f.ctx(), e.ID, PublishNow, editor, nil)
	require.NoError(t, err)
	return f.get(t, e.ID)
}

// scheduled creates a document whose first edition is scheduled in an hour.
func (f *fixture) scheduled(t *testing.T, slug string) *edition.Edition {
	t.Helper()
	e := f.submitted(t, slug)
	at := f.clock.Now().Add(time.Hour)
	_, err := f.svc.RequestPublish(f.ctx(), e.ID, PublishScheduled, editor, &at)
	require.NoError(t, err)
	return f.get(t, e.ID)
}

// nextSubmitted creates and submits the next edition of a published document.
func (f *fixture) nextSubmitted(t *testing.T, documentID, note string) *edition.Edition {
	t.Helper()
	d, err := f.svc.CreateDraft(f.ctx(), documentID, writer)
	require.NoError(t, err)
	body := "Updated body"
	_, err = f.svc.UpdateDraft(f.ctx(), d.ID, DraftUpdate{Body: &body, ChangeNote: &note}, writer)
	require.NoError(t, err)
	_, err = f.svc.Submit(f.ctx(), d.ID, writer)
	require.NoError(t, err)
	return f.get(t, d.ID)
}

func (f *fixture) get(t *testing.T, id string) *edition.Edition {
	t.Helper()
	e, err := f.repo.GetEdition(f.ctx(), id)
	require.NoError(t, err)
	return e
}

func (f *fixture) doc(t *testing.T, id string) *edition.Document {
	t.Helper()
	d, err := f.repo.GetDocument(f.ctx(), id)
	require.NoError(t, err)
	return d
}

func requireGuardReason(t *testing.T, err error, want string) {
	t.Helper()
	gv, ok := edition.AsGuardViolation(err)
	require.True(t, ok, "expected guard violation, got %v", err)
	for _, r := range gv.Reasons {
		if strings.Contains(strings.ToLower(r), strings.ToLower(want)) {
			return
		}
	}
	t.Fatalf("no reason containing %q in %v", want, gv.Reasons)
}
