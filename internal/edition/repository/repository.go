package repository

import (
	"context"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/edition"
)

// EditionWrite replaces a stored edition, but only if the stored LockVersion
// still equals Expected.
type EditionWrite struct {
	Edition  *edition.Edition
	Expected int64
}

// LivePointer sets a document's live edition. An empty EditionID clears it.
type LivePointer struct {
	DocumentID string
	EditionID  string
}

// ChangeSet is the unit of atomic application: either every write lands or
// none does.
type ChangeSet struct {
	Editions []EditionWrite
	Live     *LivePointer
}

// Add stages a write of e guarded by the version it was read at.
func (cs *ChangeSet) Add(e *edition.Edition) {
	cs.Editions = append(cs.Editions, EditionWrite{Edition: e, Expected: e.LockVersion})
}

// Repository is the persistence contract the workflow needs.
type Repository interface {
	CreateDocument(ctx context.Context, doc *edition.Document, first *edition.Edition) error
	GetDocument(ctx context.Context, id string) (*edition.Document, error)
	// AddEdition inserts e and makes it the document's latest edition.
	AddEdition(ctx context.Context, e *edition.Edition) error
	GetEdition(ctx context.Context, id string) (*edition.Edition, error)
	ListEditions(ctx context.Context, documentID string) ([]*edition.Edition, error)
	// ListDueScheduled returns scheduled editions whose time is at or before now.
	ListDueScheduled(ctx context.Context, now time.Time) ([]*edition.Edition, error)
	Apply(ctx context.Context, cs ChangeSet) error
}

func stamp(w EditionWrite, now time.Time) *edition.Edition {
	e := w.Edition.Clone()
	e.LockVersion = w.Expected + 1
	e.UpdatedAt = now
	return e
}
