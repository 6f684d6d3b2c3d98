package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/edition"
)

// ObjectStore is the subset of an object store the index writes to.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Summary is the search document for one content item. The indexer picks
// these up from the bucket.
type Summary struct {
	DocumentID       string     `json:"documentId"`
	EditionID        string     `json:"editionId"`
	ContentType      string     `json:"contentType"`
	Slug             string     `json:"slug"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Indexable        string     `json:"indexableContent,omitempty"`
	PublicTimestamp  *time.Time `json:"publicTimestamp,omitempty"`
	FirstPublishedAt *time.Time `json:"firstPublishedAt,omitempty"`
	Withdrawn        bool       `json:"isWithdrawn"`
	WithdrawnNotice  string     `json:"withdrawnNotice,omitempty"`
}

// ObjectIndex keeps one JSON summary per document under prefix.
type ObjectIndex struct {
	store  ObjectStore
	prefix string
}

func NewObjectIndex(store ObjectStore, prefix string) *ObjectIndex {
	return &ObjectIndex{store: store, prefix: prefix}
}

func (x *ObjectIndex) Key(documentID string) string {
	return x.prefix + documentID + ".json"
}

func (x *ObjectIndex) Index(ctx context.Context, doc *edition.Document, e *edition.Edition) error {
	b, err := json.Marshal(Summarize(doc, e))
	if err != nil {
		return err
	}
	if err := x.store.Put(ctx, x.Key(doc.ID), b, "application/json"); err != nil {
		return fmt.Errorf("index %s: %w", doc.ID, err)
	}
	return nil
}

func (x *ObjectIndex) Remove(ctx context.Context, documentID string) error {
	if err := x.store.Delete(ctx, x.Key(documentID)); err != nil {
		return fmt.Errorf("remove %s: %w", documentID, err)
	}
	return nil
}

// Summarize builds the search summary of e. The public timestamp is the last
// major change, falling back to the first publication.
func Summarize(doc *edition.Document, e *edition.Edition) Summary {
	s := Summary{
		DocumentID:       doc.ID,
		EditionID:        e.ID,
		ContentType:      doc.ContentType,
		Slug:             doc.Slug,
		Title:            e.Title,
		Description:      e.Summary,
		Indexable:        e.Body,
		FirstPublishedAt: e.FirstPublishedAt,
		PublicTimestamp:  e.MajorChangePublishedAt,
	}
	if s.PublicTimestamp == nil {
		s.PublicTimestamp = e.FirstPublishedAt
	}
	if e.State == edition.StateWithdrawn && e.Unpublishing != nil {
		s.Withdrawn = true
		s.WithdrawnNotice = e.Unpublishing.Explanation
	}
	return s
}

// Nop discards every call.
type Nop struct{}

func (Nop) Index(context.Context, *edition.Document, *edition.Edition) error { return nil }
func (Nop) Remove(context.Context, string) error                            { return nil }
