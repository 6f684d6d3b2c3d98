package notify

import (
	"context"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/edition"
)

const (
	TypePublished   = "edition.published"
	TypeUnpublished = "edition.unpublished"
)

// PublishingMessage tells the publishing API which edition of a document is
// now authoritative, or that the document was taken down.
type PublishingMessage struct {
	DocumentID       string                     `json:"documentId"`
	EditionID        string                     `json:"editionId"`
	ContentType      string                     `json:"contentType"`
	Slug             string                     `json:"slug"`
	Version          int                        `json:"version"`
	State            edition.State              `json:"state"`
	Title            string                     `json:"title"`
	MinorChange      bool                       `json:"minorChange"`
	ChangeNote       string                     `json:"changeNote,omitempty"`
	FirstPublishedAt *time.Time                 `json:"firstPublishedAt,omitempty"`
	PublishedAt      *time.Time                 `json:"publishedAt,omitempty"`
	Reason           edition.UnpublishingReason `json:"unpublishingReason,omitempty"`
	Explanation      string                     `json:"explanation,omitempty"`
	AlternativeURL   string                     `json:"alternativeUrl,omitempty"`
}

// PublishingQueue hands publish and unpublish events to the publishing API
// through a Redis queue.
type PublishingQueue struct {
	q *Queue
}

func NewPublishingQueue(q *Queue) *PublishingQueue { return &PublishingQueue{q: q} }

func (p *PublishingQueue) NotifyPublished(ctx context.Context, doc *edition.Document, e *edition.Edition) error {
	_, err := p.q.Push(ctx, TypePublished, message(doc, e))
	return err
}

func (p *PublishingQueue) NotifyUnpublished(ctx context.Context, doc *edition.Document, e *edition.Edition) error {
	m := message(doc, e)
	if u := e.Unpublishing; u != nil {
		m.Reason, m.Explanation, m.AlternativeURL = u.Reason, u.Explanation, u.AlternativeURL
	}
	_, err := p.q.Push(ctx, TypeUnpublished, m)
	return err
}

func message(doc *edition.Document, e *edition.Edition) PublishingMessage {
	return PublishingMessage{
		DocumentID:       doc.ID,
		EditionID:        e.ID,
		ContentType:      doc.ContentType,
		Slug:             doc.Slug,
		Version:          e.Version,
		State:            e.State,
		Title:            e.Title,
		MinorChange:      e.MinorChange,
		ChangeNote:       e.ChangeNote,
		FirstPublishedAt: e.FirstPublishedAt,
		PublishedAt:      e.PublishedAt,
	}
}
