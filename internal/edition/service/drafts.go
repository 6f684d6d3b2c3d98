package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/govpub/govpub/backend/go-services/internal/edition/repository"
)

// ContentTypes lists the document types the workflow accepts.
var ContentTypes = []interface{}{
	"speech", "consultation", "publication", "statistics_announcement",
	"news_article", "detailed_guide", "case_study", "fatality_notice",
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// NewDocument is the input for creating a document with its first draft.
type NewDocument struct {
	ContentType              string `json:"contentType"`
	Slug                     string `json:"slug"`
	Title                    string `json:"title"`
	Summary                  string `json:"summary"`
	Body                     string `json:"body"`
	StatisticsAnnouncementID string `json:"statisticsAnnouncementId"`
}

func (n NewDocument) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.ContentType, validation.Required, validation.In(ContentTypes...)),
		validation.Field(&n.Slug, validation.Required, validation.Length(1, 200), validation.Match(slugPattern)),
		validation.Field(&n.Title, validation.Required, validation.Length(1, edition.MaxTitleLength)),
		validation.Field(&n.Summary, validation.Length(0, edition.MaxSummaryLength)),
	)
}

// CreateDocument creates a document and its first draft edition.
func (s *Service) CreateDocument(ctx context.Context, n NewDocument, actor auth.Actor) (*edition.Document, *edition.Edition, error) {
	if err := s.require(actor, auth.CapEditDrafts); err != nil {
		return nil, nil, err
	}
	if err := n.Validate(); err != nil {
		return nil, nil, &edition.GuardViolation{Verb: "create", Reasons: []string{err.Error()}}
	}
	doc := &edition.Document{ContentType: n.ContentType, Slug: n.Slug}
	first := &edition.Edition{
		State:                    edition.StateDraft,
		Version:                  1,
		Title:                    n.Title,
		Summary:                  n.Summary,
		Body:                     n.Body,
		StatisticsAnnouncementID: n.StatisticsAnnouncementID,
		CreatorID:                actor.ID,
	}
	if err := s.repo.CreateDocument(ctx, doc, first); err != nil {
		return nil, nil, fmt.Errorf("create document: %w", err)
	}
	return doc, first, nil
}

// CreateDraft starts a new edition from the document's most recent
// non-deleted edition. Only one edition may be in progress at a time.
func (s *Service) CreateDraft(ctx context.Context, documentID string, actor auth.Actor) (*edition.Edition, error) {
	if err := s.require(actor, auth.CapEditDrafts); err != nil {
		return nil, err
	}
	all, err := s.repo.ListEditions(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, &edition.NotFoundError{Kind: "document", ID: documentID}
	}
	var source *edition.Edition
	var reasons []string
	for _, e := range all {
		if e.State.PrePublication() {
			reasons = append(reasons, fmt.Sprintf("Edition %d is already in progress (%s)", e.Version, e.State))
		}
		if e.State != edition.StateDeleted {
			source = e
		}
	}
	if source == nil {
		reasons = append(reasons, "Every edition of this document has been deleted")
	}
	if len(reasons) > 0 {
		return nil, &edition.GuardViolation{Verb: "create draft", Reasons: reasons}
	}
	draft := source.NewDraft(actor.ID, s.clock())
	draft.Version = all[len(all)-1].Version + 1
	if err := s.repo.AddEdition(ctx, draft); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return draft, nil
}

// DraftUpdate holds the editable fields; nil fields are left unchanged.
type DraftUpdate struct {
	Title                *string    `json:"title"`
	Summary              *string    `json:"summary"`
	Body                 *string    `json:"body"`
	ChangeNote           *string    `json:"changeNote"`
	MinorChange          *bool      `json:"minorChange"`
	ScheduledPublication *time.Time `json:"scheduledPublication"`
}

// UpdateDraft edits an edition that has not been scheduled or published.
func (s *Service) UpdateDraft(ctx context.Context, editionID string, u DraftUpdate, actor auth.Actor) (*edition.Edition, error) {
	if err := s.require(actor, auth.CapEditDrafts); err != nil {
		return nil, err
	}
	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		e, err := s.repo.GetEdition(ctx, editionID)
		if err != nil {
			return nil, err
		}
		switch e.State {
		case edition.StateDraft, edition.StateSubmitted, edition.StateRejected:
		default:
			return nil, &edition.GuardViolation{Verb: "update", Reasons: []string{fmt.Sprintf("An edition that is %s cannot be edited", e.State)}}
		}
		if u.Title != nil {
			e.Title = *u.Title
		}
		if u.Summary != nil {
			e.Summary = *u.Summary
		}
		if u.Body != nil {
			e.Body = *u.Body
		}
		if u.ChangeNote != nil {
			e.ChangeNote = *u.ChangeNote
		}
		if u.MinorChange != nil {
			e.MinorChange = *u.MinorChange
		}
		if u.ScheduledPublication != nil {
			e.ScheduledPublication = edition.TimePtr(u.ScheduledPublication.UTC())
		}
		var cs repository.ChangeSet
		cs.Add(e)
		err = s.repo.Apply(ctx, cs)
		if errors.Is(err, edition.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update edition %s: %w", editionID, err)
		}
		return e, nil
	}
	return nil, &edition.ConcurrentStateChange{EditionID: editionID}
}

// DocumentView is a document together with all of its editions.
type DocumentView struct {
	Document *edition.Document  `json:"document"`
	Editions []*edition.Edition `json:"editions"`
}

func (s *Service) GetDocument(ctx context.Context, id string) (*DocumentView, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	eds, err := s.repo.ListEditions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DocumentView{Document: doc, Editions: eds}, nil
}

func (s *Service) GetEdition(ctx context.Context, id string) (*edition.Edition, error) {
	return s.repo.GetEdition(ctx, id)
}

// FirstPublishedAt reports when the document's latest edition was first
// published, or nil if it never was.
func (s *Service) FirstPublishedAt(ctx context.Context, documentID string) (*time.Time, error) {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.LatestEditionID == "" {
		return nil, nil
	}
	e, err := s.repo.GetEdition(ctx, doc.LatestEditionID)
	if err != nil {
		return nil, err
	}
	return e.FirstPublishedAt, nil
}
