package service

import (
	"context"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/govpub/govpub/backend/go-services/internal/edition/repository"
)

// SearchIndex is the search collaborator. Calls happen after commit and are
// best-effort.
type SearchIndex interface {
	Index(ctx context.Context, doc *edition.Document, e *edition.Edition) error
	Remove(ctx context.Context, documentID string) error
}

// PublishingNotifier tells the publishing API that content went live or was
// taken down. Implementations queue the message and retry on their own.
type PublishingNotifier interface {
	NotifyPublished(ctx context.Context, doc *edition.Document, e *edition.Edition) error
	NotifyUnpublished(ctx context.Context, doc *edition.Document, e *edition.Edition) error
}

// Authorizer answers capability checks for an actor.
type Authorizer interface {
	HasCapability(actor auth.Actor, c auth.Capability) bool
}

// Deps are the collaborators of Service. Nil collaborators are replaced by
// no-ops, a nil Authorizer by the default role table.
type Deps struct {
	Authorizer        Authorizer
	Search            SearchIndex
	Notifier          PublishingNotifier
	Now               func() time.Time
	SideEffectTimeout time.Duration
	// ExtraPreconditions are appended to the built-in guard of a kind.
	ExtraPreconditions map[edition.Kind][]edition.Precondition
}

// Service runs every state change of editions. Nothing else writes edition
// state.
type Service struct {
	repo              repository.Repository
	authz             Authorizer
	search            SearchIndex
	notifier          PublishingNotifier
	now               func() time.Time
	sideEffectTimeout time.Duration
	variants          map[edition.Kind]variant
}

const maxApplyAttempts = 3

func New(repo repository.Repository, deps Deps) *Service {
	s := &Service{
		repo:              repo,
		authz:             deps.Authorizer,
		search:            deps.Search,
		notifier:          deps.Notifier,
		now:               deps.Now,
		sideEffectTimeout: deps.SideEffectTimeout,
	}
	if s.authz == nil {
		s.authz = auth.NewRoleAuthorizer(nil)
	}
	if s.search == nil {
		s.search = nopSearch{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sideEffectTimeout <= 0 {
		s.sideEffectTimeout = 10 * time.Second
	}
	s.variants = buildVariants(deps.ExtraPreconditions)
	return s
}

// Repository exposes the backing store for read-only callers.
func (s *Service) Repository() repository.Repository { return s.repo }

func (s *Service) clock() time.Time { return s.now().UTC() }

func (s *Service) require(actor auth.Actor, c auth.Capability) error {
	if !s.authz.HasCapability(actor, c) {
		return &edition.ForbiddenError{Capability: string(c)}
	}
	return nil
}

// snapshot reads the edition, its document and its siblings.
func (s *Service) snapshot(ctx context.Context, editionID string, in edition.Input) (edition.Snapshot, error) {
	e, err := s.repo.GetEdition(ctx, editionID)
	if err != nil {
		return edition.Snapshot{}, err
	}
	doc, err := s.repo.GetDocument(ctx, e.DocumentID)
	if err != nil {
		return edition.Snapshot{}, err
	}
	all, err := s.repo.ListEditions(ctx, e.DocumentID)
	if err != nil {
		return edition.Snapshot{}, err
	}
	siblings := make([]*edition.Edition, 0, len(all))
	for _, sib := range all {
		if sib.ID != e.ID {
			siblings = append(siblings, sib)
		}
	}
	return edition.Snapshot{Edition: e, Document: doc, Siblings: siblings, Input: in, Now: s.clock()}, nil
}

type nopSearch struct{}

func (nopSearch) Index(context.Context, *edition.Document, *edition.Edition) error { return nil }
func (nopSearch) Remove(context.Context, string) error                            { return nil }

type nopNotifier struct{}

func (nopNotifier) NotifyPublished(context.Context, *edition.Document, *edition.Edition) error {
	return nil
}
func (nopNotifier) NotifyUnpublished(context.Context, *edition.Document, *edition.Edition) error {
	return nil
}
