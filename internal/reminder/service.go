package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
)

// Authorizer answers capability checks for an actor.
type Authorizer interface {
	HasCapability(actor auth.Actor, c auth.Capability) bool
}

// Service manages reminder subjects on behalf of editors.
type Service struct {
	repo  Repository
	authz Authorizer
	now   func() time.Time
}

func NewService(repo Repository, authz Authorizer, now func() time.Time) *Service {
	if authz == nil {
		authz = auth.NewRoleAuthorizer(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, authz: authz, now: now}
}

// NewSubject is the input for Create.
type NewSubject struct {
	DocumentID   string    `json:"documentId"`
	Title        string    `json:"title"`
	Kind         Kind      `json:"kind"`
	Deadline     time.Time `json:"deadline"`
	AuthorIDs    []string  `json:"authorIds"`
	EmailAddress string    `json:"emailAddress"`
}

func (s *Service) Create(ctx context.Context, n NewSubject, actor auth.Actor) (*Subject, error) {
	if !s.authz.HasCapability(actor, auth.CapManageReminders) {
		return nil, &edition.ForbiddenError{Capability: string(auth.CapManageReminders)}
	}
	subj := &Subject{
		DocumentID:   n.DocumentID,
		Title:        n.Title,
		Kind:         n.Kind,
		Deadline:     n.Deadline.UTC(),
		AuthorIDs:    n.AuthorIDs,
		EmailAddress: n.EmailAddress,
		CreatorID:    actor.ID,
	}
	if err := subj.Validate(); err != nil {
		return nil, &edition.GuardViolation{Verb: "create reminder", Reasons: []string{err.Error()}}
	}
	if subj.Kind == KindReview && s.beforeToday(subj.Deadline) {
		return nil, &edition.GuardViolation{Verb: "create reminder", Reasons: []string{"Review date can't be in the past"}}
	}
	if err := s.repo.Create(ctx, subj); err != nil {
		return nil, err
	}
	return subj, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Subject, error) {
	return s.repo.Get(ctx, id)
}

// Reschedule moves a subject's deadline. A changed date clears the sent mark
// so the reminder fires again.
func (s *Service) Reschedule(ctx context.Context, id string, deadline time.Time, actor auth.Actor) (*Subject, error) {
	if !s.authz.HasCapability(actor, auth.CapManageReminders) {
		return nil, &edition.ForbiddenError{Capability: string(auth.CapManageReminders)}
	}
	for attempt := 0; attempt < 3; attempt++ {
		subj, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !subj.Reschedule(deadline) {
			return subj, nil
		}
		if subj.Kind == KindReview && s.beforeToday(subj.Deadline) {
			return nil, &edition.GuardViolation{Verb: "reschedule", Reasons: []string{"Review date can't be in the past"}}
		}
		err = s.repo.Update(ctx, subj)
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return subj, nil
	}
	return nil, ErrConflict
}

// MarkResponsePublished stops further consultation reminders.
func (s *Service) MarkResponsePublished(ctx context.Context, id string, actor auth.Actor) (*Subject, error) {
	if !s.authz.HasCapability(actor, auth.CapManageReminders) {
		return nil, &edition.ForbiddenError{Capability: string(auth.CapManageReminders)}
	}
	subj, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if subj.ResponsePublished {
		return subj, nil
	}
	subj.ResponsePublished = true
	if err := s.repo.Update(ctx, subj); err != nil {
		return nil, err
	}
	return subj, nil
}

func (s *Service) beforeToday(t time.Time) bool {
	y, m, d := s.now().UTC().Date()
	return t.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
