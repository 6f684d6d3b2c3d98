package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
	"github.com/govpub/govpub/backend/go-services/pkg/metrics"
)

// Request is a transition request for one edition.
type Request struct {
	Kind           edition.Kind
	Actor          auth.Actor
	Reason         string
	Unpublishing   edition.UnpublishingReason
	Explanation    string
	AlternativeURL string
	// ScheduledPublication, when set on a schedule request, replaces the
	// edition's scheduled time before the guard runs.
	ScheduledPublication *time.Time
}

// Result is a successful transition. Warnings list side effects that failed
// after commit; the transition itself stands.
type Result struct {
	Edition  *edition.Edition `json:"edition"`
	Warnings []string         `json:"warnings,omitempty"`
}

// Degraded is true when the transition committed but a collaborator failed.
func (r *Result) Degraded() bool { return len(r.Warnings) > 0 }

// Execute runs one transition: guard, atomic apply, then side effects. A
// write conflict re-reads and re-guards, so a request that lost a race ends
// as a GuardViolation when the winner made it illegal.
func (s *Service) Execute(ctx context.Context, editionID string, req Request) (*Result, error) {
	v, ok := s.variants[req.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown transition %q", req.Kind)
	}
	if v.capability != "" {
		if err := s.require(req.Actor, v.capability); err != nil {
			metrics.Transitions.WithLabelValues(string(req.Kind), "forbidden").Inc()
			return nil, err
		}
	}
	in := edition.Input{
		Reason:         req.Reason,
		Unpublishing:   req.Unpublishing,
		Explanation:    req.Explanation,
		AlternativeURL: req.AlternativeURL,
	}
	if req.Kind == edition.KindPublishNow {
		in.OverrideSchedule = s.authz.HasCapability(req.Actor, auth.CapOverrideSchedule)
	}

	return s.transact(ctx, editionID, req, in, func(p *plan) error {
		if req.Kind == edition.KindSchedule && req.ScheduledPublication != nil {
			p.snap.Edition.ScheduledPublication = edition.TimePtr(req.ScheduledPublication.UTC())
		}
		if res := v.guard.Evaluate(p.snap); !res.Allowed() {
			logger.Infow("transition refused", logger.Fields{"edition": editionID, "kind": req.Kind, "failed": res.Failed})
			return &edition.GuardViolation{Verb: req.Kind.Verb(), Reasons: res.Reasons}
		}
		v.fire(s, p)
		return nil
	})
}

// transact is the read, stage, conditional-write loop shared by every
// mutation. stage either fills the plan or refuses with an error; a write
// conflict starts over from a fresh snapshot.
func (s *Service) transact(ctx context.Context, editionID string, req Request, in edition.Input, stage func(p *plan) error) (*Result, error) {
	label := string(req.Kind)
	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		snap, err := s.snapshot(ctx, editionID, in)
		if err != nil {
			return nil, err
		}
		p := &plan{snap: snap, req: req, now: snap.Now}
		if err := stage(p); err != nil {
			if _, ok := edition.AsGuardViolation(err); ok {
				metrics.Transitions.WithLabelValues(label, "guard_violation").Inc()
			}
			return nil, err
		}
		err = s.repo.Apply(ctx, p.cs)
		if errors.Is(err, edition.ErrConflict) {
			logger.Debugw("transition conflict, retrying", logger.Fields{"edition": editionID, "kind": label, "attempt": attempt})
			continue
		}
		if err != nil {
			metrics.Transitions.WithLabelValues(label, "error").Inc()
			return nil, fmt.Errorf("%s edition %s: %w", req.Kind.Verb(), editionID, err)
		}

		result := &Result{Edition: snap.Edition, Warnings: s.runSideEffects(ctx, p.effects)}
		outcome := "ok"
		if result.Degraded() {
			outcome = "degraded"
		}
		metrics.Transitions.WithLabelValues(label, outcome).Inc()
		logger.Infow("edition transitioned", logger.Fields{
			"edition": editionID, "document": snap.Edition.DocumentID, "kind": label,
			"state": snap.Edition.State, "actor": req.Actor.ID,
		})
		return result, nil
	}
	metrics.Transitions.WithLabelValues(label, "conflict").Inc()
	return nil, &edition.ConcurrentStateChange{EditionID: editionID}
}

// runSideEffects calls collaborators once the change set has committed.
// Failures are logged and returned as warnings, never as errors.
func (s *Service) runSideEffects(ctx context.Context, effects []sideEffect) []string {
	if len(effects) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
	defer cancel()
	var warnings []string
	for _, fx := range effects {
		if err := fx.run(ctx); err != nil {
			cf := &edition.CollaboratorFailure{Collaborator: fx.collaborator, Operation: fx.operation, DocumentID: fx.documentID, Err: err}
			metrics.CollaboratorFailures.WithLabelValues(fx.collaborator).Inc()
			logger.Warnw("side effect failed", logger.Fields{
				"collaborator": fx.collaborator, "operation": fx.operation, "document": fx.documentID, "error": err,
			})
			warnings = append(warnings, cf.Error())
		}
	}
	return warnings
}

// PublishMode selects between publishing immediately and scheduling.
type PublishMode string

const (
	PublishNow       PublishMode = "now"
	PublishScheduled PublishMode = "scheduled"
)

// RequestPublish publishes now, or moves the edition to scheduled when mode
// is PublishScheduled. at optionally sets the scheduled time.
func (s *Service) RequestPublish(ctx context.Context, editionID string, mode PublishMode, actor auth.Actor, at *time.Time) (*Result, error) {
	switch mode {
	case PublishNow, "":
		return s.Execute(ctx, editionID, Request{Kind: edition.KindPublishNow, Actor: actor})
	case PublishScheduled:
		return s.Execute(ctx, editionID, Request{Kind: edition.KindSchedule, Actor: actor, ScheduledPublication: at})
	}
	return nil, &edition.GuardViolation{Verb: "publish", Reasons: []string{fmt.Sprintf("Unknown publish mode %q", mode)}}
}

func (s *Service) RequestReject(ctx context.Context, editionID, reason string, actor auth.Actor) (*Result, error) {
	return s.Execute(ctx, editionID, Request{Kind: edition.KindReject, Actor: actor, Reason: reason})
}

// UnpublishRequest describes why and how an edition is taken down.
type UnpublishRequest struct {
	Reason         edition.UnpublishingReason `json:"reason"`
	Explanation    string                     `json:"explanation"`
	AlternativeURL string                     `json:"alternativeUrl"`
}

func (s *Service) RequestUnpublish(ctx context.Context, editionID string, u UnpublishRequest, actor auth.Actor) (*Result, error) {
	return s.Execute(ctx, editionID, Request{
		Kind: edition.KindUnpublish, Actor: actor,
		Unpublishing: u.Reason, Explanation: u.Explanation, AlternativeURL: u.AlternativeURL,
	})
}

func (s *Service) Submit(ctx context.Context, editionID string, actor auth.Actor) (*Result, error) {
	return s.Execute(ctx, editionID, Request{Kind: edition.KindSubmit, Actor: actor})
}

func (s *Service) Unschedule(ctx context.Context, editionID string, actor auth.Actor) (*Result, error) {
	return s.Execute(ctx, editionID, Request{Kind: edition.KindUnschedule, Actor: actor})
}

// PublishScheduled is the scheduled publisher: it only fires for editions
// that are scheduled and due.
func (s *Service) PublishScheduled(ctx context.Context, editionID string) (*Result, error) {
	return s.Execute(ctx, editionID, Request{Kind: edition.KindPublishScheduled, Actor: auth.System})
}
