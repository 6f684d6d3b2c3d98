package service

import (
	"context"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/govpub/govpub/backend/go-services/internal/edition/repository"
)

// variant is one transition kind: the guard to pass, the capability the
// actor needs, and how to turn a snapshot into writes plus side effects.
type variant struct {
	kind       edition.Kind
	guard      edition.Guard
	capability auth.Capability
	fire       func(s *Service, p *plan)
}

// plan is the staged outcome of one transition attempt.
type plan struct {
	snap    edition.Snapshot
	req     Request
	now     time.Time
	cs      repository.ChangeSet
	effects []sideEffect
}

type sideEffect struct {
	collaborator string
	operation    string
	documentID   string
	run          func(ctx context.Context) error
}

func (p *plan) after(collaborator, operation, documentID string, run func(ctx context.Context) error) {
	p.effects = append(p.effects, sideEffect{collaborator: collaborator, operation: operation, documentID: documentID, run: run})
}

func buildVariants(extra map[edition.Kind][]edition.Precondition) map[edition.Kind]variant {
	vs := []variant{
		{kind: edition.KindSubmit, capability: auth.CapEditDrafts, fire: fireSubmit},
		{kind: edition.KindPublishNow, capability: auth.CapPublish, fire: firePublish},
		{kind: edition.KindSchedule, capability: auth.CapPublish, fire: fireSchedule},
		{kind: edition.KindPublishScheduled, fire: firePublish},
		{kind: edition.KindUnschedule, capability: auth.CapPublish, fire: fireUnschedule},
		{kind: edition.KindReject, capability: auth.CapPublish, fire: fireReject},
		{kind: edition.KindUnpublish, capability: auth.CapUnpublish, fire: fireUnpublish},
		{kind: edition.KindDelete, capability: auth.CapDelete, fire: fireDelete},
		{kind: edition.KindRestore, capability: auth.CapRestore, fire: fireRestore},
	}
	out := make(map[edition.Kind]variant, len(vs))
	for _, v := range vs {
		v.guard = edition.GuardFor(v.kind).With(extra[v.kind]...)
		out[v.kind] = v
	}
	return out
}

func fireSubmit(s *Service, p *plan) {
	e := p.snap.Edition
	e.State = edition.StateSubmitted
	e.SubmitterID = p.req.Actor.ID
	e.RejectionNote = ""
	p.cs.Add(e)
}

// fireSchedule writes the siblings unchanged so that two editions of one
// document being scheduled at once conflict, and the loser re-runs the guard.
func fireSchedule(s *Service, p *plan) {
	e := p.snap.Edition
	e.State = edition.StateScheduled
	p.cs.Add(e)
	for _, sib := range p.snap.Siblings {
		p.cs.Add(sib)
	}
}

func fireUnschedule(s *Service, p *plan) {
	e := p.snap.Edition
	e.State = edition.StateSubmitted
	e.ScheduledPublication = nil
	p.cs.Add(e)
}

func fireReject(s *Service, p *plan) {
	e := p.snap.Edition
	e.State = edition.StateRejected
	e.RejectionNote = p.req.Reason
	p.cs.Add(e)
}

// firePublish moves the edition to published and reconciles every sibling
// in the same change set: live and withdrawn editions are superseded, a
// scheduled one is cancelled back to submitted, and pending unpublishings
// are dropped. Untouched siblings are written too so that a concurrent
// transition on any of them conflicts with this one.
func firePublish(s *Service, p *plan) {
	e, now := p.snap.Edition, p.now
	prevLive := p.snap.Live()

	e.State = edition.StatePublished
	e.PublishedAt = edition.TimePtr(now)
	if e.FirstPublishedAt == nil {
		if prevLive != nil && prevLive.FirstPublishedAt != nil {
			e.FirstPublishedAt = edition.TimePtr(*prevLive.FirstPublishedAt)
		} else {
			e.FirstPublishedAt = edition.TimePtr(now)
		}
	}
	if !e.MinorChange {
		e.MajorChangePublishedAt = edition.TimePtr(now)
	}
	e.Unpublishing = nil
	p.cs.Add(e)

	for _, sib := range p.snap.Siblings {
		switch sib.State {
		case edition.StatePublished, edition.StateWithdrawn:
			sib.State = edition.StateSuperseded
		case edition.StateScheduled:
			sib.State = edition.StateSubmitted
			sib.ScheduledPublication = nil
		}
		sib.Unpublishing = nil
		p.cs.Add(sib)
	}
	p.cs.Live = &repository.LivePointer{DocumentID: e.DocumentID, EditionID: e.ID}

	doc := p.snap.Document
	doc.LiveEditionID = e.ID
	p.after("search", "index", doc.ID, func(ctx context.Context) error { return s.search.Index(ctx, doc, e) })
	p.after("publishing-api", "notify-published", doc.ID, func(ctx context.Context) error { return s.notifier.NotifyPublished(ctx, doc, e) })
	if id := e.StatisticsAnnouncementID; id != "" {
		p.after("search", "remove-announcement", id, func(ctx context.Context) error { return s.search.Remove(ctx, id) })
	}
}

func fireUnpublish(s *Service, p *plan) {
	e, in := p.snap.Edition, p.snap.Input
	e.State = in.Unpublishing.TargetState()
	e.Unpublishing = &edition.Unpublishing{
		Reason:         in.Unpublishing,
		Explanation:    in.Explanation,
		AlternativeURL: in.AlternativeURL,
		UnpublishedAt:  p.now,
		ActorID:        p.req.Actor.ID,
	}
	p.cs.Add(e)
	p.cs.Live = &repository.LivePointer{DocumentID: e.DocumentID, EditionID: ""}

	doc := p.snap.Document
	doc.LiveEditionID = ""
	if e.State == edition.StateWithdrawn {
		// withdrawn pages stay findable, with the notice
		p.after("search", "index", doc.ID, func(ctx context.Context) error { return s.search.Index(ctx, doc, e) })
	} else {
		p.after("search", "remove", doc.ID, func(ctx context.Context) error { return s.search.Remove(ctx, doc.ID) })
	}
	p.after("publishing-api", "notify-unpublished", doc.ID, func(ctx context.Context) error { return s.notifier.NotifyUnpublished(ctx, doc, e) })
}
