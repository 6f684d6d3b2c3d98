package service

import (
	"context"

	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/govpub/govpub/backend/go-services/internal/edition/repository"
)

// SoftDelete marks an edition deleted and keeps what Restore needs to undo it.
func (s *Service) SoftDelete(ctx context.Context, editionID string, actor auth.Actor) (*Result, error) {
	return s.Execute(ctx, editionID, Request{Kind: edition.KindDelete, Actor: actor})
}

// Restore puts a deleted edition back into the state it was deleted from.
func (s *Service) Restore(ctx context.Context, editionID string, actor auth.Actor) (*Result, error) {
	return s.Execute(ctx, editionID, Request{Kind: edition.KindRestore, Actor: actor})
}

func fireDelete(s *Service, p *plan) {
	e, doc := p.snap.Edition, p.snap.Document
	wasLive := doc.LiveEditionID == e.ID
	e.Deletion = &edition.Deletion{
		PriorState:                e.State,
		PriorScheduledPublication: e.ScheduledPublication,
		WasLive:                   wasLive,
		DeletedAt:                 p.now,
		ActorID:                   p.req.Actor.ID,
	}
	e.State = edition.StateDeleted
	e.ScheduledPublication = nil
	p.cs.Add(e)
	if !wasLive {
		return
	}
	p.cs.Live = &repository.LivePointer{DocumentID: doc.ID, EditionID: ""}
	doc.LiveEditionID = ""
	p.after("search", "remove", doc.ID, func(ctx context.Context) error { return s.search.Remove(ctx, doc.ID) })
	p.after("publishing-api", "notify-unpublished", doc.ID, func(ctx context.Context) error { return s.notifier.NotifyUnpublished(ctx, doc, e) })
}

// fireRestore never supersedes siblings. They are still written so that a
// publish racing the restore conflicts instead of leaving two live editions.
func fireRestore(s *Service, p *plan) {
	e, doc := p.snap.Edition, p.snap.Document
	d := e.Deletion
	e.State = d.PriorState
	// a slot that passed while deleted is picked up by the next runner pass
	e.ScheduledPublication = d.PriorScheduledPublication
	e.Deletion = nil
	p.cs.Add(e)
	for _, sib := range p.snap.Siblings {
		p.cs.Add(sib)
	}
	if !d.WasLive {
		return
	}
	p.cs.Live = &repository.LivePointer{DocumentID: doc.ID, EditionID: e.ID}
	doc.LiveEditionID = e.ID
	p.after("search", "index", doc.ID, func(ctx context.Context) error { return s.search.Index(ctx, doc, e) })
	p.after("publishing-api", "notify-published", doc.ID, func(ctx context.Context) error { return s.notifier.NotifyPublished(ctx, doc, e) })
}
