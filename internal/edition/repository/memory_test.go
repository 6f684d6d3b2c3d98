package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoDocumentsAndEditions(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	doc := &edition.Document{ContentType: "speech", Slug: "budget-speech"}
	first := &edition.Edition{State: edition.StateDraft, Version: 1, Title: "Budget"}
	require.NoError(t, r.CreateDocument(ctx, doc, first))
	require.NotEmpty(t, doc.ID)
	require.Equal(t, doc.ID, first.DocumentID)

	got, err := r.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, got.LatestEditionID)

	second := first.NewDraft("u1", time.Now())
	require.NoError(t, r.AddEdition(ctx, second))
	got, err = r.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, got.LatestEditionID)

	list, err := r.ListEditions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, 1, list[0].Version)

	_, err = r.GetEdition(ctx, "missing")
	require.True(t, errors.Is(err, edition.ErrNotFound))
}

func TestMemoryRepoApplyChecksLockVersion(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	doc := &edition.Document{ContentType: "speech"}
	first := &edition.Edition{State: edition.StateSubmitted, Version: 1}
	require.NoError(t, r.CreateDocument(ctx, doc, first))

	a, _ := r.GetEdition(ctx, first.ID)
	b, _ := r.GetEdition(ctx, first.ID)

	var cs ChangeSet
	cs.Add(a)
	a.State = edition.StatePublished
	cs.Live = &LivePointer{DocumentID: doc.ID, EditionID: a.ID}
	require.NoError(t, r.Apply(ctx, cs))
	require.Equal(t, int64(1), a.LockVersion)

	var stale ChangeSet
	stale.Add(b)
	b.State = edition.StateRejected
	err := r.Apply(ctx, stale)
	require.True(t, errors.Is(err, edition.ErrConflict))

	stored, _ := r.GetEdition(ctx, first.ID)
	require.Equal(t, edition.StatePublished, stored.State)
	d, _ := r.GetDocument(ctx, doc.ID)
	require.Equal(t, first.ID, d.LiveEditionID)
}

func TestMemoryRepoApplyIsAllOrNothing(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	doc := &edition.Document{ContentType: "speech"}
	first := &edition.Edition{State: edition.StatePublished, Version: 1}
	require.NoError(t, r.CreateDocument(ctx, doc, first))
	second := &edition.Edition{DocumentID: doc.ID, State: edition.StateSubmitted, Version: 2}
	require.NoError(t, r.AddEdition(ctx, second))

	e1, _ := r.GetEdition(ctx, first.ID)
	e2, _ := r.GetEdition(ctx, second.ID)
	e2.LockVersion = 41

	var cs ChangeSet
	cs.Add(e1)
	cs.Add(e2)
	e1.State = edition.StateSuperseded
	e2.State = edition.StatePublished
	require.Error(t, r.Apply(ctx, cs))

	stored, _ := r.GetEdition(ctx, first.ID)
	require.Equal(t, edition.StatePublished, stored.State)
}

func TestMemoryRepoListDueScheduled(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	now := time.Now().UTC()
	doc := &edition.Document{ContentType: "speech"}
	due := &edition.Edition{State: edition.StateScheduled, Version: 1, ScheduledPublication: edition.TimePtr(now.Add(-time.Minute))}
	require.NoError(t, r.CreateDocument(ctx, doc, due))
	later := &edition.Edition{DocumentID: doc.ID, State: edition.StateScheduled, Version: 2, ScheduledPublication: edition.TimePtr(now.Add(time.Hour))}
	require.NoError(t, r.AddEdition(ctx, later))

	list, err := r.ListDueScheduled(ctx, now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, due.ID, list[0].ID)
}
