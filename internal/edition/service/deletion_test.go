package service

import (
	"testing"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/stretchr/testify/require"
)

func TestSoftDeleteAndRestoreLiveEdition(t *testing.T) {
	f := newFixture(t, nil)
	e := f.published(t, "round-trip")

	_, err := f.svc.SoftDelete(f.ctx(), e.ID, writer)
	require.NoError(t, err)
	deleted := f.get(t, e.ID)
	require.Equal(t, edition.StateDeleted, deleted.State)
	require.NotNil(t, deleted.Deletion)
	require.Equal(t, edition.StatePublished, deleted.Deletion.PriorState)
	require.True(t, deleted.Deletion.WasLive)
	require.Equal(t, writer.ID, deleted.Deletion.ActorID)
	require.Empty(t, f.doc(t, e.DocumentID).LiveEditionID)
	require.Equal(t, []string{e.DocumentID}, f.search.removed)

	_, err = f.svc.SoftDelete(f.ctx(), e.ID, writer)
	requireGuardReason(t, err, "already been deleted")

	_, err = f.svc.Restore(f.ctx(), e.ID, writer)
	require.ErrorIs(t, err, edition.ErrForbidden)

	_, err = f.svc.Restore(f.ctx(), e.ID, admin)
	require.NoError(t, err)
	restored := f.get(t, e.ID)
	require.Equal(t, edition.StatePublished, restored.State)
	require.Nil(t, restored.Deletion)
	require.Equal(t, e.ID, f.doc(t, e.DocumentID).LiveEditionID)
	require.True(t, restored.FirstPublishedAt.Equal(*e.FirstPublishedAt))
}

func TestRestoreWithoutDeletionRecord(t *testing.T) {
	f := newFixture(t, nil)
	e := f.submitted(t, "never-deleted")

	_, err := f.svc.Restore(f.ctx(), e.ID, admin)
	requireGuardReason(t, err, "Only a deleted edition can be restored")
	require.Equal(t, edition.StateSubmitted, f.get(t, e.ID).State)
}

func TestRestoreRefusedWhenAnotherEditionIsLive(t *testing.T) {
	f := newFixture(t, nil)
	v1 := f.published(t, "replaced")
	_, err := f.svc.SoftDelete(f.ctx(), v1.ID, writer)
	require.NoError(t, err)

	v2 := &edition.Edition{DocumentID: v1.DocumentID, State: edition.StateSubmitted, Version: 2,
		Title: "Replacement", Body: "Body", ChangeNote: "Replacement", FirstPublishedAt: v1.FirstPublishedAt}
	require.NoError(t, f.repo.AddEdition(f.ctx(), v2))
	_, err = f.svc.RequestPublish(f.ctx(), v2.ID, PublishNow, editor, nil)
	require.NoError(t, err)

	_, err = f.svc.Restore(f.ctx(), v1.ID, admin)
	requireGuardReason(t, err, "another edition of this document is published")
	require.Equal(t, edition.StateDeleted, f.get(t, v1.ID).State)
	require.Equal(t, v2.ID, f.doc(t, v1.DocumentID).LiveEditionID)
}

func TestRestoreScheduledAfterSlotPassed(t *testing.T) {
	f := newFixture(t, nil)
	e := f.scheduled(t, "missed-slot")
	slot := *e.ScheduledPublication

	_, err := f.svc.SoftDelete(f.ctx(), e.ID, writer)
	require.NoError(t, err)
	require.Nil(t, f.get(t, e.ID).ScheduledPublication)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.Restore(f.ctx(), e.ID, admin)
	require.NoError(t, err)
	got := f.get(t, e.ID)
	require.Equal(t, edition.StateScheduled, got.State)
	require.True(t, got.ScheduledPublication.Equal(slot))

	report, err := f.svc.RunScheduledPublications(f.ctx())
	require.NoError(t, err)
	require.Equal(t, []string{e.ID}, report.Published)
	require.Equal(t, edition.StatePublished, f.get(t, e.ID).State)
}

func TestRestoreScheduledKeepsFutureSlot(t *testing.T) {
	f := newFixture(t, nil)
	e := f.scheduled(t, "future-slot")

	_, err := f.svc.SoftDelete(f.ctx(), e.ID, writer)
	require.NoError(t, err)
	_, err = f.svc.Restore(f.ctx(), e.ID, admin)
	require.NoError(t, err)
	got := f.get(t, e.ID)
	require.Equal(t, edition.StateScheduled, got.State)
	require.True(t, got.ScheduledPublication.Equal(*e.ScheduledPublication))
	require.Empty(t, f.notifier.published)
}

func TestRestoreAllowedWhileAnotherEditionInProgress(t *testing.T) {
	f := newFixture(t, nil)
	v1 := f.published(t, "busy")
	v2 := f.nextSubmitted(t, v1.DocumentID, "Second")
	_, err := f.svc.SoftDelete(f.ctx(), v2.ID, writer)
	require.NoError(t, err)

	_, err = f.svc.CreateDraft(f.ctx(), v1.DocumentID, writer)
	require.NoError(t, err)

	_, err = f.svc.Restore(f.ctx(), v2.ID, admin)
	require.NoError(t, err)
	got := f.get(t, v2.ID)
	require.Equal(t, edition.StateSubmitted, got.State)
	require.Nil(t, got.Deletion)
}

func TestRestoreScheduledRefusedWhenAnotherIsScheduled(t *testing.T) {
	f := newFixture(t, nil)
	v1 := f.published(t, "one-slot")
	v2 := f.nextSubmitted(t, v1.DocumentID, "Second")
	at := f.clock.Now().Add(time.Hour)
	_, err := f.svc.RequestPublish(f.ctx(), v2.ID, PublishScheduled, editor, &at)
	require.NoError(t, err)
	_, err = f.svc.SoftDelete(f.ctx(), v2.ID, writer)
	require.NoError(t, err)

	v3 := f.nextSubmitted(t, v1.DocumentID, "Third")
	later := f.clock.Now().Add(2 * time.Hour)
	_, err = f.svc.RequestPublish(f.ctx(), v3.ID, PublishScheduled, editor, &later)
	require.NoError(t, err)

	_, err = f.svc.Restore(f.ctx(), v2.ID, admin)
	requireGuardReason(t, err, "already scheduled")
	require.Equal(t, edition.StateDeleted, f.get(t, v2.ID).State)
}

func TestScheduledOlderEditionDoesNotSupersedeNewer(t *testing.T) {
	f := newFixture(t, nil)
	v1 := f.scheduled(t, "older")
	_, err := f.svc.SoftDelete(f.ctx(), v1.ID, writer)
	require.NoError(t, err)

	v2 := &edition.Edition{DocumentID: v1.DocumentID, State: edition.StateSubmitted, Version: 2,
		Title: "Newer", Body: "Body", ChangeNote: "Newer"}
	require.NoError(t, f.repo.AddEdition(f.ctx(), v2))
	_, err = f.svc.RequestPublish(f.ctx(), v2.ID, PublishNow, editor, nil)
	require.NoError(t, err)

	_, err = f.svc.Restore(f.ctx(), v1.ID, admin)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)

	report, err := f.svc.RunScheduledPublications(f.ctx())
	require.NoError(t, err)
	require.Empty(t, report.Published)
	require.Equal(t, []string{v1.ID}, report.Skipped)
	require.Equal(t, edition.StateScheduled, f.get(t, v1.ID).State)
	require.Equal(t, v2.ID, f.doc(t, v1.DocumentID).LiveEditionID)
}
