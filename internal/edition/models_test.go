package edition

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCloneIsDeep(t *testing.T) {
	e := validEdition(StateDeleted)
	e.ScheduledPublication = TimePtr(now)
	e.Unpublishing = &Unpublishing{Reason: ReasonWithdrawn}
	e.Deletion = &Deletion{PriorState: StateScheduled, PriorScheduledPublication: TimePtr(now)}

	c := e.Clone()
	*c.ScheduledPublication = now.Add(time.Hour)
	c.Unpublishing.Reason = ReasonConsolidated
	*c.Deletion.PriorScheduledPublication = now.Add(time.Hour)

	require.Equal(t, now, *e.ScheduledPublication)
	require.Equal(t, ReasonWithdrawn, e.Unpublishing.Reason)
	require.Equal(t, now, *e.Deletion.PriorScheduledPublication)
}

func TestNewDraftCarriesFirstPublishedAt(t *testing.T) {
	e := validEdition(StatePublished)
	e.FirstPublishedAt = TimePtr(now.Add(-72 * time.Hour))
	e.ChangeNote = "old note"

	d := e.NewDraft("author-1", now)
	require.Equal(t, StateDraft, d.State)
	require.Equal(t, 2, d.Version)
	require.Equal(t, *e.FirstPublishedAt, *d.FirstPublishedAt)
	require.Empty(t, d.ChangeNote)
	require.False(t, d.IsFirstVersion())
}

func TestUnpublishingReasonTargetState(t *testing.T) {
	require.Equal(t, StateWithdrawn, ReasonWithdrawn.TargetState())
	require.Equal(t, StateDraft, ReasonPublishedInError.TargetState())
	require.Equal(t, StateDraft, ReasonConsolidated.TargetState())
}

func TestErrorsMatchSentinels(t *testing.T) {
	require.True(t, errors.Is(&NotFoundError{Kind: "edition", ID: "x"}, ErrNotFound))
	require.True(t, errors.Is(&ConcurrentStateChange{EditionID: "x"}, ErrConflict))
	require.True(t, errors.Is(&ForbiddenError{Capability: "restore_edition"}, ErrForbidden))
}
