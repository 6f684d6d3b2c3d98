package edition

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func validEdition(state State) *Edition {
	return &Edition{ID: "e1", DocumentID: "d1", State: state, Version: 1, Title: "Speech on growth", Body: "body"}
}

func TestPublishScheduled_TooEarlyIsDistinctFromWrongState(t *testing.T) {
	e := validEdition(StateScheduled)
	e.ScheduledPublication = TimePtr(now.Add(time.Hour))

	ok, reasons := CanTransition(Snapshot{Edition: e, Now: now}, KindPublishScheduled)
	require.False(t, ok)
	require.Len(t, reasons, 1)
	require.Contains(t, reasons[0], "may not be published before")

	e.State = StateSubmitted
	ok, reasons = CanTransition(Snapshot{Edition: e, Now: now}, KindPublishScheduled)
	require.False(t, ok)
	require.Len(t, reasons, 1, "wrong state must not also report too early")
	require.Contains(t, reasons[0], "Only scheduled editions")
}

func TestPublishScheduled_DueEditionPasses(t *testing.T) {
	e := validEdition(StateScheduled)
	e.ScheduledPublication = TimePtr(now)
	ok, reasons := CanTransition(Snapshot{Edition: e, Now: now}, KindPublishScheduled)
	require.True(t, ok)
	require.Empty(t, reasons)
}

func TestPublishScheduled_NeedsTimestamp(t *testing.T) {
	e := validEdition(StateScheduled)
	ok, _ := CanTransition(Snapshot{Edition: e, Now: now}, KindPublishScheduled)
	require.False(t, ok)
}

func TestPublishScheduled_RefusesEditionOlderThanLive(t *testing.T) {
	e := validEdition(StateScheduled)
	e.ScheduledPublication = TimePtr(now)
	live := &Edition{ID: "e2", DocumentID: "d1", State: StatePublished, Version: 2}
	doc := &Document{ID: "d1", LiveEditionID: "e2"}

	res := GuardFor(KindPublishScheduled).Evaluate(Snapshot{Edition: e, Document: doc, Siblings: []*Edition{live}, Now: now})
	require.Equal(t, []string{"not-older-than-live"}, res.Failed)
}

func TestRestore_ScheduledNeedsFreeSlot(t *testing.T) {
	e := validEdition(StateDeleted)
	e.Deletion = &Deletion{PriorState: StateScheduled, PriorScheduledPublication: TimePtr(now.Add(time.Hour))}
	other := &Edition{ID: "e2", DocumentID: "d1", State: StateScheduled, Version: 2}

	res := GuardFor(KindRestore).Evaluate(Snapshot{Edition: e, Document: &Document{ID: "d1"}, Siblings: []*Edition{other}, Now: now})
	require.Equal(t, []string{"single-scheduled"}, res.Failed)

	other.State = StateDraft
	res = GuardFor(KindRestore).Evaluate(Snapshot{Edition: e, Document: &Document{ID: "d1"}, Siblings: []*Edition{other}, Now: now})
	require.True(t, res.Allowed(), "an edition in progress does not block restore")
}

func TestGuard_CollectsAllReasons(t *testing.T) {
	e := &Edition{ID: "e2", DocumentID: "d1", State: StateDraft, Version: 2, FirstPublishedAt: TimePtr(now.Add(-48 * time.Hour))}
	res := GuardFor(KindPublishNow).Evaluate(Snapshot{Edition: e, Now: now})
	require.False(t, res.Allowed())
	require.Equal(t, []string{"state", "content-valid", "change-note"}, res.Failed)
	require.Len(t, res.Reasons, 3)
	require.True(t, strings.HasPrefix(res.Reasons[1], "This edition is invalid"))
}

func TestPublishNow_ScheduledNeedsOverride(t *testing.T) {
	e := validEdition(StateScheduled)
	e.ScheduledPublication = TimePtr(now.Add(time.Hour))
	ok, reasons := CanTransition(Snapshot{Edition: e, Now: now}, KindPublishNow)
	require.False(t, ok)
	require.Contains(t, reasons[0], "schedule override")

	ok, _ = CanTransition(Snapshot{Edition: e, Now: now, Input: Input{OverrideSchedule: true}}, KindPublishNow)
	require.True(t, ok)
}

func TestPublishNow_RejectsOlderThanLive(t *testing.T) {
	live := validEdition(StatePublished)
	live.ID, live.Version = "e3", 3
	e := validEdition(StateSubmitted)
	doc := &Document{ID: "d1", LiveEditionID: "e3"}
	ok, reasons := CanTransition(Snapshot{Edition: e, Document: doc, Siblings: []*Edition{live}, Now: now}, KindPublishNow)
	require.False(t, ok)
	require.Contains(t, reasons[0], "newer edition")
}

func TestSchedule_Preconditions(t *testing.T) {
	e := validEdition(StateSubmitted)
	res := GuardFor(KindSchedule).Evaluate(Snapshot{Edition: e, Now: now})
	require.Equal(t, []string{"schedule-set"}, res.Failed)

	e.ScheduledPublication = TimePtr(now.Add(-time.Minute))
	res = GuardFor(KindSchedule).Evaluate(Snapshot{Edition: e, Now: now})
	require.Equal(t, []string{"schedule-in-future"}, res.Failed)

	e.ScheduledPublication = TimePtr(now.Add(time.Hour))
	other := validEdition(StateScheduled)
	other.ID = "e9"
	res = GuardFor(KindSchedule).Evaluate(Snapshot{Edition: e, Siblings: []*Edition{other}, Now: now})
	require.Equal(t, []string{"single-scheduled"}, res.Failed)
}

func TestReject_NeedsReason(t *testing.T) {
	ok, reasons := CanTransition(Snapshot{Edition: validEdition(StateSubmitted), Now: now}, KindReject)
	require.False(t, ok)
	require.Equal(t, []string{"A reason must be given"}, reasons)

	ok, _ = CanTransition(Snapshot{Edition: validEdition(StateSubmitted), Input: Input{Reason: "needs work"}, Now: now}, KindReject)
	require.True(t, ok)
}

func TestUnpublish_Preconditions(t *testing.T) {
	e := validEdition(StatePublished)
	doc := &Document{ID: "d1", LiveEditionID: "e1"}

	res := GuardFor(KindUnpublish).Evaluate(Snapshot{Edition: e, Document: doc, Input: Input{Unpublishing: ReasonWithdrawn}, Now: now})
	require.Equal(t, []string{"withdrawal-explanation"}, res.Failed)

	res = GuardFor(KindUnpublish).Evaluate(Snapshot{Edition: e, Document: doc, Input: Input{Unpublishing: ReasonConsolidated}, Now: now})
	require.Equal(t, []string{"consolidation-url"}, res.Failed)

	res = GuardFor(KindUnpublish).Evaluate(Snapshot{Edition: e, Document: &Document{ID: "d1"}, Input: Input{Unpublishing: "bogus"}, Now: now})
	require.Equal(t, []string{"live", "unpublishing-reason"}, res.Failed)

	res = GuardFor(KindUnpublish).Evaluate(Snapshot{Edition: e, Document: doc, Input: Input{Unpublishing: ReasonPublishedInError}, Now: now})
	require.True(t, res.Allowed())
}

func TestCanTransition_UnknownKind(t *testing.T) {
	ok, reasons := CanTransition(Snapshot{Edition: validEdition(StateDraft), Now: now}, Kind("teleport"))
	require.False(t, ok)
	require.Len(t, reasons, 1)
}

func TestGuardViolationMessage(t *testing.T) {
	err := &GuardViolation{Verb: "publish", Reasons: []string{"a", "b"}}
	require.Equal(t, "publish failed: a; b", err.Error())
}
