package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/stretchr/testify/require"
)

func TestConsultationPolicy_Match(t *testing.T) {
	p := DefaultConsultationPolicy()
	closing := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	s := &Subject{Kind: KindConsultation, Deadline: closing}
	deadline := p.ResponseDeadline(closing)
	require.True(t, deadline.Equal(closing.Add(12*week)))

	due, ok := p.Match(s, deadline.Add(-4*week))
	require.True(t, ok, "window opens exactly at the offset")
	require.Equal(t, TemplateConsultationUpcoming, due.Template)
	require.Equal(t, 4, due.WeeksLeft)

	_, ok = p.Match(s, deadline.Add(-4*week+24*time.Hour))
	require.False(t, ok, "window is open for 24 hours")

	due, ok = p.Match(s, deadline.Add(time.Hour))
	require.True(t, ok)
	require.Equal(t, TemplateConsultationPassed, due.Template)
	require.Zero(t, due.WeeksLeft)

	_, ok = p.Match(s, deadline.Add(-2*week))
	require.False(t, ok)

	s.ResponsePublished = true
	_, ok = p.Match(s, deadline)
	require.False(t, ok)
}

func TestConsultationPolicy_ClosingRangeCoversEveryOffset(t *testing.T) {
	p := ConsultationPolicy{ResponseWeeks: 12, OffsetWeeks: []int{1, 6}, Window: 24 * time.Hour}
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	from, to := p.ClosingRange(now)
	for _, w := range []int{6, 1, 0} {
		closing := now.Add(-12*week + time.Duration(w)*week)
		require.True(t, closing.After(from) && !closing.After(to), "offset %d", w)
		_, ok := p.Match(&Subject{Kind: KindConsultation, Deadline: closing}, now)
		require.True(t, ok, "offset %d", w)
	}
}

func TestReviewPolicy_Match(t *testing.T) {
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	s := &Subject{Kind: KindReview, Deadline: now.Add(-time.Hour)}
	_, ok := ReviewPolicy{}.Match(s, now)
	require.True(t, ok)

	s.ReminderSentAt = &now
	_, ok = ReviewPolicy{}.Match(s, now)
	require.False(t, ok)

	require.True(t, s.Reschedule(now.Add(week)))
	require.Nil(t, s.ReminderSentAt)
	require.False(t, s.Reschedule(now.Add(week)), "same date is not a change")
}

func TestService_CreateValidates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryRepo(), nil, func() time.Time { return now })
	editor := auth.Actor{ID: "u-editor", Roles: []string{auth.RoleEditor}}

	_, err := svc.Create(ctx, NewSubject{DocumentID: "d1", Kind: KindReview, Deadline: now.Add(week)}, editor)
	_, isGuard := edition.AsGuardViolation(err)
	require.True(t, isGuard, "review without an address")

	_, err = svc.Create(ctx, NewSubject{DocumentID: "d1", Kind: KindReview, Deadline: now.AddDate(0, 0, -2), EmailAddress: "a@example.gov"}, editor)
	_, isGuard = edition.AsGuardViolation(err)
	require.True(t, isGuard, "review date in the past")

	_, err = svc.Create(ctx, NewSubject{DocumentID: "d1", Kind: KindReview, Deadline: now.Add(week), EmailAddress: "a@example.gov"}, auth.Actor{ID: "anon"})
	require.ErrorIs(t, err, edition.ErrForbidden)

	s, err := svc.Create(ctx, NewSubject{DocumentID: "d1", Kind: KindConsultation, Deadline: now, AuthorIDs: []string{"u1"}}, editor)
	require.NoError(t, err)
	require.Equal(t, editor.ID, s.CreatorID)

	_, err = svc.Reschedule(ctx, "missing", now, editor)
	require.ErrorIs(t, err, edition.ErrNotFound)
}

func TestService_ReviewCannotMoveIntoPast(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryRepo(), nil, func() time.Time { return now })
	editor := auth.Actor{ID: "u-editor", Roles: []string{auth.RoleEditor}}
	s, err := svc.Create(ctx, NewSubject{DocumentID: "d1", Kind: KindReview, Deadline: now.Add(week), EmailAddress: "a@example.gov"}, editor)
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, s.ID, now.AddDate(0, -1, 0), editor)
	_, isGuard := edition.AsGuardViolation(err)
	require.True(t, isGuard)

	_, err = svc.MarkResponsePublished(ctx, s.ID, editor)
	require.NoError(t, err)
}
