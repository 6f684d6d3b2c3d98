package app

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/config"
	"github.com/govpub/govpub/backend/go-services/internal/edition/service"
	"github.com/govpub/govpub/backend/go-services/internal/notify"
	"github.com/govpub/govpub/backend/go-services/internal/reminder"
	"github.com/stretchr/testify/require"
)

func TestBuild_InMemoryWithRedisQueues(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	cfg := &config.Config{}
	cfg.Redis.Host, cfg.Redis.Port = m.Host(), m.Port()
	cfg.Queues.Publishing, cfg.Queues.Mail = "q:pub", "q:mail"
	ctx := context.Background()

	a, err := Build(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(ctx) })
	require.NotNil(t, a.Redis)
	require.Nil(t, a.Mongo)
	require.Equal(t, map[string]bool{"redis": true}, a.Ready(ctx))

	writer := auth.Actor{ID: "u-writer", Roles: []string{auth.RoleWriter}}
	editor := auth.Actor{ID: "u-editor", Roles: []string{auth.RoleEditor}}
	doc, first, err := a.Editions.CreateDocument(ctx, service.NewDocument{ContentType: "publication", Slug: "annual-report", Title: "Annual report", Body: "Text"}, writer)
	require.NoError(t, err)
	_, err = a.Editions.Submit(ctx, first.ID, writer)
	require.NoError(t, err)
	res, err := a.Editions.RequestPublish(ctx, first.ID, service.PublishNow, editor, nil)
	require.NoError(t, err)
	require.False(t, res.Degraded())

	pub := notify.NewQueue(a.Redis, "q:pub")
	n, err := pub.Len(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	y, mo, d := time.Now().UTC().Date()
	_, err = a.Reminders.Create(ctx, reminder.NewSubject{
		DocumentID: doc.ID, Title: "Annual report", Kind: reminder.KindReview,
		Deadline: time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), EmailAddress: "owner@example.gov",
	}, editor)
	require.NoError(t, err)

	report, err := a.Scheduler.RunDeadlineReminders(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	n, err = notify.NewQueue(a.Redis, "q:mail").Len(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestBuild_UnreachableRedisFallsBack(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	host, port := m.Host(), m.Port()
	m.Close()

	cfg := &config.Config{}
	cfg.Redis.Host, cfg.Redis.Port = host, port
	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	require.Nil(t, a.Redis)
	require.Empty(t, a.Ready(context.Background()))
}

func TestConsultationPolicyOverrides(t *testing.T) {
	p := ConsultationPolicy(config.RemindersConfig{OffsetWeeks: []int{2}, Window: 12 * time.Hour})
	require.Equal(t, 12, p.ResponseWeeks)
	require.Equal(t, []int{2}, p.OffsetWeeks)
	require.Equal(t, 12*time.Hour, p.Window)
}
