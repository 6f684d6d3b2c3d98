package reminder

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/notify"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
	"github.com/govpub/govpub/backend/go-services/pkg/metrics"
)

// Mailer delivers one templated message.
type Mailer interface {
	Send(ctx context.Context, recipient, template string, data map[string]string) (notify.DeliveryResult, error)
}

// PublicationLookup reports when a document's latest edition first went live.
type PublicationLookup interface {
	FirstPublishedAt(ctx context.Context, documentID string) (*time.Time, error)
}

// Directory resolves a user ID to an e-mail address.
type Directory interface {
	EmailFor(ctx context.Context, userID string) (string, error)
}

// Report summarises one reminder run.
type Report struct {
	Candidates int `json:"candidates"`
	Due        int `json:"due"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

type Scheduler struct {
	repo         Repository
	mailer       Mailer
	publications PublicationLookup
	directory    Directory
	consultation ConsultationPolicy
	review       ReviewPolicy
	now          func() time.Time
}

type SchedulerOption func(*Scheduler)

func WithConsultationPolicy(p ConsultationPolicy) SchedulerOption {
	return func(s *Scheduler) { s.consultation = p }
}

func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(repo Repository, mailer Mailer, pubs PublicationLookup, dir Directory, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		repo:         repo,
		mailer:       mailer,
		publications: pubs,
		directory:    dir,
		consultation: DefaultConsultationPolicy(),
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RunDeadlineReminders sends every reminder that is due now. A failing
// recipient or subject is logged and counted; the run carries on.
func (s *Scheduler) RunDeadlineReminders(ctx context.Context) (*Report, error) {
	start := time.Now()
	defer func() { metrics.TaskDuration.WithLabelValues("deadline-reminders").Observe(time.Since(start).Seconds()) }()

	now := s.now().UTC()
	from, to := s.consultation.ClosingRange(now)
	candidates, err := s.repo.ListCandidates(ctx, Query{ClosedAfter: from, ClosedBy: to, ReviewDueBy: now})
	if err != nil {
		return nil, fmt.Errorf("list reminder candidates: %w", err)
	}
	report := &Report{Candidates: len(candidates)}
	for _, subj := range candidates {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		due, ok := s.match(subj, now)
		if !ok {
			continue
		}
		report.Due++
		published, err := s.publications.FirstPublishedAt(ctx, subj.DocumentID)
		if err != nil {
			report.Failed++
			logger.Errorw("reminder eligibility check failed", logger.Fields{"subject": subj.ID, "document": subj.DocumentID, "error": err})
			continue
		}
		if published == nil {
			report.Skipped++
			continue
		}
		sent, failed := s.deliver(ctx, due, now)
		report.Sent += sent
		report.Failed += failed
	}
	logger.Infow("deadline reminder run finished", logger.Fields{
		"candidates": report.Candidates, "due": report.Due, "sent": report.Sent, "failed": report.Failed, "skipped": report.Skipped,
	})
	return report, nil
}

func (s *Scheduler) match(subj *Subject, now time.Time) (Due, bool) {
	switch subj.Kind {
	case KindConsultation:
		return s.consultation.Match(subj, now)
	case KindReview:
		return s.review.Match(subj, now)
	}
	return Due{}, false
}

func (s *Scheduler) deliver(ctx context.Context, due Due, now time.Time) (sent, failed int) {
	subj := due.Subject
	data := map[string]string{
		"title":       subj.Title,
		"document_id": subj.DocumentID,
		"deadline":    due.Deadline.Format("2 January 2006"),
	}
	if due.WeeksLeft > 0 {
		data["weeks_left"] = strconv.Itoa(due.WeeksLeft)
	}
	recipients, failed := s.recipients(ctx, subj)
	logger.Infof("Sending reminder for %s %s '%s' to %s", subj.Kind, subj.ID, subj.Title, obfuscateAll(recipients))

	for _, to := range recipients {
		if _, err := s.mailer.Send(ctx, to, string(due.Template), data); err != nil {
			failed++
			metrics.RemindersSent.WithLabelValues(string(due.Template), "failed").Inc()
			logger.Warnw("reminder delivery failed", logger.Fields{"subject": subj.ID, "recipient": Obfuscate(to), "error": err})
			continue
		}
		sent++
		metrics.RemindersSent.WithLabelValues(string(due.Template), "sent").Inc()
	}
	if due.Template == TemplateReview && sent > 0 {
		if err := s.markSent(ctx, subj, now); err != nil {
			logger.Warnw("could not record review reminder", logger.Fields{"subject": subj.ID, "error": err})
		}
	}
	return sent, failed
}

// recipients returns the unique addresses for subj and the number of authors
// that could not be resolved.
func (s *Scheduler) recipients(ctx context.Context, subj *Subject) ([]string, int) {
	if subj.Kind == KindReview {
		return []string{subj.EmailAddress}, 0
	}
	seen := map[string]bool{}
	var out []string
	failed := 0
	for _, id := range subj.AuthorIDs {
		email, err := s.directory.EmailFor(ctx, id)
		if err != nil {
			failed++
			logger.Warnw("reminder recipient unresolved", logger.Fields{"subject": subj.ID, "author": id, "error": err})
			continue
		}
		key := strings.ToLower(email)
		if !seen[key] {
			seen[key] = true
			out = append(out, email)
		}
	}
	return out, failed
}

// markSent records the delivery unless the deadline moved in the meantime.
func (s *Scheduler) markSent(ctx context.Context, subj *Subject, now time.Time) error {
	subj.ReminderSentAt = &now
	err := s.repo.Update(ctx, subj)
	if errors.Is(err, ErrConflict) {
		cur, gerr := s.repo.Get(ctx, subj.ID)
		if gerr != nil {
			return gerr
		}
		if !cur.Deadline.Equal(subj.Deadline) {
			return nil
		}
		cur.ReminderSentAt = &now
		return s.repo.Update(ctx, cur)
	}
	return err
}

var emailPattern = regexp.MustCompile(`^(.{2}).*(.{2})$`)

// Obfuscate keeps the first and last two characters of an address.
func Obfuscate(email string) string {
	return emailPattern.ReplaceAllString(email, "${1}*****${2}")
}

func obfuscateAll(emails []string) string {
	out := make([]string, len(emails))
	for i, e := range emails {
		out[i] = Obfuscate(e)
	}
	switch len(out) {
	case 0:
		return "nobody"
	case 1:
		return out[0]
	}
	return strings.Join(out[:len(out)-1], ", ") + " and " + out[len(out)-1]
}
