package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
	"golang.org/x/time/rate"
)

const TypeMail = "mail"

// DeliveryResult identifies an accepted message.
type DeliveryResult struct {
	ID        string `json:"id"`
	Recipient string `json:"recipient"`
	Template  string `json:"template"`
}

// Mailer sends one templated message to one recipient.
type Mailer interface {
	Send(ctx context.Context, recipient, template string, data map[string]string) (DeliveryResult, error)
}

// MailMessage is the payload the mail worker renders and delivers.
type MailMessage struct {
	To       string            `json:"to"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data,omitempty"`
}

// MailQueue hands messages to the mail worker through Redis.
type MailQueue struct {
	q *Queue
}

func NewMailQueue(q *Queue) *MailQueue { return &MailQueue{q: q} }

func (m *MailQueue) Send(ctx context.Context, recipient, template string, data map[string]string) (DeliveryResult, error) {
	if recipient == "" {
		return DeliveryResult{}, fmt.Errorf("mail %s: empty recipient", template)
	}
	id, err := m.q.Push(ctx, TypeMail, MailMessage{To: recipient, Template: template, Data: data})
	if err != nil {
		return DeliveryResult{}, err
	}
	return DeliveryResult{ID: id, Recipient: recipient, Template: template}, nil
}

// LogMailer only logs. Used when no queue is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, recipient, template string, data map[string]string) (DeliveryResult, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+data[k])
	}
	logger.Infof("mail %s to %s (%s)", template, recipient, strings.Join(parts, ", "))
	return DeliveryResult{ID: uuid.NewString(), Recipient: recipient, Template: template}, nil
}

// Throttled caps the send rate of another Mailer. Send blocks until a token
// is available or ctx is done.
type Throttled struct {
	next    Mailer
	limiter *rate.Limiter
}

// NewThrottled allows perSecond messages per second with the given burst.
// A non-positive rate disables throttling.
func NewThrottled(next Mailer, perSecond float64, burst int) *Throttled {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (t *Throttled) Send(ctx context.Context, recipient, template string, data map[string]string) (DeliveryResult, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return DeliveryResult{}, fmt.Errorf("mail throttle: %w", err)
	}
	return t.next.Send(ctx, recipient, template, data)
}
