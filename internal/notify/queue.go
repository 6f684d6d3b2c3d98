package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Envelope is what goes on a queue. Consumers pop from the right, so the
// list is FIFO.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"createdAt"`
	Payload   json.RawMessage `json:"payload"`
}

// Queue is a Redis list of JSON envelopes. Delivery and retries are the
// consumer's job; producers only need the push to land.
type Queue struct {
	client *redis.Client
	key    string
}

// NewQueue creates a queue stored under key.
func NewQueue(client *redis.Client, key string) *Queue {
	return &Queue{client: client, key: key}
}

func (q *Queue) Key() string { return q.key }

func (q *Queue) Push(ctx context.Context, typ string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", typ, err)
	}
	env := Envelope{ID: uuid.NewString(), Type: typ, CreatedAt: time.Now().UTC(), Payload: body}
	b, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	if err := q.client.LPush(ctx, q.key, b).Err(); err != nil {
		return "", fmt.Errorf("push to %s: %w", q.key, err)
	}
	return env.ID, nil
}

// Pop removes the oldest envelope, or returns nil when the queue is empty.
func (q *Queue) Pop(ctx context.Context) (*Envelope, error) {
	b, err := q.client.RPop(ctx, q.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
