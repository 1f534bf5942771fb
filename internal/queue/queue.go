// Package queue dispatches background jobs over a Redis list and runs them
// in a lifecycle-managed worker pool.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultKey = "jobs:pending"

// Queue hands job IDs between the API process and the worker process. LPUSH
// on enqueue, BRPOP on dequeue, so jobs are delivered oldest first.
type Queue struct {
	client *redis.Client
	key    string
}

// New creates a queue over the given Redis connection. An empty key selects
// the default list.
func New(client *redis.Client, key string) *Queue {
	if key == "" {
		key = defaultKey
	}
	return &Queue{client: client, key: key}
}

// Enqueue schedules a job ID for execution.
func (q *Queue) Enqueue(ctx context.Context, jobID string) error {
	return q.client.LPush(ctx, q.key, jobID).Err()
}

// Dequeue blocks up to timeout for the next job ID. It returns an empty
// string when the wait times out.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	vals, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	// BRPOP returns [key, value].
	if len(vals) != 2 {
		return "", nil
	}
	return vals[1], nil
}

// Len reports the number of pending jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
