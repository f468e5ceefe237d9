package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"terrace/internal/domain"
)

// RedisGradeQueue реализует очередь задач оценки на базе Redis lists.
type RedisGradeQueue struct {
	client *redis.Client
	key    string
}

// NewRedisGradeQueue создаёт очередь по указанному ключу.
func NewRedisGradeQueue(client *redis.Client, key string) *RedisGradeQueue {
	return &RedisGradeQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisGradeQueue) Enqueue(ctx context.Context, job domain.GradeJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *RedisGradeQueue) Pop(ctx context.Context) (domain.GradeJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.GradeJob{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.GradeJob{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.GradeJob{}, err
		}
		if len(res) != 2 {
			return domain.GradeJob{}, errors.New("redis queue: unexpected response")
		}
		var job domain.GradeJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return domain.GradeJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}
