package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const receiveBlock = 5 * time.Second

// RedisQueue implements Queue on redis lists. Messages move from the queue
// list to a pending list while a handler runs, so a crashed worker leaves
// them recoverable; acknowledged messages are removed from pending, failed
// ones go back to the queue. Delivery is at least once.
type RedisQueue struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisQueue(client *redis.Client, log *zap.Logger) *RedisQueue {
	return &RedisQueue{
		client: client,
		log:    log.Named("queue.redis"),
	}
}

func queueKey(queue string) string   { return "queue:" + queue }
func pendingKey(queue string) string { return "queue:" + queue + ":pending" }

func (q *RedisQueue) Send(ctx context.Context, queue string, body []byte) error {
	if err := q.client.LPush(ctx, queueKey(queue), body).Err(); err != nil {
		return fmt.Errorf("%w: queue send: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Consume(ctx context.Context, queue string, handler Handler) error {
	if err := q.recoverPending(ctx, queue); err != nil {
		return err
	}

	key := queueKey(queue)
	pending := pendingKey(queue)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := q.client.BLMove(ctx, key, pending, "RIGHT", "LEFT", receiveBlock).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if err != nil {
			q.log.Warn("receive failed, backing off", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(receiveBlock):
			}
			continue
		}

		if handlerErr := handler(ctx, []byte(body)); handlerErr != nil {
			// Redeliver at the head of the list; consumption pops from the
			// tail, so older messages still go first.
			q.log.Warn("handler failed, requeueing message", zap.Error(handlerErr))
			pipe := q.client.TxPipeline()
			pipe.LRem(ctx, pending, 1, body)
			pipe.LPush(ctx, key, body)
			if _, err := pipe.Exec(ctx); err != nil {
				q.log.Error("requeue failed, message stays pending", zap.Error(err))
			}
			continue
		}

		if err := q.client.LRem(ctx, pending, 1, body).Err(); err != nil {
			q.log.Error("ack failed, message may redeliver", zap.Error(err))
		}
	}
}

// recoverPending moves messages a previous worker left in flight back onto
// the queue.
func (q *RedisQueue) recoverPending(ctx context.Context, queue string) error {
	for {
		_, err := q.client.LMove(ctx, pendingKey(queue), queueKey(queue), "RIGHT", "LEFT").Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: recover pending: %v", ErrStorageUnavailable, err)
		}
	}
}
