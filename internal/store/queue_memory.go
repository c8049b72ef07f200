package store

import (
	"context"
	"sync"
)

const memoryQueueDepth = 1024

// MemoryQueue is an in-process Queue for tests and standalone mode. It keeps
// the same at-least-once contract as the redis queue: a failed handler puts
// the message back on the queue.
type MemoryQueue struct {
	mu     sync.Mutex
	queues map[string]chan []byte
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{queues: map[string]chan []byte{}}
}

func (q *MemoryQueue) channel(queue string) chan []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.queues[queue]
	if !ok {
		ch = make(chan []byte, memoryQueueDepth)
		q.queues[queue] = ch
	}
	return ch
}

func (q *MemoryQueue) Send(ctx context.Context, queue string, body []byte) error {
	select {
	case q.channel(queue) <- body:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Consume(ctx context.Context, queue string, handler Handler) error {
	ch := q.channel(queue)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case body := <-ch:
			if err := handler(ctx, body); err != nil {
				select {
				case ch <- body:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// Len reports the number of buffered messages, used by tests to assert
// drain/redelivery behavior.
func (q *MemoryQueue) Len(queue string) int {
	return len(q.channel(queue))
}
