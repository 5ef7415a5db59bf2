// Package queue implements the shared batch queue between sources and the sink.
package queue

import (
	"context"
	"sync"

	"github.com/and161185/lab-data-logger/model"
)

// Queue is an unbounded FIFO safe for many producers and one consumer.
type Queue struct {
	mu     sync.Mutex
	data   []model.Batch
	notify chan struct{}
}

func New() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push appends a batch. It never blocks.
func (q *Queue) Push(b model.Batch) {
	q.mu.Lock()
	q.data = append(q.data, b)
	q.mu.Unlock()
	q.signal()
}

// Pop removes the oldest batch, suspending while the queue is empty. A done
// ctx wins over queued data, so a cancelled consumer never takes another batch.
func (q *Queue) Pop(ctx context.Context) (model.Batch, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.mu.Lock()
		if len(q.data) > 0 {
			b := q.data[0]
			q.data[0] = nil
			q.data = q.data[1:]
			if len(q.data) == 0 {
				q.data = nil
			} else {
				defer q.signal()
			}
			q.mu.Unlock()
			return b, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
