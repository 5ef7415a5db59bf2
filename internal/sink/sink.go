// Package sink implements the Writer worker that drains the shared queue into
// a persistent store.
package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/and161185/lab-data-logger/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Writer persists batches. Write errors should wrap errs.ErrSinkPersistence.
type Writer interface {
	Name() string
	Write(ctx context.Context, b model.Batch) error
	Close() error
}

// Queue is the consumer side of the shared queue.
type Queue interface {
	Pop(ctx context.Context) (model.Batch, error)
}

// Observer is notified about every write attempt.
type Observer interface {
	Written(points int)
	WriteFailed()
}

// Status is a point-in-time view of a Sink.
type Status struct {
	ID      string `json:"id"`
	Writer  string `json:"writer"`
	Counter int64  `json:"counter"`
	Running bool   `json:"running"`
}

type Sink struct {
	id       uuid.UUID
	queue    Queue
	writer   Writer
	logger   *zap.SugaredLogger
	observer Observer

	counter atomic.Int64
	running atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
}

// New builds an idle Sink with a fresh identity. observer may be nil.
func New(q Queue, w Writer, logger *zap.SugaredLogger, observer Observer) *Sink {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sink{
		id:       id,
		queue:    q,
		writer:   w,
		logger:   logger.With("sink", w.Name(), "sink_id", id.String()),
		observer: observer,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.counter.Store(-1)
	return s
}

func (s *Sink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("sink %s already started", s.id)
	}
	s.started = true
	s.running.Store(true)
	s.counter.Store(0)

	go s.run()
	return nil
}

func (s *Sink) run() {
	defer close(s.done)
	defer s.running.Store(false)

	for {
		batch, err := s.queue.Pop(s.ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.Errorf("pop batch: %v", err)
			}
			return
		}

		if err := s.writer.Write(s.ctx, batch); err != nil {
			if s.ctx.Err() != nil {
				s.logger.Warnf("write interrupted by stop, %d points lost", len(batch))
				return
			}
			s.logger.Errorw("write failed, dropping batch", "error", err, "batch", batch)
			if s.observer != nil {
				s.observer.WriteFailed()
			}
			continue
		}

		s.counter.Add(1)
		if s.observer != nil {
			s.observer.Written(len(batch))
		}
	}
}

// Stop cancels the worker, waits up to timeout for it and closes the writer.
// After Stop the worker never pops again. A write still in flight when the
// timeout expires is allowed to finish, and the writer is closed after it.
func (s *Sink) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	s.cancel()
	if started {
		select {
		case <-s.done:
		case <-time.After(timeout):
			s.logger.Warnf("writer did not finish within %s, closing it after the current batch", timeout)
			go func() {
				<-s.done
				if err := s.writer.Close(); err != nil {
					s.logger.Errorf("close writer: %v", err)
				}
			}()
			return nil
		}
	}

	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("close writer %s: %w", s.writer.Name(), err)
	}
	return nil
}

func (s *Sink) ID() string {
	return s.id.String()
}

func (s *Sink) Counter() int64 {
	return s.counter.Load()
}

func (s *Sink) Running() bool {
	return s.running.Load()
}

func (s *Sink) Done() <-chan struct{} {
	return s.done
}

func (s *Sink) Status() Status {
	return Status{
		ID:      s.ID(),
		Writer:  s.writer.Name(),
		Counter: s.Counter(),
		Running: s.Running(),
	}
}
