// Package source implements the Puller: a supervised worker that polls one
// DataService at a fixed interval and pushes every sample onto the shared queue.
package source

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/model"
	"go.uber.org/zap"
)

// DataService is the remote side a Source polls.
type DataService interface {
	ServiceName(ctx context.Context) (string, error)
	GetData(ctx context.Context, requested []string) (model.Fields, error)
}

// Queue receives the batches produced by a Source.
type Queue interface {
	Push(b model.Batch)
}

// Observer is notified about every pull attempt.
type Observer interface {
	Pulled(measurement string)
	PullFailed(measurement string)
}

// ExitStatus tells how a Source terminated.
type ExitStatus string

const (
	// ExitNone means the worker has not terminated yet.
	ExitNone    ExitStatus = ""
	ExitStopped ExitStatus = "stopped"
	ExitKilled  ExitStatus = "killed"
	ExitFailed  ExitStatus = "failed"
)

type Options struct {
	Netloc          model.Netloc
	Measurement     string
	Interval        time.Duration
	Tags            model.Tags
	RequestedFields []string
	Queue           Queue
	Service         DataService
	Logger          *zap.SugaredLogger
	Observer        Observer
}

// Status is a point-in-time view of a Source.
type Status struct {
	Netloc          string            `json:"netloc"`
	Measurement     string            `json:"measurement"`
	Interval        float64           `json:"interval"`
	ServiceName     string            `json:"service_name,omitempty"`
	Tags            map[string]string `json:"tags,omitempty"`
	RequestedFields []string          `json:"requested_fields,omitempty"`
	Counter         int64             `json:"counter"`
	Running         bool              `json:"running"`
}

type Source struct {
	opts   Options
	logger *zap.SugaredLogger

	counter atomic.Int64
	running atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
	done   chan struct{}

	signalOnce sync.Once
	stopOnce   sync.Once

	mu          sync.Mutex
	started     bool
	serviceName string
	exit        ExitStatus
}

// New validates opts and builds an idle Source. The counter starts at -1.
func New(opts Options) (*Source, error) {
	switch {
	case opts.Interval <= 0:
		return nil, fmt.Errorf("%w: interval must be positive, got %s", errs.ErrInvalidArgument, opts.Interval)
	case opts.Measurement == "":
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidArgument, model.ErrEmptyMeasurement)
	case opts.Queue == nil || opts.Service == nil:
		return nil, fmt.Errorf("%w: source needs a queue and a data service", errs.ErrInvalidArgument)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Source{
		opts:   opts,
		logger: logger.With("netloc", opts.Netloc.String(), "measurement", opts.Measurement),
		ctx:    ctx,
		cancel: cancel,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.counter.Store(-1)
	return s, nil
}

// Start spawns the worker. A Source can be started only once.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("source %s already started", s.opts.Netloc)
	}
	s.started = true
	s.running.Store(true)

	go s.run()
	return nil
}

func (s *Source) run() {
	defer close(s.done)
	defer s.running.Store(false)

	name, err := s.opts.Service.ServiceName(s.ctx)
	if err != nil {
		s.logger.Errorf("connect to data service failed: %v", err)
		s.setExit(ExitFailed)
		return
	}

	s.mu.Lock()
	s.serviceName = name
	s.mu.Unlock()
	s.counter.Store(0)
	s.logger.Infof("connected to %s", name)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		if !s.pull() {
			return
		}
		timer.Reset(s.opts.Interval)
	}
}

// pull performs one GetData round. It returns false when the worker must exit.
func (s *Source) pull() bool {
	fields, err := s.opts.Service.GetData(s.ctx, s.opts.RequestedFields)
	if err != nil {
		if s.ctx.Err() != nil {
			return false
		}
		s.notifyFailed()
		if errs.IsConnectionFault(err) {
			s.logger.Errorf("data service went away: %v", err)
			s.signalStop()
			s.setExit(ExitFailed)
			return false
		}
		s.logger.Warnf("get data: %v", err)
		return true
	}

	point := model.Point{
		Measurement: s.opts.Measurement,
		Time:        time.Now().UTC(),
		Tags:        s.opts.Tags,
		Fields:      fields,
	}
	if err := point.Validate(); err != nil {
		s.logger.Warnf("dropping sample: %v", err)
		s.notifyFailed()
		return true
	}

	s.opts.Queue.Push(model.Batch{point})
	s.counter.Add(1)
	if s.opts.Observer != nil {
		s.opts.Observer.Pulled(s.opts.Measurement)
	}
	return true
}

func (s *Source) notifyFailed() {
	if s.opts.Observer != nil {
		s.opts.Observer.PullFailed(s.opts.Measurement)
	}
}

func (s *Source) signalStop() {
	s.signalOnce.Do(func() { close(s.stopCh) })
}

func (s *Source) setExit(st ExitStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exit == ExitNone {
		s.exit = st
	}
}

// Stop signals the worker and waits up to timeout for it to finish. A worker
// still alive after that has its context cancelled, which aborts any in-flight
// call. Calling Stop again returns the status of the first call.
func (s *Source) Stop(timeout time.Duration) ExitStatus {
	s.stopOnce.Do(func() {
		s.signalStop()

		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if !started {
			s.cancel()
			s.setExit(ExitStopped)
			return
		}

		select {
		case <-s.done:
			s.setExit(ExitStopped)
		case <-time.After(timeout):
			s.logger.Warnf("did not stop within %s, cancelling", timeout)
			s.cancel()
			s.setExit(ExitKilled)
			select {
			case <-s.done:
			case <-time.After(timeout):
				s.logger.Errorf("worker ignored cancellation")
			}
		}
		s.cancel()
	})
	return s.Exit()
}

// Exit returns the exit status, ExitNone while the worker is alive.
func (s *Source) Exit() ExitStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exit
}

// Done is closed when the worker goroutine returns.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

func (s *Source) Counter() int64 {
	return s.counter.Load()
}

func (s *Source) Running() bool {
	return s.running.Load()
}

func (s *Source) Netloc() model.Netloc {
	return s.opts.Netloc
}

func (s *Source) Status() Status {
	s.mu.Lock()
	name := s.serviceName
	s.mu.Unlock()

	return Status{
		Netloc:          s.opts.Netloc.String(),
		Measurement:     s.opts.Measurement,
		Interval:        s.opts.Interval.Seconds(),
		ServiceName:     name,
		Tags:            s.opts.Tags,
		RequestedFields: s.opts.RequestedFields,
		Counter:         s.Counter(),
		Running:         s.Running(),
	}
}
