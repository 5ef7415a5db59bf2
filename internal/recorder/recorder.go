// Package recorder is the control plane of the pipeline: it owns the registry
// of active sources, the single active sink and the queue between them.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/internal/queue"
	"github.com/and161185/lab-data-logger/internal/rpc"
	"github.com/and161185/lab-data-logger/internal/sink"
	"github.com/and161185/lab-data-logger/internal/source"
	"github.com/and161185/lab-data-logger/model"
	"go.uber.org/zap"
)

// ErrClosed is returned by mutations after Close.
var ErrClosed = errors.New("recorder closed")

// DefaultStopTimeout bounds the cooperative part of stopping a worker.
const DefaultStopTimeout = time.Second

// Dialer returns a DataService client for netloc. It must not block.
type Dialer func(netloc model.Netloc) source.DataService

// Observer collects pipeline metrics.
type Observer interface {
	source.Observer
	sink.Observer
	SetActiveSources(n int)
	SetQueueLength(n int)
}

type Options struct {
	Writers     *sink.Registry
	Dial        Dialer
	StopTimeout time.Duration
	Logger      *zap.SugaredLogger
	Observer    Observer
}

// ConnectRequest describes a source to start.
type ConnectRequest struct {
	Netloc          model.Netloc
	Measurement     string
	Interval        time.Duration
	Tags            model.Tags
	RequestedFields []string
}

type Recorder struct {
	mu      sync.RWMutex
	sources map[model.Netloc]*source.Source
	sink    *sink.Sink
	queue   *queue.Queue
	closed  bool

	writers     *sink.Registry
	dial        Dialer
	stopTimeout time.Duration
	logger      *zap.SugaredLogger
	observer    Observer
}

func New(opts Options) *Recorder {
	if opts.Writers == nil {
		opts.Writers = sink.NewRegistry().WithBuiltins()
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	return &Recorder{
		sources:     make(map[model.Netloc]*source.Source),
		queue:       queue.New(),
		writers:     opts.Writers,
		dial:        opts.Dial,
		stopTimeout: opts.StopTimeout,
		logger:      opts.Logger,
		observer:    opts.Observer,
	}
}

// SetWriter builds a writer of sinkType and makes it the active sink. The new
// writer is constructed first so a bad configuration leaves the current sink
// in place; the old sink is stopped before the new one starts draining.
func (r *Recorder) SetWriter(ctx context.Context, sinkType string, settings sink.Settings) (sink.Status, error) {
	w, err := r.writers.New(ctx, sinkType, settings, r.logger)
	if err != nil {
		r.logger.Errorf("set writer %s: %v", sinkType, err)
		return sink.Status{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		if err := w.Close(); err != nil {
			r.logger.Warnf("close unused writer %s: %v", w.Name(), err)
		}
		return sink.Status{}, ErrClosed
	}

	if r.sink != nil {
		old := r.sink
		if err := old.Stop(r.stopTimeout); err != nil {
			r.logger.Warnf("stop previous sink %s: %v", old.ID(), err)
		}
		r.logger.Infof("replaced sink %s (%d batches written)", old.ID(), old.Counter())
	}

	var obs sink.Observer
	if r.observer != nil {
		obs = r.observer
	}
	s := sink.New(r.queue, w, r.logger, obs)
	if err := s.Start(); err != nil {
		return sink.Status{}, err
	}
	r.sink = s
	r.logger.Infof("writer set to %s (%s)", w.Name(), s.ID())
	return s.Status(), nil
}

// ConnectSource starts polling req.Netloc. A netloc can be connected once.
func (r *Recorder) ConnectSource(req ConnectRequest) (source.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return source.Status{}, ErrClosed
	}
	if _, ok := r.sources[req.Netloc]; ok {
		r.logger.Warnf("connect %s: already connected", req.Netloc)
		return source.Status{}, fmt.Errorf("%w: %s", errs.ErrAlreadyConnected, req.Netloc)
	}
	if r.dial == nil {
		return source.Status{}, fmt.Errorf("%w: recorder has no dialer", errs.ErrConfiguration)
	}

	var obs source.Observer
	if r.observer != nil {
		obs = r.observer
	}
	src, err := source.New(source.Options{
		Netloc:          req.Netloc,
		Measurement:     req.Measurement,
		Interval:        req.Interval,
		Tags:            req.Tags,
		RequestedFields: req.RequestedFields,
		Queue:           r.queue,
		Service:         r.dial(req.Netloc),
		Logger:          r.logger,
		Observer:        obs,
	})
	if err != nil {
		return source.Status{}, err
	}
	if err := src.Start(); err != nil {
		return source.Status{}, err
	}

	r.sources[req.Netloc] = src
	r.updateGauges()
	go r.watch(src)

	r.logger.Infof("connected source %s (%s every %s)", req.Netloc, req.Measurement, req.Interval)
	return src.Status(), nil
}

// watch drops src from the registry once it terminates on its own.
func (r *Recorder) watch(src *source.Source) {
	<-src.Done()

	r.mu.Lock()
	defer r.mu.Unlock()

	netloc := src.Netloc()
	if cur, ok := r.sources[netloc]; ok && cur == src {
		delete(r.sources, netloc)
		r.updateGauges()
		r.logger.Warnf("source %s terminated (%s) after %d samples, removed", netloc, src.Exit(), src.Counter())
	}
}

// DisconnectSource stops the source at netloc and removes it however it stopped.
func (r *Recorder) DisconnectSource(netloc model.Netloc) (source.ExitStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[netloc]
	if !ok {
		r.logger.Warnf("disconnect %s: not connected", netloc)
		return source.ExitNone, fmt.Errorf("%w: %s", errs.ErrNotConnected, netloc)
	}

	exit := src.Stop(r.stopTimeout)
	delete(r.sources, netloc)
	r.updateGauges()

	r.logger.Infof("disconnected source %s: %s", netloc, exit)
	return exit, nil
}

// Status returns a consistent snapshot with sources sorted by netloc.
func (r *Recorder) Status() rpc.RecorderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := rpc.RecorderStatus{Sources: make([]source.Status, 0, len(r.sources))}
	if r.sink != nil {
		ss := r.sink.Status()
		st.Sink = &ss
	}
	for _, src := range r.sources {
		st.Sources = append(st.Sources, src.Status())
	}
	sort.Slice(st.Sources, func(i, j int) bool { return st.Sources[i].Netloc < st.Sources[j].Netloc })

	if r.observer != nil {
		r.observer.SetQueueLength(r.queue.Len())
	}
	return st
}

// Close stops every source and the sink. Later SetWriter and ConnectSource
// calls fail with ErrClosed.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	for netloc, src := range r.sources {
		exit := src.Stop(r.stopTimeout)
		r.logger.Infof("source %s: %s", netloc, exit)
		delete(r.sources, netloc)
	}
	r.updateGauges()

	if r.sink != nil {
		if err := r.sink.Stop(r.stopTimeout); err != nil {
			r.logger.Warnf("stop sink: %v", err)
		}
		r.sink = nil
	}
}

// updateGauges must be called with mu held.
func (r *Recorder) updateGauges() {
	if r.observer == nil {
		return
	}
	r.observer.SetActiveSources(len(r.sources))
	r.observer.SetQueueLength(r.queue.Len())
}
