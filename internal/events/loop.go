package events

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/Workiva/go-datastructures/queue"

	"vanish/internal/logger"
)

var ErrClosed = errors.New("event loop closed")

// Loop delivers events one at a time. Post may be called from any goroutine;
// handlers run only on the goroutine that called Run.
type Loop struct {
	inbox   *queue.Queue
	metrics *MetricsAggregator
	log     logger.Logger

	delivered atomic.Int64
	faults    atomic.Int64
}

func NewLoop(log logger.Logger, hint int64) *Loop {
	return &Loop{
		inbox:   queue.New(hint),
		metrics: NewMetricsAggregator(),
		log:     logger.Component(log, "events"),
	}
}

func (l *Loop) Post(ev Event) error {
	if ev == nil {
		return nil
	}
	if err := l.inbox.Put(ev); err != nil {
		if errors.Is(err, queue.ErrDisposed) {
			return fmt.Errorf("post %s: %w", ev.Kind(), ErrClosed)
		}
		return fmt.Errorf("post %s: %w", ev.Kind(), err)
	}
	return nil
}

// Dispatch posts fn as a Task. It has the shape timers expect for handing
// work back to the loop.
func (l *Loop) Dispatch(fn func()) error {
	return l.Post(Task(fn))
}

// Run blocks delivering events to h until ctx is done or Close is called.
// Events still queued at that point are discarded.
func (l *Loop) Run(ctx context.Context, h Handler) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-stop:
		}
	}()

	l.log.Info("event loop started")
	for {
		items, err := l.inbox.Get(1)
		if err != nil {
			if errors.Is(err, queue.ErrDisposed) {
				l.log.Info("event loop stopped",
					logger.F("delivered", l.delivered.Load()),
					logger.F("faults", l.faults.Load()))
				return ctx.Err()
			}
			return fmt.Errorf("receive: %w", err)
		}
		for _, item := range items {
			ev, ok := item.(Event)
			if !ok {
				continue
			}
			l.deliver(h, ev)
		}
	}
}

// deliver runs one event under a recovery guard so a faulting handler does
// not take the loop down.
func (l *Loop) deliver(h Handler, ev Event) {
	start := time.Now()
	defer func() {
		l.metrics.RecordDelivery(ev.Kind(), time.Since(start))
		if recovered := recover(); recovered != nil {
			l.faults.Add(1)
			l.metrics.RecordFault(ev.Kind())
			l.log.Error("panic while handling event",
				logger.F("kind", ev.Kind()),
				logger.F("panic", fmt.Sprint(recovered)),
				logger.F("stack", string(debug.Stack())))
		}
	}()

	l.delivered.Add(1)
	if task, ok := ev.(Task); ok {
		if task != nil {
			task()
		}
		return
	}
	h.Handle(ev)
}

// Close disposes the inbox. Further Posts return ErrClosed and Run returns.
func (l *Loop) Close() {
	l.inbox.Dispose()
}

func (l *Loop) Closed() bool {
	return l.inbox.Disposed()
}

// Pending is the number of queued, undelivered events.
func (l *Loop) Pending() int64 {
	return l.inbox.Len()
}

func (l *Loop) Delivered() int64 { return l.delivered.Load() }
func (l *Loop) Faults() int64    { return l.faults.Load() }

func (l *Loop) Metrics() *MetricsAggregator {
	return l.metrics
}
