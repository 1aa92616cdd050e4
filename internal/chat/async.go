package chat

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"vanish/internal/logger"
	"vanish/internal/player"
)

// AsyncSink hands each message to a worker pool so the event loop never
// waits on the downstream sink. Ordering between messages is not kept.
type AsyncSink struct {
	next Sink
	pool *ants.Pool
	log  logger.Logger

	delivered atomic.Int64
	dropped   atomic.Int64
	panics    atomic.Int64
}

// NewAsyncSink builds a pool of workers goroutines. Send never waits: when
// every worker is busy the message is dropped and counted.
func NewAsyncSink(next Sink, workers int, log logger.Logger) (*AsyncSink, error) {
	s := &AsyncSink{
		next: next,
		log:  logger.Component(log, "chat-async"),
	}

	pool, err := ants.NewPool(
		workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			s.panics.Add(1)
			s.log.Error("chat sink panicked", logger.F("panic", fmt.Sprint(p)))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

func (s *AsyncSink) Send(id player.ID, name, text string) {
	err := s.pool.Submit(func() {
		s.next.Send(id, name, text)
		s.delivered.Add(1)
	})
	if err != nil {
		s.dropped.Add(1)
		s.log.Warn("chat message dropped",
			logger.F("player", id), logger.F("text", text), logger.F("error", err))
	}
}

// Delivered counts messages handed to the downstream sink.
func (s *AsyncSink) Delivered() int64 { return s.delivered.Load() }

// Dropped counts messages rejected by a full or closed pool.
func (s *AsyncSink) Dropped() int64 { return s.dropped.Load() }

// Close waits up to timeout for in-flight messages, then releases the pool.
func (s *AsyncSink) Close(timeout time.Duration) error {
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("release chat pool: %w", err)
	}
	return nil
}
