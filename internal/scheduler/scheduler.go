// Package scheduler owns the pending revert timer of every player.
//
// Each player has a single slot. Arming a revert stops and replaces whatever
// the slot held, and every arm carries a fresh token. Timer goroutines never
// touch the slots: they post the firing back onto the event loop, where the
// token is checked against the slot so a revert that was replaced while its
// firing sat in the queue is dropped instead of undoing a newer trigger.
package scheduler

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"vanish/internal/logger"
	"vanish/internal/player"
)

// Token identifies one armed revert.
type Token uuid.UUID

func (t Token) String() string {
	return uuid.UUID(t).String()
}

// Poster hands a callback to the event loop. It must be safe to call from
// any goroutine and returns an error once the loop is gone.
type Poster func(fn func()) error

type slot struct {
	token  Token
	timer  Timer
	onFire func(player.ID)
}

type Scheduler struct {
	clock Clock
	post  Poster
	slots map[player.ID]*slot
	log   logger.Logger

	fired    atomic.Int64
	stale    atomic.Int64
	replaced atomic.Int64
	dropped  atomic.Int64
}

func New(clock Clock, post Poster, log logger.Logger) *Scheduler {
	return &Scheduler{
		clock: clock,
		post:  post,
		slots: make(map[player.ID]*slot),
		log:   logger.Component(log, "scheduler"),
	}
}

// ScheduleRevert arms onFire to run once on the event loop after delay,
// replacing any revert already pending for id.
func (s *Scheduler) ScheduleRevert(id player.ID, delay time.Duration, onFire func(player.ID)) Token {
	if s.Cancel(id) {
		s.replaced.Add(1)
	}

	token := Token(uuid.New())
	sl := &slot{token: token, onFire: onFire}
	s.slots[id] = sl
	sl.timer = s.clock.AfterFunc(delay, func() {
		if err := s.post(func() { s.fire(id, token) }); err != nil {
			s.dropped.Add(1)
			s.log.Debug("revert dropped, loop closed",
				logger.F("player", id), logger.F("token", token), logger.F("error", err))
		}
	})

	s.log.Debug("revert armed",
		logger.F("player", id), logger.F("token", token), logger.F("delay", delay))
	return token
}

func (s *Scheduler) fire(id player.ID, token Token) {
	sl, ok := s.slots[id]
	if !ok || sl.token != token {
		s.stale.Add(1)
		s.log.Debug("stale revert ignored", logger.F("player", id), logger.F("token", token))
		return
	}
	delete(s.slots, id)
	s.fired.Add(1)
	sl.onFire(id)
}

// Cancel stops the pending revert for id. It reports whether one existed.
func (s *Scheduler) Cancel(id player.ID) bool {
	sl, ok := s.slots[id]
	if !ok {
		return false
	}
	delete(s.slots, id)
	if sl.timer != nil {
		sl.timer.Stop()
	}
	return true
}

// Pending returns the token of the revert armed for id, if any.
func (s *Scheduler) Pending(id player.ID) (Token, bool) {
	sl, ok := s.slots[id]
	if !ok {
		return Token{}, false
	}
	return sl.token, true
}

func (s *Scheduler) Len() int {
	return len(s.slots)
}

// Stop cancels every pending revert.
func (s *Scheduler) Stop() {
	for id := range s.slots {
		s.Cancel(id)
	}
}

// Counters is a snapshot of scheduler activity.
type Counters struct {
	Fired    int64
	Stale    int64
	Replaced int64
	Dropped  int64
}

// Counters may be read from any goroutine.
func (s *Scheduler) Counters() Counters {
	return Counters{
		Fired:    s.fired.Load(),
		Stale:    s.stale.Load(),
		Replaced: s.replaced.Load(),
		Dropped:  s.dropped.Load(),
	}
}
