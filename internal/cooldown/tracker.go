// Package cooldown tracks when each player may trigger invisibility again.
package cooldown

import (
	"time"

	"github.com/Workiva/go-datastructures/queue"

	"vanish/internal/player"
)

// expiry is a heap entry; it goes stale when its player is re-armed or cleared.
type expiry struct {
	at time.Time
	id player.ID
}

func (e expiry) Compare(other queue.Item) int {
	o := other.(expiry)
	switch {
	case e.at.Before(o.at):
		return -1
	case e.at.After(o.at):
		return 1
	case e.id < o.id:
		return -1
	case e.id > o.id:
		return 1
	}
	return 0
}

// Tracker holds at most one expiry per player. It is not safe for concurrent
// use; the event loop owns it.
type Tracker struct {
	entries map[player.ID]time.Time
	expiry  *queue.PriorityQueue
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[player.ID]time.Time),
		expiry:  queue.NewPriorityQueue(64, true),
	}
}

// IsCoolingDown reports whether id has an entry and now is before its expiry.
func (t *Tracker) IsCoolingDown(id player.ID, now time.Time) bool {
	expiresAt, ok := t.entries[id]
	return ok && now.Before(expiresAt)
}

// Arm overwrites any entry for id with now+d.
func (t *Tracker) Arm(id player.ID, now time.Time, d time.Duration) {
	expiresAt := now.Add(d)
	t.entries[id] = expiresAt
	_ = t.expiry.Put(expiry{at: expiresAt, id: id})
}

// ExpiresAt returns the current expiry for id, if any.
func (t *Tracker) ExpiresAt(id player.ID) (time.Time, bool) {
	expiresAt, ok := t.entries[id]
	return expiresAt, ok
}

// Clear forgets id, typically on disconnect so a reused ID starts fresh.
func (t *Tracker) Clear(id player.ID) {
	delete(t.entries, id)
}

// Reap drops every entry that has expired by now and returns how many were
// removed. Work is proportional to the number of expired heap entries.
func (t *Tracker) Reap(now time.Time) int {
	reaped := 0
	for {
		head := t.expiry.Peek()
		if head == nil {
			break
		}
		e := head.(expiry)
		if e.at.After(now) {
			break
		}
		if _, err := t.expiry.Get(1); err != nil {
			break
		}
		if current, ok := t.entries[e.id]; ok && current.Equal(e.at) {
			delete(t.entries, e.id)
			reaped++
		}
	}
	return reaped
}

// Len is the number of live entries, expired or not.
func (t *Tracker) Len() int {
	return len(t.entries)
}

// Pending is the number of heap entries awaiting reaping, including stale ones.
func (t *Tracker) Pending() int {
	return t.expiry.Len()
}
