package controller

import (
	"sync/atomic"

	"vanish/internal/scheduler"
)

type stats struct {
	spawns      atomic.Int64
	triggers    atomic.Int64
	rejected    atomic.Int64
	ignored     atomic.Int64
	reverts     atomic.Int64
	abandoned   atomic.Int64
	disconnects atomic.Int64
	reloads     atomic.Int64
}

// Stats is a snapshot of controller activity.
type Stats struct {
	Spawns      int64
	Triggers    int64
	Rejected    int64 // refused while cooling down
	Ignored     int64 // non-trigger weapons
	Reverts     int64
	Abandoned   int64 // reverts that found nothing to restore
	Disconnects int64
	Reloads     int64
	Scheduler   scheduler.Counters
}

func (s *stats) snapshot() Stats {
	return Stats{
		Spawns:      s.spawns.Load(),
		Triggers:    s.triggers.Load(),
		Rejected:    s.rejected.Load(),
		Ignored:     s.ignored.Load(),
		Reverts:     s.reverts.Load(),
		Abandoned:   s.abandoned.Load(),
		Disconnects: s.disconnects.Load(),
		Reloads:     s.reloads.Load(),
	}
}
