package main

import (
	"time"

	"github.com/mlange-42/ark/ecs"

	"vanish/internal/controller"
	"vanish/internal/events"
	"vanish/internal/logger"
	"vanish/internal/player"
	"vanish/internal/scheduler"
	"vanish/internal/world"
)

// Step is one scripted host action, run once the match has been going for At.
type Step struct {
	At   time.Duration
	Name string
	Run  func(m *MatchSystem) error
}

// MatchSystem replays a scripted match: it drives the host world the way a
// game server would and raises the matching events.
type MatchSystem struct {
	Host  *world.World
	Post  func(events.Event) error
	Clock scheduler.Clock
	Steps []Step
	Done  func()
	Log   logger.Logger

	start time.Time
	next  int
}

func (m *MatchSystem) Initialize(w *ecs.World) {
	m.Log = logger.Component(m.Log, "match")
	m.start = m.Clock.Now()
	m.Log.Info("match started", logger.F("steps", len(m.Steps)))
}

func (m *MatchSystem) Update(w *ecs.World) {
	elapsed := m.Clock.Now().Sub(m.start)
	for m.next < len(m.Steps) && m.Steps[m.next].At <= elapsed {
		step := m.Steps[m.next]
		m.next++
		if err := step.Run(m); err != nil {
			m.Log.Warn("match step failed", logger.F("step", step.Name), logger.F("error", err))
			continue
		}
		m.Log.Debug("match step", logger.F("step", step.Name), logger.F("at", step.At))
	}
	if m.next == len(m.Steps) && m.Done != nil {
		m.Log.Info("match finished", logger.F("elapsed", elapsed))
		m.Done()
		m.Done = nil
	}
}

func (m *MatchSystem) Finalize(w *ecs.World) {
	for _, id := range m.Host.Connected() {
		m.Host.Disconnect(id)
	}
}

// join connects id, spawns it and hands out its loadout.
func (m *MatchSystem) join(id player.ID, name string, weapons, wearables []string) error {
	m.Host.Connect(id, name)
	return m.spawn(id, weapons, wearables)
}

func (m *MatchSystem) spawn(id player.ID, weapons, wearables []string) error {
	pawn, err := m.Host.Spawn(id)
	if err != nil {
		return err
	}
	for _, name := range weapons {
		if _, err := m.Host.GiveWeapon(pawn, name); err != nil {
			return err
		}
	}
	for _, item := range wearables {
		if _, err := m.Host.Equip(pawn, item); err != nil {
			return err
		}
	}
	return m.Post(events.PlayerSpawned{Player: id})
}

func (m *MatchSystem) fire(id player.ID, weapon string) error {
	return m.Post(events.WeaponFired{Player: id, Weapon: weapon})
}

func (m *MatchSystem) leave(id player.ID) error {
	if err := m.Post(events.PlayerDisconnected{Player: id}); err != nil {
		return err
	}
	m.Host.Disconnect(id)
	return nil
}

const (
	alice player.ID = iota + 1
	bob
	carol
)

var (
	loadout   = []string{"weapon_knife", "weapon_ak47", "weapon_molotov", "weapon_incgrenade"}
	cosmetics = []string{"gloves", "agent_patch"}
)

// defaultScript exercises every transition with the stock 5s/15s config.
func defaultScript() []Step {
	return []Step{
		{At: 0, Name: "players join", Run: func(m *MatchSystem) error {
			for i, name := range []string{"alice", "bob", "carol"} {
				if err := m.join(player.ID(i+1), name, loadout, cosmetics); err != nil {
					return err
				}
			}
			return nil
		}},
		{At: time.Second, Name: "alice throws a molotov", Run: func(m *MatchSystem) error {
			return m.fire(alice, "weapon_molotov")
		}},
		{At: 1500 * time.Millisecond, Name: "bob fires a rifle", Run: func(m *MatchSystem) error {
			return m.fire(bob, "weapon_ak47")
		}},
		{At: 2 * time.Second, Name: "alice retriggers on cooldown", Run: func(m *MatchSystem) error {
			return m.fire(alice, "weapon_incgrenade")
		}},
		{At: 2500 * time.Millisecond, Name: "carol throws an incendiary", Run: func(m *MatchSystem) error {
			return m.fire(carol, "weapon_incgrenade")
		}},
		{At: 3 * time.Second, Name: "bob picks up a hat", Run: func(m *MatchSystem) error {
			pawn, ok := m.Host.Pawn(bob)
			if !ok {
				return nil
			}
			_, err := m.Host.Equip(pawn, "hat")
			return err
		}},
		{At: 3500 * time.Millisecond, Name: "bob throws a molotov", Run: func(m *MatchSystem) error {
			return m.fire(bob, "weapon_molotov")
		}},
		{At: 4 * time.Second, Name: "carol disconnects while invisible", Run: func(m *MatchSystem) error {
			return m.leave(carol)
		}},
		{At: 5 * time.Second, Name: "bob respawns", Run: func(m *MatchSystem) error {
			return m.spawn(bob, loadout, cosmetics)
		}},
		{At: 5500 * time.Millisecond, Name: "bob retriggers after respawn", Run: func(m *MatchSystem) error {
			return m.fire(bob, "weapon_molotov")
		}},
		{At: 7 * time.Second, Name: "match over", Run: func(*MatchSystem) error {
			return nil
		}},
	}
}

// SweepSystem reaps expired cooldowns every Interval.
type SweepSystem struct {
	Controller *controller.Controller
	Clock      scheduler.Clock
	Interval   time.Duration

	last time.Time
}

func (s *SweepSystem) Initialize(w *ecs.World) {
	s.last = s.Clock.Now()
}

func (s *SweepSystem) Update(w *ecs.World) {
	if s.Interval <= 0 {
		return
	}
	now := s.Clock.Now()
	if now.Sub(s.last) < s.Interval {
		return
	}
	s.last = now
	s.Controller.Sweep()
}

func (s *SweepSystem) Finalize(w *ecs.World) {}
