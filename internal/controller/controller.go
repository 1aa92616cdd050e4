// Package controller runs the per-player visibility state machine.
//
// A player is Visible until they fire a trigger weapon outside their cooldown
// window. That hides their body, held weapons and worn cosmetics, arms the
// cooldown and schedules a revert. Spawning always forces Visible. All
// methods must be called from the event loop.
package controller

import (
	"github.com/mlange-42/ark/ecs"

	"vanish/internal/cooldown"
	"vanish/internal/events"
	"vanish/internal/loader/schema"
	"vanish/internal/logger"
	"vanish/internal/player"
	"vanish/internal/render"
	"vanish/internal/scheduler"
)

type State int

const (
	Visible State = iota
	Invisible
)

func (s State) String() string {
	if s == Invisible {
		return "invisible"
	}
	return "visible"
}

// Players resolves player ids against the host.
type Players interface {
	PlayerValid(id player.ID) bool
	Pawn(id player.ID) (ecs.Entity, bool)
}

// Propagator applies a visibility flag to a root entity and everything it owns.
type Propagator interface {
	SetVisibility(root ecs.Entity, visible bool) render.Result
	Configure(cfg schema.Config)
}

type Controller struct {
	cfg       schema.Config
	players   Players
	engine    Propagator
	messenger render.Messenger
	cooldowns *cooldown.Tracker
	sched     *scheduler.Scheduler
	clock     scheduler.Clock
	states    map[player.ID]State
	stats     stats
	log       logger.Logger
}

func New(cfg schema.Config, players Players, engine Propagator, messenger render.Messenger,
	clock scheduler.Clock, sched *scheduler.Scheduler, log logger.Logger) *Controller {
	c := &Controller{
		cfg:       cfg.Normalize(),
		players:   players,
		engine:    engine,
		messenger: messenger,
		cooldowns: cooldown.NewTracker(),
		sched:     sched,
		clock:     clock,
		states:    make(map[player.ID]State),
		log:       logger.Component(log, "controller"),
	}
	engine.Configure(c.cfg)
	return c
}

// Handle routes loop events to the matching transition.
func (c *Controller) Handle(ev events.Event) {
	switch ev := ev.(type) {
	case events.PlayerSpawned:
		c.OnPlayerSpawn(ev.Player)
	case events.WeaponFired:
		c.OnWeaponFire(ev.Player, ev.Weapon)
	case events.PlayerDisconnected:
		c.OnPlayerDisconnect(ev.Player)
	case events.ConfigReloaded:
		c.Reload(ev.Config)
	default:
		c.log.Warn("unhandled event", logger.F("kind", ev.Kind()))
	}
}

// OnPlayerSpawn forces the new pawn visible and drops any pending revert.
// The cooldown is left alone.
func (c *Controller) OnPlayerSpawn(id player.ID) {
	c.stats.spawns.Add(1)
	c.sched.Cancel(id)
	delete(c.states, id)

	pawn, ok := c.players.Pawn(id)
	if !ok {
		c.log.Debug("spawn without a live pawn", logger.F("player", id))
		return
	}
	c.engine.SetVisibility(pawn, true)
}

// OnWeaponFire hides the player if weapon is a trigger and they are not
// cooling down. A trigger inside the cooldown window only earns a warning.
func (c *Controller) OnWeaponFire(id player.ID, weapon string) {
	if !c.cfg.IsTrigger(weapon) {
		c.stats.ignored.Add(1)
		return
	}

	now := c.clock.Now()
	if c.cooldowns.IsCoolingDown(id, now) {
		c.stats.rejected.Add(1)
		c.messenger.SendMessage(id, c.cfg.CooldownMessage)
		c.log.Debug("trigger rejected, cooling down",
			logger.F("player", id), logger.F("weapon", weapon))
		return
	}

	pawn, ok := c.players.Pawn(id)
	if !ok {
		c.log.Debug("trigger from player without a live pawn", logger.F("player", id))
		return
	}

	c.stats.triggers.Add(1)
	c.engine.SetVisibility(pawn, false)
	c.states[id] = Invisible
	c.cooldowns.Arm(id, now, c.cfg.Cooldown())
	c.sched.ScheduleRevert(id, c.cfg.Invisibility(), c.revert)

	c.log.Info("player invisible",
		logger.F("player", id),
		logger.F("weapon", weapon),
		logger.F("duration", c.cfg.Invisibility()),
		logger.F("cooldown", c.cfg.Cooldown()))
}

// revert runs when a scheduled revert comes due. The player may have left
// or respawned in the meantime.
func (c *Controller) revert(id player.ID) {
	if c.states[id] != Invisible {
		c.stats.abandoned.Add(1)
		return
	}
	delete(c.states, id)

	if !c.players.PlayerValid(id) {
		c.stats.abandoned.Add(1)
		c.log.Debug("revert for departed player", logger.F("player", id))
		return
	}
	pawn, ok := c.players.Pawn(id)
	if !ok {
		c.stats.abandoned.Add(1)
		return
	}

	c.stats.reverts.Add(1)
	c.engine.SetVisibility(pawn, true)
	c.log.Info("player visible", logger.F("player", id))
}

// OnPlayerDisconnect forgets everything held for id.
func (c *Controller) OnPlayerDisconnect(id player.ID) {
	c.stats.disconnects.Add(1)
	c.cooldowns.Clear(id)
	c.sched.Cancel(id)
	delete(c.states, id)
}

// Reload swaps in a new configuration. Reverts already scheduled keep their
// original due time.
func (c *Controller) Reload(cfg schema.Config) {
	c.cfg = cfg.Normalize()
	c.engine.Configure(c.cfg)
	c.stats.reloads.Add(1)
	c.log.Info("config applied",
		logger.F("duration", c.cfg.Invisibility()),
		logger.F("cooldown", c.cfg.Cooldown()),
		logger.F("triggers", len(c.cfg.TriggerWeapons)))
}

// Sweep drops cooldown entries that have expired and returns how many went.
func (c *Controller) Sweep() int {
	n := c.cooldowns.Reap(c.clock.Now())
	if n > 0 {
		c.log.Debug("cooldowns reaped", logger.F("count", n))
	}
	return n
}

func (c *Controller) State(id player.ID) State {
	return c.states[id]
}

// CoolingDown reports whether id would be refused a trigger right now.
func (c *Controller) CoolingDown(id player.ID) bool {
	return c.cooldowns.IsCoolingDown(id, c.clock.Now())
}

func (c *Controller) Config() schema.Config {
	return c.cfg
}

// Stats may be read from any goroutine.
func (c *Controller) Stats() Stats {
	s := c.stats.snapshot()
	s.Scheduler = c.sched.Counters()
	return s
}
