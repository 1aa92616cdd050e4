// Package render propagates a visibility flag across a player's owned
// entities: the body, every held weapon and every worn cosmetic.
package render

import (
	"github.com/mlange-42/ark/ecs"

	"vanish/internal/loader/schema"
	"vanish/internal/logger"
	"vanish/internal/player"
)

const (
	AlphaVisible   uint8 = 255
	AlphaInvisible uint8 = 0
)

// Alpha maps a visibility flag to its render transparency.
func Alpha(visible bool) uint8 {
	if visible {
		return AlphaVisible
	}
	return AlphaInvisible
}

// Wearable is one cosmetic and the entity that reports owning it.
type Wearable struct {
	Entity ecs.Entity
	Owner  ecs.Entity
}

// Runtime is the host's entity lookup and render writer.
type Runtime interface {
	// Valid reports whether e still resolves to a live entity.
	Valid(e ecs.Entity) bool
	// SetAlpha writes the transparency of e, keeping its color channels, and
	// notifies the host of the change. It returns false if e could not be written.
	SetAlpha(e ecs.Entity, alpha uint8) bool
	// Weapons lists the weapon handles currently held by root. Handles may be stale.
	Weapons(root ecs.Entity) []ecs.Entity
	// Wearables scans the world for every wearable entity.
	Wearables() []Wearable
	// Controller resolves the valid player controlling root.
	Controller(root ecs.Entity) (player.ID, bool)
}

// Messenger delivers chat text to a player.
type Messenger interface {
	SendMessage(id player.ID, text string)
}

// Result tallies one propagation.
type Result struct {
	Root      bool
	Weapons   int
	Wearables int
	Skipped   int
	Messaged  bool
}

// Applied counts the entities whose transparency was written.
func (r Result) Applied() int {
	n := r.Weapons + r.Wearables
	if r.Root {
		n++
	}
	return n
}

type category int

const (
	categoryRoot category = iota
	categoryWeapons
	categoryWearables
)

var categories = [...]category{categoryRoot, categoryWeapons, categoryWearables}

type Engine struct {
	runtime          Runtime
	messenger        Messenger
	visibleMessage   string
	invisibleMessage string
	log              logger.Logger
}

func NewEngine(runtime Runtime, messenger Messenger, cfg schema.Config, log logger.Logger) *Engine {
	e := &Engine{
		runtime:   runtime,
		messenger: messenger,
		log:       logger.Component(log, "render"),
	}
	e.Configure(cfg)
	return e
}

// Configure picks up the messages of a reloaded config.
func (e *Engine) Configure(cfg schema.Config) {
	e.visibleMessage = cfg.VisibilityMessage
	e.invisibleMessage = cfg.InvisibilityMessage
}

// SetVisibility applies visible to root and every entity it owns right now,
// then tells the controlling player. Entities that do not resolve are skipped.
// An invalid root aborts before anything is written or sent.
func (e *Engine) SetVisibility(root ecs.Entity, visible bool) Result {
	var res Result
	if !e.runtime.Valid(root) {
		res.Skipped++
		e.log.Debug("root not valid, nothing to propagate", logger.F("root", root.ID()))
		return res
	}

	alpha := Alpha(visible)
	for _, c := range categories {
		e.apply(c, root, alpha, &res)
	}

	if id, ok := e.runtime.Controller(root); ok {
		msg := e.invisibleMessage
		if visible {
			msg = e.visibleMessage
		}
		e.messenger.SendMessage(id, msg)
		res.Messaged = true
	}

	e.log.Debug("visibility propagated",
		logger.F("root", root.ID()),
		logger.F("visible", visible),
		logger.F("weapons", res.Weapons),
		logger.F("wearables", res.Wearables),
		logger.F("skipped", res.Skipped))
	return res
}

func (e *Engine) apply(c category, root ecs.Entity, alpha uint8, res *Result) {
	switch c {
	case categoryRoot:
		if e.runtime.SetAlpha(root, alpha) {
			res.Root = true
		} else {
			res.Skipped++
		}
	case categoryWeapons:
		for _, w := range e.runtime.Weapons(root) {
			if e.runtime.Valid(w) && e.runtime.SetAlpha(w, alpha) {
				res.Weapons++
			} else {
				res.Skipped++
			}
		}
	case categoryWearables:
		for _, w := range e.runtime.Wearables() {
			if w.Owner != root {
				continue
			}
			if e.runtime.Valid(w.Entity) && e.runtime.SetAlpha(w.Entity, alpha) {
				res.Wearables++
			} else {
				res.Skipped++
			}
		}
	}
}
