// Package events carries host callbacks onto a single goroutine.
package events

import (
	"vanish/internal/loader/schema"
	"vanish/internal/player"
)

type Event interface {
	Kind() string
}

// PlayerSpawned is raised after the host has created the player's pawn.
type PlayerSpawned struct {
	Player player.ID
}

// WeaponFired is raised when a player fires any weapon.
type WeaponFired struct {
	Player player.ID
	Weapon string
}

// PlayerDisconnected is raised before the host removes the controller.
type PlayerDisconnected struct {
	Player player.ID
}

// ConfigReloaded carries a freshly loaded configuration.
type ConfigReloaded struct {
	Config schema.Config
}

// Task is a closure run on the loop, used by timers and tickers.
type Task func()

func (PlayerSpawned) Kind() string      { return "player_spawned" }
func (WeaponFired) Kind() string        { return "weapon_fired" }
func (PlayerDisconnected) Kind() string { return "player_disconnected" }
func (ConfigReloaded) Kind() string     { return "config_reloaded" }
func (Task) Kind() string               { return "task" }

// Handler consumes every event that is not a Task.
type Handler interface {
	Handle(ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev Event)

func (f HandlerFunc) Handle(ev Event) { f(ev) }
