// Package world is the host runtime: an ark ECS world holding player
// controllers, pawns, weapons and wearables, with the lookups the
// visibility core consumes.
package world

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"vanish/internal/chat"
	"vanish/internal/interning"
	"vanish/internal/logger"
	"vanish/internal/player"
	"vanish/internal/render"
)

var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrNotAPawn      = errors.New("entity is not a live pawn")
)

type World struct {
	ecs *ecs.World

	renders         *ecs.Map1[Render]
	pawnBuilder     *ecs.Map3[Render, Pawn, WeaponServices]
	pawns           *ecs.Map1[Pawn]
	weaponServices  *ecs.Map1[WeaponServices]
	weaponBuilder   *ecs.Map2[Render, Weapon]
	weapons         *ecs.Map1[Weapon]
	wearableBuilder *ecs.Map2[Render, Wearable]
	wearableFilter  *ecs.Filter1[Wearable]
	controllers     *ecs.Map1[PlayerController]

	players map[player.ID]ecs.Entity
	changes map[ecs.Entity]int
	sink    chat.Sink
	log     logger.Logger
}

// New wires the mappers onto an existing ark world. All calls must come
// from one goroutine; the event loop in production.
func New(w *ecs.World, sink chat.Sink, log logger.Logger) *World {
	return &World{
		ecs:             w,
		renders:         ecs.NewMap1[Render](w),
		pawnBuilder:     ecs.NewMap3[Render, Pawn, WeaponServices](w),
		pawns:           ecs.NewMap1[Pawn](w),
		weaponServices:  ecs.NewMap1[WeaponServices](w),
		weaponBuilder:   ecs.NewMap2[Render, Weapon](w),
		weapons:         ecs.NewMap1[Weapon](w),
		wearableBuilder: ecs.NewMap2[Render, Wearable](w),
		wearableFilter:  ecs.NewFilter1[Wearable](w),
		controllers:     ecs.NewMap1[PlayerController](w),
		players:         make(map[player.ID]ecs.Entity),
		changes:         make(map[ecs.Entity]int),
		sink:            sink,
		log:             logger.Component(log, "world"),
	}
}

//// HOST OPERATIONS

// Connect registers a player controller, returning the existing one if id is
// already connected.
func (w *World) Connect(id player.ID, name string) ecs.Entity {
	if ctrl, ok := w.players[id]; ok && w.Valid(ctrl) {
		return ctrl
	}
	ctrl := w.controllers.NewEntity(&PlayerController{ID: id, Name: name})
	w.players[id] = ctrl
	w.log.Debug("player connected", logger.F("player", id), logger.F("name", name))
	return ctrl
}

// Spawn gives the player a fresh opaque pawn, despawning any previous one
// together with what it carried.
func (w *World) Spawn(id player.ID) (ecs.Entity, error) {
	ctrl, ok := w.controller(id)
	if !ok {
		return ecs.Entity{}, fmt.Errorf("spawn %v: %w", id, ErrUnknownPlayer)
	}
	if old := w.controllers.Get(ctrl).Pawn; w.Valid(old) {
		w.despawn(old)
	}

	r := Opaque()
	pawn := w.pawnBuilder.NewEntity(&r, &Pawn{Controller: ctrl}, &WeaponServices{})
	w.controllers.Get(ctrl).Pawn = pawn
	return pawn, nil
}

// GiveWeapon creates a weapon entity held by pawn.
func (w *World) GiveWeapon(pawn ecs.Entity, name string) (ecs.Entity, error) {
	if !w.isPawn(pawn) {
		return ecs.Entity{}, fmt.Errorf("give %s: %w", name, ErrNotAPawn)
	}
	r := Opaque()
	weapon := w.weaponBuilder.NewEntity(&r, &Weapon{Name: interning.Intern(name), Owner: pawn})
	services := w.weaponServices.Get(pawn)
	services.Weapons = append(services.Weapons, weapon)
	return weapon, nil
}

// DropWeapon takes weapon out of pawn's hands; the entity stays in the world.
func (w *World) DropWeapon(pawn, weapon ecs.Entity) error {
	if !w.isPawn(pawn) {
		return fmt.Errorf("drop: %w", ErrNotAPawn)
	}
	services := w.weaponServices.Get(pawn)
	kept := services.Weapons[:0]
	for _, held := range services.Weapons {
		if held != weapon {
			kept = append(kept, held)
		}
	}
	services.Weapons = kept
	if w.Valid(weapon) && w.weapons.Has(weapon) {
		w.weapons.Get(weapon).Owner = ecs.Entity{}
	}
	return nil
}

// Equip attaches a wearable cosmetic to pawn.
func (w *World) Equip(pawn ecs.Entity, item string) (ecs.Entity, error) {
	if !w.isPawn(pawn) {
		return ecs.Entity{}, fmt.Errorf("equip %s: %w", item, ErrNotAPawn)
	}
	r := Opaque()
	return w.wearableBuilder.NewEntity(&r, &Wearable{Item: interning.Intern(item), Owner: pawn}), nil
}

// Remove deletes any entity. Handles elsewhere that point at it go stale.
func (w *World) Remove(e ecs.Entity) {
	if !w.Valid(e) {
		return
	}
	w.ecs.RemoveEntity(e)
	delete(w.changes, e)
}

// Disconnect removes the controller, its pawn and everything the pawn owns.
func (w *World) Disconnect(id player.ID) bool {
	ctrl, ok := w.controller(id)
	if !ok {
		return false
	}
	if pawn := w.controllers.Get(ctrl).Pawn; w.Valid(pawn) {
		w.despawn(pawn)
	}
	w.Remove(ctrl)
	delete(w.players, id)
	w.log.Debug("player disconnected", logger.F("player", id))
	return true
}

func (w *World) despawn(pawn ecs.Entity) {
	for _, weapon := range w.weaponServices.Get(pawn).Weapons {
		w.Remove(weapon)
	}
	var worn []ecs.Entity
	for _, wearable := range w.Wearables() {
		if wearable.Owner == pawn {
			worn = append(worn, wearable.Entity)
		}
	}
	for _, e := range worn {
		w.Remove(e)
	}
	w.Remove(pawn)
}

//// INSPECTION

// Alpha returns the render transparency of e.
func (w *World) Alpha(e ecs.Entity) (uint8, bool) {
	if !w.Valid(e) || !w.renders.Has(e) {
		return 0, false
	}
	return w.renders.Get(e).Color.A, true
}

// Changes counts render state-change notifications raised for e.
func (w *World) Changes(e ecs.Entity) int {
	return w.changes[e]
}

// Player returns the controller data for id.
func (w *World) Player(id player.ID) (PlayerController, bool) {
	ctrl, ok := w.controller(id)
	if !ok {
		return PlayerController{}, false
	}
	return *w.controllers.Get(ctrl), true
}

// Connected lists the ids of every connected player.
func (w *World) Connected() []player.ID {
	ids := make([]player.ID, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	return ids
}

//// RUNTIME (consumed by render)

func (w *World) Valid(e ecs.Entity) bool {
	return !e.IsZero() && w.ecs.Alive(e)
}

func (w *World) SetAlpha(e ecs.Entity, alpha uint8) bool {
	if !w.Valid(e) || !w.renders.Has(e) {
		return false
	}
	w.renders.Get(e).Color.A = alpha
	w.notifyStateChanged(e)
	return true
}

func (w *World) Weapons(root ecs.Entity) []ecs.Entity {
	if !w.Valid(root) || !w.weaponServices.Has(root) {
		return nil
	}
	held := w.weaponServices.Get(root).Weapons
	out := make([]ecs.Entity, len(held))
	copy(out, held)
	return out
}

func (w *World) Wearables() []render.Wearable {
	var out []render.Wearable
	query := w.wearableFilter.Query()
	for query.Next() {
		out = append(out, render.Wearable{Entity: query.Entity(), Owner: query.Get().Owner})
	}
	return out
}

func (w *World) Controller(root ecs.Entity) (player.ID, bool) {
	if !w.Valid(root) || !w.pawns.Has(root) {
		return 0, false
	}
	ctrl := w.pawns.Get(root).Controller
	if !w.Valid(ctrl) || !w.controllers.Has(ctrl) {
		return 0, false
	}
	return w.controllers.Get(ctrl).ID, true
}

// SendMessage forwards text to the chat sink if id is still connected.
func (w *World) SendMessage(id player.ID, text string) {
	ctrl, ok := w.controller(id)
	if !ok {
		return
	}
	w.sink.Send(id, w.controllers.Get(ctrl).Name, text)
}

//// PLAYERS (consumed by controller)

func (w *World) PlayerValid(id player.ID) bool {
	_, ok := w.controller(id)
	return ok
}

func (w *World) Pawn(id player.ID) (ecs.Entity, bool) {
	ctrl, ok := w.controller(id)
	if !ok {
		return ecs.Entity{}, false
	}
	pawn := w.controllers.Get(ctrl).Pawn
	if !w.isPawn(pawn) {
		return ecs.Entity{}, false
	}
	return pawn, true
}

func (w *World) controller(id player.ID) (ecs.Entity, bool) {
	ctrl, ok := w.players[id]
	if !ok || !w.Valid(ctrl) {
		return ecs.Entity{}, false
	}
	return ctrl, true
}

func (w *World) isPawn(e ecs.Entity) bool {
	return w.Valid(e) && w.pawns.Has(e)
}

func (w *World) notifyStateChanged(e ecs.Entity) {
	w.changes[e]++
}
