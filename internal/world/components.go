package world

import (
	"image/color"

	"github.com/mlange-42/ark/ecs"

	"vanish/internal/player"
)

// Render is the color an entity is drawn with; alpha 0 is fully transparent.
type Render struct {
	Color color.RGBA
}

// Opaque is the render every new entity starts with.
func Opaque() Render {
	return Render{Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}}
}

// Pawn marks a player's body and links it back to its controller.
type Pawn struct {
	Controller ecs.Entity
}

// WeaponServices lists the weapons a pawn holds. Handles are not cleaned up
// when a weapon entity is removed, like the game's own handle lists.
type WeaponServices struct {
	Weapons []ecs.Entity
}

type Weapon struct {
	Name  string
	Owner ecs.Entity
}

// Wearable is a cosmetic attached to a pawn.
type Wearable struct {
	Item  string
	Owner ecs.Entity
}

// PlayerController is the connection side of a player.
type PlayerController struct {
	ID   player.ID
	Name string
	Pawn ecs.Entity
}
