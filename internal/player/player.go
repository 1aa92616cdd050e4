// Package player holds the identifier shared by every vanish component.
package player

import "strconv"

// ID identifies a connected player for the lifetime of their session.
// The host may hand the same ID to a different player after a disconnect.
type ID int

func (id ID) String() string {
	return "#" + strconv.Itoa(int(id))
}
