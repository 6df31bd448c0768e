// Package bidirected implements the (id, orientation) pairs and canonical
// edge form that every other package in this module builds on.
package bidirected

// Dir is a directed node: an underlying id plus a strand. Reversing flips
// Forward.
type Dir struct {
	ID      uint32
	Forward bool
}

// Reverse flips the strand of a directed node.
func Reverse(d Dir) Dir {
	return Dir{ID: d.ID, Forward: !d.Forward}
}

// Canon returns the canonical ordering of a bidirected edge (from, to): if
// to.ID < from.ID, or they're equal and both ends are reverse, the pair is
// swapped and reversed.
func Canon(from, to Dir) (Dir, Dir) {
	if to.ID < from.ID {
		return Reverse(to), Reverse(from)
	}
	if to.ID == from.ID && !to.Forward && !from.Forward {
		return Reverse(to), Reverse(from)
	}
	return from, to
}
