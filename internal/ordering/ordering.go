// Package ordering maintains the contiguous zero-based sort_order invariant
// of a sibling group: the child categories of one parent node, or the
// packages owned by one node. All functions are pure; callers persist the
// resulting plans inside a single transaction so no reader ever observes a
// partially shifted group.
package ordering

// Member is one entry of a sibling group, in display order. Callers load
// members ordered by (sort_order, id) so the slice index equals the display
// index of a well-formed group.
type Member struct {
	ID        int64
	SortOrder int
}

// Direction positions a member relative to a reference sibling.
type Direction string

const (
	Before Direction = "before"
	After  Direction = "after"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == Before || d == After
}

// Placement describes where a member should land in a sibling group.
// Resolution precedence: reference sibling + direction, then an explicit
// absolute index, then append at the end.
type Placement struct {
	RefID     int64     // reference sibling id, 0 = none
	Direction Direction // only consulted together with RefID
	Absolute  *int      // explicit target index, clamped into range
}

// ResolveInsertAt computes the target index for an insert or move into
// siblings, which must not contain the moving member itself.
//
// A RefID that does not resolve to any member is not an error: the
// placement silently falls back to appending at the end.
func ResolveInsertAt(siblings []Member, p Placement) int {
	if p.RefID != 0 && p.Direction.Valid() {
		for idx, s := range siblings {
			if s.ID == p.RefID {
				if p.Direction == After {
					return idx + 1
				}
				return idx
			}
		}
	}
	if p.Absolute != nil {
		return clamp(*p.Absolute, 0, len(siblings))
	}
	return len(siblings)
}

// RenumberForInsert returns the members whose sort_order changes when a new
// member enters at insertAt: positions before insertAt keep their index,
// positions at or after it shift up by one. Members already holding their
// target value are omitted, so the caller only writes actual changes.
func RenumberForInsert(siblings []Member, insertAt int) []Member {
	var changed []Member
	for idx, s := range siblings {
		target := idx
		if idx >= insertAt {
			target = idx + 1
		}
		if s.SortOrder != target {
			changed = append(changed, Member{ID: s.ID, SortOrder: target})
		}
	}
	return changed
}

// Band is an inclusive sort_order range whose members shift by Delta.
type Band struct {
	Lo, Hi int
	Delta  int
}

// MoveBand computes the half-open-interval shift for a move within one
// sibling group. Only the band between the old and new position moves;
// everything outside it stays untouched. ok is false when the move is a
// no-op (insertAt == oldOrder).
func MoveBand(oldOrder, insertAt int) (Band, bool) {
	switch {
	case insertAt == oldOrder:
		return Band{}, false
	case insertAt < oldOrder:
		// shift [insertAt, oldOrder) right to make room
		return Band{Lo: insertAt, Hi: oldOrder - 1, Delta: +1}, true
	default:
		// shift (oldOrder, insertAt] left over the vacated slot
		return Band{Lo: oldOrder + 1, Hi: insertAt, Delta: -1}, true
	}
}

// Exclude returns siblings without the member carrying id. Used to drop the
// moving member from the candidate list before resolving a same-group
// placement against it.
func Exclude(siblings []Member, id int64) []Member {
	out := make([]Member, 0, len(siblings))
	for _, s := range siblings {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

// IsContiguous reports whether the group, in slice order, holds exactly the
// sort orders 0..n-1.
func IsContiguous(siblings []Member) bool {
	for idx, s := range siblings {
		if s.SortOrder != idx {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
