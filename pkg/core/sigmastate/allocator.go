package sigmastate

import (
	"sort"

	"github.com/nspcc-dev/sigma-go/pkg/sigma"
)

// allocateGroup returns the group for a mint of d at the given height. It's
// the latest non-empty group (1 if there is none) unless the activation
// policy has opened a newer one by this height. Coin count never moves the
// boundary.
func (s *State) allocateGroup(d sigma.Denomination, height uint32) uint32 {
	current := s.latest[d]
	if current == 0 {
		current = 1
	}
	if target, ok := s.policy.GroupAt(d, height); ok && target > current {
		return target
	}
	return current
}

// recomputeLatest derives the latest group of d from the remaining groups.
func (s *State) recomputeLatest(d sigma.Denomination) {
	var latest uint32
	for k := range s.groups {
		if k.Denomination == d && k.ID > latest {
			latest = k.ID
		}
	}
	if latest == 0 {
		delete(s.latest, d)
		return
	}
	s.latest[d] = latest
}

func sortIDs(ids []uint32) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
