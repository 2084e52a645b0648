/*
Package activation implements height-gated coin group schedules.

A schedule lists, per denomination, the points at which coin groups open
for new mints. Mints of a denomination at height h go into the group of the
latest point with Height <= h; groups never listed are never active.
*/
package activation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nspcc-dev/sigma-go/pkg/sigma"
)

// Point is a single schedule entry: group GroupID accepts mints starting
// from block Height.
type Point struct {
	GroupID uint32 `yaml:"GroupID"`
	Height  uint32 `yaml:"Height"`
}

// Policy is an immutable activation schedule. It's safe for concurrent use.
type Policy struct {
	points map[sigma.Denomination][]Point
}

var (
	// ErrUnknownDenomination is returned for schedules of unrecognized
	// denominations.
	ErrUnknownDenomination = errors.New("unknown denomination")
	// ErrBadSchedule is returned for schedules that are not strictly
	// increasing both in group ids and heights.
	ErrBadSchedule = errors.New("invalid activation schedule")
)

// New creates a policy from the given schedule. Points are sorted by height
// and must then be strictly increasing in both group ids and heights, group
// ids start from 1.
func New(schedule map[sigma.Denomination][]Point) (*Policy, error) {
	p := &Policy{points: make(map[sigma.Denomination][]Point, len(schedule))}
	for d, pts := range schedule {
		if !d.IsValid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownDenomination, d)
		}
		if len(pts) == 0 {
			continue
		}
		sorted := make([]Point, len(pts))
		copy(sorted, pts)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Height < sorted[j].Height })
		for i := range sorted {
			if sorted[i].GroupID == 0 {
				return nil, fmt.Errorf("%w: %s: zero group id", ErrBadSchedule, d)
			}
			if i > 0 && (sorted[i].GroupID <= sorted[i-1].GroupID || sorted[i].Height == sorted[i-1].Height) {
				return nil, fmt.Errorf("%w: %s: point %d (group %d, height %d)",
					ErrBadSchedule, d, i, sorted[i].GroupID, sorted[i].Height)
			}
		}
		p.points[d] = sorted
	}
	return p, nil
}

// Always returns a policy where group 1 of every recognized denomination is
// active from genesis and no other group ever opens.
func Always() *Policy {
	schedule := make(map[sigma.Denomination][]Point)
	for _, d := range sigma.Denominations() {
		schedule[d] = []Point{{GroupID: 1, Height: 0}}
	}
	p, _ := New(schedule)
	return p
}

// GroupAt returns the group that accepts mints of d at the given height. The
// second value is false if no group of d is active at this height.
func (p *Policy) GroupAt(d sigma.Denomination, height uint32) (uint32, bool) {
	pts := p.points[d]
	i := sort.Search(len(pts), func(i int) bool { return pts[i].Height > height })
	if i == 0 {
		return 0, false
	}
	return pts[i-1].GroupID, true
}

// IsActive tells whether group id of d is scheduled and its activation height
// is not above the given height.
func (p *Policy) IsActive(d sigma.Denomination, id uint32, height uint32) bool {
	for _, pt := range p.points[d] {
		if pt.GroupID == id {
			return pt.Height <= height
		}
	}
	return false
}

// ActivationHeight returns the height group id of d opens at.
func (p *Policy) ActivationHeight(d sigma.Denomination, id uint32) (uint32, bool) {
	for _, pt := range p.points[d] {
		if pt.GroupID == id {
			return pt.Height, true
		}
	}
	return 0, false
}

// Schedule returns a copy of the points configured for d.
func (p *Policy) Schedule(d sigma.Denomination) []Point {
	pts := p.points[d]
	res := make([]Point, len(pts))
	copy(res, pts)
	return res
}
