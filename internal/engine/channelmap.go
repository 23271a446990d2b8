package engine

import (
	"slices"
)

// NoChannel marks the absence of an active input channel
const NoChannel = -1

// Channel is one entry of the exposed channel listing
type Channel struct {
	Logical  int `json:"logical"`
	Physical int `json:"physical"`
}

// ChannelMap resolves 1-based logical channels against the active physical
// input channels of the device. A map is immutable; every change returns a
// new one so that it can be swapped atomically under the audio thread.
// A nil *ChannelMap is an empty map.
type ChannelMap struct {
	active   []int
	selected int
}

// NewChannelMap builds a map over the active channels and selects the given
// logical channel, or the first active channel when it does not resolve.
func NewChannelMap(active []int, logical int) *ChannelMap {
	m := &ChannelMap{active: normalize(active), selected: NoChannel}
	if phys, ok := m.Resolve(logical); ok {
		m.selected = phys
	} else {
		m.selected = m.first()
	}
	return m
}

// Rebuild returns a map over a new active set. The selected physical
// channel survives if it is still active; otherwise the first active
// channel is selected, or NoChannel when the set is empty.
func (m *ChannelMap) Rebuild(active []int) *ChannelMap {
	next := &ChannelMap{active: normalize(active), selected: NoChannel}
	if m != nil && m.selected != NoChannel && next.contains(m.selected) {
		next.selected = m.selected
	} else {
		next.selected = next.first()
	}
	return next
}

// Select returns a map with the logical channel selected. ok is false, and
// the receiver is returned, when the channel does not resolve.
func (m *ChannelMap) Select(logical int) (*ChannelMap, bool) {
	phys, ok := m.Resolve(logical)
	if !ok {
		return m, false
	}
	return &ChannelMap{active: m.active, selected: phys}, true
}

// Resolve maps a 1-based logical channel to its physical index
func (m *ChannelMap) Resolve(logical int) (int, bool) {
	if m == nil || logical < 1 || logical > len(m.active) {
		return NoChannel, false
	}
	return m.active[logical-1], true
}

// Selected returns the selected physical channel or NoChannel
func (m *ChannelMap) Selected() int {
	if m == nil {
		return NoChannel
	}
	return m.selected
}

// SelectedLogical returns the selected logical channel, 0 when none
func (m *ChannelMap) SelectedLogical() int {
	if m == nil {
		return 0
	}
	for i, phys := range m.active {
		if phys == m.selected {
			return i + 1
		}
	}
	return 0
}

// Len returns the number of active channels
func (m *ChannelMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.active)
}

// Active returns a copy of the active physical channels in ascending order
func (m *ChannelMap) Active() []int {
	if m == nil {
		return []int{}
	}
	return slices.Clone(m.active)
}

// Channels returns the listing used to populate channel selectors
func (m *ChannelMap) Channels() []Channel {
	channels := make([]Channel, 0, m.Len())
	if m == nil {
		return channels
	}
	for i, phys := range m.active {
		channels = append(channels, Channel{Logical: i + 1, Physical: phys})
	}
	return channels
}

// activeView returns the backing slice for the real-time path
func (m *ChannelMap) activeView() []int {
	if m == nil {
		return nil
	}
	return m.active
}

func (m *ChannelMap) first() int {
	if len(m.active) == 0 {
		return NoChannel
	}
	return m.active[0]
}

func (m *ChannelMap) contains(phys int) bool {
	_, found := slices.BinarySearch(m.active, phys)
	return found
}

func normalize(active []int) []int {
	out := make([]int, 0, len(active))
	for _, ch := range active {
		if ch >= 0 {
			out = append(out, ch)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
