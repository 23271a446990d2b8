package engine

import (
	"slices"
	"testing"
)

func TestNewChannelMap(t *testing.T) {
	tests := []struct {
		name     string
		active   []int
		logical  int
		selected int
	}{
		{"first logical", []int{0, 1, 2}, 1, 0},
		{"third logical", []int{2, 5, 7}, 3, 7},
		{"out of range falls back to first", []int{2, 5, 7}, 9, 2},
		{"zero falls back to first", []int{4}, 0, 4},
		{"empty set", nil, 1, NoChannel},
		{"unsorted input", []int{7, 2, 5}, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewChannelMap(tt.active, tt.logical)
			if got := m.Selected(); got != tt.selected {
				t.Errorf("Selected() = %d, want %d", got, tt.selected)
			}
		})
	}
}

func TestChannelMapResolve(t *testing.T) {
	m := NewChannelMap([]int{2, 5, 7}, 1)

	for logical, want := range map[int]int{1: 2, 2: 5, 3: 7} {
		phys, ok := m.Resolve(logical)
		if !ok || phys != want {
			t.Errorf("Resolve(%d) = %d, %v; want %d, true", logical, phys, ok, want)
		}
	}

	for _, logical := range []int{0, -1, 4} {
		if phys, ok := m.Resolve(logical); ok || phys != NoChannel {
			t.Errorf("Resolve(%d) = %d, %v; want NoChannel, false", logical, phys, ok)
		}
	}
}

func TestChannelMapRebuildFallsBackToFirstActive(t *testing.T) {
	// Previously selected physical channel 9 disappears
	prior := NewChannelMap([]int{8, 9}, 2)
	if prior.Selected() != 9 {
		t.Fatalf("prior selection = %d, want 9", prior.Selected())
	}

	next := prior.Rebuild([]int{2, 5, 7})
	if got := next.Selected(); got != 2 {
		t.Errorf("Selected() after rebuild = %d, want 2", got)
	}
	if got := next.SelectedLogical(); got != 1 {
		t.Errorf("SelectedLogical() after rebuild = %d, want 1", got)
	}

	// The prior map is untouched
	if prior.Selected() != 9 || prior.Len() != 2 {
		t.Error("Rebuild mutated the receiver")
	}
}

func TestChannelMapRebuildKeepsActiveSelection(t *testing.T) {
	m := NewChannelMap([]int{0, 1, 2, 3}, 3)
	next := m.Rebuild([]int{1, 2})

	if got := next.Selected(); got != 2 {
		t.Errorf("Selected() = %d, want 2", got)
	}
	if got := next.SelectedLogical(); got != 2 {
		t.Errorf("SelectedLogical() = %d, want 2", got)
	}
}

func TestChannelMapRebuildEmpty(t *testing.T) {
	m := NewChannelMap([]int{0, 1}, 1).Rebuild(nil)

	if m.Selected() != NoChannel {
		t.Errorf("Selected() = %d, want NoChannel", m.Selected())
	}
	if m.SelectedLogical() != 0 {
		t.Errorf("SelectedLogical() = %d, want 0", m.SelectedLogical())
	}
}

func TestChannelMapSelect(t *testing.T) {
	m := NewChannelMap([]int{2, 5, 7}, 1)

	next, ok := m.Select(2)
	if !ok {
		t.Fatal("Select(2) failed")
	}
	if next.Selected() != 5 {
		t.Errorf("Selected() = %d, want 5", next.Selected())
	}
	if m.Selected() != 2 {
		t.Error("Select mutated the receiver")
	}

	same, ok := m.Select(4)
	if ok {
		t.Error("Select(4) should fail")
	}
	if same != m {
		t.Error("failed Select should return the receiver")
	}
}

func TestChannelMapChannels(t *testing.T) {
	m := NewChannelMap([]int{7, 2, 5, 5}, 1)

	want := []Channel{{1, 2}, {2, 5}, {3, 7}}
	if got := m.Channels(); !slices.Equal(got, want) {
		t.Errorf("Channels() = %v, want %v", got, want)
	}

	active := m.Active()
	active[0] = 99
	if m.Active()[0] != 2 {
		t.Error("Active() exposes internal state")
	}
}

func TestNilChannelMap(t *testing.T) {
	var m *ChannelMap

	if m.Len() != 0 || m.Selected() != NoChannel || m.SelectedLogical() != 0 {
		t.Error("nil map should behave as empty")
	}
	if len(m.Channels()) != 0 || len(m.Active()) != 0 {
		t.Error("nil map should list nothing")
	}
	if _, ok := m.Select(1); ok {
		t.Error("Select on nil map should fail")
	}
	if next := m.Rebuild([]int{3}); next.Selected() != 3 {
		t.Errorf("Rebuild on nil map selected %d, want 3", next.Selected())
	}
}
