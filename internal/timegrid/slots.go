package timegrid

import (
	"errors"
	"fmt"
	"sort"
)

type SlotKind string

const (
	KindClass SlotKind = "class"
	KindBreak SlotKind = "break"
)

// SlotID names a period of the published daily schedule, e.g. "p2".
type SlotID string

type TimeSlot struct {
	ID    SlotID   `json:"id"`
	Start Clock    `json:"start"`
	End   Clock    `json:"end"`
	Kind  SlotKind `json:"kind"`
	Label string   `json:"label"`
}

// NewSlot validates a single slot definition.
func NewSlot(id SlotID, start, end string, kind SlotKind, label string) (TimeSlot, error) {
	if id == "" {
		return TimeSlot{}, errors.New("slot id is required")
	}
	s, err := ParseClock(start)
	if err != nil {
		return TimeSlot{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeSlot{}, err
	}
	if e <= s {
		return TimeSlot{}, fmt.Errorf("slot %s: end %s must be after start %s", id, e, s)
	}
	if kind != KindClass && kind != KindBreak {
		return TimeSlot{}, fmt.Errorf("slot %s: unknown kind %q", id, kind)
	}
	return TimeSlot{ID: id, Start: s, End: e, Kind: kind, Label: label}, nil
}

func (s TimeSlot) IsBreak() bool { return s.Kind == KindBreak }

// Overlaps reports half-open overlap of [start, end) with the slot.
func (s TimeSlot) Overlaps(start, end Clock) bool {
	return s.Start < end && start < s.End
}

// Grid is the immutable catalog of daily slots and teaching days.
type Grid struct {
	slots []TimeSlot
	byID  map[SlotID]int
	days  []Day
}

// NewGrid orders the slots by start and rejects duplicates and overlaps.
func NewGrid(slots []TimeSlot) (*Grid, error) {
	if len(slots) == 0 {
		return nil, errors.New("time grid needs at least one slot")
	}
	ordered := make([]TimeSlot, len(slots))
	copy(ordered, slots)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	g := &Grid{slots: ordered, byID: make(map[SlotID]int, len(ordered)), days: Days()}
	for i, s := range ordered {
		if _, dup := g.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate slot id %s", s.ID)
		}
		if i > 0 && ordered[i-1].End > s.Start {
			return nil, fmt.Errorf("slot %s overlaps %s", s.ID, ordered[i-1].ID)
		}
		g.byID[s.ID] = i
	}
	return g, nil
}

var defaultGrid = mustDefault()

func mustDefault() *Grid {
	def := []struct {
		id         SlotID
		start, end string
		kind       SlotKind
		label      string
	}{
		{"p1", "08:00", "09:00", KindClass, "Period 1"},
		{"p2", "09:00", "10:00", KindClass, "Period 2"},
		{"p3", "10:00", "11:00", KindClass, "Period 3"},
		{"p4", "11:00", "12:00", KindClass, "Period 4"},
		{"lunch", "12:00", "13:00", KindBreak, "Lunch"},
		{"p5", "13:00", "14:00", KindClass, "Period 5"},
		{"p6", "14:00", "15:00", KindClass, "Period 6"},
		{"tea", "15:00", "15:15", KindBreak, "Tea"},
		{"p7", "15:15", "16:15", KindClass, "Period 7"},
		{"p8", "16:15", "17:15", KindClass, "Period 8"},
	}
	slots := make([]TimeSlot, 0, len(def))
	for _, d := range def {
		s, err := NewSlot(d.id, d.start, d.end, d.kind, d.label)
		if err != nil {
			panic(err)
		}
		slots = append(slots, s)
	}
	g, err := NewGrid(slots)
	if err != nil {
		panic(err)
	}
	return g
}

// Default returns the institution's published daily schedule.
func Default() *Grid {
	return defaultGrid
}

// Slots returns a copy of the slots in start order.
func (g *Grid) Slots() []TimeSlot {
	out := make([]TimeSlot, len(g.slots))
	copy(out, g.slots)
	return out
}

// ClassSlots returns only the bookable periods.
func (g *Grid) ClassSlots() []TimeSlot {
	var out []TimeSlot
	for _, s := range g.slots {
		if !s.IsBreak() {
			out = append(out, s)
		}
	}
	return out
}

func (g *Grid) Days() []Day {
	out := make([]Day, len(g.days))
	copy(out, g.days)
	return out
}

func (g *Grid) Slot(id SlotID) (TimeSlot, bool) {
	i, ok := g.byID[id]
	if !ok {
		return TimeSlot{}, false
	}
	return g.slots[i], true
}

// SlotAt finds the slot whose bounds equal [start, end) exactly.
func (g *Grid) SlotAt(start, end Clock) (TimeSlot, bool) {
	for _, s := range g.slots {
		if s.Start == start && s.End == end {
			return s, true
		}
	}
	return TimeSlot{}, false
}

// BreakOverlapping returns the first break touched by [start, end).
func (g *Grid) BreakOverlapping(start, end Clock) (TimeSlot, bool) {
	for _, s := range g.slots {
		if s.IsBreak() && s.Overlaps(start, end) {
			return s, true
		}
	}
	return TimeSlot{}, false
}

// Next returns the slot immediately after id in the daily order.
func (g *Grid) Next(id SlotID) (TimeSlot, bool) {
	i, ok := g.byID[id]
	if !ok || i+1 >= len(g.slots) {
		return TimeSlot{}, false
	}
	return g.slots[i+1], true
}
