package schedule

import (
	"encoding/json"

	"timetable-service/internal/timegrid"
)

type CellKind string

const (
	CellEmpty   CellKind = "empty"
	CellStart   CellKind = "start"
	CellSpanned CellKind = "spanned"
	CellBreak   CellKind = "break"
)

// Cell is one (day, slot) position of the weekly timetable. A merged
// session renders as a start cell with Span 2 followed by a spanned cell
// pointing back at it through Owner.
type Cell struct {
	Day     timegrid.Day      `json:"day"`
	Slot    timegrid.TimeSlot `json:"slot"`
	Kind    CellKind          `json:"kind"`
	Session *Session          `json:"session,omitempty"`
	Span    int               `json:"span,omitempty"`
	Owner   SessionID         `json:"owner,omitempty"`
}

type cellKey struct {
	day  timegrid.Day
	slot timegrid.SlotID
}

// Timetable is the day × slot projection of a set of sessions.
type Timetable struct {
	days  []timegrid.Day
	slots []timegrid.TimeSlot
	cells map[cellKey]Cell
}

// ProjectGrid resolves each cell by exact (start, end) match first, with a
// merged session keyed on the slot it starts in, then by containment in a
// merged session, since the second half of a merge has no row of its own.
func ProjectGrid(sessions []Session, slots []timegrid.TimeSlot, days []timegrid.Day) Timetable {
	tt := Timetable{days: days, slots: slots, cells: make(map[cellKey]Cell, len(days)*len(slots))}

	exact := make(map[cellKey]Session)
	merged := make(map[timegrid.Day][]Session)
	for _, s := range sessions {
		for _, slot := range slots {
			if occupies(s, slot) || (s.IsMerged && slot.Start == s.StartTime) {
				exact[cellKey{s.Day, slot.ID}] = s
			}
		}
		if s.IsMerged {
			merged[s.Day] = append(merged[s.Day], s)
		}
	}

	for _, day := range days {
		for _, slot := range slots {
			key := cellKey{day, slot.ID}
			cell := Cell{Day: day, Slot: slot, Kind: CellEmpty}

			if s, ok := exact[key]; ok {
				s := s
				cell.Kind = CellStart
				cell.Session = &s
				cell.Span = 1
			} else if owner, ok := containing(merged[day], slot); ok {
				cell.Kind = CellSpanned
				cell.Owner = owner.ID
			} else if slot.IsBreak() {
				cell.Kind = CellBreak
			}
			tt.cells[key] = cell
		}
	}

	// A merged session starting on a slot spans every slot it contains.
	for _, day := range days {
		for _, slot := range slots {
			key := cellKey{day, slot.ID}
			cell := tt.cells[key]
			if cell.Kind != CellStart || !cell.Session.IsMerged {
				continue
			}
			span := 0
			for _, other := range slots {
				if cell.Session.StartTime <= other.Start && other.End <= cell.Session.EndTime {
					span++
				}
			}
			cell.Span = span
			tt.cells[key] = cell
		}
	}
	return tt
}

func containing(merged []Session, slot timegrid.TimeSlot) (Session, bool) {
	for _, s := range merged {
		if s.StartTime <= slot.Start && slot.End <= s.EndTime {
			return s, true
		}
	}
	return Session{}, false
}

// ProjectStore projects a store over its own grid.
func ProjectStore(s *Store) Timetable {
	return ProjectGrid(s.List(), s.grid.Slots(), s.grid.Days())
}

func (t Timetable) At(day timegrid.Day, slot timegrid.SlotID) (Cell, bool) {
	c, ok := t.cells[cellKey{day, slot}]
	return c, ok
}

// Matrix returns cells indexed [day][slot] in grid order.
func (t Timetable) Matrix() [][]Cell {
	out := make([][]Cell, len(t.days))
	for i, day := range t.days {
		row := make([]Cell, len(t.slots))
		for j, slot := range t.slots {
			row[j] = t.cells[cellKey{day, slot.ID}]
		}
		out[i] = row
	}
	return out
}

func (t Timetable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Days  []timegrid.Day      `json:"days"`
		Slots []timegrid.TimeSlot `json:"slots"`
		Cells [][]Cell            `json:"cells"`
	}{t.days, t.slots, t.Matrix()})
}
