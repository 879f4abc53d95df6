package schedule

import (
	"fmt"
	"time"

	"timetable-service/internal/timegrid"
)

// hour is the length of a class period and of every plain session.
const hour = time.Hour

// Half says which side of a MergeBlock a slot occupies.
type Half int

const (
	FirstHalf Half = iota
	SecondHalf
)

// MergeBlock is a whitelisted two-hour window built from two adjacent
// one-hour class periods.
type MergeBlock struct {
	First  timegrid.TimeSlot `json:"first"`
	Second timegrid.TimeSlot `json:"second"`
}

func (b MergeBlock) Start() timegrid.Clock { return b.First.Start }
func (b MergeBlock) End() timegrid.Clock { return b.Second.End }

func (b MergeBlock) String() string {
	return fmt.Sprintf("%s-%s", b.Start(), b.End())
}

func (b MergeBlock) half(h Half) timegrid.TimeSlot {
	if h == FirstHalf {
		return b.First
	}
	return b.Second
}

// Rules is the lab-period policy: only these slot pairs may merge.
type Rules struct {
	blocks []MergeBlock
}

var defaultPairs = [][2]timegrid.SlotID{
	{"p2", "p3"},
	{"p5", "p6"},
	{"p7", "p8"},
}

// DefaultRules is the institution's three lab blocks on the default grid.
func DefaultRules() *Rules {
	r, err := NewRules(timegrid.Default(), defaultPairs...)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRules resolves slot-id pairs against grid. Each pair must be two
// back-to-back one-hour class periods.
func NewRules(grid *timegrid.Grid, pairs ...[2]timegrid.SlotID) (*Rules, error) {
	r := &Rules{}
	for _, p := range pairs {
		first, ok := grid.Slot(p[0])
		if !ok {
			return nil, fmt.Errorf("merge block: unknown slot %s", p[0])
		}
		second, ok := grid.Slot(p[1])
		if !ok {
			return nil, fmt.Errorf("merge block: unknown slot %s", p[1])
		}
		if first.IsBreak() || second.IsBreak() {
			return nil, fmt.Errorf("merge block %s+%s includes a break", p[0], p[1])
		}
		if first.End != second.Start {
			return nil, fmt.Errorf("merge block %s+%s is not contiguous", p[0], p[1])
		}
		if next, _ := grid.Next(first.ID); next.ID != second.ID {
			return nil, fmt.Errorf("merge block %s+%s is not adjacent", p[0], p[1])
		}
		if first.End.Sub(first.Start) != hour || second.End.Sub(second.Start) != hour {
			return nil, fmt.Errorf("merge block %s+%s must be two one-hour periods", p[0], p[1])
		}
		r.blocks = append(r.blocks, MergeBlock{First: first, Second: second})
	}
	return r, nil
}

// Blocks returns the table in its fixed order.
func (r *Rules) Blocks() []MergeBlock {
	out := make([]MergeBlock, len(r.blocks))
	copy(out, r.blocks)
	return out
}

// FindBlockForSlot reports whether [start, end) is either half of a block.
func (r *Rules) FindBlockForSlot(start, end timegrid.Clock) (MergeBlock, Half, bool) {
	for _, b := range r.blocks {
		if b.First.Start == start && b.First.End == end {
			return b, FirstHalf, true
		}
		if b.Second.Start == start && b.Second.End == end {
			return b, SecondHalf, true
		}
	}
	return MergeBlock{}, 0, false
}

// PartnerSlot returns the other half of block.
func (r *Rules) PartnerSlot(block MergeBlock, h Half) timegrid.TimeSlot {
	if h == FirstHalf {
		return block.Second
	}
	return block.First
}

// BlockSpanning finds the block whose merged window is exactly [start, end).
func (r *Rules) BlockSpanning(start, end timegrid.Clock) (MergeBlock, bool) {
	for _, b := range r.blocks {
		if b.Start() == start && b.End() == end {
			return b, true
		}
	}
	return MergeBlock{}, false
}

// Pair checks that a and b can merge, in either temporal order.
func (r *Rules) Pair(a, b Session) (MergeBlock, error) {
	if a.ID == b.ID {
		return MergeBlock{}, &InvalidMergeError{Reason: "cannot merge a session with itself"}
	}
	if a.IsMerged || b.IsMerged {
		return MergeBlock{}, &InvalidMergeError{Reason: "session is already merged"}
	}
	if a.ClassRef != b.ClassRef {
		return MergeBlock{}, &InvalidMergeError{
			Reason: fmt.Sprintf("different classes %q and %q", a.ClassRef, b.ClassRef),
		}
	}
	if a.Day != b.Day {
		return MergeBlock{}, &InvalidMergeError{Reason: fmt.Sprintf("sessions are on %s and %s", a.Day, b.Day)}
	}
	if b.StartTime < a.StartTime {
		a, b = b, a
	}
	block, h, ok := r.FindBlockForSlot(a.StartTime, a.EndTime)
	if !ok || h != FirstHalf || b.StartTime != block.Second.Start || b.EndTime != block.Second.End {
		return MergeBlock{}, &InvalidMergeError{
			Reason: fmt.Sprintf("%s-%s and %s-%s do not form a lab block",
				a.StartTime, a.EndTime, b.StartTime, b.EndTime),
		}
	}
	return block, nil
}
