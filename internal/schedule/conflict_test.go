package schedule

import (
	"testing"

	"timetable-service/internal/timegrid"
)

func TestFindConflict(t *testing.T) {
	t.Parallel()

	existing := []Session{{
		ID: "a", ClassRef: "CS101", Room: "RoomA", Day: timegrid.Monday,
		StartTime: timegrid.At(9, 0), EndTime: timegrid.At(10, 0), SessionType: Lecture,
	}}

	t.Run("partial overlap", func(t *testing.T) {
		got, ok := FindConflict(timegrid.Monday, timegrid.At(9, 30), timegrid.At(10, 30), existing)
		if !ok || got.ID != "a" {
			t.Fatalf("expected conflict with a, got %v %v", got.ID, ok)
		}
	})

	t.Run("touching boundary", func(t *testing.T) {
		if HasConflict(timegrid.Monday, timegrid.At(10, 0), timegrid.At(11, 0), existing) {
			t.Fatal("10:00 start should not conflict with 10:00 end")
		}
		if HasConflict(timegrid.Monday, timegrid.At(8, 0), timegrid.At(9, 0), existing) {
			t.Fatal("09:00 end should not conflict with 09:00 start")
		}
	})

	t.Run("other day", func(t *testing.T) {
		if HasConflict(timegrid.Tuesday, timegrid.At(9, 0), timegrid.At(10, 0), existing) {
			t.Fatal("different day must not conflict")
		}
	})

	t.Run("containment", func(t *testing.T) {
		if !HasConflict(timegrid.Monday, timegrid.At(8, 0), timegrid.At(11, 0), existing) {
			t.Fatal("enclosing range must conflict")
		}
	})
}

func TestConflictSymmetry(t *testing.T) {
	t.Parallel()

	clocks := []timegrid.Clock{
		timegrid.At(8, 0), timegrid.At(8, 30), timegrid.At(9, 0), timegrid.At(9, 30),
		timegrid.At(10, 0), timegrid.At(10, 15), timegrid.At(11, 0),
	}
	var ranges [][2]timegrid.Clock
	for i := range clocks {
		for j := i + 1; j < len(clocks); j++ {
			ranges = append(ranges, [2]timegrid.Clock{clocks[i], clocks[j]})
		}
	}

	for _, ra := range ranges {
		for _, rb := range ranges {
			a := Session{ID: "a", Day: timegrid.Friday, StartTime: ra[0], EndTime: ra[1]}
			b := Session{ID: "b", Day: timegrid.Friday, StartTime: rb[0], EndTime: rb[1]}
			ab := HasConflict(a.Day, a.StartTime, a.EndTime, []Session{b})
			ba := HasConflict(b.Day, b.StartTime, b.EndTime, []Session{a})
			if ab != ba {
				t.Fatalf("asymmetric conflict for %v vs %v: %v != %v", ra, rb, ab, ba)
			}
		}
	}
}
