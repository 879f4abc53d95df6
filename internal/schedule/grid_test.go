package schedule

import (
	"encoding/json"
	"strings"
	"testing"

	"timetable-service/internal/timegrid"
)

func TestProjectGridAfterMerge(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	st := e.Store()
	a := mustCreate(t, st, "Monday", "09:00", "10:00", "CS101", "RoomA")
	b := mustCreate(t, st, "Monday", "10:00", "11:00", "CS101", "RoomA")
	mustCreate(t, st, "Monday", "11:00", "12:00", "CS102", "RoomB")

	before := ProjectStore(st)
	if c, _ := before.At(timegrid.Monday, "p3"); c.Kind != CellStart || c.Session.ID != b.ID {
		t.Fatalf("expected %s at 10:00 before merge, got %+v", b.ID, c)
	}

	if _, err := e.Merge(a.ID, b.ID, nil); err != nil {
		t.Fatal(err)
	}
	tt := ProjectStore(st)

	start, ok := tt.At(timegrid.Monday, "p2")
	if !ok || start.Kind != CellStart || start.Session.ID != a.ID || start.Span != 2 {
		t.Fatalf("expected spanning start cell at 09:00, got %+v", start)
	}
	cont, _ := tt.At(timegrid.Monday, "p3")
	if cont.Kind != CellSpanned || cont.Owner != a.ID || cont.Session != nil {
		t.Fatalf("expected continuation cell at 10:00, got %+v", cont)
	}
	if c, _ := tt.At(timegrid.Monday, "p4"); c.Kind != CellStart || c.Span != 1 {
		t.Fatalf("unmerged session should be a single cell, got %+v", c)
	}
	if c, _ := tt.At(timegrid.Monday, "lunch"); c.Kind != CellBreak {
		t.Fatalf("expected break cell, got %+v", c)
	}
	if c, _ := tt.At(timegrid.Tuesday, "p2"); c.Kind != CellEmpty {
		t.Fatalf("expected empty cell, got %+v", c)
	}
}

func TestTimetableMatrixShape(t *testing.T) {
	t.Parallel()

	tt := ProjectStore(newTestStore())
	m := tt.Matrix()
	if len(m) != 6 {
		t.Fatalf("expected 6 day rows, got %d", len(m))
	}
	for _, row := range m {
		if len(row) != 10 {
			t.Fatalf("expected 10 slot cells, got %d", len(row))
		}
	}
	if m[5][0].Day != timegrid.Saturday || m[5][0].Slot.ID != "p1" {
		t.Fatalf("unexpected corner cell %+v", m[5][0])
	}

	b, err := json.Marshal(tt)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"days":["Monday"`) {
		t.Fatalf("unexpected json: %.120s", b)
	}
}
