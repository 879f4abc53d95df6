package timegrid

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	cases := map[string]Clock{
		"09:00": At(9, 0),
		"16:15": At(16, 15),
		"00:00": At(0, 0),
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseClock(%q) = %s, want %s", in, got, want)
		}
	}

	for _, bad := range []string{"", "9:00", "25:00", "ab:cd", "09:00garbage", "10:00!!", "10:30:00", " 09:00"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q) expected error", bad)
		}
	}
}

func TestParseStoredClock(t *testing.T) {
	t.Parallel()

	cases := map[string]Clock{
		"09:00":           At(9, 0),
		"10:30:00":        At(10, 30),
		"08:05:00.000000": At(8, 5),
	}
	for in, want := range cases {
		got, err := ParseStoredClock(in)
		if err != nil {
			t.Fatalf("ParseStoredClock(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseStoredClock(%q) = %s, want %s", in, got, want)
		}
	}

	for _, bad := range []string{"10:30:15", "09:00:00garbage", "09:00:00.5", "09:00 "} {
		if _, err := ParseStoredClock(bad); err == nil {
			t.Fatalf("ParseStoredClock(%q) expected error", bad)
		}
	}
}

func TestClockArithmetic(t *testing.T) {
	t.Parallel()

	c := At(9, 0)
	if got := c.Add(2 * time.Hour); got != At(11, 0) {
		t.Fatalf("Add: got %s", got)
	}
	if got := At(11, 0).Sub(c); got != 2*time.Hour {
		t.Fatalf("Sub: got %v", got)
	}
}

func TestDefaultGridOrderedAndGapFree(t *testing.T) {
	t.Parallel()

	slots := Default().Slots()
	if len(slots) != 10 {
		t.Fatalf("expected 10 slots, got %d", len(slots))
	}
	for i := 1; i < len(slots); i++ {
		if slots[i-1].End > slots[i].Start {
			t.Fatalf("slot %s overlaps %s", slots[i-1].ID, slots[i].ID)
		}
	}
	if n := len(Default().ClassSlots()); n != 8 {
		t.Fatalf("expected 8 class slots, got %d", n)
	}
	if _, ok := Default().BreakOverlapping(At(11, 30), At(12, 30)); !ok {
		t.Fatal("expected 11:30-12:30 to touch lunch")
	}
	if _, ok := Default().BreakOverlapping(At(10, 15), At(11, 15)); ok {
		t.Fatal("10:15-11:15 should not touch a break")
	}
}

func TestNewGridRejectsOverlap(t *testing.T) {
	t.Parallel()

	a, _ := NewSlot("a", "09:00", "10:00", KindClass, "A")
	b, _ := NewSlot("b", "09:30", "10:30", KindClass, "B")
	if _, err := NewGrid([]TimeSlot{a, b}); err == nil {
		t.Fatal("expected overlap error")
	}
	if _, err := NewSlot("c", "10:00", "09:00", KindClass, "C"); err == nil {
		t.Fatal("expected end-before-start error")
	}
}

func TestDayOf(t *testing.T) {
	t.Parallel()

	mon := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	if d, ok := DayOf(mon); !ok || d != Monday {
		t.Fatalf("expected Monday, got %v %v", d, ok)
	}
	sun := mon.AddDate(0, 0, 6)
	if _, ok := DayOf(sun); ok {
		t.Fatal("Sunday should not map to a teaching day")
	}
}

func TestDayJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(struct {
		D Day   `json:"d"`
		C Clock `json:"c"`
		T Date  `json:"t"`
	}{Wednesday, At(13, 0), Date{2026, time.March, 4}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"d":"Wednesday","c":"13:00","t":"2026-03-04"}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}

	var d Day
	if err := d.UnmarshalText([]byte("sat")); err != nil || d != Saturday {
		t.Fatalf("expected Saturday, got %v %v", d, err)
	}
	if err := d.UnmarshalText([]byte("Sunday")); err == nil {
		t.Fatal("Sunday should be rejected")
	}
}

func TestDateCompare(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2026-12-31")
	if err != nil {
		t.Fatal(err)
	}
	next := d.AddDays(1)
	if next.String() != "2027-01-01" {
		t.Fatalf("AddDays: got %s", next)
	}
	if !d.Before(next) || !next.After(d) {
		t.Fatal("ordering broken")
	}
}
