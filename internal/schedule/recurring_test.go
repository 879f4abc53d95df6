package schedule

import (
	"testing"
	"time"

	"timetable-service/internal/timegrid"
)

func mustTemplate(t *testing.T, in TemplateInput) RecurringTemplate {
	t.Helper()
	tpl, err := NewTemplate(in)
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}
	return tpl
}

func TestTodaySemesterBoundary(t *testing.T) {
	t.Parallel()

	// 2026-12-18 is a Friday.
	tpl := mustTemplate(t, TemplateInput{
		ClassRef: "CS101", Day: "Friday", StartTime: "09:00", EndTime: "10:00",
		SemesterStart: "2026-09-04", SemesterEnd: "2026-12-18",
	})
	tpl.ID = "t1"
	templates := []RecurringTemplate{tpl}

	onEnd := time.Date(2026, 12, 18, 23, 59, 0, 0, time.UTC)
	if got := Today(templates, onEnd); len(got) != 1 {
		t.Fatalf("template must be active on its last day, got %d", len(got))
	}
	onStart := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	if got := Today(templates, onStart); len(got) != 1 {
		t.Fatalf("template must be active on its first day, got %d", len(got))
	}

	end, _ := timegrid.ParseDate("2026-12-18")
	if got := ForDate(templates, end.AddDays(1)); len(got) != 0 {
		t.Fatal("day after semester end must be excluded")
	}
	// D+7 is a Friday again, still outside the semester
	if got := ForDate(templates, end.AddDays(7)); len(got) != 0 {
		t.Fatal("weeks after semester end must be excluded")
	}
	if got := ForDate(templates, end.AddDays(-1)); len(got) != 0 {
		t.Fatal("Thursday must not match a Friday template")
	}
}

func TestForDateOrderAndIdempotence(t *testing.T) {
	t.Parallel()

	base := TemplateInput{Day: "Monday", SemesterStart: "2026-09-01", SemesterEnd: "2026-12-31"}
	late := base
	late.ClassRef, late.StartTime, late.EndTime = "CS2", "14:00", "15:00"
	early := base
	early.ClassRef, early.StartTime, early.EndTime = "CS1", "08:00", "09:00"
	templates := []RecurringTemplate{mustTemplate(t, late), mustTemplate(t, early)}

	mon, _ := timegrid.ParseDate("2026-10-12")
	first := ForDate(templates, mon)
	second := ForDate(templates, mon)
	if len(first) != 2 || first[0].ClassRef != "CS1" {
		t.Fatalf("expected CS1 first, got %+v", first)
	}
	if len(second) != len(first) || second[1].ClassRef != first[1].ClassRef {
		t.Fatal("materialization is not idempotent")
	}
}

func TestForRange(t *testing.T) {
	t.Parallel()

	tpl := mustTemplate(t, TemplateInput{
		ClassRef: "CS101", Day: "Wednesday", StartTime: "13:00", EndTime: "14:00",
		SemesterStart: "2026-10-01", SemesterEnd: "2026-10-31",
	})
	from, _ := timegrid.ParseDate("2026-09-28")
	to, _ := timegrid.ParseDate("2026-10-31")

	occ := ForRange([]RecurringTemplate{tpl}, from, to)
	// Wednesdays in October 2026: 7, 14, 21, 28
	if len(occ) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(occ))
	}
	if occ[0].Date.String() != "2026-10-07" || occ[3].Date.String() != "2026-10-28" {
		t.Fatalf("unexpected occurrences %v .. %v", occ[0].Date, occ[3].Date)
	}
	if got := ForRange([]RecurringTemplate{tpl}, to, from); len(got) != 0 {
		t.Fatal("inverted range must be empty")
	}
}
