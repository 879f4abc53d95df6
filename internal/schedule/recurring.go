package schedule

import (
	"sort"
	"time"

	"timetable-service/internal/timegrid"
)

// Occurrence is a template materialized on one date. It is a read-only
// projection, never stored as a Session.
type Occurrence struct {
	Date     timegrid.Date     `json:"date"`
	Template RecurringTemplate `json:"template"`
}

// Today returns the templates active on now's calendar date.
func Today(templates []RecurringTemplate, now time.Time) []RecurringTemplate {
	return ForDate(templates, timegrid.DateOf(now))
}

// ForDate returns the templates whose weekday matches date and whose
// semester contains it, bounds inclusive, ordered by start time.
func ForDate(templates []RecurringTemplate, date timegrid.Date) []RecurringTemplate {
	var out []RecurringTemplate
	for _, t := range templates {
		if t.ActiveOn(date) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// ForRange materializes every occurrence in [from, to].
func ForRange(templates []RecurringTemplate, from, to timegrid.Date) []Occurrence {
	var out []Occurrence
	for d := from; !d.After(to); d = d.AddDays(1) {
		for _, t := range ForDate(templates, d) {
			out = append(out, Occurrence{Date: d, Template: t})
		}
	}
	return out
}
