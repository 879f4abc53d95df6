package schedule

import "timetable-service/internal/timegrid"

// FindConflict returns the first session on day whose range overlaps
// [start, end). Touching boundaries do not overlap.
func FindConflict(day timegrid.Day, start, end timegrid.Clock, sessions []Session) (Session, bool) {
	for _, s := range sessions {
		if s.Day != day {
			continue
		}
		if overlaps(s.StartTime, s.EndTime, start, end) {
			return s, true
		}
	}
	return Session{}, false
}

func HasConflict(day timegrid.Day, start, end timegrid.Clock, sessions []Session) bool {
	_, ok := FindConflict(day, start, end, sessions)
	return ok
}

func overlaps(aStart, aEnd, bStart, bEnd timegrid.Clock) bool {
	return aStart < bEnd && bStart < aEnd
}
