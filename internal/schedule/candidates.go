package schedule

import (
	"sort"

	"timetable-service/internal/timegrid"
)

// MergeCandidate is a pair of sessions that exactly fill a lab block.
type MergeCandidate struct {
	Day    timegrid.Day `json:"day"`
	Block  MergeBlock   `json:"block"`
	First  Session      `json:"first"`
	Second Session      `json:"second"`
}

// MergeCandidates scans days in week order and blocks in table order, so
// identical input always yields candidates in the same order.
func MergeCandidates(sessions []Session, rules *Rules) []MergeCandidate {
	byDay := make(map[timegrid.Day][]Session)
	for _, s := range sessions {
		if s.IsMerged {
			continue
		}
		byDay[s.Day] = append(byDay[s.Day], s)
	}

	var out []MergeCandidate
	for _, day := range timegrid.Days() {
		daySessions := byDay[day]
		if len(daySessions) < 2 {
			continue
		}
		sort.Slice(daySessions, func(i, j int) bool { return daySessions[i].ID < daySessions[j].ID })

		for _, block := range rules.Blocks() {
			used := make(map[SessionID]bool)
			for _, first := range daySessions {
				if !occupies(first, block.First) {
					continue
				}
				for _, second := range daySessions {
					if used[second.ID] || !occupies(second, block.Second) || second.ClassRef != first.ClassRef {
						continue
					}
					used[second.ID] = true
					out = append(out, MergeCandidate{Day: day, Block: block, First: first, Second: second})
					break
				}
			}
		}
	}
	return out
}

func occupies(s Session, slot timegrid.TimeSlot) bool {
	return s.StartTime == slot.Start && s.EndTime == slot.End
}
