package schedule

import (
	"fmt"
	"strings"

	"timetable-service/internal/timegrid"
)

type SessionID = string

type SessionType string

const (
	Lecture   SessionType = "Lecture"
	Lab       SessionType = "Lab"
	Project   SessionType = "Project"
	Tutorial  SessionType = "Tutorial"
	Practical SessionType = "Practical"
)

func (t SessionType) Valid() bool {
	switch t {
	case Lecture, Lab, Project, Tutorial, Practical:
		return true
	}
	return false
}

// ParseSessionType is case-insensitive; empty means Lecture.
func ParseSessionType(s string) (SessionType, error) {
	if strings.TrimSpace(s) == "" {
		return Lecture, nil
	}
	for _, t := range []SessionType{Lecture, Lab, Project, Tutorial, Practical} {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "session_type", Reason: fmt.Sprintf("unknown session type %q", s)}
}

// Session is one class occurrence on the weekly grid.
type Session struct {
	ID          SessionID      `json:"id"`
	ClassRef    string         `json:"class_ref"`
	Day         timegrid.Day   `json:"day"`
	StartTime   timegrid.Clock `json:"start_time"`
	EndTime     timegrid.Clock `json:"end_time"`
	Room        string         `json:"room"`
	SessionType SessionType    `json:"session_type"`
	IsMerged    bool           `json:"is_merged"`
	MergedWith  *SessionID     `json:"merged_with"`
	CustomLabel *string        `json:"custom_label"`

	// PreviousType is the type the session had before it was merged.
	PreviousType SessionType `json:"previous_type,omitempty"`
	// SecondRoom is the room of the later half of a merged session; Room
	// belongs to the earlier half.
	SecondRoom string `json:"second_room,omitempty"`
}

// SessionInput is the unvalidated shape accepted at the API boundary.
type SessionInput struct {
	ClassRef    string `json:"class_ref"`
	Day         string `json:"day"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Room        string `json:"room"`
	SessionType string `json:"session_type"`
	CustomLabel string `json:"custom_label,omitempty"`
}

// NewSession validates in and returns an unmerged session without an id.
func NewSession(in SessionInput) (Session, error) {
	classRef := strings.TrimSpace(in.ClassRef)
	if classRef == "" {
		return Session{}, &ValidationError{Field: "class_ref", Reason: "is required"}
	}
	day, err := timegrid.ParseDay(in.Day)
	if err != nil {
		return Session{}, &ValidationError{Field: "day", Reason: err.Error()}
	}
	start, end, err := parseRange(in.StartTime, in.EndTime)
	if err != nil {
		return Session{}, err
	}
	st, err := ParseSessionType(in.SessionType)
	if err != nil {
		return Session{}, err
	}
	s := Session{
		ClassRef:    classRef,
		Day:         day,
		StartTime:   start,
		EndTime:     end,
		Room:        strings.TrimSpace(in.Room),
		SessionType: st,
	}
	if label := strings.TrimSpace(in.CustomLabel); label != "" {
		s.CustomLabel = &label
	}
	if err := s.validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

func parseRange(startStr, endStr string) (timegrid.Clock, timegrid.Clock, error) {
	start, err := timegrid.ParseClock(startStr)
	if err != nil {
		return 0, 0, &ValidationError{Field: "start_time", Reason: err.Error()}
	}
	end, err := timegrid.ParseClock(endStr)
	if err != nil {
		return 0, 0, &ValidationError{Field: "end_time", Reason: err.Error()}
	}
	if end <= start {
		return 0, 0, &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	return start, end, nil
}

func (s Session) validate() error {
	if s.ClassRef == "" {
		return &ValidationError{Field: "class_ref", Reason: "is required"}
	}
	if !s.Day.Valid() {
		return &ValidationError{Field: "day", Reason: "must be Monday..Saturday"}
	}
	if s.EndTime <= s.StartTime {
		return &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	want := hour
	if s.IsMerged {
		want = 2 * hour
	}
	if got := s.EndTime.Sub(s.StartTime); got != want {
		return &ValidationError{
			Field:  "end_time",
			Reason: fmt.Sprintf("%s-%s lasts %s, want %s", s.StartTime, s.EndTime, got, want),
		}
	}
	if !s.SessionType.Valid() {
		return &ValidationError{Field: "session_type", Reason: fmt.Sprintf("unknown session type %q", s.SessionType)}
	}
	return nil
}

// Booking identifies whatever occupies a time range.
func (s Session) Booking() Booking {
	return Booking{
		ID:          s.ID,
		ClassRef:    s.ClassRef,
		Room:        s.Room,
		SessionType: s.SessionType,
		Day:         s.Day,
		Start:       s.StartTime,
		End:         s.EndTime,
	}
}

// Label is the display text for the session.
func (s Session) Label() string {
	if s.CustomLabel != nil {
		return *s.CustomLabel
	}
	return s.ClassRef
}

// Booking is the identity of a blocking session or template.
type Booking struct {
	ID          string         `json:"id"`
	ClassRef    string         `json:"class_ref"`
	Room        string         `json:"room"`
	SessionType SessionType    `json:"session_type"`
	Day         timegrid.Day   `json:"day"`
	Start       timegrid.Clock `json:"start_time"`
	End         timegrid.Clock `json:"end_time"`
}

func strPtr(s string) *string { return &s }
