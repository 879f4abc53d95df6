package schedule

import (
	"strings"

	"timetable-service/internal/timegrid"
)

// RecurringTemplate is a weekly obligation bounded by a semester.
type RecurringTemplate struct {
	ID            string         `json:"id"`
	ClassRef      string         `json:"class_ref"`
	Day           timegrid.Day   `json:"day"`
	StartTime     timegrid.Clock `json:"start_time"`
	EndTime       timegrid.Clock `json:"end_time"`
	Room          string         `json:"room"`
	SessionType   SessionType    `json:"session_type"`
	SemesterStart timegrid.Date  `json:"semester_start"`
	SemesterEnd   timegrid.Date  `json:"semester_end"`
	Title         string         `json:"title"`
}

type TemplateInput struct {
	ClassRef      string `json:"class_ref"`
	Day           string `json:"day"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Room          string `json:"room"`
	SessionType   string `json:"session_type"`
	SemesterStart string `json:"semester_start"`
	SemesterEnd   string `json:"semester_end"`
	Title         string `json:"title"`
}

func NewTemplate(in TemplateInput) (RecurringTemplate, error) {
	s, err := NewSession(SessionInput{
		ClassRef:    in.ClassRef,
		Day:         in.Day,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Room:        in.Room,
		SessionType: in.SessionType,
	})
	if err != nil {
		return RecurringTemplate{}, err
	}
	from, err := timegrid.ParseDate(in.SemesterStart)
	if err != nil {
		return RecurringTemplate{}, &ValidationError{Field: "semester_start", Reason: err.Error()}
	}
	to, err := timegrid.ParseDate(in.SemesterEnd)
	if err != nil {
		return RecurringTemplate{}, &ValidationError{Field: "semester_end", Reason: err.Error()}
	}
	t := RecurringTemplate{
		ClassRef:      s.ClassRef,
		Day:           s.Day,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		Room:          s.Room,
		SessionType:   s.SessionType,
		SemesterStart: from,
		SemesterEnd:   to,
		Title:         strings.TrimSpace(in.Title),
	}
	if err := t.validate(); err != nil {
		return RecurringTemplate{}, err
	}
	return t, nil
}

func (t RecurringTemplate) validate() error {
	base := Session{ClassRef: t.ClassRef, Day: t.Day, StartTime: t.StartTime, EndTime: t.EndTime, SessionType: t.SessionType}
	if err := base.validate(); err != nil {
		return err
	}
	if t.SemesterStart.IsZero() || t.SemesterEnd.IsZero() {
		return &ValidationError{Field: "semester_start", Reason: "semester dates are required"}
	}
	if t.SemesterEnd.Before(t.SemesterStart) {
		return &ValidationError{Field: "semester_end", Reason: "must not be before semester_start"}
	}
	return nil
}

// ActiveOn reports whether the template implies a session on date.
func (t RecurringTemplate) ActiveOn(date timegrid.Date) bool {
	if date.Weekday() != t.Day.Weekday() {
		return false
	}
	return !date.Before(t.SemesterStart) && !date.After(t.SemesterEnd)
}

func (t RecurringTemplate) Booking() Booking {
	return Booking{
		ID:          t.ID,
		ClassRef:    t.ClassRef,
		Room:        t.Room,
		SessionType: t.SessionType,
		Day:         t.Day,
		Start:       t.StartTime,
		End:         t.EndTime,
	}
}

func (t RecurringTemplate) semesterIntersects(o RecurringTemplate) bool {
	return !t.SemesterEnd.Before(o.SemesterStart) && !o.SemesterEnd.Before(t.SemesterStart)
}
