package app

import (
	"time"

	"timetable-service/internal/cache"
	"timetable-service/internal/schedule"
	"timetable-service/internal/timegrid"
)

// App wires the schedule engine to HTTP, persistence and caching.
type App struct {
	Repo     Repository
	Cache    cache.Cache
	Grid     *timegrid.Grid
	Rules    *schedule.Rules
	LabLabel string
	Calendar *GoogleCalendarConfig

	// Now and NewID are overridable in tests.
	Now   func() time.Time
	NewID func() string
}

// Schedule is everything persisted for one teacher.
type Schedule struct {
	Sessions  []schedule.Session
	Templates []schedule.RecurringTemplate
}

type mergeReq struct {
	FirstID     string  `json:"first_id" binding:"required"`
	SecondID    string  `json:"second_id" binding:"required"`
	CustomLabel *string `json:"custom_label"`
}

type autoMergeReq struct {
	CustomLabel *string `json:"custom_label"`
}

type calendarSyncReq struct {
	From       string `json:"from" binding:"required"` // YYYY-MM-DD
	To         string `json:"to" binding:"required"`
	CalendarID string `json:"calendar_id,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

type importFailure struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}
