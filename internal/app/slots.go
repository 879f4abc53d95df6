package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timetable-service/internal/schedule"
	"timetable-service/internal/timegrid"
)

// maxOccurrenceDays bounds template expansion per request.
const maxOccurrenceDays = 366

// OccurrenceDTO is one dated template occurrence with absolute times.
type OccurrenceDTO struct {
	Date       timegrid.Date `json:"date"`
	TemplateID string        `json:"template_id"`
	ClassRef   string        `json:"class_ref"`
	Title      string        `json:"title,omitempty"`
	Room       string        `json:"room,omitempty"`
	Type       string        `json:"session_type"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
}

func toOccurrenceDTO(o schedule.Occurrence, loc *time.Location) OccurrenceDTO {
	t := o.Template
	return OccurrenceDTO{
		Date:       o.Date,
		TemplateID: t.ID,
		ClassRef:   t.ClassRef,
		Title:      t.Title,
		Room:       t.Room,
		Type:       string(t.SessionType),
		Start:      t.StartTime.On(o.Date, loc),
		End:        t.EndTime.On(o.Date, loc),
	}
}

// expand turns templates into dated occurrences between from and to inclusive.
func expand(templates []schedule.RecurringTemplate, from, to timegrid.Date, loc *time.Location) ([]OccurrenceDTO, error) {
	if to.Before(from) {
		return nil, &schedule.ValidationError{Field: "to", Reason: "must not be before from"}
	}
	if to.Time().Sub(from.Time()) > maxOccurrenceDays*24*time.Hour {
		return nil, &schedule.ValidationError{Field: "to", Reason: "range is limited to one year"}
	}
	out := []OccurrenceDTO{}
	for _, o := range schedule.ForRange(templates, from, to) {
		out = append(out, toOccurrenceDTO(o, loc))
	}
	return out, nil
}

func parseRangeQuery(c *gin.Context) (timegrid.Date, timegrid.Date, *time.Location, error) {
	return parseDateRange(c.Query("from"), c.Query("to"), c.Query("timezone"))
}

// parseDateRange parses YYYY-MM-DD bounds and an IANA zone, UTC when empty.
func parseDateRange(fromStr, toStr, tz string) (timegrid.Date, timegrid.Date, *time.Location, error) {
	from, err := timegrid.ParseDate(fromStr)
	if err != nil {
		return timegrid.Date{}, timegrid.Date{}, nil, &schedule.ValidationError{Field: "from", Reason: err.Error()}
	}
	to, err := timegrid.ParseDate(toStr)
	if err != nil {
		return timegrid.Date{}, timegrid.Date{}, nil, &schedule.ValidationError{Field: "to", Reason: err.Error()}
	}
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return timegrid.Date{}, timegrid.Date{}, nil, &schedule.ValidationError{Field: "timezone", Reason: err.Error()}
	}
	return from, to, loc, nil
}

// GET /api/timegrid
func (a *App) TimeGridHandler(c *gin.Context) {
	grid := a.Grid
	if grid == nil {
		grid = timegrid.Default()
	}
	rules := a.Rules
	if rules == nil {
		rules = schedule.DefaultRules()
	}
	blocks := []gin.H{}
	for _, b := range rules.Blocks() {
		blocks = append(blocks, gin.H{
			"first":  b.First.ID,
			"second": b.Second.ID,
			"start":  b.Start(),
			"end":    b.End(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"days":         grid.Days(),
		"slots":        grid.Slots(),
		"merge_blocks": blocks,
	})
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
