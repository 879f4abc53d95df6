package app

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timetable-service/internal/importer"
	"timetable-service/internal/schedule"
	"timetable-service/internal/timegrid"
)

// GET /api/teachers/:id/templates
func (a *App) ListTemplatesHandler(c *gin.Context) {
	e, err := a.load(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	templates := e.Store().Templates()
	if templates == nil {
		templates = []schedule.RecurringTemplate{}
	}
	c.JSON(http.StatusOK, templates)
}

// POST /api/teachers/:id/templates
func (a *App) CreateTemplateHandler(c *gin.Context) {
	var in schedule.TemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tmpl, err := schedule.NewTemplate(in)
	if err != nil {
		writeError(c, err)
		return
	}

	err = a.mutate(c, c.Param("id"), func(e *schedule.Engine) (schedule.Delta, error) {
		created, err := e.Store().CreateTemplate(tmpl)
		if err != nil {
			return schedule.Delta{}, err
		}
		tmpl = created
		return schedule.Delta{TemplatesUpserted: []schedule.RecurringTemplate{created}}, nil
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

// DELETE /api/teachers/:id/templates/:template_id
func (a *App) DeleteTemplateHandler(c *gin.Context) {
	templateID := c.Param("template_id")
	err := a.mutate(c, c.Param("id"), func(e *schedule.Engine) (schedule.Delta, error) {
		if _, err := e.Store().DeleteTemplate(templateID); err != nil {
			return schedule.Delta{}, err
		}
		return schedule.Delta{TemplatesDeleted: []string{templateID}}, nil
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GET /api/teachers/:id/templates/today?date=YYYY-MM-DD
// Without a date the server clock decides what today is.
func (a *App) TodayHandler(c *gin.Context) {
	e, err := a.load(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	var (
		date  timegrid.Date
		today []schedule.RecurringTemplate
	)
	if q := c.Query("date"); q != "" {
		if date, err = timegrid.ParseDate(q); err != nil {
			writeError(c, &schedule.ValidationError{Field: "date", Reason: err.Error()})
			return
		}
		today = schedule.ForDate(e.Store().Templates(), date)
	} else {
		now := a.now()
		date = timegrid.DateOf(now)
		today = schedule.Today(e.Store().Templates(), now)
	}
	if today == nil {
		today = []schedule.RecurringTemplate{}
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "templates": today})
}

// GET /api/teachers/:id/templates/occurrences?from=&to=&timezone=
func (a *App) OccurrencesHandler(c *gin.Context) {
	from, to, loc, err := parseRangeQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	e, err := a.load(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	occ, err := expand(e.Store().Templates(), from, to, loc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": occ, "count": len(occ)})
}

// POST /api/teachers/:id/import
// Accepts an HTML timetable as the "file" form field or the raw body.
// Rows that fail are reported; the rest are placed with auto-merge.
func (a *App) ImportHandler(c *gin.Context) {
	var src io.Reader = c.Request.Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		src = f
	}
	rows, err := importer.ParseHTML(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		placed   []schedule.PlaceResult
		failures []importFailure
	)
	err = a.mutate(c, c.Param("id"), func(e *schedule.Engine) (schedule.Delta, error) {
		var d schedule.Delta
		for _, row := range rows {
			sess, err := schedule.NewSession(row.Input)
			if err == nil {
				var res schedule.PlaceResult
				if res, err = e.Place(sess); err == nil {
					placed = append(placed, res)
					d = d.Append(res.Delta())
					continue
				}
			}
			failures = append(failures, importFailure{Line: row.Line, Error: err.Error()})
		}
		return d, nil
	})
	if err != nil {
		writeError(c, err)
		return
	}
	loggerFrom(c).Info("timetable imported",
		zap.Int("rows", len(rows)),
		zap.Int("placed", len(placed)),
		zap.Int("failed", len(failures)),
	)
	if placed == nil {
		placed = []schedule.PlaceResult{}
	}
	if failures == nil {
		failures = []importFailure{}
	}
	c.JSON(http.StatusOK, gin.H{
		"placed":  placed,
		"failed":  failures,
		"summary": fmt.Sprintf("%d of %d rows imported", len(placed), len(rows)),
	})
}
