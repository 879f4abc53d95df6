package app

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timetable-service/internal/cache"
	"timetable-service/internal/schedule"
	"timetable-service/internal/timegrid"
)

func (a *App) store(s Schedule) (*schedule.Store, error) {
	var opts []schedule.StoreOption
	if a.NewID != nil {
		opts = append(opts, schedule.WithIDGenerator(a.NewID))
	}
	st := schedule.NewStore(a.Grid, opts...)
	if err := st.Load(s.Sessions, s.Templates); err != nil {
		return nil, err
	}
	return st, nil
}

func (a *App) engine(c *gin.Context, s Schedule) (*schedule.Engine, error) {
	st, err := a.store(s)
	if err != nil {
		return nil, err
	}
	return schedule.NewEngine(st, a.Rules,
		schedule.WithLogger(loggerFrom(c)),
		schedule.WithDefaultLabel(a.LabLabel),
	), nil
}

// load returns a read-only engine over the teacher's current schedule.
func (a *App) load(c *gin.Context, teacherID string) (*schedule.Engine, error) {
	s, err := a.Repo.Load(c.Request.Context(), teacherID)
	if err != nil {
		return nil, err
	}
	return a.engine(c, s)
}

// mutate runs fn against the teacher's schedule under the repository's
// write lock and drops the cached timetable once the change is stored.
func (a *App) mutate(c *gin.Context, teacherID string, fn func(*schedule.Engine) (schedule.Delta, error)) error {
	ctx := c.Request.Context()
	err := a.Repo.Mutate(ctx, teacherID, func(s Schedule) (schedule.Delta, error) {
		e, err := a.engine(c, s)
		if err != nil {
			return schedule.Delta{}, err
		}
		return fn(e)
	})
	if err != nil {
		return err
	}
	rev, err := a.Cache.Bump(ctx, cache.TimetableRevisionKey(teacherID))
	if err != nil {
		loggerFrom(c).Warn("timetable cache invalidation failed", zap.Error(err))
		return nil
	}
	if err := a.Cache.Delete(ctx, cache.TimetableKey(teacherID, rev-1)); err != nil {
		loggerFrom(c).Warn("timetable cache cleanup failed", zap.Error(err))
	}
	return nil
}

// GET /api/teachers/:id/timetable
func (a *App) TimetableHandler(c *gin.Context) {
	teacherID := c.Param("id")
	ctx := c.Request.Context()

	// The revision is read before loading, so a render that races a
	// mutation is stored under a revision no later read asks for.
	key := ""
	if rev, err := a.Cache.Revision(ctx, cache.TimetableRevisionKey(teacherID)); err != nil {
		loggerFrom(c).Warn("timetable cache revision read failed", zap.Error(err))
	} else {
		key = cache.TimetableKey(teacherID, rev)
	}

	if key != "" {
		if body, ok, err := a.Cache.Get(ctx, key); err != nil {
			loggerFrom(c).Warn("timetable cache read failed", zap.Error(err))
		} else if ok {
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		}
	}

	e, err := a.load(c, teacherID)
	if err != nil {
		writeError(c, err)
		return
	}
	body, err := json.Marshal(schedule.ProjectStore(e.Store()))
	if err != nil {
		writeError(c, err)
		return
	}
	if key != "" {
		if err := a.Cache.Set(ctx, key, body); err != nil {
			loggerFrom(c).Warn("timetable cache write failed", zap.Error(err))
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GET /api/teachers/:id/sessions?day=Monday
func (a *App) ListSessionsHandler(c *gin.Context) {
	e, err := a.load(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	sessions := e.Store().List()
	if dayStr := c.Query("day"); dayStr != "" {
		day, err := timegrid.ParseDay(dayStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sessions = e.Store().ListByDay(day)
	}
	if sessions == nil {
		sessions = []schedule.Session{}
	}
	c.JSON(http.StatusOK, sessions)
}

// POST /api/teachers/:id/sessions?auto_merge=true
func (a *App) CreateSessionHandler(c *gin.Context) {
	var in schedule.SessionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := schedule.NewSession(in)
	if err != nil {
		writeError(c, err)
		return
	}
	autoMerge, err := strconv.ParseBool(c.DefaultQuery("auto_merge", "true"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "auto_merge must be a boolean"})
		return
	}

	var res schedule.PlaceResult
	err = a.mutate(c, c.Param("id"), func(e *schedule.Engine) (schedule.Delta, error) {
		if !autoMerge {
			created, err := e.Create(sess)
			res = schedule.PlaceResult{Session: created}
			return res.Delta(), err
		}
		res, err = e.Place(sess)
		return res.Delta(), err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// PATCH /api/teachers/:id/sessions/:session_id
// A class change re-applies the auto-merge policy.
func (a *App) UpdateSessionHandler(c *gin.Context) {
	sessionID := c.Param("session_id")
	var patch schedule.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var res schedule.PlaceResult
	err := a.mutate(c, c.Param("id"), func(e *schedule.Engine) (schedule.Delta, error) {
		classRef := patch.ClassRef
		patch.ClassRef = nil
		updated, err := e.Store().Replace(sessionID, patch)
		if err != nil {
			return schedule.Delta{}, err
		}
		res = schedule.PlaceResult{Session: updated}
		if classRef == nil {
			return res.Delta(), nil
		}
		res, err = e.ChangeClass(sessionID, *classRef)
		return res.Delta(), err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DELETE /api/teachers/:id/sessions/:session_id
func (a *App) DeleteSessionHandler(c *gin.Context) {
	sessionID := c.Param("session_id")
	err := a.mutate(c, c.Param("id"), func(e *schedule.Engine) (schedule.Delta, error) {
		return e.Remove(sessionID)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GET /api/teachers/:id/merge-candidates
func (a *App) MergeCandidatesHandler(c *gin.Context) {
	e, err := a.load(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	candidates := e.Candidates()
	if candidates == nil {
		candidates = []schedule.MergeCandidate{}
	}
	c.JSON(http.StatusOK, candidates)
}

// POST /api/teachers/:id/merges
func (a *App) MergeHandler(c *gin.Context) {
	var req mergeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var res schedule.MergeResult
	err := a.mutate(c, c.Param("id"), func(e *schedule.Engine) (schedule.Delta, error) {
		var err error
		res, err = e.Merge(req.FirstID, req.SecondID, req.CustomLabel)
		return res.Delta(), err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/teachers/:id/merges/auto
func (a *App) AutoMergeHandler(c *gin.Context) {
	var req autoMergeReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var results []schedule.MergeResult
	err := a.mutate(c, c.Param("id"), func(e *schedule.Engine) (schedule.Delta, error) {
		var err error
		results, err = e.AutoMergeAll(req.CustomLabel)
		return schedule.MergeDelta(results), err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if results == nil {
		results = []schedule.MergeResult{}
	}
	c.JSON(http.StatusOK, gin.H{"merged": results, "count": len(results)})
}

// POST /api/teachers/:id/sessions/:session_id/split
func (a *App) SplitHandler(c *gin.Context) {
	sessionID := c.Param("session_id")

	var res schedule.SplitResult
	err := a.mutate(c, c.Param("id"), func(e *schedule.Engine) (schedule.Delta, error) {
		var err error
		res, err = e.Split(sessionID)
		return res.Delta(), err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
