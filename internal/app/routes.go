package app

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the authenticated API on r.
func (a *App) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/timegrid", a.TimeGridHandler)

		teachers := api.Group("/teachers/:id")
		{
			teachers.GET("/timetable", a.TimetableHandler)

			teachers.GET("/sessions", a.ListSessionsHandler)
			teachers.POST("/sessions", a.CreateSessionHandler)
			teachers.PATCH("/sessions/:session_id", a.UpdateSessionHandler)
			teachers.DELETE("/sessions/:session_id", a.DeleteSessionHandler)
			teachers.POST("/sessions/:session_id/split", a.SplitHandler)

			teachers.GET("/merge-candidates", a.MergeCandidatesHandler)
			teachers.POST("/merges", a.MergeHandler)
			teachers.POST("/merges/auto", a.AutoMergeHandler)

			teachers.GET("/templates", a.ListTemplatesHandler)
			teachers.POST("/templates", a.CreateTemplateHandler)
			teachers.GET("/templates/today", a.TodayHandler)
			teachers.GET("/templates/occurrences", a.OccurrencesHandler)
			teachers.DELETE("/templates/:template_id", a.DeleteTemplateHandler)

			teachers.POST("/import", a.ImportHandler)
			teachers.POST("/calendar/sync", a.CalendarSyncHandler)
		}

		// Google Calendar integration routes
		api.GET("/calendar/auth", a.GoogleAuthHandler)
	}
}
