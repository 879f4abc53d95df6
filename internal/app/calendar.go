package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"timetable-service/internal/config"
	"timetable-service/internal/schedule"
)

// maxSyncEvents bounds how many events one sync request inserts.
const maxSyncEvents = 500

// GoogleCalendarConfig holds OAuth2 configuration
type GoogleCalendarConfig struct {
	Config *oauth2.Config
}

// NewGoogleCalendarConfig returns nil when the OAuth client is not configured.
func NewGoogleCalendarConfig(cfg config.Config) *GoogleCalendarConfig {
	if !cfg.GoogleCalendarEnabled() {
		return nil
	}
	return &GoogleCalendarConfig{Config: &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{calendar.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}}
}

// GET /api/calendar/auth?teacher_id=
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.Calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	// Generate state parameter for security
	state := fmt.Sprintf("teacher_%s_%d", c.Query("teacher_id"), a.now().Unix())

	url := a.Calendar.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GET /oauth2callback
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.Calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}

	token, err := a.Calendar.Config.Exchange(c.Request.Context(), code)
	if err != nil {
		loggerFrom(c).Warn("oauth code exchange failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}

	// The caller keeps the token and sends it back as X-Google-Token.
	tokenJSON, _ := json.Marshal(token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Authorization successful",
		"state":   c.Query("state"),
		"token":   string(tokenJSON),
	})
}

// occurrenceEvent renders one dated template occurrence as a calendar event.
func occurrenceEvent(o OccurrenceDTO) *calendar.Event {
	summary := o.ClassRef
	if o.Title != "" {
		summary = fmt.Sprintf("%s: %s", o.ClassRef, o.Title)
	}
	return &calendar.Event{
		Summary:     summary,
		Location:    o.Room,
		Description: fmt.Sprintf("%s session (template %s)", o.Type, o.TemplateID),
		Start: &calendar.EventDateTime{
			DateTime: o.Start.Format(time.RFC3339),
			TimeZone: o.Start.Location().String(),
		},
		End: &calendar.EventDateTime{
			DateTime: o.End.Format(time.RFC3339),
			TimeZone: o.End.Location().String(),
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				"template_id": o.TemplateID,
				"date":        o.Date.String(),
			},
		},
	}
}

// POST /api/teachers/:id/calendar/sync
// Pushes template occurrences in [from, to] to the caller's Google Calendar.
func (a *App) CalendarSyncHandler(c *gin.Context) {
	if a.Calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}
	tokenStr := c.GetHeader("X-Google-Token")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google token required in X-Google-Token header"})
		return
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenStr), &token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token format"})
		return
	}

	var req calendarSyncReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, to, loc, err := parseDateRange(req.From, req.To, req.Timezone)
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
	if len(occ) > maxSyncEvents {
		writeError(c, &schedule.ValidationError{
			Field:  "to",
			Reason: fmt.Sprintf("%d occurrences exceed the limit of %d", len(occ), maxSyncEvents),
		})
		return
	}

	ctx := c.Request.Context()
	client := a.Calendar.Config.Client(ctx, &token)
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create calendar service"})
		return
	}

	calendarID := req.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	var created []string
	for _, o := range occ {
		ev, err := srv.Events.Insert(calendarID, occurrenceEvent(o)).Context(ctx).Do()
		if err != nil {
			loggerFrom(c).Warn("calendar insert failed",
				zap.String("template_id", o.TemplateID),
				zap.Stringer("date", o.Date),
				zap.Error(err),
			)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   fmt.Sprintf("failed to create event: %v", err),
				"created": created,
			})
			return
		}
		created = append(created, ev.Id)
	}

	c.JSON(http.StatusOK, gin.H{
		"created": created,
		"count":   len(created),
	})
}
