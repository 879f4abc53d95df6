package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timetable-service/internal/schedule"
)

// writeError maps engine errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		conflict   *schedule.ConflictError
		notFound   *schedule.NotFoundError
		badMerge   *schedule.InvalidMergeError
		badSplit   *schedule.InvalidSplitError
		validation *schedule.ValidationError
	)
	body := gin.H{"error": err.Error()}
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &conflict):
		status = http.StatusConflict
		body["blocking"] = conflict.Blocking
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &badMerge), errors.As(err, &badSplit):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		body["field"] = validation.Field
	}

	if status == http.StatusInternalServerError {
		loggerFrom(c).Error("request failed", zap.Error(err))
		body["error"] = "internal error"
	} else {
		loggerFrom(c).Warn("request rejected", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, body)
}
