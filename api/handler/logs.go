package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ar7340/CS2-Player-States/models"
	"github.com/Ar7340/CS2-Player-States/store"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 1000
)

// Logs returns a handler for GET /api/v1/logs?limit=N.
//
// Entries come newest first. limit defaults to 50 and is capped at 1000.
func Logs(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultLogLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, models.NewErrorResponse(
					models.ErrCodeInvalidInput, "limit must be a positive integer"))
				return
			}
			limit = min(n, maxLogLimit)
		}

		entries, err := st.RecentLogs(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.NewErrorResponse(
				models.ErrCodeInternal, err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.LogsResponse{Count: len(entries), Entries: entries})
	}
}

// PruneLogs returns a handler for DELETE /api/v1/logs?before=RFC3339.
//
// Deletes log rows older than the cutoff. The parameter is required so a
// bare DELETE cannot wipe the whole log by accident.
func PruneLogs(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("before")
		if raw == "" {
			c.JSON(http.StatusBadRequest, models.NewErrorResponse(
				models.ErrCodeInvalidInput, "before query parameter is required (RFC3339)"))
			return
		}

		cutoff, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.NewErrorResponse(
				models.ErrCodeInvalidInput, "before must be an RFC3339 timestamp"))
			return
		}

		deleted, err := st.PruneLogsBefore(c.Request.Context(), cutoff)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.NewErrorResponse(
				models.ErrCodeInternal, err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.PruneLogsResponse{Success: true, Deleted: deleted})
	}
}
