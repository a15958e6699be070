package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ar7340/CS2-Player-States/models"
	"github.com/Ar7340/CS2-Player-States/store"
)

// StatsSummary returns a handler for GET /api/v1/stats/summary.
func StatsSummary(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := st.Summary(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.NewErrorResponse(
				models.ErrCodeInternal, err.Error()))
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

// PlayerStats returns a handler for GET /api/v1/stats/:steam_id.
//
// Answers 404 both for players never queued and for players not yet
// scraped: a stat record only exists after the first attempt.
func PlayerStats(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		steamID := c.Param("steam_id")

		rec, err := st.GetStat(c.Request.Context(), steamID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.NewErrorResponse(
				models.ErrCodeInternal, err.Error()))
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, models.NewErrorResponse(
				models.ErrCodeNotFound, "no stat record for "+steamID))
			return
		}

		c.JSON(http.StatusOK, rec)
	}
}
