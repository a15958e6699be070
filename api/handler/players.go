package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ar7340/CS2-Player-States/models"
	"github.com/Ar7340/CS2-Player-States/store"
)

// Enqueue returns a handler for POST /api/v1/players.
//
// Queues a player for the next run. Re-posting a known Steam ID updates its
// priority without resetting status or queue position.
func Enqueue(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.EnqueueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.NewErrorResponse(
				models.ErrCodeInvalidInput, err.Error()))
			return
		}

		ctx := c.Request.Context()
		if err := st.Enqueue(ctx, req.SteamID, req.Priority); err != nil {
			c.JSON(http.StatusInternalServerError, models.NewErrorResponse(
				models.ErrCodeInternal, err.Error()))
			return
		}

		player, err := st.GetPlayer(ctx, req.SteamID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.NewErrorResponse(
				models.ErrCodeInternal, err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.EnqueueResponse{Success: true, Player: player})
	}
}

// QueueReset returns a handler for POST /api/v1/queue/reset.
//
// Moves every failed player back to pending so the next run retries them.
func QueueReset(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := st.ResetFailed(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.NewErrorResponse(
				models.ErrCodeInternal, err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.ResetResponse{Success: true, Reset: n})
	}
}
