package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ar7340/CS2-Player-States/models"
	"github.com/Ar7340/CS2-Player-States/orchestrator"
)

// RunStart returns a handler for POST /api/v1/run/start.
//
// The run detaches from the request context: closing the HTTP connection
// must not cancel a batch that may take hours.
func RunStart(runner *orchestrator.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := runner.Start(context.Background()); err != nil {
			if errors.Is(err, orchestrator.ErrAlreadyRunning) {
				c.JSON(http.StatusConflict, models.NewErrorResponse(
					models.ErrCodeInvalidInput, "a run is already in progress"))
				return
			}
			c.JSON(http.StatusInternalServerError, models.NewErrorResponse(
				models.ErrCodeInternal, err.Error()))
			return
		}

		c.JSON(http.StatusAccepted, models.RunActionResponse{
			Success: true,
			Message: "run started",
		})
	}
}

// RunStop returns a handler for POST /api/v1/run/stop.
//
// Cooperative: the in-flight player finishes its terminal write before the
// loop exits, so status may show running for a few more seconds.
func RunStop(runner *orchestrator.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !runner.Stop() {
			c.JSON(http.StatusConflict, models.NewErrorResponse(
				models.ErrCodeInvalidInput, "no run in progress"))
			return
		}

		c.JSON(http.StatusAccepted, models.RunActionResponse{
			Success: true,
			Message: "stop requested, in-flight player will finish first",
		})
	}
}

// RunStatus returns a handler for GET /api/v1/run/status.
func RunStatus(runner *orchestrator.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, runner.Status())
	}
}
