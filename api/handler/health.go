package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ar7340/CS2-Player-States/models"
	"github.com/Ar7340/CS2-Player-States/store"
)

// Health returns a handler for GET /health.
//
// Probes the store with a summary query; a failing database degrades the
// status but still answers 200 so load balancers see the process alive.
func Health(st *store.Store, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: "0.1.0",
		}

		sum, err := st.Summary(c.Request.Context())
		if err != nil {
			resp.Status = "degraded"
		} else {
			resp.Queue = sum
		}

		c.JSON(http.StatusOK, resp)
	}
}
