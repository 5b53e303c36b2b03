package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"callops/pkg/utils"
)

// HealthHandlers reports process liveness and backing-store readiness.
// Load balancers poll Ready before routing traffic to a fresh instance.
type HealthHandlers struct {
	DB  *sql.DB
	RDB *redis.Client
}

func (h HealthHandlers) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h HealthHandlers) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	if err := utils.HealthCheck(ctx, h.DB, 2*time.Second); err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "postgres unreachable"})
		return
	}
	if h.RDB != nil {
		if err := h.RDB.Ping(ctx).Err(); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "redis unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
