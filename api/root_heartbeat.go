package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Heartbeat answers 200 while the database is reachable
func (a *API) Heartbeat(c *gin.Context) {
	sqlDB, err := a.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}

	if err != nil {
		zap.L().Error("Heartbeat failed", zap.Error(err))
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Status(http.StatusOK)
}
