// Package respond writes the JSON error responses shared by every handler
package respond

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxwise/cv-back/apperr"
)

// Error aborts the request with the status of err's kind. Internal errors
// are logged and answered with a generic message.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	requestID := c.GetString("requestID")

	if kind == apperr.KindInternal || kind == apperr.KindUpstream {
		zap.L().Error("Request failed",
			zap.Error(err),
			zap.String("kind", string(kind)),
			zap.String("path", c.FullPath()),
			zap.String("requestID", requestID),
		)
	}

	c.AbortWithStatusJSON(apperr.Status(kind), gin.H{
		"error":     apperr.Message(err),
		"kind":      kind,
		"requestID": requestID,
	})
}
