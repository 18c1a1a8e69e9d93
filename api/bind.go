package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxwise/cv-back/apperr"
	"luxwise/cv-back/respond"
)

func tooLarge(c *gin.Context, err error) bool {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return false
	}

	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
		"error":     "Request body size exceeds limit",
		"requestID": c.GetString("requestID"),
	})

	return true
}

// bindJSON decodes the body into dst and answers the request itself when
// that fails
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if tooLarge(c, err) {
			return false
		}

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		respond.Error(c, apperr.Validation("Invalid request body"))
		return false
	}

	return true
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respond.Error(c, apperr.Validation("Invalid id"))
		return 0, false
	}

	return uint(id), true
}
