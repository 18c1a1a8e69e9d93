package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"luxwise/cv-back/middleware"
)

// UserFetch returns the account the request is authenticated as
func (a *API) UserFetch(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.AccountFrom(c))
}
