package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"luxwise/cv-back/respond"
	"luxwise/cv-back/service"
)

type confirmBody struct {
	Code string `json:"code"`
}

func (a *API) RegisterInitiate(c *gin.Context) {
	var data service.RegisterInput
	if !bindJSON(c, &data) {
		return
	}

	code, err := a.Registrar.Initiate(c.Request.Context(), data)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    code,
		"message": "Verification code sent",
	})
}

// RegisterConfirm takes the code from the query string or a JSON body
func (a *API) RegisterConfirm(c *gin.Context) {
	code := c.Query("code")
	if code == "" && c.Request.ContentLength != 0 {
		var data confirmBody
		if !bindJSON(c, &data) {
			return
		}
		code = data.Code
	}

	acc, err := a.Registrar.Confirm(c.Request.Context(), code)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, acc)
}
