package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"luxwise/cv-back/apperr"
	"luxwise/cv-back/middleware"
	"luxwise/cv-back/respond"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) UserLogin(c *gin.Context) {
	var data loginBody
	if !bindJSON(c, &data) {
		return
	}

	if data.Email == "" {
		respond.Error(c, apperr.Validation("Email field can't be empty"))
		return
	}

	if data.Password == "" {
		respond.Error(c, apperr.Validation("Password field can't be empty"))
		return
	}

	token, err := a.Auth.Login(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.SetCookie(middleware.AuthCookie, token, int(a.tokenTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"message":      "Login successful",
	})
}
