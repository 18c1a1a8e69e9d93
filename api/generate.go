package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"luxwise/cv-back/apperr"
	"luxwise/cv-back/respond"
)

type jobOfferBody struct {
	JobOffer string `json:"job_offer"`
}

func (a *API) Generate(c *gin.Context) {
	text := a.Generator.Plain(c.Request.Context(), c.GetString("accountID"))
	if text == nil {
		respond.Error(c, apperr.Internal("Error generating CV", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"cv": *text})
}

func (a *API) GenerateWithJobOffer(c *gin.Context) {
	var data jobOfferBody
	if !bindJSON(c, &data) {
		return
	}

	if strings.TrimSpace(data.JobOffer) == "" {
		respond.Error(c, apperr.Validation("Job offer can't be empty"))
		return
	}

	out := a.Generator.WithJobOffer(c.Request.Context(), c.GetString("accountID"), data.JobOffer)
	if out == nil {
		respond.Error(c, apperr.Upstream("Error generating CV", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"cv": out})
}
