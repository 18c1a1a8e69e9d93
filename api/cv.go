package api

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxwise/cv-back/apperr"
	"luxwise/cv-back/model"
	"luxwise/cv-back/respond"
)

// CVFetch returns everything the account filled in as one document
func (a *API) CVFetch(c *gin.Context) {
	cv, err := a.CV.Assemble(c.Request.Context(), c.GetString("accountID"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, cv)
}

func (a *API) PersonalInfoFetch(c *gin.Context) {
	info, err := a.CV.GetPersonalInfo(c.Request.Context(), c.GetString("accountID"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (a *API) PersonalInfoSet(c *gin.Context) {
	var data model.PersonalInfo
	if !bindJSON(c, &data) {
		return
	}

	info, err := a.CV.SetPersonalInfo(c.Request.Context(), c.GetString("accountID"), data)
	if err != nil {
		respond.Error(c, err)
		return
	}

	a.invalidateCV(c)
	c.JSON(http.StatusOK, info)
}

// PersonalInfoPhoto reads the "photo" field of a multipart form
func (a *API) PersonalInfoPhoto(c *gin.Context) {
	fh, err := c.FormFile("photo")
	if err != nil {
		if tooLarge(c, err) {
			return
		}

		respond.Error(c, apperr.Validation("No photo provided"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(c, apperr.Internal("Failed to read photo", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, a.maxUploadBytes+1))
	if err != nil {
		respond.Error(c, apperr.Internal("Failed to read photo", err))
		return
	}

	if int64(len(data)) > a.maxUploadBytes {
		tooLarge(c, &http.MaxBytesError{Limit: a.maxUploadBytes})
		return
	}

	url, err := a.CV.SetPhoto(c.Request.Context(), c.GetString("accountID"), data)
	if err != nil {
		respond.Error(c, err)
		return
	}

	zap.L().Debug("Photo uploaded", zap.String("url", url), zap.String("requestID", c.GetString("requestID")))

	a.invalidateCV(c)
	c.JSON(http.StatusOK, gin.H{"photo": url})
}

func list[T any](c *gin.Context, fn func(context.Context, string) ([]T, error)) {
	rows, err := fn(c.Request.Context(), c.GetString("accountID"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

func create[T any](a *API, c *gin.Context, fn func(context.Context, string, T) (*T, error)) {
	var data T
	if !bindJSON(c, &data) {
		return
	}

	row, err := fn(c.Request.Context(), c.GetString("accountID"), data)
	if err != nil {
		respond.Error(c, err)
		return
	}

	a.invalidateCV(c)
	c.JSON(http.StatusCreated, row)
}

func childList[T any](c *gin.Context, fn func(context.Context, string, uint) ([]T, error)) {
	parentID, ok := paramID(c)
	if !ok {
		return
	}

	rows, err := fn(c.Request.Context(), c.GetString("accountID"), parentID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

func childCreate[T any](a *API, c *gin.Context, fn func(context.Context, string, uint, T) (*T, error)) {
	parentID, ok := paramID(c)
	if !ok {
		return
	}

	var data T
	if !bindJSON(c, &data) {
		return
	}

	row, err := fn(c.Request.Context(), c.GetString("accountID"), parentID, data)
	if err != nil {
		respond.Error(c, err)
		return
	}

	a.invalidateCV(c)
	c.JSON(http.StatusCreated, row)
}

func (a *API) SocialNetworkList(c *gin.Context)   { list(c, a.CV.ListSocialNetworks) }
func (a *API) SocialNetworkCreate(c *gin.Context) { create(a, c, a.CV.CreateSocialNetwork) }

func (a *API) EducationList(c *gin.Context)   { list(c, a.CV.ListEducation) }
func (a *API) EducationCreate(c *gin.Context) { create(a, c, a.CV.CreateEducation) }

func (a *API) ExperienceList(c *gin.Context)   { list(c, a.CV.ListExperience) }
func (a *API) ExperienceCreate(c *gin.Context) { create(a, c, a.CV.CreateExperience) }

func (a *API) ResponsibilityList(c *gin.Context) { childList(c, a.CV.ListResponsibilities) }
func (a *API) ResponsibilityCreate(c *gin.Context) {
	childCreate(a, c, a.CV.CreateResponsibility)
}

func (a *API) ExperienceAchievementList(c *gin.Context) {
	childList(c, a.CV.ListExperienceAchievements)
}

func (a *API) ExperienceAchievementCreate(c *gin.Context) {
	childCreate(a, c, a.CV.CreateExperienceAchievement)
}

func (a *API) ProjectList(c *gin.Context)   { list(c, a.CV.ListProjects) }
func (a *API) ProjectCreate(c *gin.Context) { create(a, c, a.CV.CreateProject) }

func (a *API) ProjectAchievementList(c *gin.Context) { childList(c, a.CV.ListProjectAchievements) }
func (a *API) ProjectAchievementCreate(c *gin.Context) {
	childCreate(a, c, a.CV.CreateProjectAchievement)
}

func (a *API) SkillList(c *gin.Context)   { list(c, a.CV.ListSkills) }
func (a *API) SkillCreate(c *gin.Context) { create(a, c, a.CV.CreateSkill) }
