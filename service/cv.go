package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"luxwise/cv-back/apperr"
	"luxwise/cv-back/model"
	"luxwise/cv-back/validators"
)

// ObjectStore keeps uploaded files and hands back a URL for them
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type CVService struct {
	db    *gorm.DB
	store ObjectStore
}

// NewCVService creates the service. store may be nil, photo uploads are then
// rejected.
func NewCVService(d *gorm.DB, store ObjectStore) *CVService {
	return &CVService{db: d, store: store}
}

func byID(d *gorm.DB) *gorm.DB {
	return d.Order("id asc")
}

// Assemble loads the whole CV of an account. Every association is loaded with
// a single query per level.
func (s *CVService) Assemble(ctx context.Context, accountID string) (*model.CV, error) {
	d := s.db.WithContext(ctx)

	var acc model.Account
	err := d.Where("id = ?", accountID).Take(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load CV", err)
	}

	var info model.PersonalInfo
	err = d.Where("account_id = ?", accountID).Take(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("CV not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load CV", err)
	}

	cv := &model.CV{
		BasicInfo: model.BasicInfo{
			Email:     acc.Email,
			FirstName: acc.FirstName,
			LastName:  acc.LastName,
		},
		PersonalInfo: &info,
		Education:    []model.Education{},
		Experience:   []model.Experience{},
		Projects:     []model.Project{},
		Skills:       []model.Skill{},
	}

	owned := d.Where("account_id = ?", accountID).Order("id asc").Session(&gorm.Session{})

	if err := owned.Find(&cv.Education).Error; err != nil {
		return nil, apperr.Internal("Failed to load CV", err)
	}

	err = owned.
		Preload("Responsibilities", byID).
		Preload("Achievements", byID).
		Find(&cv.Experience).
		Error
	if err != nil {
		return nil, apperr.Internal("Failed to load CV", err)
	}

	if err := owned.Preload("Achievements", byID).Find(&cv.Projects).Error; err != nil {
		return nil, apperr.Internal("Failed to load CV", err)
	}

	if err := owned.Find(&cv.Skills).Error; err != nil {
		return nil, apperr.Internal("Failed to load CV", err)
	}

	return cv, nil
}

// nullable turns nil pointers into a real nil so map conditions render
// IS NULL
func nullable(p *string) any {
	if p == nil {
		return nil
	}

	return *p
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func listOwned[T any](ctx context.Context, d *gorm.DB, notFound string, query string, args ...any) ([]T, error) {
	var out []T

	if err := d.WithContext(ctx).Where(query, args...).Order("id asc").Find(&out).Error; err != nil {
		return nil, apperr.Internal("Failed to load CV section", err)
	}

	if len(out) == 0 {
		return nil, apperr.NotFound(notFound)
	}

	return out, nil
}

// createUnique inserts row unless a row with the same natural key exists
func createUnique[T any](ctx context.Context, d *gorm.DB, row *T, key map[string]any, duplicate string) (*T, error) {
	var n int64

	d = d.WithContext(ctx)
	if err := d.Model(new(T)).Where(key).Count(&n).Error; err != nil {
		return nil, apperr.Internal("Failed to save CV section", err)
	}

	if n > 0 {
		return nil, apperr.Validation(duplicate)
	}

	if err := d.Create(row).Error; err != nil {
		return nil, apperr.Internal("Failed to save CV section", err)
	}

	return row, nil
}

func (s *CVService) GetPersonalInfo(ctx context.Context, accountID string) (*model.PersonalInfo, error) {
	var info model.PersonalInfo

	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Take(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("CV personal info not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load personal info", err)
	}

	return &info, nil
}

// SetPersonalInfo creates or replaces the personal info of an account. The
// photo is only managed through SetPhoto and survives a replace.
func (s *CVService) SetPersonalInfo(ctx context.Context, accountID string, in model.PersonalInfo) (*model.PersonalInfo, error) {
	var out model.PersonalInfo

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.PersonalInfo
		err := tx.Where("account_id = ?", accountID).Take(&current).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			in.ID = 0
			in.Photo = nil
		case err != nil:
			return err
		default:
			in.ID = current.ID
			in.Photo = current.Photo
		}

		in.AccountID = accountID
		out = in

		return tx.Save(&out).Error
	})
	if err != nil {
		return nil, apperr.Internal("Error persisting CV personal info.", err)
	}

	return &out, nil
}

// SetPhoto stores an image for the account and links it from personal info
func (s *CVService) SetPhoto(ctx context.Context, accountID string, data []byte) (string, error) {
	if s.store == nil {
		return "", apperr.Validation("Photo uploads are not enabled")
	}

	mt, err := validators.ImageValidator(data)
	if err != nil {
		return "", apperr.Validation(err.Error())
	}

	info, err := s.GetPersonalInfo(ctx, accountID)
	if err != nil {
		return "", err
	}

	name, err := newID()
	if err != nil {
		return "", apperr.Internal("Failed to store photo", err)
	}

	url, err := s.store.Put(ctx, "photos/"+accountID+"/"+name+mt.Extension(), bytes.NewReader(data), mt.String())
	if err != nil {
		return "", apperr.Upstream("Failed to store photo", err)
	}

	err = s.db.WithContext(ctx).
		Model(&model.PersonalInfo{}).
		Where("id = ?", info.ID).
		Update("photo", url).
		Error
	if err != nil {
		zap.L().Error("Photo uploaded but not linked", zap.Error(err), zap.String("url", url))
		return "", apperr.Internal("Failed to store photo", err)
	}

	return url, nil
}

func (s *CVService) ListSocialNetworks(ctx context.Context, accountID string) ([]model.SocialNetwork, error) {
	return listOwned[model.SocialNetwork](ctx, s.db, "CV social networks not found", "account_id = ?", accountID)
}

func (s *CVService) CreateSocialNetwork(ctx context.Context, accountID string, in model.SocialNetwork) (*model.SocialNetwork, error) {
	if blank(in.NetworkName) || blank(in.ProfileLink) {
		return nil, apperr.Validation("network_name and profile_link are required")
	}

	in.ID, in.AccountID = 0, accountID

	return createUnique(ctx, s.db, &in, map[string]any{
		"account_id":   accountID,
		"network_name": in.NetworkName,
		"profile_link": in.ProfileLink,
	}, "Already exists a social network entry with the same information.")
}

func (s *CVService) ListEducation(ctx context.Context, accountID string) ([]model.Education, error) {
	return listOwned[model.Education](ctx, s.db, "CV education not found", "account_id = ?", accountID)
}

func (s *CVService) CreateEducation(ctx context.Context, accountID string, in model.Education) (*model.Education, error) {
	if blank(in.Institution) {
		return nil, apperr.Validation("institution is required")
	}

	in.ID, in.AccountID = 0, accountID

	return createUnique(ctx, s.db, &in, map[string]any{
		"account_id":  accountID,
		"institution": in.Institution,
		"degree":      nullable(in.Degree),
		"start_date":  nullable(in.StartDate),
		"end_date":    nullable(in.EndDate),
	}, "Already exists an education entry with the same information.")
}

func (s *CVService) ListExperience(ctx context.Context, accountID string) ([]model.Experience, error) {
	return listOwned[model.Experience](ctx, s.db, "CV experience not found", "account_id = ?", accountID)
}

func (s *CVService) CreateExperience(ctx context.Context, accountID string, in model.Experience) (*model.Experience, error) {
	if blank(in.Workplace) || blank(in.Position) {
		return nil, apperr.Validation("workplace and position are required")
	}

	in.ID, in.AccountID = 0, accountID
	in.Responsibilities, in.Achievements = nil, nil

	return createUnique(ctx, s.db, &in, map[string]any{
		"account_id": accountID,
		"workplace":  in.Workplace,
		"position":   in.Position,
		"start_date": nullable(in.StartDate),
		"end_date":   nullable(in.EndDate),
	}, "Already exists an experience entry with the same information.")
}

// ownsExperience fails with notFound unless experienceID belongs to accountID
func (s *CVService) ownsExperience(ctx context.Context, accountID string, experienceID uint, notFound string) error {
	return s.owns(ctx, &model.Experience{}, accountID, experienceID, notFound)
}

func (s *CVService) ownsProject(ctx context.Context, accountID string, projectID uint, notFound string) error {
	return s.owns(ctx, &model.Project{}, accountID, projectID, notFound)
}

func (s *CVService) owns(ctx context.Context, m any, accountID string, id uint, notFound string) error {
	var n int64

	err := s.db.WithContext(ctx).Model(m).Where("id = ? AND account_id = ?", id, accountID).Count(&n).Error
	if err != nil {
		return apperr.Internal("Failed to load CV section", err)
	}

	if n == 0 {
		return apperr.NotFound(notFound)
	}

	return nil
}

func (s *CVService) ListResponsibilities(ctx context.Context, accountID string, experienceID uint) ([]model.ExperienceResponsibility, error) {
	if err := s.ownsExperience(ctx, accountID, experienceID, "CV experience responsibilities are not available for this user"); err != nil {
		return nil, err
	}

	return listOwned[model.ExperienceResponsibility](ctx, s.db, "CV experience responsibilities not found", "experience_id = ?", experienceID)
}

func (s *CVService) CreateResponsibility(ctx context.Context, accountID string, experienceID uint, in model.ExperienceResponsibility) (*model.ExperienceResponsibility, error) {
	if blank(in.Responsibility) {
		return nil, apperr.Validation("responsibility is required")
	}

	if err := s.ownsExperience(ctx, accountID, experienceID, "CV experience responsibilities are not available for this user"); err != nil {
		return nil, err
	}

	in.ID, in.ExperienceID = 0, experienceID

	return createUnique(ctx, s.db, &in, map[string]any{
		"experience_id":  experienceID,
		"responsibility": in.Responsibility,
	}, "Already exists a responsibility entry with the same information for this experience.")
}

func (s *CVService) ListExperienceAchievements(ctx context.Context, accountID string, experienceID uint) ([]model.ExperienceAchievement, error) {
	if err := s.ownsExperience(ctx, accountID, experienceID, "CV experience achievements are not available for this user"); err != nil {
		return nil, err
	}

	return listOwned[model.ExperienceAchievement](ctx, s.db, "CV experience achievements not found", "experience_id = ?", experienceID)
}

func (s *CVService) CreateExperienceAchievement(ctx context.Context, accountID string, experienceID uint, in model.ExperienceAchievement) (*model.ExperienceAchievement, error) {
	if blank(in.Achievement) {
		return nil, apperr.Validation("achievement is required")
	}

	if err := s.ownsExperience(ctx, accountID, experienceID, "CV experience achievements are not available for this user"); err != nil {
		return nil, err
	}

	in.ID, in.ExperienceID = 0, experienceID

	return createUnique(ctx, s.db, &in, map[string]any{
		"experience_id": experienceID,
		"achievement":   in.Achievement,
	}, "Already exists an achievement entry with the same information for this experience.")
}

func (s *CVService) ListProjects(ctx context.Context, accountID string) ([]model.Project, error) {
	return listOwned[model.Project](ctx, s.db, "CV projects not found", "account_id = ?", accountID)
}

func (s *CVService) CreateProject(ctx context.Context, accountID string, in model.Project) (*model.Project, error) {
	if blank(in.Name) {
		return nil, apperr.Validation("name is required")
	}

	in.ID, in.AccountID = 0, accountID
	in.Achievements = nil

	return createUnique(ctx, s.db, &in, map[string]any{
		"account_id":  accountID,
		"name":        in.Name,
		"start_date":  nullable(in.StartDate),
		"end_date":    nullable(in.EndDate),
		"description": nullable(in.Description),
	}, "Already exists a project entry with the same information.")
}

func (s *CVService) ListProjectAchievements(ctx context.Context, accountID string, projectID uint) ([]model.ProjectAchievement, error) {
	if err := s.ownsProject(ctx, accountID, projectID, "CV project achievements are not available for this user"); err != nil {
		return nil, err
	}

	return listOwned[model.ProjectAchievement](ctx, s.db, "CV project achievements not found", "project_id = ?", projectID)
}

func (s *CVService) CreateProjectAchievement(ctx context.Context, accountID string, projectID uint, in model.ProjectAchievement) (*model.ProjectAchievement, error) {
	if blank(in.Achievement) {
		return nil, apperr.Validation("achievement is required")
	}

	if err := s.ownsProject(ctx, accountID, projectID, "CV project achievements are not available for this user"); err != nil {
		return nil, err
	}

	in.ID, in.ProjectID = 0, projectID

	return createUnique(ctx, s.db, &in, map[string]any{
		"project_id":  projectID,
		"achievement": in.Achievement,
	}, "Already exists an achievement entry with the same information for this project.")
}

func (s *CVService) ListSkills(ctx context.Context, accountID string) ([]model.Skill, error) {
	return listOwned[model.Skill](ctx, s.db, "CV skills not found", "account_id = ?", accountID)
}

func (s *CVService) CreateSkill(ctx context.Context, accountID string, in model.Skill) (*model.Skill, error) {
	if blank(in.Label) {
		return nil, apperr.Validation("label is required")
	}

	in.ID, in.AccountID = 0, accountID

	return createUnique(ctx, s.db, &in, map[string]any{
		"account_id": accountID,
		"label":      in.Label,
		"detail":     nullable(in.Detail),
	}, "Already exists a skill entry with the same information.")
}
