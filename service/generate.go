package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"luxwise/cv-back/metrics"
	"luxwise/cv-back/model"
)

const OperationGenerateCV = "generation.cv_create_external"

// Generator turns an assembled CV into text, optionally handing it to the
// external generation service together with a job offer
type Generator struct {
	db      *gorm.DB
	cv      *CVService
	baseURL string
	client  *http.Client
}

func NewGenerator(d *gorm.DB, cv *CVService, baseURL string, client *http.Client) *Generator {
	return &Generator{db: d, cv: cv, baseURL: baseURL, client: client}
}

// Plain returns the flattened CV or nil when it can't be built
func (g *Generator) Plain(ctx context.Context, accountID string) *string {
	cv, err := g.cv.Assemble(ctx, accountID)
	if err != nil {
		metrics.Generation("plain", false)
		zap.L().Error("Failed to generate CV", zap.Error(err), zap.String("accountID", accountID))
		return nil
	}

	text := Flatten(cv)
	metrics.Generation("plain", true)

	return &text
}

type generationRequest struct {
	UserDataPrompt string `json:"userDataPrompt"`
	JobOfferPrompt string `json:"jobOfferPrompt"`
}

// WithJobOffer asks the generation service for a CV tailored to jobOffer and
// returns its JSON answer verbatim. Any failure yields nil.
func (g *Generator) WithJobOffer(ctx context.Context, accountID, jobOffer string) json.RawMessage {
	out, err := g.withJobOffer(ctx, accountID, jobOffer)
	if err != nil {
		metrics.Generation("ia", false)
		zap.L().Error("Failed to generate CV with job offer", zap.Error(err), zap.String("accountID", accountID))
		return nil
	}

	metrics.Generation("ia", true)
	return out
}

func (g *Generator) withJobOffer(ctx context.Context, accountID, jobOffer string) (json.RawMessage, error) {
	var acc model.Account
	if err := g.db.WithContext(ctx).Where("id = ?", accountID).Take(&acc).Error; err != nil {
		return nil, fmt.Errorf("failed to load account, %w", err)
	}

	if acc.APIKey == nil || *acc.APIKey == "" {
		return nil, errors.New("account has no api key")
	}

	cv, err := g.cv.Assemble(ctx, accountID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(generationRequest{
		UserDataPrompt: Flatten(cv),
		JobOfferPrompt: jobOffer,
	})
	if err != nil {
		return nil, err
	}

	ctx = WithOperation(ctx, OperationGenerateCV)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/cv/create/external", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Token-Key", *acc.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("generation service answered %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if !json.Valid(raw) {
		return nil, errors.New("generation service answered with invalid json")
	}

	return json.RawMessage(raw), nil
}
