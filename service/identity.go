package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"luxwise/cv-back/apperr"
	"luxwise/cv-back/model"
)

const OperationIdentityRegister = "identity.register_external"

// IdentityClient provisions confirmed registrations in the external identity
// authority, which answers with the api key of the new account
type IdentityClient struct {
	baseURL string
	client  *http.Client
}

func NewIdentityClient(baseURL string, client *http.Client) *IdentityClient {
	return &IdentityClient{baseURL: baseURL, client: client}
}

type externalRegistration struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type externalRegistrationResponse struct {
	Status string `json:"status"`
	APIKey string `json:"api_key"`
}

// RegisterExternal sends p signed by token. Every failure is an upstream
// error, the caller decides whether to retry.
func (c *IdentityClient) RegisterExternal(ctx context.Context, token string, p *model.PendingRegistration) (string, error) {
	body, err := json.Marshal(externalRegistration{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Password:  p.PasswordHash,
	})
	if err != nil {
		return "", apperr.Internal("Failed to encode registration", err)
	}

	ctx = WithOperation(ctx, OperationIdentityRegister)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/register/external", bytes.NewReader(body))
	if err != nil {
		return "", apperr.Internal("Failed to build identity request", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperr.Upstream("Error communicating with external service.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperr.Upstream(fmt.Sprintf("External service error: %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Upstream("Error communicating with external service.", err)
	}

	var out externalRegistrationResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", apperr.Upstream("Error registering user in external service.", err)
	}

	if out.Status != "success" || out.APIKey == "" {
		return "", apperr.Upstream("Error registering user in external service.",
			fmt.Errorf("identity answered status=%q with api key present=%t", out.Status, out.APIKey != ""))
	}

	return out.APIKey, nil
}
