package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"luxwise/cv-back/apperr"
	"luxwise/cv-back/model"
	"luxwise/cv-back/security"
)

const msgInvalidCredentials = "Invalid credentials"

type Authenticator struct {
	db     *gorm.DB
	argon  *security.ArgonHash
	tokens *security.TokenIssuer
}

func NewAuthenticator(d *gorm.DB, argon *security.ArgonHash, tokens *security.TokenIssuer) *Authenticator {
	return &Authenticator{db: d, argon: argon, tokens: tokens}
}

// Login checks the credentials and returns an access token. Unknown emails,
// wrong passwords and inactive accounts look the same to the caller.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", apperr.Unauthorized(msgInvalidCredentials)
	}

	var acc model.Account
	err := a.db.WithContext(ctx).Where("email = ?", email).Take(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.Unauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return "", apperr.Internal("Failed to log in", err)
	}

	ok, err := a.argon.VerifyPasswd(password, acc.PasswordHash)
	if err != nil {
		return "", apperr.Internal("Failed to log in", err)
	}

	if !ok || !acc.IsActive {
		return "", apperr.Unauthorized(msgInvalidCredentials)
	}

	token, err := a.tokens.AccessToken(acc.ID, acc.Email)
	if err != nil {
		return "", apperr.Internal("Failed to log in", err)
	}

	return token, nil
}

// Account resolves the subject of a validated access token. A deleted or
// deactivated account invalidates its tokens.
func (a *Authenticator) Account(ctx context.Context, token string) (*model.Account, error) {
	claims, err := a.tokens.ParseAccessToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("Could not validate credentials")
	}

	var acc model.Account
	err = a.db.WithContext(ctx).Where("id = ?", claims.Subject).Take(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("Could not validate credentials")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load account", err)
	}

	if !acc.IsActive {
		return nil, apperr.Unauthorized("Could not validate credentials")
	}

	return &acc, nil
}
