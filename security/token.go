package security

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"luxwise/cv-back/model"
)

const registerTokenTTL = 5 * time.Minute

var ErrInvalidToken = errors.New("invalid or expired token")

// AccessClaims are carried by the tokens handed out on login
type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// RegisterClaims assert a verified pending registration to the identity
// authority. Password holds the argon2id hash, never the plain text.
type RegisterClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret    []byte
	accessTTL time.Duration

	registerKey *rsa.PrivateKey
	issuer      string
	audience    string

	now func() time.Time
}

// NewTokenIssuer parses the PEM encoded RSA key (PKCS#1 or PKCS#8) used for
// register tokens. Access tokens are signed with secret.
func NewTokenIssuer(secret string, accessTTL time.Duration, registerKeyPEM []byte, issuer, audience string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("no jwt secret provided")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(registerKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse register private key, %w", err)
	}

	return &TokenIssuer{
		secret:      []byte(secret),
		accessTTL:   accessTTL,
		registerKey: key,
		issuer:      issuer,
		audience:    audience,
		now:         time.Now,
	}, nil
}

func (t *TokenIssuer) AccessToken(accountID, email string) (string, error) {
	now := t.now()

	claims := AccessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// ParseAccessToken only accepts unexpired HS256 tokens with a subject
func (t *TokenIssuer) ParseAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (t *TokenIssuer) RegisterToken(p *model.PendingRegistration) (string, error) {
	if p == nil {
		return "", errors.New("no pending registration provided")
	}

	now := t.now()

	claims := RegisterClaims{
		UserID:    p.ID,
		Email:     p.Email,
		Password:  p.PasswordHash,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(registerTokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(t.registerKey)
}
