package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"luxwise/cv-back/model"
)

type TokenSuite struct {
	suite.Suite
	key    *rsa.PrivateKey
	issuer *TokenIssuer
	now    time.Time
}

func TestTokenSuite(t *testing.T) {
	suite.Run(t, new(TokenSuite))
}

func (s *TokenSuite) SetupSuite() {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	s.Require().NoError(err)
	s.key = key
}

func (s *TokenSuite) SetupTest() {
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(s.key)})

	issuer, err := NewTokenIssuer("access-secret", time.Hour, keyPEM, "cv-back", "cv-generator")
	s.Require().NoError(err)

	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return s.now }
	s.issuer = issuer
}

func (s *TokenSuite) TestAccessTokenRoundTrip() {
	tok, err := s.issuer.AccessToken("acc123", "ada@example.com")
	s.Require().NoError(err)

	claims, err := s.issuer.ParseAccessToken(tok)
	s.Require().NoError(err)
	s.Equal("acc123", claims.Subject)
	s.Equal("ada@example.com", claims.Email)
	s.Equal(s.now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func (s *TokenSuite) TestAccessTokenExpired() {
	tok, err := s.issuer.AccessToken("acc123", "ada@example.com")
	s.Require().NoError(err)

	s.now = s.now.Add(61 * time.Minute)

	_, err = s.issuer.ParseAccessToken(tok)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *TokenSuite) TestAccessTokenRejectsOtherAlgorithms() {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc123",
			ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	s.Require().NoError(err)
	_, err = s.issuer.ParseAccessToken(hs512)
	s.ErrorIs(err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	s.Require().NoError(err)
	_, err = s.issuer.ParseAccessToken(none)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *TokenSuite) TestAccessTokenWrongSecret() {
	other := *s.issuer
	other.secret = []byte("different")

	tok, err := other.AccessToken("acc123", "ada@example.com")
	s.Require().NoError(err)

	_, err = s.issuer.ParseAccessToken(tok)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *TokenSuite) TestRegisterTokenVerifiesWithPublicKey() {
	pending := &model.PendingRegistration{
		ID:           "pendingID1234567",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
	}

	tok, err := s.issuer.RegisterToken(pending)
	s.Require().NoError(err)

	claims := &RegisterClaims{}
	_, err = jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) {
		return &s.key.PublicKey, nil
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer("cv-back"),
		jwt.WithAudience("cv-generator"),
		jwt.WithTimeFunc(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)

	s.Equal(pending.ID, claims.Subject)
	s.Equal(pending.ID, claims.UserID)
	s.Equal(pending.Email, claims.Email)
	s.Equal(pending.PasswordHash, claims.Password)
	s.Equal("Ada", claims.FirstName)
	s.Equal("Lovelace", claims.LastName)
	s.Equal(s.now.Add(5*time.Minute).Unix(), claims.ExpiresAt.Unix())
	s.Equal(s.now.Unix(), claims.IssuedAt.Unix())
}

func TestNewTokenIssuerRejectsBadKey(t *testing.T) {
	_, err := NewTokenIssuer("secret", time.Hour, []byte("not a pem"), "i", "a")
	assert.Error(t, err)

	_, err = NewTokenIssuer("", time.Hour, nil, "i", "a")
	require.Error(t, err)
}
