package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"luxwise/cv-back/db"
	"luxwise/cv-back/model"
	"luxwise/cv-back/security"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func registerKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()

	testKeyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = k
	})

	return testKey, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(testKey),
	})
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	d, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := d.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return d
}

func fastArgon() *security.ArgonHash {
	return &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func newTokenIssuer(t *testing.T) *security.TokenIssuer {
	t.Helper()

	_, keyPEM := registerKey(t)

	tokens, err := security.NewTokenIssuer("test-secret", time.Hour, keyPEM, "cv-back", "cv-generator")
	require.NoError(t, err)

	return tokens
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []VerificationMail
	err  error
}

func (f *fakeMailer) SendVerification(_ context.Context, m VerificationMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, m)
	return f.err
}

func (f *fakeMailer) last() VerificationMail {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sent[len(f.sent)-1]
}

func ptr[T any](v T) *T {
	return &v
}

// seedAccount stores an active account with the given password
func seedAccount(t *testing.T, d *gorm.DB, id, email, password string) *model.Account {
	t.Helper()

	hash, err := fastArgon().GenerateFromPassword(password)
	require.NoError(t, err)

	acc := &model.Account{
		ID:           id,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        email,
		PasswordHash: hash,
		APIKey:       ptr("key-" + id),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, d.Create(acc).Error)

	return acc
}
