package db

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"luxwise/cv-back/config"
	"luxwise/cv-back/model"
)

func TestOpenMigratesEveryModel(t *testing.T) {
	d, err := Open("sqlite", ":memory:")
	require.NoError(t, err)

	for _, m := range Models {
		assert.True(t, d.Migrator().HasTable(m), "%T", m)
	}
}

func TestOpenTranslatesDuplicateKeys(t *testing.T) {
	d, err := Open("sqlite", ":memory:")
	require.NoError(t, err)

	require.NoError(t, d.Create(&model.Account{ID: "a1", Email: "ada@example.com"}).Error)

	err = d.Create(&model.Account{ID: "a2", Email: "ada@example.com"}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}

func TestNewUsesConfiguredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.db")
	// Created up front so the mounted file check passes inside containers
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	d, err := New(&config.Config{DatabaseDriver: "sqlite", DatabaseDSN: path})
	require.NoError(t, err)
	assert.True(t, d.Migrator().HasTable(&model.Account{}))
}
