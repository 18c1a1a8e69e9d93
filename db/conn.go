// Package db opens the database and keeps the schema in sync with the models
package db

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"luxwise/cv-back/config"
	"luxwise/cv-back/model"
	"luxwise/cv-back/util"
)

// Models lists every table owned by the application in migration order
var Models = []any{
	&model.Account{},
	&model.PendingRegistration{},
	&model.VerificationCode{},
	&model.PersonalInfo{},
	&model.SocialNetwork{},
	&model.Education{},
	&model.Experience{},
	&model.ExperienceResponsibility{},
	&model.ExperienceAchievement{},
	&model.Project{},
	&model.ProjectAchievement{},
	&model.Skill{},
	&model.OutboundLog{},
}

func New(cfg *config.Config) (*gorm.DB, error) {
	// Inside a container the sqlite file has to be mounted by the host,
	// creating it here would lose all data on restart
	if cfg.DatabaseDriver == "sqlite" && util.IsRunningInDocker() {
		if _, err := os.Stat(cfg.DatabaseDSN); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to %s", cfg.DatabaseDSN)
		}
	}

	return Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
}

// Open connects with the given driver and migrates every model. Unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	d, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the %s database, %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := d.DB()
		if err != nil {
			return nil, err
		}

		// SQLite allows a single writer, and every connection to :memory:
		// would otherwise see its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := d.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return d, nil
}
