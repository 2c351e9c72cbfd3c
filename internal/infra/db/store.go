// Package db persists certification submissions. With a postgres DSN the
// store runs on gorm; without one it falls back to an in-memory repository
// so the backend can run in no-db mode for development and tests.
package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/LexatoBR/lexato-extension-sub005/internal/config"
	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

type Store struct {
	DB             *gorm.DB
	Certifications domain.CertificationRepository
}

func NewStore(cfg config.Config) (*Store, error) {
	if cfg.PostgresDSN == "" {
		return &Store{Certifications: NewMemoryRepository()}, nil
	}

	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := gdb.AutoMigrate(&certificationModel{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{
		DB:             gdb,
		Certifications: &gormRepository{db: gdb},
	}, nil
}
