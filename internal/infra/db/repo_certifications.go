package db

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

type gormRepository struct {
	db *gorm.DB
}

func (r *gormRepository) Create(ctx context.Context, rec domain.CertificationRecord) error {
	m := toModel(rec)
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *gormRepository) Get(ctx context.Context, captureID string) (domain.CertificationRecord, error) {
	var m certificationModel
	err := r.db.WithContext(ctx).First(&m, "capture_id = ?", captureID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.CertificationRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CertificationRecord{}, err
	}
	return toDomain(m), nil
}

// MemoryRepository is the no-db mode repository.
type MemoryRepository struct {
	mu   sync.RWMutex
	recs map[string]domain.CertificationRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{recs: make(map[string]domain.CertificationRecord)}
}

func (r *MemoryRepository) Create(_ context.Context, rec domain.CertificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs[rec.CaptureID] = rec
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, captureID string) (domain.CertificationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recs[captureID]
	if !ok {
		return domain.CertificationRecord{}, domain.ErrNotFound
	}
	return rec, nil
}
