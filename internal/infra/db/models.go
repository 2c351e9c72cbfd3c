package db

import (
	"time"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

type certificationModel struct {
	CaptureID       string    `gorm:"primaryKey;column:capture_id"`
	CertificationID string    `gorm:"column:certification_id;index"`
	HashN1          string    `gorm:"column:hash_n1;size:64"`
	HashN2          string    `gorm:"column:hash_n2;size:64"`
	MerkleRoot      string    `gorm:"column:merkle_root;size:64"`
	StorageType     string    `gorm:"column:storage_type"`
	CorrelationID   string    `gorm:"column:correlation_id"`
	SubmittedAt     time.Time `gorm:"column:submitted_at"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (certificationModel) TableName() string { return "certifications" }

func toModel(rec domain.CertificationRecord) certificationModel {
	return certificationModel{
		CaptureID:       rec.CaptureID,
		CertificationID: rec.CertificationID,
		HashN1:          rec.HashN1,
		HashN2:          rec.HashN2,
		MerkleRoot:      rec.MerkleRoot,
		StorageType:     string(rec.StorageType),
		CorrelationID:   rec.CorrelationID,
		SubmittedAt:     rec.SubmittedAt,
	}
}

func toDomain(m certificationModel) domain.CertificationRecord {
	return domain.CertificationRecord{
		CaptureID:       m.CaptureID,
		CertificationID: m.CertificationID,
		HashN1:          m.HashN1,
		HashN2:          m.HashN2,
		MerkleRoot:      m.MerkleRoot,
		StorageType:     domain.StorageType(m.StorageType),
		CorrelationID:   m.CorrelationID,
		SubmittedAt:     m.SubmittedAt,
	}
}
