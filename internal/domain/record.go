package domain

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// CertificationRecord is the backend-side row for one submitted capture.
type CertificationRecord struct {
	CaptureID       string
	CertificationID string
	HashN1          string
	HashN2          string
	MerkleRoot      string
	StorageType     StorageType
	CorrelationID   string
	SubmittedAt     time.Time
}

// CertificationRepository persists submissions on the certification
// backend.
type CertificationRepository interface {
	Create(ctx context.Context, rec CertificationRecord) error
	Get(ctx context.Context, captureID string) (CertificationRecord, error)
}
