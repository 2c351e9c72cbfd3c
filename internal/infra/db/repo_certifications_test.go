package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	rec := domain.CertificationRecord{
		CaptureID:       "cap-1",
		CertificationID: "cert-1",
		HashN1:          "aa",
		HashN2:          "bb",
		StorageType:     domain.StorageStandard,
		SubmittedAt:     time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, "cap-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CertificationID != "cert-1" || !got.SubmittedAt.Equal(rec.SubmittedAt) {
		t.Fatalf("record = %+v", got)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing key error = %v", err)
	}
}

func TestModelRoundTrip(t *testing.T) {
	rec := domain.CertificationRecord{
		CaptureID:       "cap-2",
		CertificationID: "cert-2",
		HashN1:          "11",
		HashN2:          "22",
		MerkleRoot:      "33",
		StorageType:     domain.StoragePremium10Yrs,
		CorrelationID:   "corr-2",
		SubmittedAt:     time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
	if got := toDomain(toModel(rec)); got != rec {
		t.Fatalf("round trip changed record:\n got %+v\nwant %+v", got, rec)
	}
}
