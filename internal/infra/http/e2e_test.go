package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LexatoBR/lexato-extension-sub005/internal/config"
	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/backend"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/db"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/logger"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/resiliency"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/validation"
	"github.com/LexatoBR/lexato-extension-sub005/internal/usecase"
	"github.com/LexatoBR/lexato-extension-sub005/pkg/capture"
)

// The full five-level flow against the real backend handler: level 1-2
// locally with the HTTP validation endpoint, then submission and polling
// until the certificate completes.
func TestFullCertificationFlow(t *testing.T) {
	store := &db.Store{Certifications: db.NewMemoryRepository()}
	s, err := NewServer(config.Config{
		BackendLevelDuration: 50 * time.Millisecond,
		ValidationSigningKey: "e2e-signing-key",
	}, store, logger.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	manifest := capture.Manifest{
		CaptureID: "cap-e2e",
		Components: []domain.EvidenceComponent{
			capture.HashComponent("screenshot", "image", []byte("png bytes")),
			capture.HashComponent("dom", "html", []byte("<html></html>")),
			capture.HashComponent("interactions", "json", []byte(`[{"t":"click"}]`)),
		},
		PISAChainHash:       capture.HashComponent("chain", "chain", []byte("previous")).Hash,
		EnvironmentMetadata: map[string]any{"browser": "firefox", "os": "linux"},
	}

	transport, err := validation.NewHTTPTransport(server.URL+"/pcc/validate", nil)
	if err != nil {
		t.Fatalf("validation transport: %v", err)
	}
	local := usecase.NewPCCLocal(transport, "e2e", 5*time.Second, nil, logger.Nop())

	localResult := local.Execute(context.Background(), manifest.Input(), nil)
	if !localResult.Success {
		t.Fatalf("local protocol failed: %s (%s)", localResult.Error, localResult.ErrorCode)
	}
	if !localResult.Level2.SignatureVerified || localResult.Level2.ServerSignature == "" {
		t.Fatalf("level 2 = %+v", localResult.Level2)
	}

	client, err := backend.NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("backend client: %v", err)
	}
	integration := usecase.NewBackendIntegration(client, resiliency.NewRegistry(nil), nil, usecase.IntegrationConfig{
		Level3Timeout:   5 * time.Second,
		Level4Timeout:   10 * time.Second,
		PollInterval:    10 * time.Millisecond,
		PollMaxInterval: 50 * time.Millisecond,
	}, nil, logger.Nop())

	result := integration.SubmitForCertification(context.Background(), manifest.CaptureID, localResult.Level2, domain.StoragePremium5Yrs)
	if !result.Success {
		t.Fatalf("certification failed: %s (%s)", result.Error, result.ErrorCode)
	}
	if result.IsPartial || result.TimedOut {
		t.Fatalf("partial=%v timedOut=%v", result.IsPartial, result.TimedOut)
	}
	if result.CertificationID == "" {
		t.Fatal("certification id missing")
	}
	if got := len(result.Progress.Anchors); got != 2 {
		t.Fatalf("anchors = %d, want 2", got)
	}
	for _, a := range result.Progress.Anchors {
		if !strings.HasPrefix(a.TxHash, "0x") || a.BlockNumber <= 0 {
			t.Fatalf("anchor = %+v", a)
		}
	}
	if result.Progress.PDFURL == "" {
		t.Fatal("pdf url missing")
	}
	if result.Progress.Level3Timestamp == "" {
		t.Fatal("level 3 timestamp missing")
	}
}

// Resubmitting the same capture over the wire is idempotent end to end.
func TestFullFlowIdempotentResubmit(t *testing.T) {
	store := &db.Store{Certifications: db.NewMemoryRepository()}
	s, err := NewServer(config.Config{
		BackendLevelDuration: 20 * time.Millisecond,
		ValidationSigningKey: "e2e-signing-key",
	}, store, logger.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	client, _ := backend.NewClient(server.URL, nil)
	req := backend.SubmitRequest{
		CaptureID:   "cap-idem",
		HashN1:      strings.Repeat("3c", 32),
		HashN2:      strings.Repeat("4d", 32),
		StorageType: domain.StorageStandard,
	}
	first, err := client.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := client.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if first.CertificationID != second.CertificationID {
		t.Fatalf("ids differ: %s vs %s", first.CertificationID, second.CertificationID)
	}
}
