package validation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/crypto"
)

// SimulatedTransport produces a deterministic signed acknowledgment
// without any network call. It exists for development and tests and is
// only selected when no validation URL is configured outside production;
// the constructor wiring in the use-case layer enforces that gate.
type SimulatedTransport struct {
	now func() time.Time
}

func NewSimulatedTransport(now func() time.Time) *SimulatedTransport {
	if now == nil {
		now = time.Now
	}
	return &SimulatedTransport{now: now}
}

func (t *SimulatedTransport) Validate(_ context.Context, req Request) (Response, error) {
	ts := t.now().UTC().Format(time.RFC3339Nano)
	// Signature is a hash chain over the request, not a real signature.
	// It satisfies the format check and keeps hashN2 deterministic per
	// (hashN1, timestamp) pair.
	sig := crypto.ChainHash("simulated-signature", req.HashN1, ts)
	return Response{
		Success:            true,
		ServerTimestamp:    ts,
		Signature:          sig,
		SignatureAlgorithm: "SIMULATED-SHA256",
		CertificateID:      "sim-" + uuid.NewString(),
		ReceivedHashN1:     req.HashN1,
	}, nil
}
