package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/crypto"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/merkle"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/validation"
)

// Stable failure codes for the local certification levels.
const (
	PCCFailEmptyComponents  = "EMPTY_COMPONENTS"
	PCCFailInvalidHash      = "INVALID_COMPONENT_HASH"
	PCCFailMissingName      = "MISSING_COMPONENT_NAME"
	PCCFailMissingMetadata  = "MISSING_METADATA"
	PCCFailInvalidChainHash = "INVALID_CHAIN_HASH"
	PCCFailMetadataHash     = "METADATA_HASH_FAILED"
	PCCFailLevel1Required   = "LEVEL1_REQUIRED"
	PCCFailTimeout          = "VALIDATION_TIMEOUT"
	PCCFailTransport        = "VALIDATION_TRANSPORT"
	PCCFailRejected         = "VALIDATION_REJECTED"
	PCCFailBadSignature     = "INVALID_SIGNATURE_FORMAT"
)

const DefaultValidationTimeout = 30 * time.Second

// ProgressFunc receives checkpoint percentages (0, 50, 100) as the local
// flow advances.
type ProgressFunc func(percent int)

// PCCLocal runs certification levels 1 and 2. It keeps no state between
// calls; every Execute is a fresh, idempotent computation keyed only by
// its input.
type PCCLocal struct {
	transport         validation.Transport
	extensionVersion  string
	validationTimeout time.Duration
	now               func() time.Time
	log               *zap.SugaredLogger
}

func NewPCCLocal(transport validation.Transport, extensionVersion string, validationTimeout time.Duration, now func() time.Time, log *zap.SugaredLogger) *PCCLocal {
	if validationTimeout <= 0 {
		validationTimeout = DefaultValidationTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &PCCLocal{
		transport:         transport,
		extensionVersion:  extensionVersion,
		validationTimeout: validationTimeout,
		now:               now,
		log:               log,
	}
}

// ExecuteLevel1 builds the Merkle tree over the component hashes and
// derives hashN1. Components are sorted by name before tree construction,
// so the root is independent of capture order. Failures come back as a
// result with a stable code; this method never panics past the boundary.
func (p *PCCLocal) ExecuteLevel1(input domain.MerkleTreeInput) domain.Level1Result {
	started := p.now()

	if code, err := validateInput(input); err != nil {
		return level1Failure(code, err, p.now().Sub(started))
	}

	components := make([]domain.EvidenceComponent, len(input.Components))
	copy(components, input.Components)
	sort.Slice(components, func(i, j int) bool {
		return components[i].Name < components[j].Name
	})

	leafHashes := make([]string, len(components))
	for i, c := range components {
		leafHashes[i] = domain.NormalizeHash(c.Hash)
	}

	tree, err := merkle.Build(leafHashes)
	if err != nil {
		return level1Failure(PCCFailInvalidHash, err, p.now().Sub(started))
	}

	metadataHash, err := crypto.HashCanonical(input.EnvironmentMetadata)
	if err != nil {
		return level1Failure(PCCFailMetadataHash, err, p.now().Sub(started))
	}

	chainHash := domain.NormalizeHash(input.PISAChainHash)
	hashN1 := crypto.ChainHash(chainHash, tree.RootHash, metadataHash)

	return domain.Level1Result{
		Success:             true,
		HashN1:              hashN1,
		MerkleRoot:          tree.RootHash,
		LeafHashes:          tree.LeafHashes,
		ComponentCount:      tree.LeafCount,
		Timestamp:           started.UTC().Format(time.RFC3339Nano),
		PISAChainHash:       chainHash,
		EnvironmentMetadata: input.EnvironmentMetadata,
		ProcessingTimeMs:    p.now().Sub(started).Milliseconds(),
	}
}

// ExecuteLevel2 exchanges hashN1 for a signed, timestamped acknowledgment
// and derives hashN2. A failure here never invalidates the Level 1 result
// the caller already holds.
func (p *PCCLocal) ExecuteLevel2(ctx context.Context, level1 domain.Level1Result) domain.Level2Result {
	started := p.now()

	if !level1.Success || level1.HashN1 == "" {
		return level2Failure(PCCFailLevel1Required, domain.ErrLevel1Failed.Error(), "", p.now().Sub(started))
	}

	req := validation.Request{
		HashN1:           level1.HashN1,
		MerkleRoot:       level1.MerkleRoot,
		LocalTimestamp:   p.now().UTC().Format(time.RFC3339Nano),
		CorrelationID:    uuid.NewString(),
		ExtensionVersion: p.extensionVersion,
	}

	ctx, cancel := context.WithTimeout(ctx, p.validationTimeout)
	defer cancel()

	resp, err := p.transport.Validate(ctx, req)
	if err != nil {
		code := PCCFailTransport
		if isTimeoutErr(ctx, err) {
			code = PCCFailTimeout
		}
		p.log.Warnw("level 2 validation failed",
			"correlation_id", req.CorrelationID, "code", code, "error", err)
		return level2Failure(code, err.Error(), level1.HashN1, p.now().Sub(started))
	}
	if !resp.Success {
		return level2Failure(PCCFailRejected, rejectionMessage(resp.Error), level1.HashN1, p.now().Sub(started))
	}
	if resp.ReceivedHashN1 != "" && domain.NormalizeHash(resp.ReceivedHashN1) != level1.HashN1 {
		return level2Failure(PCCFailRejected, "validation service echoed a different hashN1", level1.HashN1, p.now().Sub(started))
	}

	// Format-only signature check: hex payload of at least digest length.
	// Cryptographic verification against the authority's public key is not
	// performed; the validation API does not publish the key.
	if !validSignatureFormat(resp.Signature) {
		return level2Failure(PCCFailBadSignature, "signature failed format check", level1.HashN1, p.now().Sub(started))
	}

	hashN2 := crypto.ChainHash(level1.HashN1, resp.ServerTimestamp, resp.Signature)

	return domain.Level2Result{
		Success:           true,
		HashN2:            hashN2,
		HashN1:            level1.HashN1,
		ServerTimestamp:   resp.ServerTimestamp,
		ServerSignature:   resp.Signature,
		SignatureVerified: true,
		CertificateID:     resp.CertificateID,
		ProcessingTimeMs:  p.now().Sub(started).Milliseconds(),
	}
}

// Execute composes levels 1 and 2 with progress checkpoints. On failure
// the composite carries zero-valued level results rather than omitting
// them, so callers always branch on one shape.
func (p *PCCLocal) Execute(ctx context.Context, input domain.MerkleTreeInput, progress ProgressFunc) domain.LocalResult {
	report := func(percent int) {
		if progress != nil {
			progress(percent)
		}
	}

	report(0)
	level1 := p.ExecuteLevel1(input)
	if !level1.Success {
		return domain.LocalResult{
			Level1:    level1,
			Level2:    domain.Level2Result{},
			Error:     level1.Error,
			ErrorCode: level1.ErrorCode,
		}
	}

	report(50)
	level2 := p.ExecuteLevel2(ctx, level1)
	if !level2.Success {
		return domain.LocalResult{
			Level1:    level1,
			Level2:    level2,
			Error:     level2.Error,
			ErrorCode: level2.ErrorCode,
		}
	}

	report(100)
	return domain.LocalResult{
		Success:   true,
		FinalHash: level2.HashN2,
		Level1:    level1,
		Level2:    level2,
	}
}

func validateInput(input domain.MerkleTreeInput) (string, error) {
	err := input.Validate()
	switch err {
	case nil:
		return "", nil
	case domain.ErrEmptyComponents:
		return PCCFailEmptyComponents, err
	case domain.ErrMissingComponentID:
		return PCCFailMissingName, err
	case domain.ErrInvalidHash:
		return PCCFailInvalidHash, err
	case domain.ErrInvalidChainHash:
		return PCCFailInvalidChainHash, err
	case domain.ErrMissingMetadata:
		return PCCFailMissingMetadata, err
	default:
		return PCCFailInvalidHash, err
	}
}

func validSignatureFormat(sig string) bool {
	if len(sig) < domain.HashHexLen {
		return false
	}
	for i := 0; i < len(sig); i++ {
		c := sig[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			continue
		}
		return false
	}
	return true
}

func isTimeoutErr(ctx context.Context, err error) bool {
	if ctx.Err() == context.DeadlineExceeded {
		return true
	}
	var te *domain.TransportError
	if errors.As(err, &te) {
		return te.Timeout
	}
	return false
}

func rejectionMessage(msg string) string {
	if msg == "" {
		return "validation service rejected the request"
	}
	return msg
}

func level1Failure(code string, err error, elapsed time.Duration) domain.Level1Result {
	return domain.Level1Result{
		Error:            err.Error(),
		ErrorCode:        code,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
}

func level2Failure(code, msg, hashN1 string, elapsed time.Duration) domain.Level2Result {
	return domain.Level2Result{
		HashN1:           hashN1,
		Error:            msg,
		ErrorCode:        code,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
}
