package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/backend"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/logger"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/push"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/resiliency"
)

// Stable failure codes for levels 3-5.
const (
	CertFailLevel2Required = "LEVEL2_REQUIRED"
	CertFailInvalidHashN1  = "INVALID_HASH_N1"
	CertFailInvalidHashN2  = "INVALID_HASH_N2"
	CertFailInvalidStorage = "INVALID_STORAGE_TYPE"
	CertFailSubmission     = "SUBMISSION_FAILED"
	CertFailRejected       = "SUBMISSION_REJECTED"
	CertFailCancelled      = "POLLING_CANCELLED"
)

// BackendClient is the certification backend surface consumed here.
type BackendClient interface {
	Submit(ctx context.Context, req backend.SubmitRequest) (backend.SubmitResponse, error)
	Status(ctx context.Context, captureID string) (backend.StatusResponse, error)
}

// PushChannel is the optional certificate-ready notification channel.
type PushChannel interface {
	Connect(ctx context.Context, captureID string) error
	Disconnect()
	Events() <-chan push.CertificateReady
}

// IntegrationConfig carries the resilience envelope for levels 3-5.
type IntegrationConfig struct {
	Level3Timeout   time.Duration // temporal/ICP path, from submission
	Level4Timeout   time.Duration // blockchain path, from submission
	PollInterval    time.Duration // backoff start
	PollMaxInterval time.Duration // backoff ceiling
}

func (c IntegrationConfig) withDefaults() IntegrationConfig {
	if c.Level3Timeout <= 0 {
		c.Level3Timeout = 5 * time.Minute
	}
	if c.Level4Timeout <= 0 {
		c.Level4Timeout = 10 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.PollMaxInterval <= 0 {
		c.PollMaxInterval = 30 * time.Second
	}
	return c
}

// BackendIntegration orchestrates levels 3-5 for one certification flow at
// a time. Independent flows run on independent instances; only the breaker
// registry is shared between them.
type BackendIntegration struct {
	client   BackendClient
	breakers *resiliency.Registry
	push     PushChannel
	cfg      IntegrationConfig
	now      func() time.Time
	log      *zap.SugaredLogger

	mu        sync.Mutex
	cancelCh  chan struct{}
	cancelled bool
}

func NewBackendIntegration(client BackendClient, breakers *resiliency.Registry, pushChannel PushChannel, cfg IntegrationConfig, now func() time.Time, log *zap.SugaredLogger) *BackendIntegration {
	if now == nil {
		now = time.Now
	}
	return &BackendIntegration{
		client:   client,
		breakers: breakers,
		push:     pushChannel,
		cfg:      cfg.withDefaults(),
		now:      now,
		log:      log,
	}
}

// SubmitForCertification runs the full remote envelope: pre-submission
// validation, durable submission, backoff polling with per-level timeouts,
// and partial-certification semantics. It resolves, never hangs: a timeout
// finalizes from the last known status with IsPartial set.
func (b *BackendIntegration) SubmitForCertification(ctx context.Context, captureID string, level2 domain.Level2Result, storageType domain.StorageType) domain.CertificationResult {
	if code, msg := validateSubmission(level2, storageType); code != "" {
		return domain.CertificationResult{
			CaptureID:   captureID,
			StorageType: storageType,
			Error:       msg,
			ErrorCode:   code,
		}
	}

	submitResp, err := b.submit(ctx, captureID, level2, storageType)
	if err != nil {
		return domain.CertificationResult{
			CaptureID:   captureID,
			StorageType: storageType,
			Error:       err.Error(),
			ErrorCode:   CertFailSubmission,
		}
	}
	if !submitResp.Success {
		// Protocol rejection is terminal; retrying the same hashN2 cannot
		// change the outcome.
		return domain.CertificationResult{
			CaptureID:   captureID,
			StorageType: storageType,
			Error:       rejectionMessage(submitResp.Error),
			ErrorCode:   CertFailRejected,
		}
	}

	cancelCh := b.armCancel()
	events := b.connectPush(ctx, captureID)
	defer func() {
		if b.push != nil {
			b.push.Disconnect()
		}
	}()

	progress := domain.CertificationProgress{
		Level3: domain.LevelPending,
		Level4: domain.LevelPending,
		Level5: domain.LevelPending,
	}

	result := b.trackProgress(ctx, captureID, &progress, cancelCh, events)
	result.CaptureID = captureID
	result.CertificationID = submitResp.CertificationID
	result.StorageType = storageType
	result.Progress = progress
	result.Success = progress.Completed()
	// A timeout that froze the flow short of completion is partial even if
	// no level finished: the submission itself is durable and usable.
	result.IsPartial = progress.Partial() || (result.TimedOut && !result.Success)

	if result.IsPartial {
		b.log.Warnw("certification completed partially",
			"capture_id", captureID,
			"level3", progress.Level3,
			"level4", progress.Level4,
			"level5", progress.Level5,
			"timed_out", result.TimedOut)
	}
	return result
}

// CancelPolling stops the in-flight polling loop before its next scheduled
// poll. Any already-resolved partial result stays intact. Safe to call when
// no polling is active, and idempotent.
func (b *BackendIntegration) CancelPolling() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelCh == nil || b.cancelled {
		return
	}
	b.cancelled = true
	close(b.cancelCh)
}

// ShouldUseFallback centralizes fallback policy: an open circuit, a network
// timeout, or a 5xx from the backend justify switching to an alternate
// authority. Validation and application errors do not.
func (b *BackendIntegration) ShouldUseFallback(err error) bool {
	if err == nil {
		return false
	}
	var open *domain.CircuitOpenError
	if errors.As(err, &open) {
		return true
	}
	var transport *domain.TransportError
	if errors.As(err, &transport) {
		return transport.Timeout || transport.ServerError()
	}
	return false
}

func (b *BackendIntegration) submit(ctx context.Context, captureID string, level2 domain.Level2Result, storageType domain.StorageType) (backend.SubmitResponse, error) {
	breaker := b.breakers.Get(backend.ServiceTimestamp)
	if err := breaker.CanExecute(); err != nil {
		return backend.SubmitResponse{}, err
	}

	resp, err := b.client.Submit(ctx, backend.SubmitRequest{
		CaptureID:     captureID,
		HashN1:        level2.HashN1,
		HashN2:        level2.HashN2,
		StorageType:   storageType,
		CorrelationID: uuid.NewString(),
	})
	if err != nil {
		breaker.RecordFailure()
		return backend.SubmitResponse{}, err
	}
	breaker.RecordSuccess()
	return resp, nil
}

func (b *BackendIntegration) connectPush(ctx context.Context, captureID string) <-chan push.CertificateReady {
	if b.push == nil {
		return nil
	}
	if err := b.push.Connect(ctx, captureID); err != nil {
		// Push is additive; polling carries the flow without it.
		b.log.Warnw("push channel unavailable, relying on polling",
			"capture_id", captureID, "error", err)
		return nil
	}
	return b.push.Events()
}

func (b *BackendIntegration) trackProgress(ctx context.Context, captureID string, progress *domain.CertificationProgress, cancelCh <-chan struct{}, events <-chan push.CertificateReady) domain.CertificationResult {
	submittedAt := b.now()
	backoffState := newPollBackoff(b.cfg.PollInterval, b.cfg.PollMaxInterval)
	timer := time.NewTimer(backoffState.Next())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return domain.CertificationResult{TimedOut: true, Error: ctx.Err().Error(), ErrorCode: CertFailCancelled}
		case <-cancelCh:
			return domain.CertificationResult{Error: domain.ErrPollingCancelled.Error(), ErrorCode: CertFailCancelled}
		case msg, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			// Early level-5 finalization only; levels 3-4 stay owned by
			// the status endpoint.
			if msg.PDFURL != "" {
				progress.PDFURL = msg.PDFURL
				advanceLevel(b.log, captureID, "level5", &progress.Level5, domain.LevelCompleted)
			}
			if allTerminal(*progress) {
				return domain.CertificationResult{}
			}
		case <-timer.C:
		}

		if cancelledNow(cancelCh) {
			// The cancel beat the timer; discard this scheduled poll.
			return domain.CertificationResult{Error: domain.ErrPollingCancelled.Error(), ErrorCode: CertFailCancelled}
		}

		status, err := b.pollOnce(ctx, captureID)
		if err != nil {
			b.log.Warnw("status poll failed", "capture_id", captureID, "error", err,
				"fallback_eligible", b.ShouldUseFallback(err))
		} else {
			transitioned := b.applyStatus(captureID, progress, status)
			if transitioned {
				// A state moved: the flow may be in a fast-moving final
				// stage, so tighten the cadence again.
				backoffState.Reset()
			}
			if allTerminal(*progress) || status.Status == "completed" || status.Status == "failed" {
				finalizeFromOverall(progress, status.Status)
				return domain.CertificationResult{}
			}
		}

		if timedOut, result := b.checkLevelTimeouts(captureID, progress, submittedAt); timedOut {
			return result
		}

		timer.Reset(backoffState.Next())
	}
}

func (b *BackendIntegration) pollOnce(ctx context.Context, captureID string) (backend.StatusResponse, error) {
	breaker := b.breakers.Get(backend.ServiceTimestamp)
	if err := breaker.CanExecute(); err != nil {
		return backend.StatusResponse{}, err
	}
	status, err := b.client.Status(ctx, captureID)
	if err != nil {
		breaker.RecordFailure()
		return backend.StatusResponse{}, err
	}
	breaker.RecordSuccess()
	return status, nil
}

// applyStatus merges one status response into the per-level view and
// reports whether any level advanced.
func (b *BackendIntegration) applyStatus(captureID string, progress *domain.CertificationProgress, status backend.StatusResponse) bool {
	transitioned := false

	if advanceLevel(b.log, captureID, "level3", &progress.Level3, mapLevelStatus(status.Levels.Level3.Status)) {
		transitioned = true
	}
	if ts := status.Levels.Level3.Timestamp; ts != "" {
		progress.Level3Timestamp = ts
	}

	chainBreaker := b.breakers.Get(backend.ServiceBlockchain)
	level4 := mapLevelStatus(status.Levels.Level4.Status)
	if advanceLevel(b.log, captureID, "level4", &progress.Level4, level4) {
		transitioned = true
		switch level4 {
		case domain.LevelCompleted:
			chainBreaker.RecordSuccess()
		case domain.LevelFailed:
			chainBreaker.RecordFailure()
		}
	}
	progress.Anchors = mergeAnchors(progress.Anchors, status.Levels.Level4)

	if advanceLevel(b.log, captureID, "level5", &progress.Level5, mapLevelStatus(status.Levels.Level5.Status)) {
		transitioned = true
	}
	if url := status.Levels.Level5.PDFURL; url != "" {
		progress.PDFURL = url
	}

	return transitioned
}

func (b *BackendIntegration) checkLevelTimeouts(captureID string, progress *domain.CertificationProgress, submittedAt time.Time) (bool, domain.CertificationResult) {
	elapsed := b.now().Sub(submittedAt)

	if elapsed >= b.cfg.Level4Timeout {
		b.markTimeout(captureID, "level4", progress)
		return true, domain.CertificationResult{TimedOut: true}
	}
	if elapsed >= b.cfg.Level3Timeout && !progress.Level3.Terminal() {
		b.markTimeout(captureID, "level3", progress)
		return true, domain.CertificationResult{TimedOut: true}
	}
	return false, domain.CertificationResult{}
}

// markTimeout abandons polling and freezes the last known status, marking
// still-open levels partial. No error is raised; timeout partiality is a
// normal outcome.
func (b *BackendIntegration) markTimeout(captureID, level string, progress *domain.CertificationProgress) {
	for _, l := range []*domain.LevelStatus{&progress.Level3, &progress.Level4, &progress.Level5} {
		if !l.Terminal() && *l != domain.LevelPending {
			*l = domain.LevelPartial
		}
	}
	logger.Critical(b.log, "certification level timed out",
		"capture_id", captureID, "level", level,
		"level3", progress.Level3, "level4", progress.Level4, "level5", progress.Level5)
}

func (b *BackendIntegration) armCancel() chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelCh = make(chan struct{})
	b.cancelled = false
	return b.cancelCh
}

// advanceLevel enforces monotonic per-level transitions: a regression is a
// data error, logged and discarded, and the most advanced status is kept.
func advanceLevel(log *zap.SugaredLogger, captureID, level string, current *domain.LevelStatus, next domain.LevelStatus) bool {
	if next.Rank() < 0 {
		return false
	}
	if next.Rank() < current.Rank() {
		log.Warnw("level status regression reported, keeping previous",
			"capture_id", captureID, "level", level, "current", *current, "reported", next)
		return false
	}
	if next == *current {
		return false
	}
	*current = next
	return true
}

func mapLevelStatus(s string) domain.LevelStatus {
	switch domain.LevelStatus(s) {
	case domain.LevelPending, domain.LevelProcessing, domain.LevelCompleted,
		domain.LevelFailed, domain.LevelSkipped, domain.LevelPartial:
		return domain.LevelStatus(s)
	case "":
		return domain.LevelPending
	default:
		return domain.LevelStatus("")
	}
}

func mergeAnchors(anchors []domain.ChainAnchor, level4 backend.LevelStatus) []domain.ChainAnchor {
	add := func(chain string, st *backend.ChainStatus) {
		if st == nil || st.TxHash == "" {
			return
		}
		for _, a := range anchors {
			if a.Chain == chain {
				return
			}
		}
		anchors = append(anchors, domain.ChainAnchor{
			Chain:       chain,
			TxHash:      st.TxHash,
			BlockNumber: st.BlockNumber,
		})
	}
	add("polygon", level4.Polygon)
	add("arbitrum", level4.Arbitrum)
	return anchors
}

func finalizeFromOverall(progress *domain.CertificationProgress, overall string) {
	if overall != "failed" {
		return
	}
	for _, l := range []*domain.LevelStatus{&progress.Level3, &progress.Level4, &progress.Level5} {
		if !l.Terminal() {
			*l = domain.LevelFailed
		}
	}
}

func allTerminal(p domain.CertificationProgress) bool {
	return p.Level3.Terminal() && p.Level4.Terminal() && p.Level5.Terminal()
}

func cancelledNow(cancelCh <-chan struct{}) bool {
	select {
	case <-cancelCh:
		return true
	default:
		return false
	}
}

func validateSubmission(level2 domain.Level2Result, storageType domain.StorageType) (code, msg string) {
	if !level2.Success {
		return CertFailLevel2Required, domain.ErrLevel2Failed.Error()
	}
	if !domain.ValidHashHex(level2.HashN1) {
		return CertFailInvalidHashN1, "Hash_N1 failed the 64-hex format check"
	}
	if !domain.ValidHashHex(level2.HashN2) {
		return CertFailInvalidHashN2, "Hash_N2 failed the 64-hex format check"
	}
	if !domain.ValidStorageType(storageType) {
		return CertFailInvalidStorage, fmt.Sprintf("unknown storage type %q", storageType)
	}
	return "", ""
}
