package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

type submitRequest struct {
	CaptureID     string `json:"captureId"`
	HashN1        string `json:"hashN1"`
	HashN2        string `json:"hashN2"`
	MerkleRoot    string `json:"merkleRoot,omitempty"`
	StorageType   string `json:"storageType"`
	CorrelationID string `json:"correlationId"`
}

type submitResponse struct {
	Success         bool   `json:"success"`
	CertificationID string `json:"certificationId"`
	Status          string `json:"status"`
}

type validateRequest struct {
	HashN1           string `json:"hashN1"`
	MerkleRoot       string `json:"merkleRoot"`
	LocalTimestamp   string `json:"localTimestamp"`
	CorrelationID    string `json:"correlationId"`
	ExtensionVersion string `json:"extensionVersion"`
}

type validateResponse struct {
	Success            bool   `json:"success"`
	ServerTimestamp    string `json:"serverTimestamp"`
	Signature          string `json:"signature"`
	SignatureAlgorithm string `json:"signatureAlgorithm"`
	CertificateID      string `json:"certificateId"`
	ReceivedHashN1     string `json:"receivedHashN1"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.rateLimiter == nil {
			c.Next()
			return
		}
		decision, err := s.rateLimiter.Allow(c.Request.Context(), c.ClientIP(), s.rateLimitRequests, s.rateLimitWindow)
		if err != nil {
			s.log.Warnw("rate limiter error, allowing request", "error", err)
			c.Next()
			return
		}
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
				Error: "rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
		return
	}
	if req.CaptureID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "captureId is required", Code: "BAD_REQUEST"})
		return
	}
	if !domain.ValidHashHex(req.HashN1) {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "hashN1 must be 64 hex characters", Code: "INVALID_HASH"})
		return
	}
	if !domain.ValidHashHex(req.HashN2) {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "hashN2 must be 64 hex characters", Code: "INVALID_HASH"})
		return
	}
	storage := domain.StorageType(req.StorageType)
	if !domain.ValidStorageType(storage) {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "unknown storage type", Code: "INVALID_STORAGE_TYPE"})
		return
	}

	// Re-submitting the same capture is idempotent: the original
	// certification keeps running and its id is returned again.
	if existing, err := s.store.Certifications.Get(c.Request.Context(), req.CaptureID); err == nil {
		c.JSON(http.StatusOK, submitResponse{
			Success:         true,
			CertificationID: existing.CertificationID,
			Status:          s.progression(existing).overall,
		})
		return
	} else if !errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure", Code: "STORAGE"})
		return
	}

	rec := domain.CertificationRecord{
		CaptureID:       req.CaptureID,
		CertificationID: uuid.NewString(),
		HashN1:          domain.NormalizeHash(req.HashN1),
		HashN2:          domain.NormalizeHash(req.HashN2),
		MerkleRoot:      domain.NormalizeHash(req.MerkleRoot),
		StorageType:     storage,
		CorrelationID:   req.CorrelationID,
		SubmittedAt:     s.now(),
	}
	if err := s.store.Certifications.Create(c.Request.Context(), rec); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure", Code: "STORAGE"})
		return
	}

	s.log.Infow("certification submitted",
		"capture_id", rec.CaptureID,
		"certification_id", rec.CertificationID,
		"storage_type", rec.StorageType)

	c.JSON(http.StatusOK, submitResponse{
		Success:         true,
		CertificationID: rec.CertificationID,
		Status:          "processing",
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	captureID := c.Param("captureId")
	rec, err := s.store.Certifications.Get(c.Request.Context(), captureID)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown capture", Code: "NOT_FOUND"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure", Code: "STORAGE"})
		return
	}
	c.JSON(http.StatusOK, s.progression(rec).response())
}

func (s *Server) handleValidate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
		return
	}
	if !domain.ValidHashHex(req.HashN1) {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "hashN1 must be 64 hex characters", Code: "INVALID_HASH"})
		return
	}

	hashN1 := domain.NormalizeHash(req.HashN1)
	ts := s.now().UTC().Format(time.RFC3339Nano)

	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(hashN1))
	mac.Write([]byte(ts))
	signature := hex.EncodeToString(mac.Sum(nil))

	c.JSON(http.StatusOK, validateResponse{
		Success:            true,
		ServerTimestamp:    ts,
		Signature:          signature,
		SignatureAlgorithm: "HMAC-SHA256",
		CertificateID:      uuid.NewString(),
		ReceivedHashN1:     hashN1,
	})
}
