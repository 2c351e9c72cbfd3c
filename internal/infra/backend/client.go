// Package backend is the HTTP client for certification levels 3-5:
// durable submission and status polling against the certification backend.
// Retries are not performed here; resilience policy lives with the caller.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

const (
	ServiceTimestamp  = "icp-brasil-timestamp"
	ServiceBlockchain = "blockchain-anchor"
)

const maxResponseBytes = 1 << 20

type SubmitRequest struct {
	CaptureID     string             `json:"captureId"`
	HashN1        string             `json:"hashN1"`
	HashN2        string             `json:"hashN2"`
	MerkleRoot    string             `json:"merkleRoot,omitempty"`
	StorageType   domain.StorageType `json:"storageType"`
	CorrelationID string             `json:"correlationId"`
}

type SubmitResponse struct {
	Success         bool   `json:"success"`
	CertificationID string `json:"certificationId"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
}

type ChainStatus struct {
	TxHash      string `json:"txHash"`
	BlockNumber int64  `json:"blockNumber"`
}

type LevelStatus struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp,omitempty"`
	Polygon   *ChainStatus `json:"polygon,omitempty"`
	Arbitrum  *ChainStatus `json:"arbitrum,omitempty"`
	PDFURL    string       `json:"pdfUrl,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
	Levels struct {
		Level3 LevelStatus `json:"level3"`
		Level4 LevelStatus `json:"level4"`
		Level5 LevelStatus `json:"level5"`
	} `json:"levels"`
}

// Client talks to one backend base URL.
type Client struct {
	baseURL string
	httpDo  func(*http.Request) (*http.Response, error)
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, domain.ErrBackendURL
	}
	doer := http.DefaultClient.Do
	if httpClient != nil {
		doer = httpClient.Do
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpDo: doer}, nil
}

// Submit posts the capture for certification. A transport failure or
// non-2xx is returned as a typed *domain.TransportError.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	var out SubmitResponse
	err := c.postJSON(ctx, ServiceTimestamp, c.baseURL+"/certification/submit", req, &out)
	if err != nil {
		return SubmitResponse{}, err
	}
	return out, nil
}

// Status fetches the per-level progress for a capture.
func (c *Client) Status(ctx context.Context, captureID string) (StatusResponse, error) {
	url := c.baseURL + "/certification/status/" + captureID
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatusResponse{}, err
	}

	var out StatusResponse
	if err := c.do(httpReq, ServiceTimestamp, &out); err != nil {
		return StatusResponse{}, err
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, service, url string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq, service, out)
}

func (c *Client) do(req *http.Request, service string, out any) error {
	resp, err := c.httpDo(req)
	if err != nil {
		return &domain.TransportError{
			Service: service,
			Timeout: req.Context().Err() != nil || isTimeout(err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &domain.TransportError{Service: service, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.TransportError{Service: service, StatusCode: resp.StatusCode}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.TransportError{Service: service, Err: err}
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
