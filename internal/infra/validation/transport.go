// Package validation talks to the Level-2 validation service: it exchanges
// hashN1 for a signed, timestamped acknowledgment.
package validation

import "context"

// Request is the Level-2 exchange payload.
type Request struct {
	HashN1           string `json:"hashN1"`
	MerkleRoot       string `json:"merkleRoot"`
	LocalTimestamp   string `json:"localTimestamp"`
	CorrelationID    string `json:"correlationId"`
	ExtensionVersion string `json:"extensionVersion"`
}

// Response is the signed acknowledgment returned by the service.
type Response struct {
	Success            bool   `json:"success"`
	ServerTimestamp    string `json:"serverTimestamp"`
	Signature          string `json:"signature"`
	SignatureAlgorithm string `json:"signatureAlgorithm"`
	CertificateID      string `json:"certificateId"`
	ReceivedHashN1     string `json:"receivedHashN1"`
	Error              string `json:"error,omitempty"`
}

// Transport is the pluggable exchange. Production uses HTTPTransport; dev
// and tests may use SimulatedTransport, selected by configuration only.
type Transport interface {
	Validate(ctx context.Context, req Request) (Response, error)
}
