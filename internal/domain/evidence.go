package domain

import (
	"errors"
	"strings"
)

const HashHexLen = 64

// EvidenceComponent is one captured artifact (screenshot, DOM snapshot,
// interaction log, ...) identified by its SHA-256 hash. Immutable once
// produced by the capture pipeline.
type EvidenceComponent struct {
	Name      string `json:"name"`
	Hash      string `json:"hash"`
	Type      string `json:"type"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// MerkleTreeInput is what the capture pipeline hands to the local
// certification levels.
type MerkleTreeInput struct {
	Components          []EvidenceComponent `json:"components"`
	PISAChainHash       string              `json:"pisa_chain_hash"`
	EnvironmentMetadata map[string]any      `json:"environment_metadata"`
}

var (
	ErrEmptyComponents    = errors.New("components are required")
	ErrInvalidHash        = errors.New("hash must be 64 hex characters")
	ErrMissingMetadata    = errors.New("environment metadata is required")
	ErrInvalidChainHash   = errors.New("pisa chain hash must be 64 hex characters")
	ErrMissingComponentID = errors.New("component name is required")
)

// ValidHashHex reports whether s is a SHA-256 digest in hex,
// case-insensitive.
func ValidHashHex(s string) bool {
	if len(s) != HashHexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if c >= 'a' && c <= 'f' {
			continue
		}
		if c >= 'A' && c <= 'F' {
			continue
		}
		return false
	}
	return true
}

// NormalizeHash lowercases a hex digest. Inputs may arrive upper or
// mixed-case; everything is stored and compared lowercase.
func NormalizeHash(s string) string {
	return strings.ToLower(s)
}

// Validate checks the input invariants before any hashing happens.
func (in MerkleTreeInput) Validate() error {
	if len(in.Components) == 0 {
		return ErrEmptyComponents
	}
	for _, c := range in.Components {
		if strings.TrimSpace(c.Name) == "" {
			return ErrMissingComponentID
		}
		if !ValidHashHex(c.Hash) {
			return ErrInvalidHash
		}
	}
	if !ValidHashHex(in.PISAChainHash) {
		return ErrInvalidChainHash
	}
	if in.EnvironmentMetadata == nil {
		return ErrMissingMetadata
	}
	return nil
}
