// Package capture is the collaborator-side entry: it turns raw evidence
// bytes into the hashed components the certification protocol consumes.
package capture

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

// HashComponent hashes one captured artifact into an EvidenceComponent.
func HashComponent(name, componentType string, data []byte) domain.EvidenceComponent {
	sum := sha256.Sum256(data)
	return domain.EvidenceComponent{
		Name:      name,
		Hash:      hex.EncodeToString(sum[:]),
		Type:      componentType,
		SizeBytes: int64(len(data)),
	}
}

// Manifest is the file format the CLI reads: the capture pipeline's output
// ready for certification.
type Manifest struct {
	CaptureID           string                     `json:"capture_id"`
	Components          []domain.EvidenceComponent `json:"components"`
	PISAChainHash       string                     `json:"pisa_chain_hash"`
	EnvironmentMetadata map[string]any             `json:"environment_metadata"`
}

// Input converts the manifest into the protocol input.
func (m Manifest) Input() domain.MerkleTreeInput {
	return domain.MerkleTreeInput{
		Components:          m.Components,
		PISAChainHash:       m.PISAChainHash,
		EnvironmentMetadata: m.EnvironmentMetadata,
	}
}
