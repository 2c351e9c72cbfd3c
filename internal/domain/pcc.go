package domain

// Level1Result carries the full provenance of the local Merkle level.
// Created once by PCCLocal and returned by value; never mutated after
// construction.
type Level1Result struct {
	Success             bool           `json:"success"`
	HashN1              string         `json:"hash_n1"`
	MerkleRoot          string         `json:"merkle_root"`
	LeafHashes          []string       `json:"leaf_hashes"`
	ComponentCount      int            `json:"component_count"`
	Timestamp           string         `json:"timestamp"`
	PISAChainHash       string         `json:"pisa_chain_hash"`
	EnvironmentMetadata map[string]any `json:"environment_metadata"`
	ProcessingTimeMs    int64          `json:"processing_time_ms"`
	Error               string         `json:"error,omitempty"`
	ErrorCode           string         `json:"error_code,omitempty"`
}

// Level2Result is the signed acknowledgment level: hashN2 chains hashN1
// with the validation service's timestamp and signature.
type Level2Result struct {
	Success           bool   `json:"success"`
	HashN2            string `json:"hash_n2"`
	HashN1            string `json:"hash_n1"`
	ServerTimestamp   string `json:"server_timestamp"`
	ServerSignature   string `json:"server_signature"`
	SignatureVerified bool   `json:"signature_verified"`
	CertificateID     string `json:"certificate_id"`
	ProcessingTimeMs  int64  `json:"processing_time_ms"`
	Error             string `json:"error,omitempty"`
	ErrorCode         string `json:"error_code,omitempty"`
}

// LocalResult is the composite of levels 1 and 2. On failure every field
// is present and zero-valued so callers always branch on one shape.
type LocalResult struct {
	Success   bool         `json:"success"`
	FinalHash string       `json:"final_hash"`
	Level1    Level1Result `json:"level1"`
	Level2    Level2Result `json:"level2"`
	Error     string       `json:"error,omitempty"`
	ErrorCode string       `json:"error_code,omitempty"`
}
