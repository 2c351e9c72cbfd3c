package domain

// LevelStatus is the per-level progress state for levels 3-5.
type LevelStatus string

const (
	LevelPending    LevelStatus = "pending"
	LevelProcessing LevelStatus = "processing"
	LevelCompleted  LevelStatus = "completed"
	LevelFailed     LevelStatus = "failed"
	LevelSkipped    LevelStatus = "skipped"
	LevelPartial    LevelStatus = "partial"
)

// Rank orders statuses by how far along a level is. Used to enforce
// monotonic progress: a reported regression keeps the most advanced
// status already seen.
func (s LevelStatus) Rank() int {
	switch s {
	case LevelPending:
		return 0
	case LevelProcessing:
		return 1
	case LevelPartial:
		return 2
	case LevelSkipped:
		return 3
	case LevelFailed:
		return 4
	case LevelCompleted:
		return 5
	default:
		return -1
	}
}

// Terminal reports whether a level can no longer change.
func (s LevelStatus) Terminal() bool {
	return s == LevelCompleted || s == LevelFailed || s == LevelSkipped
}

// StorageType selects the retention plan requested at submission.
type StorageType string

const (
	StorageStandard     StorageType = "standard"
	StoragePremium5Yrs  StorageType = "premium_5y"
	StoragePremium10Yrs StorageType = "premium_10y"
	StoragePremium20Yrs StorageType = "premium_20y"
)

func ValidStorageType(s StorageType) bool {
	switch s {
	case StorageStandard, StoragePremium5Yrs, StoragePremium10Yrs, StoragePremium20Yrs:
		return true
	}
	return false
}

// ChainAnchor is one blockchain transaction reference produced by level 4.
type ChainAnchor struct {
	Chain       string `json:"chain"`
	TxHash      string `json:"tx_hash"`
	BlockNumber int64  `json:"block_number"`
}

// CertificationProgress is the per-level view of an in-flight flow.
type CertificationProgress struct {
	Level3 LevelStatus `json:"level3"`
	Level4 LevelStatus `json:"level4"`
	Level5 LevelStatus `json:"level5"`

	Level3Timestamp string        `json:"level3_timestamp,omitempty"`
	Anchors         []ChainAnchor `json:"anchors,omitempty"`
	PDFURL          string        `json:"pdf_url,omitempty"`
}

// CertificationResult is the outcome of levels 3-5 for one capture.
type CertificationResult struct {
	Success         bool                  `json:"success"`
	CaptureID       string                `json:"capture_id"`
	CertificationID string                `json:"certification_id,omitempty"`
	StorageType     StorageType           `json:"storage_type"`
	Progress        CertificationProgress `json:"progress"`
	IsPartial       bool                  `json:"is_partial"`
	TimedOut        bool                  `json:"timed_out,omitempty"`
	Error           string                `json:"error,omitempty"`
	ErrorCode       string                `json:"error_code,omitempty"`
}

// Partial reports whether the flow produced a usable chain while at least
// one non-terminal level did not fully succeed.
func (p CertificationProgress) Partial() bool {
	levels := [...]LevelStatus{p.Level3, p.Level4, p.Level5}
	anyCompleted := false
	anyDegraded := false
	for _, l := range levels {
		switch l {
		case LevelCompleted:
			anyCompleted = true
		case LevelFailed, LevelPartial:
			anyDegraded = true
		}
	}
	return anyCompleted && anyDegraded
}

// Completed reports whether every level reached completed.
func (p CertificationProgress) Completed() bool {
	return p.Level3 == LevelCompleted && p.Level4 == LevelCompleted && p.Level5 == LevelCompleted
}
