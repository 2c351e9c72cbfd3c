package http

import (
	"fmt"
	"time"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/crypto"
)

// levelView mirrors the status wire shape for one level.
type levelView struct {
	Status    string     `json:"status"`
	Timestamp string     `json:"timestamp,omitempty"`
	Polygon   *chainView `json:"polygon,omitempty"`
	Arbitrum  *chainView `json:"arbitrum,omitempty"`
	PDFURL    string     `json:"pdfUrl,omitempty"`
}

type chainView struct {
	TxHash      string `json:"txHash"`
	BlockNumber int64  `json:"blockNumber"`
}

type statusView struct {
	overall string
	level3  levelView
	level4  levelView
	level5  levelView
}

func (v statusView) response() map[string]any {
	return map[string]any{
		"status": v.overall,
		"levels": map[string]any{
			"level3": v.level3,
			"level4": v.level4,
			"level5": v.level5,
		},
	}
}

// progression derives the per-level status of a record from the elapsed
// time since submission: the temporal stamp completes after one level
// duration, dual-chain anchoring after two, the PDF render after three.
// Being a pure function of (record, clock) it needs no background worker
// and replays identically for every poll.
func (s *Server) progression(rec domain.CertificationRecord) statusView {
	elapsed := s.now().Sub(rec.SubmittedAt)
	d := s.levelDuration
	if d <= 0 {
		d = 2 * time.Second
	}

	view := statusView{overall: "processing"}

	switch {
	case elapsed >= d:
		view.level3 = levelView{
			Status:    string(domain.LevelCompleted),
			Timestamp: rec.SubmittedAt.Add(d).UTC().Format(time.RFC3339Nano),
		}
	default:
		view.level3 = levelView{Status: string(domain.LevelProcessing)}
	}

	switch {
	case elapsed >= 2*d:
		view.level4 = levelView{
			Status:   string(domain.LevelCompleted),
			Polygon:  anchorFor(rec, "polygon"),
			Arbitrum: anchorFor(rec, "arbitrum"),
		}
	case elapsed >= d:
		view.level4 = levelView{Status: string(domain.LevelProcessing)}
	default:
		view.level4 = levelView{Status: string(domain.LevelPending)}
	}

	switch {
	case elapsed >= 3*d:
		view.level5 = levelView{
			Status: string(domain.LevelCompleted),
			PDFURL: pdfURLFor(rec),
		}
		view.overall = "completed"
	case elapsed >= 2*d:
		view.level5 = levelView{Status: string(domain.LevelProcessing)}
	default:
		view.level5 = levelView{Status: string(domain.LevelPending)}
	}

	return view
}

// anchorFor derives a stable per-chain transaction reference from hashN2,
// so repeated polls and restarts report the same anchors.
func anchorFor(rec domain.CertificationRecord, chain string) *chainView {
	tx := crypto.ChainHash(chain, rec.HashN2)
	block := int64(0)
	for i := 0; i < 6; i++ {
		block = block<<8 | int64(tx[i])
	}
	return &chainView{
		TxHash:      "0x" + tx,
		BlockNumber: block % 100_000_000,
	}
}

func pdfURLFor(rec domain.CertificationRecord) string {
	return fmt.Sprintf("https://certificates.lexato.com.br/%s/%s.pdf", rec.CertificationID, rec.CaptureID)
}
