package history

import (
	"encoding/json"
	"time"
)

// ScanRecord is one persisted scan summary. Findings are stored as a JSON
// document; the counters exist so the dashboard can aggregate without
// unmarshalling.
type ScanRecord struct {
	ID           int64           `db:"id" json:"id"`
	TextHash     string          `db:"text_hash" json:"text_hash"`
	FindingCount int             `db:"finding_count" json:"finding_count"`
	BlockCount   int             `db:"block_count" json:"block_count"`
	WarnCount    int             `db:"warn_count" json:"warn_count"`
	InfoCount    int             `db:"info_count" json:"info_count"`
	UsedLLM      bool            `db:"used_llm" json:"used_llm"`
	Findings     json.RawMessage `db:"findings" json:"findings"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Stats aggregates the stored history
type Stats struct {
	TotalScans    int64   `db:"total_scans" json:"total_scans"`
	TotalFindings int64   `db:"total_findings" json:"total_findings"`
	LLMScans      int64   `db:"llm_scans" json:"llm_scans"`
	AvgFindings   float64 `db:"avg_findings" json:"avg_findings"`
}
