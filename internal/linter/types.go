package linter

import "github.com/inclusiveworks/inlint/internal/catalog"

// Span marks a half-open [Start,End) byte range in the source text
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether two spans share at least one byte
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Len returns the span width in bytes
func (s Span) Len() int { return s.End - s.Start }

// Finding is a single detected issue, tied to one rule. Findings are
// read-only once created and owned by their ScanResult.
type Finding struct {
	RuleID      string           `json:"rule_id"`
	Span        Span             `json:"span"`
	MatchedText string           `json:"matched_text"`
	Category    catalog.Category `json:"category"`
	Severity    catalog.Severity `json:"severity"`
	Message     string           `json:"message"`
	Suggestion  string           `json:"suggestion"`
}

// ScanResult holds everything produced for one input text. Each invocation
// gets its own instance; nothing is shared across scans.
type ScanResult struct {
	SourceText    string    `json:"source_text"`
	Findings      []Finding `json:"findings"`
	RewrittenText string    `json:"rewritten_text"`
}
