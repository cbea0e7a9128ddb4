// Package rewrite produces the rule-based rewritten copy of a scanned text.
// It is the always-available local path; the optional network rewrite builds
// on top of its output as a fallback.
package rewrite

import (
	"sort"

	"github.com/inclusiveworks/inlint/internal/linter"
)

// Rewrite applies each finding's suggestion to text. Substitutions run
// right-to-left over the original offsets so earlier spans stay valid.
// When findings overlap, only one substitution is applied per span group:
// highest severity wins, then longest match, then lowest rule id. Every
// finding stays reported; losing findings just don't alter the text.
// The output depends only on text and findings.
func Rewrite(text string, findings []linter.Finding) string {
	if len(findings) == 0 {
		return text
	}

	winners := selectWinners(findings)

	// Right-to-left keeps the remaining offsets untouched.
	sort.Slice(winners, func(i, j int) bool {
		return winners[i].Span.Start > winners[j].Span.Start
	})

	out := text
	for _, f := range winners {
		out = out[:f.Span.Start] + f.Suggestion + out[f.Span.End:]
	}

	return out
}

// selectWinners picks at most one finding per overlapping span group.
// Candidates are ranked by severity descending, then match length
// descending, then rule id ascending; a candidate is kept only if it does
// not overlap an already-kept span.
func selectWinners(findings []linter.Finding) []linter.Finding {
	ranked := make([]linter.Finding, len(findings))
	copy(ranked, findings)

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Span.Len() != b.Span.Len() {
			return a.Span.Len() > b.Span.Len()
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Span.Start < b.Span.Start
	})

	var winners []linter.Finding
	for _, candidate := range ranked {
		overlaps := false
		for _, kept := range winners {
			if candidate.Span.Overlaps(kept.Span) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			winners = append(winners, candidate)
		}
	}

	return winners
}
