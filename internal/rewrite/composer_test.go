package rewrite

import (
	"testing"

	"github.com/inclusiveworks/inlint/internal/catalog"
	"github.com/inclusiveworks/inlint/internal/linter"
	"github.com/inclusiveworks/inlint/internal/logger"
)

func scan(t *testing.T, text string) linter.ScanResult {
	t.Helper()
	cat, err := catalog.Load(catalog.Options{}, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	return linter.New(cat, logger.Nop()).Scan(text)
}

// TestRewrite tests the rule-based rewrite composer
func TestRewrite(t *testing.T) {
	t.Run("NoFindings", func(t *testing.T) {
		text := "We welcome applicants from every background."
		if got := Rewrite(text, nil); got != text {
			t.Errorf("Rewrite without findings changed the text: %q", got)
		}
	})

	t.Run("SingleReplacement", func(t *testing.T) {
		text := "Able to climb ladders."
		result := scan(t, text)
		got := Rewrite(text, result.Findings)
		want := "Able to ascend ladders."
		if got != want {
			t.Errorf("Rewrite = %q, want %q", got, want)
		}
	})

	t.Run("GeneratedReplacement", func(t *testing.T) {
		text := "Must lift 50 lbs daily."
		result := scan(t, text)
		got := Rewrite(text, result.Findings)
		want := "Must move materials up to 50 lbs using safe methods daily."
		if got != want {
			t.Errorf("Rewrite = %q, want %q", got, want)
		}
	})

	t.Run("MultipleReplacementsRightToLeft", func(t *testing.T) {
		// Two findings where the first replacement is longer than its
		// span; right-to-left application keeps the second span valid.
		text := "climb up and climb down"
		result := scan(t, text)
		got := Rewrite(text, result.Findings)
		want := "ascend up and ascend down"
		if got != want {
			t.Errorf("Rewrite = %q, want %q", got, want)
		}
	})

	t.Run("InputUntouched", func(t *testing.T) {
		text := "no felons"
		result := scan(t, text)
		Rewrite(text, result.Findings)
		if result.Findings[0].MatchedText != "no felons" {
			t.Error("Rewrite mutated the findings")
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := "Young energetic chairman needed, synergy a plus, must lift 20 kg."
		result := scan(t, text)
		a := Rewrite(text, result.Findings)
		b := Rewrite(text, result.Findings)
		if a != b {
			t.Errorf("Rewrite is not deterministic: %q vs %q", a, b)
		}
	})
}

// TestSelectWinners tests overlap resolution between findings
func TestSelectWinners(t *testing.T) {
	t.Run("SeverityWins", func(t *testing.T) {
		findings := []linter.Finding{
			{RuleID: "R-1", Span: linter.Span{Start: 0, End: 10}, Severity: catalog.SeverityWarn, Suggestion: "warn"},
			{RuleID: "R-2", Span: linter.Span{Start: 5, End: 15}, Severity: catalog.SeverityBlock, Suggestion: "block"},
		}
		winners := selectWinners(findings)
		if len(winners) != 1 {
			t.Fatalf("Expected 1 winner, got %d", len(winners))
		}
		if winners[0].RuleID != "R-2" {
			t.Errorf("Winner is %s, want the BLOCK finding R-2", winners[0].RuleID)
		}
	})

	t.Run("LengthBreaksSeverityTie", func(t *testing.T) {
		findings := []linter.Finding{
			{RuleID: "R-1", Span: linter.Span{Start: 0, End: 5}, Severity: catalog.SeverityWarn},
			{RuleID: "R-2", Span: linter.Span{Start: 0, End: 12}, Severity: catalog.SeverityWarn},
		}
		winners := selectWinners(findings)
		if len(winners) != 1 || winners[0].RuleID != "R-2" {
			t.Errorf("Expected the longer match R-2 to win, got %+v", winners)
		}
	})

	t.Run("RuleIDBreaksFullTie", func(t *testing.T) {
		findings := []linter.Finding{
			{RuleID: "R-B", Span: linter.Span{Start: 0, End: 5}, Severity: catalog.SeverityWarn},
			{RuleID: "R-A", Span: linter.Span{Start: 0, End: 5}, Severity: catalog.SeverityWarn},
		}
		winners := selectWinners(findings)
		if len(winners) != 1 || winners[0].RuleID != "R-A" {
			t.Errorf("Expected lowest rule id R-A to win, got %+v", winners)
		}
	})

	t.Run("DisjointAllKept", func(t *testing.T) {
		findings := []linter.Finding{
			{RuleID: "R-1", Span: linter.Span{Start: 0, End: 5}, Severity: catalog.SeverityInfo},
			{RuleID: "R-2", Span: linter.Span{Start: 10, End: 15}, Severity: catalog.SeverityBlock},
		}
		if winners := selectWinners(findings); len(winners) != 2 {
			t.Errorf("Expected both disjoint findings kept, got %d", len(winners))
		}
	})

	t.Run("OverlapLoserStillReported", func(t *testing.T) {
		text := "placeholder text here"
		findings := []linter.Finding{
			{RuleID: "R-1", Span: linter.Span{Start: 0, End: 11}, Severity: catalog.SeverityBlock, Suggestion: "kept"},
			{RuleID: "R-2", Span: linter.Span{Start: 4, End: 16}, Severity: catalog.SeverityInfo, Suggestion: "dropped"},
		}
		got := Rewrite(text, findings)
		want := "kept text here"
		if got != want {
			t.Errorf("Rewrite = %q, want %q", got, want)
		}
		// The losing finding stays in the slice untouched.
		if len(findings) != 2 {
			t.Error("Rewrite removed findings from the input slice")
		}
	})
}
