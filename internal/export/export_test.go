package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/inclusiveworks/inlint/internal/catalog"
	"github.com/inclusiveworks/inlint/internal/linter"
	"github.com/inclusiveworks/inlint/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	result := &pipeline.Result{}
	result.SourceText = "Able to climb | ladders, no felons."
	result.RewrittenText = "Able to ascend ladders; background reviews are conducted individually per policy."
	result.Findings = []linter.Finding{
		{
			RuleID:      "R-P1",
			Span:        linter.Span{Start: 8, End: 13},
			MatchedText: "climb",
			Category:    catalog.CategoryPhysicalReq,
			Severity:    catalog.SeverityWarn,
			Message:     "Method-specific verb; use task-not-method phrasing",
			Suggestion:  "ascend",
		},
		{
			RuleID:      "R-L1",
			Span:        linter.Span{Start: 25, End: 34},
			MatchedText: "no felons",
			Category:    catalog.CategoryLegalRisk,
			Severity:    catalog.SeverityBlock,
			Message:     "Blanket criminal-history exclusion carries legal risk",
			Suggestion:  "background reviews are conducted individually per policy",
		},
	}
	return result
}

// TestParseFormat tests format name validation
func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"csv":      FormatCSV,
		"CSV":      FormatCSV,
		"json":     FormatJSON,
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		"parquet":  FormatParquet,
	}
	for name, want := range cases {
		got, err := ParseFormat(name)
		if err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", name, got, want)
		}
	}

	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

// TestWrite tests report serialization per format
func TestWrite(t *testing.T) {
	result := sampleResult()

	t.Run("CSV", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatCSV, result); err != nil {
			t.Fatalf("CSV export failed: %v", err)
		}

		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("Export is not valid CSV: %v", err)
		}
		if len(records) != 3 { // header + 2 findings
			t.Fatalf("Expected 3 CSV records, got %d", len(records))
		}
		if records[0][0] != "rule_id" {
			t.Errorf("CSV header starts with %q", records[0][0])
		}
		if records[2][2] != "BLOCK" {
			t.Errorf("Second finding severity column = %q, want BLOCK", records[2][2])
		}
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatJSON, result); err != nil {
			t.Fatalf("JSON export failed: %v", err)
		}

		var decoded pipeline.Result
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("Export is not valid JSON: %v", err)
		}
		if decoded.RewrittenText != result.RewrittenText {
			t.Errorf("Rewritten text lost: %q", decoded.RewrittenText)
		}
		if len(decoded.Findings) != 2 {
			t.Errorf("Findings lost: %d", len(decoded.Findings))
		}
		if decoded.Findings[1].Severity != catalog.SeverityBlock {
			t.Errorf("Severity decoded as %s", decoded.Findings[1].Severity)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatMarkdown, result); err != nil {
			t.Fatalf("Markdown export failed: %v", err)
		}

		report := buf.String()
		for _, want := range []string{"# Accessibility Lint Report", "## Rewritten Text", "R-P1", "R-L1", result.RewrittenText} {
			if !strings.Contains(report, want) {
				t.Errorf("Markdown report missing %q", want)
			}
		}
	})

	t.Run("MarkdownEscapesPipes", func(t *testing.T) {
		piped := sampleResult()
		piped.Findings[0].MatchedText = "climb | ladders"

		var buf bytes.Buffer
		if err := Write(&buf, FormatMarkdown, piped); err != nil {
			t.Fatalf("Markdown export failed: %v", err)
		}
		if !strings.Contains(buf.String(), `climb \| ladders`) {
			t.Error("Pipe in matched text not escaped in table cell")
		}
	})

	t.Run("Parquet", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatParquet, result); err != nil {
			t.Fatalf("Parquet export failed: %v", err)
		}
		// PAR1 magic bytes frame every parquet file.
		data := buf.Bytes()
		if len(data) < 8 || string(data[:4]) != "PAR1" || string(data[len(data)-4:]) != "PAR1" {
			t.Error("Export does not look like a parquet file")
		}
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, Format("xlsx"), result); err == nil {
			t.Error("Expected error for unsupported format")
		}
	})
}

// TestContentType tests HTTP metadata per format
func TestContentType(t *testing.T) {
	if got := FormatJSON.ContentType(); got != "application/json" {
		t.Errorf("JSON content type = %q", got)
	}
	if got := FormatMarkdown.Extension(); got != "md" {
		t.Errorf("Markdown extension = %q", got)
	}
	if got := FormatCSV.Extension(); got != "csv" {
		t.Errorf("CSV extension = %q", got)
	}
}
