// Package export serializes a lint result to downloadable report formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inclusiveworks/inlint/internal/pipeline"
	"github.com/segmentio/parquet-go"
)

// Format represents supported export formats
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatParquet  Format = "parquet"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, Format("md"):
		return FormatMarkdown, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// ContentType returns the MIME type to serve the format with
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// findingRow is the flat per-finding record used by the tabular formats
type findingRow struct {
	RuleID     string `csv:"rule_id" parquet:"rule_id" json:"rule_id"`
	Category   string `csv:"category" parquet:"category" json:"category"`
	Severity   string `csv:"severity" parquet:"severity" json:"severity"`
	Start      int32  `csv:"start" parquet:"start" json:"start"`
	End        int32  `csv:"end" parquet:"end" json:"end"`
	Matched    string `csv:"matched_text" parquet:"matched_text" json:"matched_text"`
	Message    string `csv:"message" parquet:"message" json:"message"`
	Suggestion string `csv:"suggestion" parquet:"suggestion" json:"suggestion"`
}

// Write serializes result to w in the requested format
func Write(w io.Writer, format Format, result *pipeline.Result) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, result)
	case FormatJSON:
		return writeJSON(w, result)
	case FormatMarkdown:
		return writeMarkdown(w, result)
	case FormatParquet:
		return writeParquet(w, result)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func rows(result *pipeline.Result) []findingRow {
	out := make([]findingRow, len(result.Findings))
	for i, f := range result.Findings {
		out[i] = findingRow{
			RuleID:     f.RuleID,
			Category:   string(f.Category),
			Severity:   f.Severity.String(),
			Start:      int32(f.Span.Start),
			End:        int32(f.Span.End),
			Matched:    f.MatchedText,
			Message:    f.Message,
			Suggestion: f.Suggestion,
		}
	}
	return out
}

func writeCSV(w io.Writer, result *pipeline.Result) error {
	writer := csv.NewWriter(w)

	header := []string{"rule_id", "category", "severity", "start", "end", "matched_text", "message", "suggestion"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows(result) {
		record := []string{
			row.RuleID,
			row.Category,
			row.Severity,
			strconv.Itoa(int(row.Start)),
			strconv.Itoa(int(row.End)),
			row.Matched,
			row.Message,
			row.Suggestion,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeJSON(w io.Writer, result *pipeline.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}

func writeMarkdown(w io.Writer, result *pipeline.Result) error {
	var b strings.Builder

	b.WriteString("# Accessibility Lint Report\n\n")
	fmt.Fprintf(&b, "Findings: %d\n\n", len(result.Findings))

	if result.Notice != "" {
		fmt.Fprintf(&b, "> %s\n\n", result.Notice)
	}

	if len(result.Findings) > 0 {
		b.WriteString("| Rule | Category | Severity | Matched | Suggestion |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, f := range result.Findings {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				f.RuleID, f.Category, f.Severity,
				escapeMarkdownCell(f.MatchedText),
				escapeMarkdownCell(f.Suggestion))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Rewritten Text\n\n")
	b.WriteString(result.RewrittenText)
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("failed to write Markdown report: %w", err)
	}
	return nil
}

func writeParquet(w io.Writer, result *pipeline.Result) error {
	writer := parquet.NewWriter(w, parquet.SchemaOf(findingRow{}))

	for _, row := range rows(result) {
		if err := writer.Write(&row); err != nil {
			return fmt.Errorf("failed to write Parquet row: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize Parquet file: %w", err)
	}
	return nil
}

// escapeMarkdownCell keeps pipe characters from breaking table rows
func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
