package linter

import (
	"sort"
	"sync/atomic"

	"github.com/inclusiveworks/inlint/internal/catalog"
	"github.com/inclusiveworks/inlint/internal/logger"
	"go.uber.org/zap"
)

// Engine scans input text against a rule catalog. Scanning is pure: the same
// text against the same catalog always yields the same result. The catalog
// can be swapped atomically (rules-file reload) without pausing scans.
type Engine struct {
	catalog atomic.Pointer[catalog.Catalog]
	logger  *logger.Logger
}

// New creates a linter engine bound to a catalog
func New(cat *catalog.Catalog, log *logger.Logger) *Engine {
	e := &Engine{logger: log}
	e.catalog.Store(cat)
	return e
}

// Catalog returns the catalog currently in use
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog.Load()
}

// SetCatalog swaps in a new catalog. In-flight scans finish against the
// catalog they started with.
func (e *Engine) SetCatalog(cat *catalog.Catalog) {
	e.catalog.Store(cat)
	e.logger.Info("Linter catalog swapped",
		zap.Int("rules", cat.Len()),
		zap.String("version", cat.Version()),
	)
}

// Scan finds every rule match in text. The empty string is valid input and
// yields zero findings. Findings come back sorted by span start ascending;
// ties are broken by severity descending so the most serious finding at a
// position is reported first.
func (e *Engine) Scan(text string) ScanResult {
	cat := e.catalog.Load()

	findings := make([]Finding, 0)
	for _, rule := range cat.Rules() {
		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			matched := text[loc[0]:loc[1]]
			findings = append(findings, Finding{
				RuleID:      rule.ID,
				Span:        Span{Start: loc[0], End: loc[1]},
				MatchedText: matched,
				Category:    rule.Category,
				Severity:    rule.Severity,
				Message:     rule.Message,
				Suggestion:  rule.Suggestion.Resolve(matched),
			})
		}
	}

	sortFindings(findings)

	if len(findings) > 0 {
		e.logger.Debug("Scan completed",
			zap.Int("findings", len(findings)),
			zap.Int("text_bytes", len(text)),
		)
	}

	return ScanResult{
		SourceText:    text,
		Findings:      findings,
		RewrittenText: text,
	}
}

// sortFindings orders findings by span start ascending, then severity
// descending, then longest match, then rule id. The trailing keys keep the
// order fully deterministic.
func sortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Span.Len() != b.Span.Len() {
			return a.Span.Len() > b.Span.Len()
		}
		return a.RuleID < b.RuleID
	})
}
