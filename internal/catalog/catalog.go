package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/inclusiveworks/inlint/internal/logger"
	"go.uber.org/zap"
)

// Catalog is an immutable set of detection rules. It is constructed once by
// Load and is safe for concurrent readers.
type Catalog struct {
	rules   []Rule
	byID    map[string]Rule
	version string
}

// Options controls catalog construction
type Options struct {
	// RulesFile optionally points at a JSON file with extra rules
	// appended to the built-in set.
	RulesFile string

	// Categories restricts the loaded rules. Empty or "all" keeps
	// everything.
	Categories []string
}

// Load builds the catalog from the built-in rules plus any external rules
// file. It is deterministic for a fixed definition and fails with a
// *CatalogError only when the definition itself is malformed.
func Load(opts Options, log *logger.Logger) (*Catalog, error) {
	rules := builtinRules()

	if opts.RulesFile != "" {
		extra, err := loadRulesFile(opts.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = append(rules, extra...)
	}

	rules, err := filterCategories(rules, opts.Categories)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Rule, len(rules))
	for _, rule := range rules {
		if _, dup := byID[rule.ID]; dup {
			return nil, &CatalogError{RuleID: rule.ID, Reason: "duplicate id"}
		}
		byID[rule.ID] = rule
	}

	cat := &Catalog{
		rules:   rules,
		byID:    byID,
		version: computeVersion(rules),
	}

	log.Info("Rule catalog loaded",
		zap.Int("rules", len(rules)),
		zap.String("version", cat.version),
		zap.String("rules_file", opts.RulesFile),
	)

	return cat, nil
}

// Rules returns the rules in a stable order
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Rule looks up a rule by id
func (c *Catalog) Rule(id string) (Rule, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Len returns the number of loaded rules
func (c *Catalog) Len() int { return len(c.rules) }

// Version is a content hash of the loaded rule set. Two catalogs with the
// same rules share a version, which makes it usable as a cache key component.
func (c *Catalog) Version() string { return c.version }

// loadRulesFile reads and compiles rules from a JSON definition file
func loadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogError{Reason: fmt.Sprintf("read rules file %s", path), Err: err}
	}

	var fileRules []fileRule
	if err := json.Unmarshal(data, &fileRules); err != nil {
		return nil, &CatalogError{Reason: fmt.Sprintf("parse rules file %s", path), Err: err}
	}

	rules := make([]Rule, 0, len(fileRules))
	for _, fr := range fileRules {
		rule, err := compileFileRule(fr)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// compileFileRule validates and compiles a single external rule
func compileFileRule(fr fileRule) (Rule, error) {
	if fr.ID == "" {
		return Rule{}, &CatalogError{Reason: "missing rule id"}
	}

	category, err := ParseCategory(fr.Category)
	if err != nil {
		return Rule{}, &CatalogError{RuleID: fr.ID, Reason: "invalid category", Err: err}
	}

	severity, err := ParseSeverity(fr.Severity)
	if err != nil {
		return Rule{}, &CatalogError{RuleID: fr.ID, Reason: "invalid severity", Err: err}
	}

	expr := fr.Pattern
	if !fr.CaseSensitive {
		expr = "(?i)" + expr
	}
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return Rule{}, &CatalogError{RuleID: fr.ID, Reason: "invalid pattern", Err: err}
	}

	return Rule{
		ID:         fr.ID,
		Category:   category,
		Severity:   severity,
		Pattern:    pattern,
		Message:    fr.Message,
		Suggestion: Literal(fr.Suggestion),
	}, nil
}

// filterCategories keeps only rules in the enabled categories. The list
// follows the config convention: empty or "all" enables everything.
func filterCategories(rules []Rule, categories []string) ([]Rule, error) {
	if len(categories) == 0 {
		return rules, nil
	}

	enabled := make(map[Category]bool, len(categories))
	for _, name := range categories {
		if name == "all" {
			return rules, nil
		}
		category, err := ParseCategory(name)
		if err != nil {
			return nil, &CatalogError{Reason: "invalid category filter", Err: err}
		}
		enabled[category] = true
	}

	filtered := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if enabled[rule.Category] {
			filtered = append(filtered, rule)
		}
	}
	return filtered, nil
}

// computeVersion hashes rule ids, patterns and severities into a short
// content version
func computeVersion(rules []Rule) string {
	lines := make([]string, len(rules))
	for i, rule := range rules {
		lines[i] = fmt.Sprintf("%s|%s|%s|%s", rule.ID, rule.Category, rule.Severity, rule.Pattern.String())
	}
	sort.Strings(lines)

	hasher := sha256.New()
	for _, line := range lines {
		hasher.Write([]byte(line))
		hasher.Write([]byte{'\n'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}
