package catalog

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Category classifies what kind of exclusionary language a rule detects
type Category string

const (
	CategoryGenderedLanguage Category = "GENDERED_LANGUAGE"
	CategoryAgeBias          Category = "AGE_BIAS"
	CategoryJargon           Category = "JARGON"
	CategoryAbleistLanguage  Category = "ABLEIST_LANGUAGE"
	CategoryLegalRisk        Category = "LEGAL_RISK"
	CategoryPhysicalReq      Category = "PHYSICAL_REQUIREMENT"
)

// Categories lists every known category
func Categories() []Category {
	return []Category{
		CategoryGenderedLanguage,
		CategoryAgeBias,
		CategoryJargon,
		CategoryAbleistLanguage,
		CategoryLegalRisk,
		CategoryPhysicalReq,
	}
}

// ParseCategory validates a category name
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %s", s)
}

// Severity ranks how serious a finding is. The ordering matters:
// BLOCK > WARN > INFO.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityBlock
)

// String returns the wire name of the severity
func (s Severity) String() string {
	switch s {
	case SeverityBlock:
		return "BLOCK"
	case SeverityWarn:
		return "WARN"
	default:
		return "INFO"
	}
}

// MarshalJSON serializes the severity as its wire name
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a severity from its wire name
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity validates a severity name
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "INFO":
		return SeverityInfo, nil
	case "WARN":
		return SeverityWarn, nil
	case "BLOCK":
		return SeverityBlock, nil
	default:
		return 0, fmt.Errorf("unknown severity: %s", s)
	}
}

// Suggestion produces replacement text for a matched span. It is either a
// fixed literal or a generator computed from the matched text; the rewrite
// composer resolves both the same way.
type Suggestion interface {
	Resolve(match string) string
}

// Literal is a fixed replacement string
type Literal string

// Resolve returns the literal replacement regardless of the match
func (l Literal) Resolve(string) string { return string(l) }

// Generator computes a replacement from the matched text
type Generator func(match string) string

// Resolve invokes the generator with the matched text
func (g Generator) Resolve(match string) string { return g(match) }

// Rule is a single immutable detection rule
type Rule struct {
	ID         string
	Category   Category
	Severity   Severity
	Pattern    *regexp.Regexp
	Message    string
	Suggestion Suggestion
}

// CatalogError reports a malformed rule definition. It is fatal at load
// time; a catalog that loaded successfully cannot raise it later.
type CatalogError struct {
	RuleID string
	Reason string
	Err    error
}

func (e *CatalogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog: rule %s: %s: %v", e.RuleID, e.Reason, e.Err)
	}
	return fmt.Sprintf("catalog: rule %s: %s", e.RuleID, e.Reason)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// fileRule is the JSON shape of an externally supplied rule, matching the
// linter_rules file format
type fileRule struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Severity      string `json:"severity"`
	Pattern       string `json:"pattern"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
	Message       string `json:"message"`
	Suggestion    string `json:"suggestion"`
}
