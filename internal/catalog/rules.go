package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

var liftPattern = regexp.MustCompile(`(?i)lift(?:ing)?\s*(\d+)\s*(lbs?|pounds|kg)`)

// builtinRules returns the compiled default rule set. Patterns are
// case-insensitive; word boundaries keep matches from bleeding into
// longer words.
func builtinRules() []Rule {
	return []Rule{
		// Gendered language
		{
			ID:         "R-G1",
			Category:   CategoryGenderedLanguage,
			Severity:   SeverityWarn,
			Pattern:    regexp.MustCompile(`(?i)\bmanpower\b`),
			Message:    "Gendered term for staffing capacity",
			Suggestion: Literal("workforce"),
		},
		{
			ID:         "R-G2",
			Category:   CategoryGenderedLanguage,
			Severity:   SeverityWarn,
			Pattern:    regexp.MustCompile(`(?i)\b(chairman|foreman|salesman)\b`),
			Message:    "Gendered job title",
			Suggestion: Generator(neutralTitle),
		},
		{
			ID:         "R-G3",
			Category:   CategoryGenderedLanguage,
			Severity:   SeverityInfo,
			Pattern:    regexp.MustCompile(`(?i)\b(rockstar|ninja|guru)\b`),
			Message:    "Coded language that skews applicant pools",
			Suggestion: Literal("skilled professional"),
		},
		{
			ID:         "R-G4",
			Category:   CategoryGenderedLanguage,
			Severity:   SeverityInfo,
			Pattern:    regexp.MustCompile(`(?i)\bhe(?:/| or )she\b`),
			Message:    "Binary pronoun construction",
			Suggestion: Literal("they"),
		},

		// Age bias
		{
			ID:         "R-A1",
			Category:   CategoryAgeBias,
			Severity:   SeverityWarn,
			Pattern:    regexp.MustCompile(`(?i)\bdigital native\b`),
			Message:    "Proxy for age; describe the actual skill instead",
			Suggestion: Literal("comfortable with everyday workplace software"),
		},
		{
			ID:         "R-A2",
			Category:   CategoryAgeBias,
			Severity:   SeverityBlock,
			Pattern:    regexp.MustCompile(`(?i)\byoung(?: and|,)? energetic\b`),
			Message:    "Direct age preference",
			Suggestion: Literal("motivated"),
		},
		{
			ID:         "R-A3",
			Category:   CategoryAgeBias,
			Severity:   SeverityWarn,
			Pattern:    regexp.MustCompile(`(?i)\brecent graduates? only\b`),
			Message:    "Excludes career changers and returners",
			Suggestion: Literal("early-career candidates welcome"),
		},

		// Jargon and boilerplate
		{
			ID:         "R-J1",
			Category:   CategoryJargon,
			Severity:   SeverityInfo,
			Pattern:    regexp.MustCompile(`(?i)\b(excellent communication|team player|self[- ]starter|strong work ethic|detail[- ]oriented)\b`),
			Message:    "Vague boilerplate; name the observable behavior",
			Suggestion: Literal("communicates clearly with mentors and closes the loop on tasks"),
		},
		{
			ID:         "R-J2",
			Category:   CategoryJargon,
			Severity:   SeverityInfo,
			Pattern:    regexp.MustCompile(`(?i)\bsynergy\b`),
			Message:    "Corporate jargon",
			Suggestion: Literal("collaboration"),
		},
		{
			ID:         "R-J3",
			Category:   CategoryJargon,
			Severity:   SeverityInfo,
			Pattern:    regexp.MustCompile(`(?i)\bhit the ground running\b`),
			Message:    "Idiom that translates poorly and implies no onboarding",
			Suggestion: Literal("begin contributing after structured onboarding"),
		},

		// Ableist language
		{
			ID:         "R-D1",
			Category:   CategoryAbleistLanguage,
			Severity:   SeverityBlock,
			Pattern:    regexp.MustCompile(`(?i)\bable[- ]bodied\b`),
			Message:    "Excludes candidates who can do the job with accommodation",
			Suggestion: Literal("able to perform the role's tasks with or without accommodation"),
		},
		{
			ID:         "R-D2",
			Category:   CategoryAbleistLanguage,
			Severity:   SeverityWarn,
			Pattern:    regexp.MustCompile(`(?i)\bmust be able to (?:stand|walk)\b`),
			Message:    "Method-specific requirement; describe the task, not the method",
			Suggestion: Literal("moves about the work area"),
		},
		{
			ID:         "R-D3",
			Category:   CategoryAbleistLanguage,
			Severity:   SeverityWarn,
			Pattern:    regexp.MustCompile(`(?i)\bsuffers? from\b`),
			Message:    "Deficit framing of disability",
			Suggestion: Literal("has"),
		},

		// Physical requirements phrased as methods
		{
			ID:         "R-P1",
			Category:   CategoryPhysicalReq,
			Severity:   SeverityWarn,
			Pattern:    regexp.MustCompile(`(?i)\bclimb(?:ing)?\b`),
			Message:    "Method-specific verb; use task-not-method phrasing",
			Suggestion: Literal("ascend"),
		},
		{
			ID:         "R-P2",
			Category:   CategoryPhysicalReq,
			Severity:   SeverityWarn,
			Pattern:    liftPattern,
			Message:    "Lifting requirement without safe-methods framing",
			Suggestion: Generator(liftSuggestion),
		},

		// Legal risk
		{
			ID:         "R-L1",
			Category:   CategoryLegalRisk,
			Severity:   SeverityBlock,
			Pattern:    regexp.MustCompile(`(?i)\bno felons\b`),
			Message:    "Blanket criminal-history exclusion carries legal risk",
			Suggestion: Literal("background reviews are conducted individually per policy"),
		},
		{
			ID:         "R-L2",
			Category:   CategoryLegalRisk,
			Severity:   SeverityBlock,
			Pattern:    regexp.MustCompile(`(?i)\bclean (?:criminal )?record\b`),
			Message:    "Blanket criminal-history exclusion carries legal risk",
			Suggestion: Literal("background reviews are conducted individually per policy"),
		},
	}
}

// neutralTitle maps a gendered job title to its neutral form
func neutralTitle(match string) string {
	switch {
	case strings.EqualFold(match, "chairman"):
		return "chairperson"
	case strings.EqualFold(match, "foreman"):
		return "supervisor"
	case strings.EqualFold(match, "salesman"):
		return "salesperson"
	default:
		return "staff member"
	}
}

// liftSuggestion rewrites "lift N lbs" style requirements into
// task-not-method phrasing, preserving the stated weight
func liftSuggestion(match string) string {
	sub := liftPattern.FindStringSubmatch(match)
	if len(sub) == 3 {
		return fmt.Sprintf("move materials up to %s %s using safe methods", sub[1], sub[2])
	}
	return "move materials using safe methods"
}
