package model

type Category string

const (
	CategoryGrammar  Category = "grammar"
	CategorySpelling Category = "spelling"
)

// IssueTypeMisspelling is the rule issue type LanguageTool uses for unknown words.
const IssueTypeMisspelling = "misspelling"

// Issue is one candidate problem reported by the analysis engine for a span of text.
// ContextOffset and ContextLength are counted in characters of ContextText.
type Issue struct {
	Category      Category `json:"category,omitempty"`
	RuleIssueType string   `json:"rule_issue_type"`
	Message       string   `json:"message,omitempty"`
	ContextText   string   `json:"context_text"`
	ContextOffset int      `json:"context_offset"`
	ContextLength int      `json:"context_length"`
	Replacements  []string `json:"replacements"`
}

func (i Issue) IsMisspelling() bool {
	return i.RuleIssueType == IssueTypeMisspelling
}

// FlaggedText returns the exact span of ContextText the issue points at.
// Out-of-range spans are clamped, so the result is empty rather than a panic.
func (i Issue) FlaggedText() string {
	runes := []rune(i.ContextText)
	start := min(max(i.ContextOffset, 0), len(runes))
	end := min(max(start+i.ContextLength, start), len(runes))
	return string(runes[start:end])
}

// Neighbors returns the characters immediately before and after the flagged span.
// The boolean results are false when the span touches the start or end of the context.
func (i Issue) Neighbors() (before rune, hasBefore bool, after rune, hasAfter bool) {
	runes := []rune(i.ContextText)
	if i.ContextOffset > 0 && i.ContextOffset-1 < len(runes) {
		before, hasBefore = runes[i.ContextOffset-1], true
	}
	end := i.ContextOffset + i.ContextLength
	if end >= 0 && end < len(runes) {
		after, hasAfter = runes[end], true
	}
	return before, hasBefore, after, hasAfter
}
