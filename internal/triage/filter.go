package triage

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Samuelzila/grammar-police/internal/model"
)

// Filter drops spelling candidates that are most likely intentional: proper nouns and
// borrowed words the author already marked with quotes or asterisks.
// French guillemets are not considered since they are always padded with spaces.
type Filter struct{}

func NewFilter() Filter {
	return Filter{}
}

// Apply returns the surviving issues in their original order.
func (f Filter) Apply(issues []model.Issue) []model.Issue {
	var kept []model.Issue
	for _, issue := range issues {
		if f.Suppress(issue) {
			continue
		}
		kept = append(kept, issue)
	}
	return kept
}

// Suppress reports whether a single spelling candidate should be hidden.
func (f Filter) Suppress(issue model.Issue) bool {
	word := CandidateWord(issue)
	if looksLikeProperNoun(word) {
		return true
	}
	return isMarkedAsBorrowed(issue)
}

// CandidateWord is the flagged span with one trailing period removed.
func CandidateWord(issue model.Issue) string {
	return strings.TrimSuffix(issue.FlaggedText(), ".")
}

func looksLikeProperNoun(word string) bool {
	first, size := utf8.DecodeRuneInString(word)
	if size == 0 {
		return false
	}
	return unicode.IsUpper(first)
}

func isMarkedAsBorrowed(issue model.Issue) bool {
	before, hasBefore, after, hasAfter := issue.Neighbors()
	if !hasBefore || !hasAfter {
		return false
	}
	return (before == '"' && after == '"') || (before == '*' && after == '*')
}
