package triage

import "github.com/Samuelzila/grammar-police/internal/model"

// DefaultToleratedMessage is the French typography advisory about the non-breaking
// space before a colon. Quebec usage does not require it.
const DefaultToleratedMessage = "Les deux-points sont précédés d’une espace insécable."

// Classifier splits engine output into grammar and spelling issues.
type Classifier struct {
	tolerated map[string]struct{}
}

// NewClassifier returns a classifier that drops grammar issues whose message is one of
// tolerated. With no arguments the built-in default list is used.
func NewClassifier(tolerated ...string) *Classifier {
	if len(tolerated) == 0 {
		tolerated = []string{DefaultToleratedMessage}
	}
	set := make(map[string]struct{}, len(tolerated))
	for _, msg := range tolerated {
		set[msg] = struct{}{}
	}
	return &Classifier{tolerated: set}
}

// Classify routes every issue to exactly one category, preserving engine order.
func (c *Classifier) Classify(issues []model.Issue) (grammar, spelling []model.Issue) {
	for _, issue := range issues {
		if issue.IsMisspelling() {
			issue.Category = model.CategorySpelling
			spelling = append(spelling, issue)
			continue
		}
		if c.isTolerated(issue) {
			continue
		}
		issue.Category = model.CategoryGrammar
		grammar = append(grammar, issue)
	}
	return grammar, spelling
}

func (c *Classifier) isTolerated(issue model.Issue) bool {
	_, ok := c.tolerated[issue.Message]
	return ok
}
