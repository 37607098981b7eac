package triage

import "github.com/Samuelzila/grammar-police/internal/model"

// Triager runs classification, filtering and formatting as one step.
type Triager struct {
	classifier *Classifier
	filter     Filter
}

func New(rules Rules) *Triager {
	return &Triager{
		classifier: NewClassifier(rules.ToleratedMessages...),
		filter:     NewFilter(),
	}
}

// Result is the outcome of triaging one engine response.
type Result struct {
	Grammar  []model.Issue
	Spelling []model.Issue
	// Suppressed counts spelling candidates removed by the filter.
	Suppressed int
}

func (t *Triager) Triage(issues []model.Issue) Result {
	grammar, candidates := t.classifier.Classify(issues)
	spelling := t.filter.Apply(candidates)
	return Result{
		Grammar:    grammar,
		Spelling:   spelling,
		Suppressed: len(candidates) - len(spelling),
	}
}

func (r Result) Report() (string, bool) {
	return Format(r.Grammar, r.Spelling)
}
