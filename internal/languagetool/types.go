package languagetool

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf16"

	"github.com/Samuelzila/grammar-police/internal/model"
)

var (
	errMissing = errors.New("missing")
	errRange   = errors.New("out of range")
)

// checkResponse mirrors the subset of /v2/check we rely on. Pointers distinguish an
// absent field from a zero value.
type checkResponse struct {
	Matches *[]checkMatch `json:"matches"`
}

type checkMatch struct {
	Message      *string        `json:"message"`
	Replacements *[]replacement `json:"replacements"`
	Context      *matchContext  `json:"context"`
	Rule         *matchRule     `json:"rule"`
}

type replacement struct {
	Value *string `json:"value"`
}

type matchContext struct {
	Text   *string `json:"text"`
	Offset *int    `json:"offset"`
	Length *int    `json:"length"`
}

type matchRule struct {
	ID        string  `json:"id"`
	IssueType *string `json:"issueType"`
}

// ParseCheckResponse decodes a /v2/check body into issues, in engine order.
func ParseCheckResponse(body []byte) ([]model.Issue, error) {
	var resp checkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ResponseParseError{Err: err}
	}
	if resp.Matches == nil {
		return nil, &ResponseParseError{Field: "matches", Err: errMissing}
	}

	issues := make([]model.Issue, 0, len(*resp.Matches))
	for i, m := range *resp.Matches {
		issue, err := m.toIssue(fmt.Sprintf("matches[%d]", i))
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

func (m checkMatch) toIssue(path string) (model.Issue, error) {
	missing := func(field string) error {
		return &ResponseParseError{Field: path + "." + field, Err: errMissing}
	}

	if m.Rule == nil || m.Rule.IssueType == nil {
		return model.Issue{}, missing("rule.issueType")
	}
	if m.Context == nil {
		return model.Issue{}, missing("context")
	}
	if m.Context.Text == nil {
		return model.Issue{}, missing("context.text")
	}
	if m.Context.Offset == nil {
		return model.Issue{}, missing("context.offset")
	}
	if m.Context.Length == nil {
		return model.Issue{}, missing("context.length")
	}
	if m.Replacements == nil {
		return model.Issue{}, missing("replacements")
	}

	offset, length, ok := runeSpan(*m.Context.Text, *m.Context.Offset, *m.Context.Length)
	if !ok {
		return model.Issue{}, &ResponseParseError{
			Field: path + ".context",
			Err:   fmt.Errorf("%w: offset %d length %d", errRange, *m.Context.Offset, *m.Context.Length),
		}
	}

	values := make([]string, 0, len(*m.Replacements))
	for j, r := range *m.Replacements {
		if r.Value == nil {
			return model.Issue{}, missing(fmt.Sprintf("replacements[%d].value", j))
		}
		values = append(values, *r.Value)
	}

	var message string
	if m.Message != nil {
		message = *m.Message
	}

	return model.Issue{
		RuleIssueType: *m.Rule.IssueType,
		Message:       message,
		ContextText:   *m.Context.Text,
		ContextOffset: offset,
		ContextLength: length,
		Replacements:  values,
	}, nil
}

// runeSpan converts a span counted in UTF-16 code units, which is how LanguageTool
// reports offsets, into a span counted in runes of text. Both ends must fall on a
// character boundary inside text.
func runeSpan(text string, offset, length int) (start, n int, ok bool) {
	if offset < 0 || length < 0 {
		return 0, 0, false
	}
	end := offset + length

	start, stop := -1, -1
	units, i := 0, 0
	for _, r := range text {
		if units == offset {
			start = i
		}
		if units == end {
			stop = i
		}
		units += utf16.RuneLen(r)
		i++
	}
	if units == offset {
		start = i
	}
	if units == end {
		stop = i
	}

	if start < 0 || stop < 0 {
		return 0, 0, false
	}
	return start, stop - start, true
}
