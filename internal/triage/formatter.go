package triage

import (
	"fmt"
	"strings"

	"github.com/Samuelzila/grammar-police/internal/model"
)

// MaxSuggestions caps the replacements shown per issue.
const MaxSuggestions = 3

const (
	reportHeader      = "Halte-là !\n\n"
	suggestionsHeader = "Voici des corrections possibles:\n"
	reportSignOff     = "\nComme toujours, c'est un plaisir d'assurer la sécurité de la langue."
)

// Format renders the correction report. ok is false when there is nothing to report,
// in which case no message must be sent.
func Format(grammar, spelling []model.Issue) (report string, ok bool) {
	if len(grammar) == 0 && len(spelling) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString(reportHeader)

	for _, issue := range grammar {
		fmt.Fprintf(&b, "« %s ». %s\n", issue.ContextText, issue.Message)
		writeSuggestions(&b, issue.Replacements)
	}

	for _, issue := range spelling {
		fmt.Fprintf(&b, "Le mot « %s » n'est pas reconnu.\n", issue.FlaggedText())
		writeSuggestions(&b, issue.Replacements)
	}

	b.WriteString(reportSignOff)
	return b.String(), true
}

func writeSuggestions(b *strings.Builder, replacements []string) {
	if len(replacements) == 0 {
		return
	}
	b.WriteString(suggestionsHeader)
	for _, value := range replacements[:min(MaxSuggestions, len(replacements))] {
		fmt.Fprintf(b, "- « %s »\n", value)
	}
}
