package triage_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Samuelzila/grammar-police/internal/model"
	"github.com/Samuelzila/grammar-police/internal/triage"
)

var _ = Describe("Filter", func() {
	filter := triage.NewFilter()

	DescribeTable("suppression rules",
		func(issue model.Issue, suppressed bool) {
			Expect(filter.Suppress(issue)).To(Equal(suppressed))
		},
		Entry("keeps an ordinary lowercase word",
			spellingIssue("Je c'est que j'ai raison.", "c'est"), false),
		Entry("suppresses a capitalized word",
			spellingIssue("Je vis à Montréal.", "Montréal"), true),
		Entry("suppresses a capitalized word with an accent",
			spellingIssue("C'est Élodie qui parle", "Élodie"), true),
		Entry("suppresses a capitalized word followed by a period inside the span",
			spellingIssue("Bonjour Québec.", "Québec."), true),
		Entry("suppresses a double-quoted word",
			spellingIssue(`He said "allo" nicely`, "allo"), true),
		Entry("suppresses an italicized word",
			spellingIssue("un petit *brunch* ce matin", "brunch"), true),
		Entry("keeps a word with mismatched markers",
			spellingIssue(`un "brunch* ce matin`, "brunch"), false),
		Entry("keeps a word quoted only on one side",
			spellingIssue(`un "brunch ce matin`, "brunch"), false),
		Entry("does not look before the start of the context",
			spellingIssue(`allo" dit-il`, "allo"), false),
		Entry("does not look past the end of the context",
			spellingIssue(`il dit "allo`, "allo"), false),
		Entry("keeps an empty span",
			model.Issue{RuleIssueType: model.IssueTypeMisspelling, ContextText: "abc", ContextOffset: 1}, false),
	)

	It("strips exactly one trailing period from the candidate word", func() {
		Expect(triage.CandidateWord(spellingIssue("fin..", "fin.."))).To(Equal("fin."))
		Expect(triage.CandidateWord(spellingIssue("a.b", "a.b"))).To(Equal("a.b"))
	})

	It("keeps survivors in order", func() {
		issues := []model.Issue{
			spellingIssue("aa Bb cc", "aa"),
			spellingIssue("aa Bb cc", "Bb"),
			spellingIssue("aa Bb cc", "cc"),
		}

		kept := filter.Apply(issues)
		Expect(kept).To(HaveLen(2))
		Expect(kept[0].FlaggedText()).To(Equal("aa"))
		Expect(kept[1].FlaggedText()).To(Equal("cc"))
	})

	It("is idempotent", func() {
		issues := []model.Issue{
			spellingIssue(`"allo" toi`, "allo"),
			spellingIssue("Montréal est belle", "Montréal"),
			spellingIssue("je c'est", "c'est"),
			spellingIssue("un *brunch*", "brunch"),
			spellingIssue("un broche", "broche"),
		}

		once := filter.Apply(issues)
		Expect(filter.Apply(once)).To(Equal(once))
	})
})
