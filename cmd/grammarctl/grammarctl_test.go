package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Samuelzila/grammar-police/core/config"
)

const checkResponse = `{
  "matches": [
    {
      "message": "Faute de frappe possible trouvée.",
      "replacements": [{"value": "sais"}],
      "context": {"text": "Je c'est que j'ai raison.", "offset": 3, "length": 5},
      "rule": {"id": "FR_SPELLING_RULE", "issueType": "misspelling"}
    }
  ]
}`

var _ = Describe("grammarctl", func() {
	var (
		a        *app
		cfg      config.Config
		server   *httptest.Server
		response string
		out      *bytes.Buffer
	)

	run := func(stdin string, args ...string) error {
		cmd := newRootCmd(a)
		out = &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		response = checkResponse
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(response))
		}))
		DeferCleanup(server.Close)

		cfg = config.Config{
			Env: "test",
			LanguageTool: config.LanguageToolConfig{
				BaseURL:  server.URL,
				Language: "fr-CA",
			},
			AllowList: config.AllowListConfig{
				Backend: config.AllowListBackendFile,
				Path:    filepath.Join(GinkgoT().TempDir(), "authorized_users"),
			},
			Pipeline: config.PipelineConfig{Mode: config.PipelineModeInline},
		}
		a = &app{loadConfig: func() (config.Config, error) { return cfg, nil }}
	})

	Describe("check", func() {
		It("prints the report for the text argument", func() {
			Expect(run("", "check", "Je c'est que j'ai raison.")).To(Succeed())

			Expect(out.String()).To(HavePrefix("Halte-là !"))
			Expect(out.String()).To(ContainSubstring("Le mot « c'est » n'est pas reconnu."))
			Expect(out.String()).To(ContainSubstring("- « sais »"))
		})

		It("reads the text from stdin", func() {
			Expect(run("Je c'est que j'ai raison.\n", "check")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("c'est"))
		})

		It("says so when nothing is reported", func() {
			response = `{"matches": []}`

			Expect(run("", "check", "Bonjour.")).To(Succeed())
			Expect(out.String()).To(Equal("no issues to report\n"))
		})

		It("prints counts as JSON", func() {
			Expect(run("", "check", "--json", "Je c'est que j'ai raison.")).To(Succeed())

			var got checkOutput
			Expect(json.Unmarshal(out.Bytes(), &got)).To(Succeed())
			Expect(got.Spelling).To(Equal(1))
			Expect(got.Grammar).To(Equal(0))
			Expect(got.Report).To(ContainSubstring("Halte-là !"))
		})

		It("fails when the engine does", func() {
			response = `not json`

			Expect(run("", "check", "x")).To(HaveOccurred())
		})
	})

	Describe("allowlist", func() {
		It("adds, checks and lists senders", func() {
			Expect(run("", "allowlist", "add", "111", "222")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("authorized 222"))

			Expect(run("", "allowlist", "has", "111")).To(Succeed())
			Expect(out.String()).To(Equal("111 is authorized\n"))

			Expect(run("", "allowlist", "has", "333")).To(Succeed())
			Expect(out.String()).To(Equal("333 is not authorized\n"))

			Expect(run("", "allowlist", "list")).To(Succeed())
			Expect(out.String()).To(Equal("111\n222\n"))

			data, err := os.ReadFile(cfg.AllowList.Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(MatchJSON(`[111, 222]`))
		})

		It("requires a sender for add", func() {
			Expect(run("", "allowlist", "add")).To(HaveOccurred())
		})

		It("reports a malformed allow-list", func() {
			Expect(os.WriteFile(cfg.AllowList.Path, []byte("{oops"), 0o600)).To(Succeed())

			Expect(run("", "allowlist", "has", "111")).To(HaveOccurred())
		})
	})

	It("prints the version", func() {
		Expect(run("", "version")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("grammarctl version"))
	})
})
