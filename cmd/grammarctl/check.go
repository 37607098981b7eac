package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Samuelzila/grammar-police/internal/bootstrap"
)

type checkOutput struct {
	Grammar    int    `json:"grammar"`
	Spelling   int    `json:"spelling"`
	Suppressed int    `json:"suppressed"`
	Report     string `json:"report,omitempty"`
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		url      string
		lang     string
		asJSON   bool
		rulesArg string
	)

	cmd := &cobra.Command{
		Use:   "check [text]",
		Short: "Print the correction report the bot would send for a text",
		Long: `Send a text to LanguageTool, triage the result and print the report.
Reads the text from standard input when no argument is given. The allow-list
is not consulted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			if url != "" {
				cfg.LanguageTool.BaseURL = url
			}
			if lang != "" {
				cfg.LanguageTool.Language = lang
			}
			if rulesArg != "" {
				cfg.Triage.RulesFile = rulesArg
			}

			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = strings.TrimRight(string(data), "\n")
			}

			ctx := cmd.Context()
			triager, err := bootstrap.NewTriager(ctx, cfg.Triage)
			if err != nil {
				return err
			}

			issues, err := bootstrap.NewAnalyzer(cfg.LanguageTool).Check(ctx, text)
			if err != nil {
				return err
			}

			result := triager.Triage(issues)
			report, ok := result.Report()

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(checkOutput{
					Grammar:    len(result.Grammar),
					Spelling:   len(result.Spelling),
					Suppressed: result.Suppressed,
					Report:     report,
				})
			}

			if !ok {
				fmt.Fprintln(out, "no issues to report")
				return nil
			}
			fmt.Fprintln(out, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "LanguageTool base URL (overrides LANGUAGETOOL_URL)")
	cmd.Flags().StringVarP(&lang, "language", "l", "", "Language code (overrides LANGUAGETOOL_LANGUAGE)")
	cmd.Flags().StringVarP(&rulesArg, "rules", "r", "", "Triage rules YAML file (overrides TRIAGE_RULES_FILE)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Print counts and report as JSON")

	return cmd
}
