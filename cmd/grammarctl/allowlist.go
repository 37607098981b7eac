package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Samuelzila/grammar-police/internal/model"
)

func newAllowListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "allowlist",
		Aliases: []string{"al"},
		Short:   "Inspect and edit the senders whose messages are corrected",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <sender-id>...",
		Short: "Authorize senders, as grammar_enable does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			store, closeFn, err := a.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			for _, arg := range args {
				if err := store.Authorize(cmd.Context(), model.SenderID(arg)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "authorized %s\n", arg)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "has <sender-id>",
		Short: "Report whether a sender is authorized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			store, closeFn, err := a.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			ok, err := store.IsAuthorized(cmd.Context(), model.SenderID(args[0]))
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is authorized\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not authorized\n", args[0])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every authorized sender, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			store, closeFn, err := a.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			senders, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range senders {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	})

	return cmd
}
