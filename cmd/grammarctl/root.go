package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Samuelzila/grammar-police/common/logger"
	"github.com/Samuelzila/grammar-police/core/config"
	"github.com/Samuelzila/grammar-police/internal/allowlist"
	"github.com/Samuelzila/grammar-police/internal/bootstrap"
)

// app carries what every subcommand needs. Tests swap loadConfig.
type app struct {
	loadConfig func() (config.Config, error)
}

func newApp() *app {
	return &app{
		loadConfig: func() (config.Config, error) {
			return config.Load(config.ServiceTypeCLI)
		},
	}
}

// setup loads configuration and sets up logging for the command.
func (a *app) setup(cmd *cobra.Command) (config.Config, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.Setup(cfg)
	}
	return cfg, nil
}

// openStore opens the configured allow-list. The returned func releases any
// connection it needed.
func (a *app) openStore(ctx context.Context, cfg config.Config) (*allowlist.Store, func(), error) {
	// the CLI never reads the queue
	cfg.Pipeline.Mode = config.PipelineModeInline

	res, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := bootstrap.NewAllowList(cfg.AllowList, res)
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	return store, res.Close, nil
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grammarctl",
		Short: "Operate the grammar police",
		Long: `grammarctl checks text the way the bot does and manages the allow-list
of senders whose messages are corrected.

Configuration comes from the same environment variables as the bot
(LANGUAGETOOL_URL, ALLOWLIST_BACKEND, ALLOWLIST_PATH, ...).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable structured logging")

	cmd.AddCommand(newCheckCmd(a))
	cmd.AddCommand(newAllowListCmd(a))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
