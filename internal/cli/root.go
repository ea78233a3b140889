package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "tectl",
		Short: "Operator CLI for the team enforcer daemon",
		Long: `tectl drives the team enforcer HTTP API.

It mirrors host events into the daemon, runs participant commands on a
player's behalf, issues operator commands such as bans and forced
promotions, and tails the notice stream the daemon sends to the host.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL, cfg.Token, cfg.Staff)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: TECTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Operator token (env: TECTL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: TECTL_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVar(&cfg.Staff, "staff", cfg.Staff, "Identity recorded as the acting operator (env: TECTL_STAFF)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newParticipantsCmd())
	rootCmd.AddCommand(newEventCmd())
	rootCmd.AddCommand(newParticipantCommandCmds()...)
	rootCmd.AddCommand(newQueueCmd())
	rootCmd.AddCommand(newJoinTeamCmd())
	rootCmd.AddCommand(newAdminCmds()...)
	rootCmd.AddCommand(newStreamCmd())
	rootCmd.AddCommand(newHashTokenCmd())

	return rootCmd
}

// Execute runs the root command. Ctrl+C cancels the request in flight.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
