package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var requireBans bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			if requireBans && !result.BansAvailable {
				return errors.New("ban storage is not available")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&requireBans, "require-bans", false, "Fail when ban storage is unavailable")

	return cmd
}
