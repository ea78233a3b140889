package cli

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func newAdminCmds() []*cobra.Command {
	return []*cobra.Command{
		newBanCmd(),
		newUnbanCmd(),
		newTargetCmd("ban-info <target>", "Show a participant's active ban", http.MethodGet, "/api/v1/bans/%s"),
		newTargetCmd("ban-history <target>", "Show every ban a participant has received", http.MethodGet, "/api/v1/bans/%s/history"),
		newTargetCmd("promote <target>", "Move a participant onto the guard team", http.MethodPost, "/api/v1/guards/%s/promote"),
		newKickCmd(),
		newTargetCmd("dequeue <target>", "Remove a participant from the guard queue", http.MethodDelete, "/api/v1/queue/%s"),
		newLegitCmd(),
	}
}

func newBanCmd() *cobra.Command {
	var minutes int
	var reason string

	cmd := &cobra.Command{
		Use:   "ban <target>",
		Short: "Ban a participant from the guard team",
		Long: `Ban a participant from the guard team. The target may be an identity,
a #handle, or part of a name. Offline participants can be banned by numeric
identity. A duration of 0 minutes is permanent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"target":  args[0],
				"minutes": minutes,
				"reason":  reason,
			}

			var result CommandResult
			if err := client.Post(cmd.Context(), "/api/v1/bans", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&minutes, "minutes", 0, "Ban length in minutes, 0 for permanent")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the ban")

	return cmd
}

func newUnbanCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "unban <target>",
		Short: "Lift a participant's active ban",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if reason != "" {
				body = map[string]string{"reason": reason}
			}

			var result CommandResult
			if err := client.Delete(cmd.Context(), "/api/v1/bans/"+url.PathEscape(args[0]), body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the unban")

	return cmd
}

func newKickCmd() *cobra.Command {
	var rounds int

	cmd := &cobra.Command{
		Use:   "kick <target>",
		Short: "Remove a guard and bar them from guarding for some rounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if rounds != 0 {
				body = map[string]int{"rounds": rounds}
			}

			var result CommandResult
			if err := client.Post(cmd.Context(), "/api/v1/guards/"+url.PathEscape(args[0])+"/kick", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 0, "Rounds the kick lasts (server default when 0)")

	return cmd
}

func newLegitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "legit",
		Short: "List guards who reached the team legitimately",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CommandResult
			if err := client.Get(cmd.Context(), "/api/v1/guards/legitimate", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

// newTargetCmd builds a command that acts on one target with no other input
func newTargetCmd(use, short, method, pathFormat string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CommandResult
			if err := client.Do(cmd.Context(), method, fmt.Sprintf(pathFormat, url.PathEscape(args[0])), nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
