package cli

import (
	"context"
	"net/url"

	"github.com/spf13/cobra"
)

// participantCommand is a command a participant runs from chat
type participantCommand struct {
	name  string
	short string
}

var participantCommands = []participantCommand{
	{"guard", "Join the guard queue, or become guard if the team is empty"},
	{"leave-guard", "Ask to leave the guard team at round end"},
	{"no-guard", "Stop being drafted as a guard"},
	{"leave-queue", "Leave the guard queue"},
}

func newParticipantCommandCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(participantCommands))
	for _, pc := range participantCommands {
		cmds = append(cmds, &cobra.Command{
			Use:   pc.name + " <identity>",
			Short: pc.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCommand(cmd.Context(), pc.name, map[string]string{"identity": args[0]})
			},
		})
	}
	return cmds
}

func newJoinTeamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join-team <identity> <role>",
		Short: "Ask whether a participant may switch team",
		Long: `Runs the team-change check the host performs before letting a
participant switch team. The result says whether the switch is allowed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), "join-team", map[string]string{"identity": args[0], "role": args[1]})
		},
	}
}

func runCommand(ctx context.Context, name string, req map[string]string) error {
	var result CommandResult
	if err := client.Post(ctx, "/api/v1/commands/"+name, req, &result); err != nil {
		return err
	}

	NewOutput(cfg.Output).Print(result)
	return nil
}

func newQueueCmd() *cobra.Command {
	var identity string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the guard queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/queue"
			if identity != "" {
				path += "?" + url.Values{"identity": {identity}}.Encode()
			}

			var result CommandResult
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&identity, "identity", "", "Show the queue as this participant sees it")

	return cmd
}

func newEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "event <map-start|round-start|round-end|warmup-end>",
		Short:     "Report a game lifecycle event",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"map-start", "round-start", "round-end", "warmup-end"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "round-end", "warmup-end":
				var result Report
				if err := client.Post(cmd.Context(), "/api/v1/events/"+args[0], nil, &result); err != nil {
					return err
				}
				NewOutput(cfg.Output).Print(result)
			default:
				if err := client.Post(cmd.Context(), "/api/v1/events/"+args[0], nil, nil); err != nil {
					return err
				}
				NewOutput(cfg.Output).PrintMessage("Reported " + args[0])
			}
			return nil
		},
	}
}
