package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newParticipantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "participants",
		Aliases: []string{"p"},
		Short:   "Mirror the host's participant roster",
	}

	cmd.AddCommand(newParticipantsListCmd())
	cmd.AddCommand(newParticipantsConnectCmd())
	cmd.AddCommand(newParticipantsDisconnectCmd())
	cmd.AddCommand(newParticipantsRoleCmd())

	return cmd
}

func newParticipantsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List connected participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Participant
			if err := client.Get(cmd.Context(), "/api/v1/participants", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newParticipantsConnectCmd() *cobra.Command {
	var handle int
	var name, role string

	cmd := &cobra.Command{
		Use:   "connect <identity>",
		Short: "Register a participant that joined the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"identity": args[0],
				"handle":   handle,
				"name":     name,
			}
			if role != "" {
				req["role"] = role
			}

			var result Participant
			if err := client.Post(cmd.Context(), "/api/v1/participants", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&handle, "handle", 0, "Session handle assigned by the host")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", "", "Current role: none, free, guard, spectator")

	return cmd
}

func newParticipantsDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <identity>",
		Short: "Report that a participant left",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), "/api/v1/participants/"+url.PathEscape(args[0]), nil, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage(fmt.Sprintf("Disconnected %s", args[0]))
			return nil
		},
	}
}

func newParticipantsRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role <identity> <role>",
		Short: "Report a participant's role change",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"role": args[1]}
			if err := client.Put(cmd.Context(), "/api/v1/participants/"+url.PathEscape(args[0])+"/role", req, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage(fmt.Sprintf("%s is now %s", args[0], args[1]))
			return nil
		},
	}
}
