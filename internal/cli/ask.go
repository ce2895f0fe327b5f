package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) askCmd() *cobra.Command {
	var system string

	cmd := &cobra.Command{
		Use:     "ask <prompt>",
		Short:   "Send a single prompt and print the answer",
		Example: `gochain ask "Explain Go interfaces in two sentences"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd)
			if err != nil {
				return err
			}
			if system != "" {
				client.LLM.SetOption("system_prompt", system)
			}

			answer, err := client.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), answer)
			return err
		},
	}

	cmd.Flags().StringVar(&system, "system", "", "System instruction sent with the prompt")
	return cmd
}
