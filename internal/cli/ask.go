package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"chatwidget/internal/sanitize"
	"chatwidget/internal/tui"
)

func newAskCommand(flags *globalFlags) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask one question and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := flags.redirectLogs(false)
			if err != nil {
				return err
			}
			defer logs.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			application := flags.newApp()
			defer application.Stop()
			if err := application.Wait(ctx); err != nil {
				return err
			}

			question := sanitize.Input(strings.Join(args, " "))
			reply, err := application.NewController("cli-ask").SendMessage(ctx, question)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			// Markdown only goes to terminals so piped output stays plain.
			if !raw && term.IsTerminal(int(os.Stdout.Fd())) {
				fmt.Fprintln(cmd.OutOrStdout(), tui.NewRenderer(80).Render(reply.Content))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the reply without markdown rendering")

	return cmd
}
