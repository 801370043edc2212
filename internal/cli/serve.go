package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the widget embedding API over HTTP",
		Long:  `Start the HTTP API web pages use to embed the widget. The config file is watched and reloaded for new sessions.`,
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

			fmt.Fprintln(cmd.OutOrStdout(), "💬 Starting chatwidget API...")
			fmt.Fprintf(cmd.OutOrStdout(), "   Config: %s\n", flags.configPath)

			application := flags.newApp()
			defer application.Stop()

			if err := application.Serve(ctx); err != nil {
				return fmt.Errorf("failed to serve: %w", err)
			}
			return nil
		},
	}
}
