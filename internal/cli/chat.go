package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"chatwidget/internal/chat"
	"chatwidget/internal/tui"
)

func newChatCommand(flags *globalFlags) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run the chat widget in the terminal",
		Long: `Show the widget launcher in the terminal. ctrl+o opens the chat, ctrl+f toggles
fullscreen, F1-F4 send the quick actions and esc closes the widget.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := flags.redirectLogs(true)
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
			application.Initialize(ctx)

			alt := tui.NewAltScreen()
			ctl := application.NewController(uuid.NewString(), chat.WithNativeFullscreen(alt))

			return tui.Run(ctx, ctl, tui.Options{
				Ready:     application.Service().Done(),
				AltScreen: alt,
				StartOpen: open,
			})
		},
	}

	cmd.Flags().BoolVarP(&open, "open", "o", false, "Open the widget immediately")

	return cmd
}
