package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatwidget/internal/redact"
)

func newStatusCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show completion service status and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := flags.newApp()
			defer application.Stop()
			if err := application.Wait(cmd.Context()); err != nil {
				return err
			}

			cfg := application.Service().Config()
			st := application.Status()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "💬 chatwidget v%s\n\n", Version)

			fmt.Fprintln(out, "🧠 Completion service:")
			if st.Available {
				fmt.Fprintf(out, "  Status: 🟢 %s\n", st.Status)
			} else {
				fmt.Fprintf(out, "  Status: 🔴 %s\n", st.Status)
			}
			if st.InitFailure != "" {
				fmt.Fprintf(out, "  Init failure: %s\n", st.InitFailure)
			}
			fmt.Fprintf(out, "  Model: %s\n", cfg.OpenAI.Model)
			fmt.Fprintf(out, "  API Key: %s\n", maskToken(cfg.OpenAI.APIKey))
			if cfg.OpenAI.BaseURL != "" {
				fmt.Fprintf(out, "  Base URL: %s\n", cfg.OpenAI.BaseURL)
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, "🪟 Widget:")
			fmt.Fprintf(out, "  Name: %s\n", cfg.Chatbot.Name)
			fmt.Fprintf(out, "  History: %d messages\n", cfg.Chatbot.MaxHistoryLength)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "🌐 Embedding API:")
			fmt.Fprintf(out, "  Port: %d\n", cfg.Server.Port)
			fmt.Fprintf(out, "  API Key: %s\n", maskToken(cfg.Server.APIKey))
			fmt.Fprintf(out, "  Rate limit: %d messages/min per session\n", cfg.Server.RateLimit)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "💾 Transcripts:")
			if application.StorageEnabled() {
				fmt.Fprintf(out, "  Path: %s\n", cfg.Storage.Path)
			} else {
				fmt.Fprintln(out, "  Disabled")
			}
			return nil
		},
	}
}

func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	return redact.Mask(token)
}
