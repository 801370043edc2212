package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chatwidget/internal/app"
	"chatwidget/internal/config"
	"chatwidget/internal/logger"
)

// Version is the release reported by `chatwidget version`.
const Version = "0.1.0"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFile    string
	// explicitConfig is set when --config was given.
	explicitConfig bool
}

func (f *globalFlags) newApp() *app.App {
	return app.New(f.configPath, app.WithLogLevel(f.logLevel))
}

// redirectLogs sends log output to the --log-file, or discards it when
// quiet is set and no file is given.
func (f *globalFlags) redirectLogs(quiet bool) (io.Closer, error) {
	if f.logFile == "" {
		if quiet {
			logger.SetOutput(io.Discard)
		}
		return io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(f.logFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(file)
	return file, nil
}

// NewRootCommand builds the chatwidget command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "chatwidget",
		Short: "chatwidget - embeddable AI chat assistant",
		Long: `💬 chatwidget - embeddable AI chat assistant

Answers visitor questions through an OpenAI-compatible completion service and
falls back to canned replies when the service is unavailable. Runs as a
terminal widget or as an HTTP API for embedding in web pages.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			flags.explicitConfig = cmd.Flags().Changed("config")
			if !flags.explicitConfig {
				flags.configPath = config.Locate()
			}
			if flags.logLevel != "" {
				logger.SetLevel(flags.logLevel)
			}
		},
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultPath, "Path to the configuration file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides logLevel")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "Write logs to this file")

	root.AddCommand(newChatCommand(flags))
	root.AddCommand(newServeCommand(flags))
	root.AddCommand(newAskCommand(flags))
	root.AddCommand(newConfigCommand(flags))
	root.AddCommand(newStatusCommand(flags))
	root.AddCommand(newDoctorCommand(flags))
	root.AddCommand(newVersionCommand())

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatwidget v%s (go)\n", Version)
		},
	}
}
