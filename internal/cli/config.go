package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"chatwidget/internal/ai"
	"chatwidget/internal/config"
	"chatwidget/internal/redact"
)

func newConfigCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Initialize and inspect the chatwidget configuration.`,
	}

	cmd.AddCommand(newConfigInitCommand(flags))
	cmd.AddCommand(newConfigShowCommand(flags))
	cmd.AddCommand(newConfigSetCommand(flags))
	cmd.AddCommand(newConfigModelsCommand())

	return cmd
}

func newConfigInitCommand(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			cfg := config.Default()
			cfg.ConfigPath = path
			cfg.OpenAI.APIKey = config.PlaceholderAPIKey
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ Created config at %s\n", path)
			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, "1. Get an API key from https://platform.openai.com/api-keys")
			fmt.Fprintf(out, "2. Set it: chatwidget config set openai.apiKey <key> (or export CHATWIDGET_OPENAI_APIKEY)\n")
			fmt.Fprintln(out, "3. Try it: chatwidget chat --open")
			fmt.Fprintln(out, "\nWithout a key the widget answers with built-in replies.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

// loadForDisplay reads the named config file, or the discovered one when
// --config was not given, falling back to defaults with a note.
func loadForDisplay(cmd *cobra.Command, flags *globalFlags) *config.Config {
	load := config.Load
	if flags.explicitConfig {
		load = func() (*config.Config, error) { return config.LoadFrom(flags.configPath) }
	}
	cfg, err := load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %v; showing defaults\n", err)
		return config.Default()
	}
	return cfg
}

// redacted returns a copy of cfg safe to print.
func redacted(cfg *config.Config) config.Config {
	shown := *cfg
	if shown.OpenAI.APIKey != "" {
		shown.OpenAI.APIKey = redact.Mask(shown.OpenAI.APIKey)
	}
	if shown.Server.APIKey != "" {
		shown.Server.APIKey = redact.Mask(shown.Server.APIKey)
	}
	return shown
}

func newConfigShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadForDisplay(cmd, flags)

			data, err := yaml.Marshal(redacted(cfg))
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "# Config file: %s\n", flags.configPath)
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigSetCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			cfg, err := config.LoadFrom(flags.configPath)
			if err != nil {
				cfg = config.Default()
			}
			cfg.ConfigPath = flags.configPath

			if err := cfg.Set(key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Set %s\n", key)
			return nil
		},
	}
}

func newConfigModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show well-known completion models",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "🤖 Models:")
			for _, model := range ai.AvailableModels() {
				fmt.Fprintf(out, "  - %s\n", model)
			}
			fmt.Fprintln(out, "\nAny model of an OpenAI-compatible API works; set openai.baseURL for other providers.")
		},
	}
}
