package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"chatwidget/internal/config"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

const defaultBaseURL = "https://api.openai.com/v1"

type checkResult struct {
	name     string
	passed   bool
	required bool
	message  string
}

func newDoctorCommand(flags *globalFlags) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics to check the widget setup",
		Long:  `Verify the configuration file, completion service and storage are set up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "💬 chatwidget diagnostics")
			fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			fmt.Fprintln(out)

			cfgResult, cfg := checkConfigFile(flags.configPath)
			results := []checkResult{
				cfgResult,
				checkAPIKey(cfg),
			}
			if !offline {
				results = append(results, checkBaseURL(cfg, nil))
			}
			results = append(results, checkStoragePath(cfg), checkTerminal())

			var hasFailures bool
			for _, result := range results {
				printResult(out, result)
				if result.required && !result.passed {
					hasFailures = true
				}
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

			if hasFailures {
				fmt.Fprintf(out, "%s✗ Some required checks failed%s\n", colorRed, colorReset)
				return fmt.Errorf("diagnostics failed")
			}

			fmt.Fprintf(out, "%s✓ All required checks passed%s\n", colorGreen, colorReset)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the network reachability check")

	return cmd
}

func printResult(out io.Writer, result checkResult) {
	var symbol, color, typeLabel string

	if result.passed {
		symbol = "✓"
		color = colorGreen
	} else {
		symbol = "✗"
		if result.required {
			color = colorRed
		} else {
			color = colorYellow
		}
	}

	if !result.required {
		typeLabel = fmt.Sprintf(" %s[optional]%s", colorCyan, colorReset)
	}

	fmt.Fprintf(out, "%s%s%s %s%s", color, symbol, colorReset, result.name, typeLabel)

	if result.message != "" {
		fmt.Fprintf(out, "\n  %s%s%s", color, result.message, colorReset)
	}

	fmt.Fprintln(out)
}

// checkConfigFile loads path and returns the config to check further,
// defaults when it cannot be loaded.
func checkConfigFile(path string) (checkResult, *config.Config) {
	result := checkResult{
		name:     "Config file valid",
		required: true,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		result.message = fmt.Sprintf("Config file not found: %s. Run 'chatwidget config init' to create one.", path)
		return result, config.Default()
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		result.message = err.Error()
		return result, config.Default()
	}

	result.passed = true
	result.message = fmt.Sprintf("Found: %s", path)
	return result, cfg
}

func checkAPIKey(cfg *config.Config) checkResult {
	result := checkResult{
		name: "OpenAI API key",
		// The widget still answers with canned replies without a key.
		required: false,
	}

	switch {
	case strings.TrimSpace(cfg.OpenAI.APIKey) == "":
		result.message = "Not set. Replies use the built-in fallback. Run: chatwidget config set openai.apiKey <key>"
	case !cfg.OpenAI.HasUsableKey():
		result.message = "Still the sample placeholder. Replace it with a real key."
	default:
		result.passed = true
		result.message = fmt.Sprintf("Set: %s (model: %s)", maskToken(cfg.OpenAI.APIKey), cfg.OpenAI.Model)
	}
	return result
}

func checkBaseURL(cfg *config.Config, client *http.Client) checkResult {
	result := checkResult{
		name:     "Completion service reachable",
		required: false,
	}

	baseURL := cfg.OpenAI.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequest(http.MethodHead, baseURL, nil)
	if err != nil {
		result.message = fmt.Sprintf("Invalid URL: %v", err)
		return result
	}

	resp, err := client.Do(req)
	if err != nil {
		result.message = fmt.Sprintf("Cannot reach %s: %v", baseURL, err)
		return result
	}
	resp.Body.Close()

	result.passed = true
	result.message = fmt.Sprintf("Reachable: %s", baseURL)
	return result
}

func checkStoragePath(cfg *config.Config) checkResult {
	result := checkResult{
		name:     "Transcript storage",
		required: cfg.Storage.Enabled,
	}

	if !cfg.Storage.Enabled {
		result.passed = true
		result.message = "Disabled"
		return result
	}

	dir := filepath.Dir(cfg.Storage.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		result.message = fmt.Sprintf("Directory doesn't exist and cannot be created: %s", dir)
		return result
	}

	testFile := filepath.Join(dir, ".chatwidget-write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		result.message = fmt.Sprintf("Directory not writable: %s", dir)
		return result
	}
	os.Remove(testFile)

	result.passed = true
	result.message = fmt.Sprintf("Writable: %s", cfg.Storage.Path)
	return result
}

func checkTerminal() checkResult {
	result := checkResult{
		name:     "Interactive terminal",
		required: false,
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		result.message = "stdout is not a terminal; 'chatwidget chat' fullscreen uses the layout fallback"
		return result
	}
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		result.passed = true
		result.message = "Terminal detected"
		return result
	}
	result.passed = true
	result.message = fmt.Sprintf("Terminal %dx%d", w, h)
	return result
}
