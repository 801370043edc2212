package cli

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatwidget/internal/chat"
	"chatwidget/internal/config"
	"chatwidget/internal/errorx"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestVersionCommand(t *testing.T) {
	if out := mustExecute(t, "version"); out != "chatwidget v"+Version+" (go)\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "api-keys.json")

	if out := mustExecute(t, "--config", path, "config", "init"); !strings.Contains(out, "Created config") {
		t.Errorf("init output = %q", out)
	}
	if _, err := execute(t, "--config", path, "config", "init"); err == nil {
		t.Error("init must not overwrite without --force")
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.OpenAI.APIKey != config.PlaceholderAPIKey || cfg.OpenAI.HasUsableKey() {
		t.Errorf("new config key = %q, want unusable placeholder", cfg.OpenAI.APIKey)
	}

	mustExecute(t, "--config", path, "config", "set", "openai.apiKey", "sk-live-abcdefghijklmnop")

	out := mustExecute(t, "--config", path, "config", "show")
	if strings.Contains(out, "sk-live-abcdefghijklmnop") {
		t.Error("show printed the full API key")
	}
	for _, want := range []string{"model: gpt-3.5-turbo", "sk-liv"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigShowDiscoversHomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", home)

	homeConfig := filepath.Join(home, ".chatwidget", "config.json")
	if err := os.MkdirAll(filepath.Dir(homeConfig), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(homeConfig, []byte(`{"openai":{"model":"gpt-4o"}}`), 0600); err != nil {
		t.Fatal(err)
	}

	out := mustExecute(t, "config", "show")
	if !strings.Contains(out, "# Config file: "+homeConfig) {
		t.Errorf("show did not report the discovered file:\n%s", out)
	}
	if !strings.Contains(out, "model: gpt-4o") {
		t.Errorf("show did not load the discovered file:\n%s", out)
	}
}

func TestConfigSetRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api-keys.json")

	if _, err := execute(t, "--config", path, "config", "set", "openai.maxTokens", "-5"); err == nil {
		t.Error("expected error for negative maxTokens")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid value must not be saved")
	}
	if _, err := execute(t, "--config", path, "config", "set", "unknown.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestAskOfflineUsesFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	out := mustExecute(t, "--config", path, "--log-level", "error", "ask", "what", "products", "do", "you", "have?")
	if want := chat.LocalFallback("what products do you have?") + "\n"; out != want {
		t.Errorf("ask output = %q, want %q", out, want)
	}
}

func TestAskBlankQuestionIsUserError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	_, err := execute(t, "--config", path, "--log-level", "error", "ask", "   ")
	if !errors.Is(err, chat.ErrEmptyMessage) {
		t.Fatalf("ask error = %v, want ErrEmptyMessage", err)
	}
	if msg, ok := errorx.UserMessage(err); !ok || msg == "" {
		t.Errorf("UserMessage() = %q, %v, want a displayable message", msg, ok)
	}
}

func TestStatusReportsInitFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	out := mustExecute(t, "--config", path, "--log-level", "error", "status")
	if !strings.Contains(out, "Init failure: "+errorx.ConfigLoadFailure.String()) {
		t.Errorf("status output missing init failure:\n%s", out)
	}
}

func TestCheckConfigFile(t *testing.T) {
	result, cfg := checkConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	if result.passed || !result.required {
		t.Errorf("missing file result = %+v, want failed required check", result)
	}
	if cfg.OpenAI.Model != config.Default().OpenAI.Model {
		t.Errorf("model = %q, want default", cfg.OpenAI.Model)
	}

	path := filepath.Join(t.TempDir(), "api-keys.json")
	if err := os.WriteFile(path, []byte(`{"openai":{"model":"gpt-4o"}}`), 0600); err != nil {
		t.Fatal(err)
	}
	result, cfg = checkConfigFile(path)
	if !result.passed {
		t.Errorf("valid file result = %+v, want passed", result)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", cfg.OpenAI.Model)
	}
}

func TestCheckAPIKey(t *testing.T) {
	cfg := config.Default()
	if checkAPIKey(cfg).passed {
		t.Error("empty key should fail")
	}

	cfg.OpenAI.APIKey = config.PlaceholderAPIKey
	result := checkAPIKey(cfg)
	if result.passed || !strings.Contains(result.message, "placeholder") {
		t.Errorf("placeholder result = %+v", result)
	}

	cfg.OpenAI.APIKey = "sk-real-0123456789"
	result = checkAPIKey(cfg)
	if !result.passed {
		t.Errorf("real key result = %+v, want passed", result)
	}
	if strings.Contains(result.message, "sk-real-0123456789") {
		t.Error("check message leaked the full key")
	}
}

func TestCheckBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.OpenAI.BaseURL = srv.URL
	if !checkBaseURL(cfg, srv.Client()).passed {
		t.Error("reachable base URL should pass")
	}

	cfg.OpenAI.BaseURL = "http://127.0.0.1:1"
	if checkBaseURL(cfg, srv.Client()).passed {
		t.Error("unreachable base URL should fail")
	}
}

func TestCheckStoragePath(t *testing.T) {
	cfg := config.Default()
	result := checkStoragePath(cfg)
	if !result.passed || result.required {
		t.Errorf("disabled storage result = %+v, want passed and optional", result)
	}

	cfg.Storage.Enabled = true
	cfg.Storage.Path = filepath.Join(t.TempDir(), "nested", "t.db")
	result = checkStoragePath(cfg)
	if !result.passed || !strings.HasPrefix(result.message, "Writable") {
		t.Errorf("writable storage result = %+v", result)
	}
}
