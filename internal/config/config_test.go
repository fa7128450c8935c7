package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY", "OPENROUTER_API_KEY",
	"AI_PROVIDER", "PREFERRED_PROVIDER", "GOOGLE_CUSTOM_SEARCH_API_KEY", "GOOGLE_CSE_API_KEY",
	"GOOGLE_CUSTOM_SEARCH_ID", "GOOGLE_CSE_ID", "SERPAPI_API_KEY", "SERPAPI_KEY", "SEARCH_PROVIDER",
	"WORDPRESS_URL", "WORDPRESS_USERNAME", "WORDPRESS_USER", "WORDPRESS_APP_PASSWORD",
	"WORDPRESS_PASSWORD", "DEBUG", "LOG_LEVEL",
}

// isolate runs the test in an empty directory with a clean environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Search.MaxResults != 8 || cfg.Research.MaxCompetitors != 5 {
		t.Errorf("unexpected search/research defaults: %+v %+v", cfg.Search, cfg.Research)
	}
	if cfg.Server.Port != 8080 || cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("unexpected server defaults: %+v", cfg.Server)
	}
	if want := filepath.Join(home, ".contentforge"); cfg.App.DataDir != want {
		t.Errorf("data dir = %q, want %q", cfg.App.DataDir, want)
	}
	if cfg.Output.Format != "markdown" || cfg.WordPress.DefaultStatus != "draft" {
		t.Errorf("unexpected output defaults: %+v %+v", cfg.Output, cfg.WordPress)
	}
	if cfg.AI.Gemini.APIKey != "" || cfg.HasWordPress() {
		t.Error("no credentials should be configured")
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	yaml := `ai:
  provider: openrouter
output:
  format: html
server:
  port: 9000
logging:
  format: json
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("WORDPRESS_URL", "https://blog.test")
	t.Setenv("WORDPRESS_USER", "editor")
	t.Setenv("WORDPRESS_APP_PASSWORD", "abcd efgh")
	t.Setenv("DEBUG", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AI.Provider != "openrouter" || cfg.AI.OpenRouter.APIKey != "sk-or-test" {
		t.Errorf("AI config not loaded: %+v", cfg.AI)
	}
	if cfg.Output.Format != "html" || cfg.Server.Port != 9000 || cfg.Logging.Format != "json" {
		t.Errorf("file values not applied: %+v %+v", cfg.Output, cfg.Server)
	}
	if !cfg.HasWordPress() || cfg.WordPress.Username != "editor" {
		t.Errorf("WordPress env not bound: %+v", cfg.WordPress)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("debug should force debug logging, got %q", cfg.Logging.Level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.Gemini.APIKey != "from-dotenv" {
		t.Errorf("expected key from .env, got %q", cfg.AI.Gemini.APIKey)
	}
}

func TestLoadCollectsValidationErrors(t *testing.T) {
	dir := isolate(t)
	yaml := `ai:
  provider: claude
search:
  default_provider: google
output:
  format: pdf
`
	if err := os.WriteFile(filepath.Join(dir, ".contentforge.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load("")
	if err == nil {
		t.Fatal("expected configuration errors")
	}
	for _, want := range []string{"Unknown AI provider: claude", "Google Custom Search requires", "Unknown output format: pdf"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("research:\n  timeout: soon\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "research.timeout") {
		t.Errorf("expected duration error, got %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("an explicit config file that does not exist should fail")
	}
}

func TestHelpers(t *testing.T) {
	if got := Duration("90s", time.Second); got != 90*time.Second {
		t.Errorf("Duration = %v", got)
	}
	if got := Duration("", time.Minute); got != time.Minute {
		t.Errorf("Duration fallback = %v", got)
	}

	cfg := &Config{}
	cfg.Search.Providers.Google = GoogleSearchConfig{APIKey: "your-google-api-key", SearchID: "cx"}
	if cfg.HasValidGoogleSearch() {
		t.Error("placeholder key should not count as configured")
	}
	cfg.Search.Providers.Google.APIKey = "AIza-real"
	if !cfg.HasValidGoogleSearch() {
		t.Error("real key should count as configured")
	}
	if got := cfg.SearchProviderConfig("google"); got["search_id"] != "cx" {
		t.Errorf("SearchProviderConfig = %v", got)
	}
	if len(cfg.SearchProviderConfig("duckduckgo")) != 0 {
		t.Error("duckduckgo needs no options")
	}
}
