// Package config loads application configuration from a YAML file, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       App       `mapstructure:"app"`
	AI        AI        `mapstructure:"ai"`
	Search    Search    `mapstructure:"search"`
	Research  Research  `mapstructure:"research"`
	Images    Images    `mapstructure:"images"`
	Output    Output    `mapstructure:"output"`
	Sitemap   Sitemap   `mapstructure:"sitemap"`
	WordPress WordPress `mapstructure:"wordpress"`
	Server    Server    `mapstructure:"server"`
	Logging   Logging   `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug bool `mapstructure:"debug"`
	// DataDir holds the sqlite library.
	DataDir string `mapstructure:"data_dir"`
}

// AI holds generation backend configuration
type AI struct {
	// Provider is the preferred backend when both keys are set.
	Provider   string           `mapstructure:"provider"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	ImageModel  string  `mapstructure:"image_model"`
	Timeout     string  `mapstructure:"timeout"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// OpenRouterConfig holds OpenRouter configuration
type OpenRouterConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Timeout     string  `mapstructure:"timeout"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// Search holds search provider configuration
type Search struct {
	// DefaultProvider is empty to research through the generation backend.
	DefaultProvider string          `mapstructure:"default_provider"`
	MaxResults      int             `mapstructure:"max_results"`
	Timeout         string          `mapstructure:"timeout"`
	Language        string          `mapstructure:"language"`
	Providers       SearchProviders `mapstructure:"providers"`
}

// SearchProviders holds configuration for all search providers
type SearchProviders struct {
	Google  GoogleSearchConfig `mapstructure:"google"`
	SerpAPI SerpAPIConfig      `mapstructure:"serpapi"`
}

// GoogleSearchConfig holds Google Custom Search configuration
type GoogleSearchConfig struct {
	APIKey   string `mapstructure:"api_key"`
	SearchID string `mapstructure:"search_id"`
}

// SerpAPIConfig holds SerpAPI configuration
type SerpAPIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Research holds research and competitor analysis configuration
type Research struct {
	Timeout           string `mapstructure:"timeout"`
	CompetitorTimeout string `mapstructure:"competitor_timeout"`
	MaxCompetitors    int    `mapstructure:"max_competitors"`
	FetchTimeout      string `mapstructure:"fetch_timeout"`
}

// Images holds image generation configuration
type Images struct {
	// Directory stores images as files; empty embeds them as data URIs.
	Directory string `mapstructure:"directory"`
	Timeout   string `mapstructure:"timeout"`
}

// Output holds export configuration
type Output struct {
	Directory string `mapstructure:"directory"`
	Format    string `mapstructure:"format"`
}

// Sitemap holds sitemap import configuration
type Sitemap struct {
	BatchSize int `mapstructure:"batch_size"`
}

// WordPress holds the default publishing target
type WordPress struct {
	URL           string `mapstructure:"url"`
	Username      string `mapstructure:"username"`
	AppPassword   string `mapstructure:"app_password"`
	DefaultStatus string `mapstructure:"default_status"`
	UploadImages  bool   `mapstructure:"upload_images"`
}

// Server holds HTTP API configuration
type Server struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORS         CORS          `mapstructure:"cors"`
}

// CORS holds cross-origin settings for the HTTP API
type CORS struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Logging holds logging configuration
type Logging struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// Load reads configuration. An empty configFile searches for
// .contentforge.yaml in the working directory and $HOME. A .env file in the
// working directory is loaded first; variables already set win.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".contentforge")
		v.SetConfigType("yaml")
	}

	setDefaults(v)
	bindEnvironmentVariables(v)

	v.SetEnvPrefix("CONTENTFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(cfg); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.debug", false)
	v.SetDefault("app.data_dir", "~/.contentforge")

	v.SetDefault("ai.provider", "")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash-exp")
	v.SetDefault("ai.gemini.image_model", "imagen-3.0-generate-001")
	v.SetDefault("ai.gemini.timeout", "5m")
	v.SetDefault("ai.gemini.max_tokens", 8192)
	v.SetDefault("ai.gemini.temperature", 0.7)
	v.SetDefault("ai.openrouter.model", "anthropic/claude-3.5-sonnet")
	v.SetDefault("ai.openrouter.base_url", "https://openrouter.ai/api/v1/")
	v.SetDefault("ai.openrouter.timeout", "5m")
	v.SetDefault("ai.openrouter.max_tokens", 8192)
	v.SetDefault("ai.openrouter.temperature", 0.7)

	v.SetDefault("search.default_provider", "")
	v.SetDefault("search.max_results", 8)
	v.SetDefault("search.timeout", "15s")
	v.SetDefault("search.language", "en")

	v.SetDefault("research.timeout", "2m")
	v.SetDefault("research.competitor_timeout", "1m")
	v.SetDefault("research.max_competitors", 5)
	v.SetDefault("research.fetch_timeout", "20s")

	v.SetDefault("images.directory", "")
	v.SetDefault("images.timeout", "2m")

	v.SetDefault("output.directory", "articles")
	v.SetDefault("output.format", "markdown")

	v.SetDefault("sitemap.batch_size", 10)

	v.SetDefault("wordpress.default_status", "draft")
	v.SetDefault("wordpress.upload_images", true)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.cors.enabled", true)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
}

// bindEnvironmentVariables maps the conventional variable names, first
// match wins.
func bindEnvironmentVariables(v *viper.Viper) {
	bindEnvKeys(v, "ai.gemini.api_key", "GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY")
	bindEnvKeys(v, "ai.openrouter.api_key", "OPENROUTER_API_KEY")
	bindEnvKeys(v, "ai.provider", "AI_PROVIDER", "PREFERRED_PROVIDER")

	bindEnvKeys(v, "search.providers.google.api_key", "GOOGLE_CUSTOM_SEARCH_API_KEY", "GOOGLE_CSE_API_KEY")
	bindEnvKeys(v, "search.providers.google.search_id", "GOOGLE_CUSTOM_SEARCH_ID", "GOOGLE_CSE_ID")
	bindEnvKeys(v, "search.providers.serpapi.api_key", "SERPAPI_API_KEY", "SERPAPI_KEY")
	bindEnvKeys(v, "search.default_provider", "SEARCH_PROVIDER")

	bindEnvKeys(v, "wordpress.url", "WORDPRESS_URL")
	bindEnvKeys(v, "wordpress.username", "WORDPRESS_USERNAME", "WORDPRESS_USER")
	bindEnvKeys(v, "wordpress.app_password", "WORDPRESS_APP_PASSWORD", "WORDPRESS_PASSWORD")

	bindEnvKeys(v, "app.debug", "DEBUG")
	bindEnvKeys(v, "logging.level", "LOG_LEVEL")
}

func bindEnvKeys(v *viper.Viper, key string, envKeys ...string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.Set(key, value)
			return
		}
	}
}

func postProcessConfig(cfg *Config) error {
	cfg.App.DataDir = expandPath(cfg.App.DataDir)
	cfg.Output.Directory = expandPath(cfg.Output.Directory)
	cfg.Images.Directory = expandPath(cfg.Images.Directory)
	if cfg.Logging.FilePath != "" {
		cfg.Logging.FilePath = expandPath(cfg.Logging.FilePath)
	}
	if cfg.App.Debug {
		cfg.Logging.Level = "debug"
	}

	durations := map[string]string{
		"ai.gemini.timeout":           cfg.AI.Gemini.Timeout,
		"ai.openrouter.timeout":       cfg.AI.OpenRouter.Timeout,
		"search.timeout":              cfg.Search.Timeout,
		"research.timeout":            cfg.Research.Timeout,
		"research.competitor_timeout": cfg.Research.CompetitorTimeout,
		"research.fetch_timeout":      cfg.Research.FetchTimeout,
		"images.timeout":              cfg.Images.Timeout,
	}
	for key, d := range durations {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid duration for %s: %s", key, d)
		}
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig collects every problem so they can be fixed in one pass.
// API keys are not required here; commands that need one check for it.
func validateConfig(cfg *Config) error {
	var problems []string

	switch cfg.AI.Provider {
	case "", "gemini", "openrouter":
	default:
		problems = append(problems, fmt.Sprintf("Unknown AI provider: %s. Supported: gemini, openrouter", cfg.AI.Provider))
	}

	switch cfg.Search.DefaultProvider {
	case "", "duckduckgo", "mock":
	case "google":
		if cfg.Search.Providers.Google.APIKey == "" || cfg.Search.Providers.Google.SearchID == "" {
			problems = append(problems, "Google Custom Search requires both API key and Search ID. Set GOOGLE_CUSTOM_SEARCH_API_KEY and GOOGLE_CUSTOM_SEARCH_ID")
		}
	case "serpapi":
		if cfg.Search.Providers.SerpAPI.APIKey == "" {
			problems = append(problems, "SerpAPI requires API key. Set SERPAPI_API_KEY environment variable")
		}
	default:
		problems = append(problems, fmt.Sprintf("Unknown search provider: %s. Supported: google, serpapi, duckduckgo, mock", cfg.Search.DefaultProvider))
	}

	switch cfg.Output.Format {
	case "markdown", "html", "json":
	default:
		problems = append(problems, fmt.Sprintf("Unknown output format: %s. Supported: markdown, html, json", cfg.Output.Format))
	}

	switch cfg.WordPress.DefaultStatus {
	case "draft", "publish", "pending":
	default:
		problems = append(problems, fmt.Sprintf("Unknown WordPress status: %s. Supported: draft, publish, pending", cfg.WordPress.DefaultStatus))
	}

	switch cfg.Logging.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("Unknown log format: %s. Supported: json, console", cfg.Logging.Format))
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("Invalid server port: %d", cfg.Server.Port))
	}
	if cfg.Research.MaxCompetitors < 0 {
		problems = append(problems, "research.max_competitors must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Duration parses a validated duration string, returning fallback when it
// is empty.
func Duration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}

// HasValidGoogleSearch returns true if Google Custom Search is properly configured
func (c *Config) HasValidGoogleSearch() bool {
	g := c.Search.Providers.Google
	return isValidAPIKey(g.APIKey) && isValidAPIKey(g.SearchID)
}

// HasValidSerpAPI returns true if SerpAPI is properly configured
func (c *Config) HasValidSerpAPI() bool {
	return isValidAPIKey(c.Search.Providers.SerpAPI.APIKey)
}

// SearchProviderConfig returns the factory options for providerType.
func (c *Config) SearchProviderConfig(providerType string) map[string]string {
	switch providerType {
	case "google":
		return map[string]string{
			"api_key":   c.Search.Providers.Google.APIKey,
			"search_id": c.Search.Providers.Google.SearchID,
		}
	case "serpapi":
		return map[string]string{
			"api_key": c.Search.Providers.SerpAPI.APIKey,
		}
	default:
		return map[string]string{}
	}
}

// HasWordPress reports whether a complete publishing target is configured.
func (c *Config) HasWordPress() bool {
	w := c.WordPress
	return w.URL != "" && w.Username != "" && w.AppPassword != ""
}

// isValidAPIKey rejects empty values and obvious placeholders.
func isValidAPIKey(apiKey string) bool {
	if apiKey == "" {
		return false
	}
	placeholders := []string{
		"your-api-key", "your-google-api-key", "your-serpapi-key",
		"your-search-id", "YOUR_API_KEY", "PLACEHOLDER", "TODO", "CHANGE_ME",
	}
	for _, p := range placeholders {
		if apiKey == p {
			return false
		}
	}
	return true
}
