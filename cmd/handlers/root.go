package handlers

import (
	"fmt"

	"contentforge/internal/config"
	"contentforge/internal/logger"
	"contentforge/internal/services"
	"contentforge/internal/store"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var cfgFile string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "contentforge",
		Short: "Generate SEO-optimized articles with Gemini or OpenRouter",
		Long: `ContentForge - SEO Article Generator

Researches a topic, studies competitor pages and asks a language model for a
complete, search-optimized article with metadata, schema markup and images.

Core workflows:
  • Generate: topic and settings → article saved to the local library
  • Library: list, read, export and delete generated articles
  • Publish: send an article to WordPress with Yoast SEO fields

Examples:
  # Generate an article
  contentforge generate --topic "home espresso" --keyword "espresso machine"

  # Generate from a settings file with a live progress view
  contentforge generate --settings article.yaml --tui

  # Export the latest article as HTML
  contentforge library export 3f2a9c --format html`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .contentforge.yaml)")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewKeysCmd())
	rootCmd.AddCommand(NewLibraryCmd())
	rootCmd.AddCommand(NewPublishCmd())
	rootCmd.AddCommand(NewSitemapCmd())
	rootCmd.AddCommand(NewSettingsCmd())
	rootCmd.AddCommand(NewVoicesCmd())
	rootCmd.AddCommand(NewServeCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// app holds what a command needs once configuration is loaded.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    *store.Store
	articles *services.ArticleService
	closeLog func() error
}

func loadApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	st, err := store.NewStore(cfg.App.DataDir)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to open library: %w", err)
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		articles: services.NewArticleService(cfg, st, log),
		closeLog: closeLog,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close library")
	}
	_ = a.closeLog()
}

// withApp loads the app for the duration of fn.
func withApp(fn func(a *app) error) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
