package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"contentforge/internal/core"
	"contentforge/internal/cost"
	"contentforge/internal/llm"
	"contentforge/internal/pipeline"
	"contentforge/internal/render"
	"contentforge/internal/services"
	"contentforge/internal/tui"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	settingsFile  string
	topic         string
	keyword       string
	searchTerm    string
	articleType   string
	format        string
	tone          string
	language      string
	audience      string
	context       string
	words         int
	research      bool
	competitors   []string
	images        bool
	contentImages int
	cover         bool
	brandVoice    string
	internalLinks bool

	provider  string
	dryRun    bool
	showTUI   bool
	imagesDir string
	export    string
	outputDir string
}

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an SEO article and save it to the library",
		Long: `Generate one article in a single request to the configured model.

Settings come from --settings (YAML or JSON) and are overridden by any flag
given on the command line. Research, competitor analysis and image
generation are optional; their failures are reported and skipped.

Examples:
  # Minimal
  contentforge generate --topic "cold brew at home"

  # Research, two competitors and images written to disk
  contentforge generate --topic "cold brew" --research \
    --competitor https://a.example/cold-brew --competitor https://b.example/guide \
    --images --images-dir ./images

  # Settings file, OpenRouter, export as HTML
  contentforge generate --settings cold-brew.yaml --provider openrouter --export html

  # Estimate tokens and cost without calling the model
  contentforge generate --topic "cold brew" --images --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.buildSettings(cmd.Flags().Changed)
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				return runGenerate(cmd.Context(), a, opts, settings, cmd.OutOrStdout(), cmd.ErrOrStderr())
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.settingsFile, "settings", "s", "", "settings file (YAML or JSON)")
	f.StringVarP(&opts.topic, "topic", "t", "", "article topic")
	f.StringVarP(&opts.keyword, "keyword", "k", "", "target SEO keyword")
	f.StringVar(&opts.searchTerm, "search-term", "", "web research query (default: keyword or topic)")
	f.StringVar(&opts.articleType, "type", "", "article type: "+joinTypes())
	f.StringVarP(&opts.format, "format", "f", "", "output format: text, multimedia, markdown")
	f.StringVar(&opts.tone, "tone", "", "tone: authoritative, conversational, technical, friendly, professional")
	f.StringVar(&opts.language, "language", "", "article language")
	f.StringVar(&opts.audience, "audience", "", "intended audience")
	f.StringVar(&opts.context, "context", "", "additional context for the model")
	f.IntVarP(&opts.words, "words", "w", 0, "target word count (300-10000)")
	f.BoolVar(&opts.research, "research", false, "run web research first")
	f.StringArrayVar(&opts.competitors, "competitor", nil, "competitor URL to analyze (repeatable)")
	f.BoolVar(&opts.images, "images", false, "generate images")
	f.IntVar(&opts.contentImages, "content-images", 0, "number of content images")
	f.BoolVar(&opts.cover, "cover", true, "generate a cover image when images are enabled")
	f.StringVar(&opts.brandVoice, "brand-voice", "", "brand voice ID or name")
	f.BoolVar(&opts.internalLinks, "internal-links", false, "suggest links from imported sitemaps")

	f.StringVar(&opts.provider, "provider", "", "preferred backend: gemini or openrouter")
	f.BoolVar(&opts.dryRun, "dry-run", false, "estimate tokens and cost without generating")
	f.BoolVar(&opts.showTUI, "tui", false, "show an interactive progress view")
	f.StringVar(&opts.imagesDir, "images-dir", "", "write images to this directory instead of embedding them")
	f.StringVar(&opts.export, "export", "", "also export the article: markdown, html or json")
	f.StringVarP(&opts.outputDir, "output", "o", "", "export directory (default from config)")

	return cmd
}

func joinTypes() string {
	types := core.ArticleTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// buildSettings starts from the settings file or defaults and applies every
// flag the user set explicitly.
func (o *generateOptions) buildSettings(changed func(name string) bool) (core.GenerationSettings, error) {
	settings := core.DefaultSettings()
	if o.settingsFile != "" {
		loaded, err := core.LoadSettingsFile(o.settingsFile)
		if err != nil {
			return settings, err
		}
		settings = loaded
	}

	set := func(name string, apply func()) {
		if changed(name) {
			apply()
		}
	}
	set("topic", func() { settings.Topic = o.topic })
	set("keyword", func() { settings.TargetKeyword = o.keyword })
	set("search-term", func() { settings.WebSearchTerm = o.searchTerm })
	set("type", func() { settings.ArticleType = core.ArticleType(o.articleType) })
	set("format", func() { settings.OutputFormat = core.OutputFormat(o.format) })
	set("tone", func() { settings.Tone = core.Tone(o.tone) })
	set("language", func() { settings.Language = o.language })
	set("audience", func() { settings.IntendedAudience = o.audience })
	set("context", func() { settings.AdditionalContext = o.context })
	set("words", func() { settings.WordCount = o.words })
	set("research", func() { settings.EnableWebResearch = o.research })
	set("competitor", func() {
		settings.CompetitorURLs = o.competitors
		settings.EnableCompetitorAnalysis = len(o.competitors) > 0
	})
	set("images", func() { settings.GenerateImages = o.images })
	set("content-images", func() { settings.NumContentImages = o.contentImages })
	set("cover", func() { settings.GenerateCoverImage = o.cover })
	set("brand-voice", func() { settings.BrandVoiceID = o.brandVoice })
	set("internal-links", func() { settings.EnableInternalLinks = o.internalLinks })

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

func runGenerate(ctx context.Context, a *app, opts *generateOptions, settings core.GenerationSettings, out, errOut io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	genOpts := services.GenerateOptions{ImagesDir: opts.imagesDir}
	if opts.provider != "" {
		kind, err := llm.ParseKind(opts.provider)
		if err != nil {
			return err
		}
		genOpts.Keys.Preferred = kind
	}

	if opts.dryRun {
		est, err := a.articles.Estimate(ctx, settings, genOpts)
		if err != nil {
			return err
		}
		printEstimate(out, est)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	run, settings, err := a.articles.Start(ctx, settings, genOpts)
	if err != nil {
		return err
	}

	if opts.showTUI {
		if err := tui.Show(run, cancel, tui.Options{Title: "Generating: " + settings.Topic}); err != nil {
			cancel()
			for range run.Events() {
			}
			return err
		}
	} else {
		for ev := range run.Events() {
			printEvent(errOut, ev)
		}
	}

	res, err := run.Wait()
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	rec, err := a.articles.Save(ctx, settings, res)
	if err != nil {
		return err
	}

	printResult(out, rec, res)

	if opts.export != "" {
		path, err := exportRecord(rec, opts.export, opts.outputDir, a.cfg.Output.Directory)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "📄 Exported to %s\n", path)
	}
	return nil
}

func printEvent(w io.Writer, ev pipeline.Event) {
	line := fmt.Sprintf("[%3d%%] %s", ev.Percent, ev.Label)
	if ev.Detail != "" {
		line += " (" + ev.Detail + ")"
	}
	fmt.Fprintln(w, line)
}

func printResult(w io.Writer, rec *core.ArticleRecord, res *pipeline.Result) {
	a := rec.Article
	fmt.Fprintf(w, "\n✅ %s\n", a.Title)
	fmt.Fprintf(w, "   ID:        %s\n", rec.ID)
	fmt.Fprintf(w, "   Slug:      %s\n", a.Slug)
	fmt.Fprintf(w, "   Words:     %d\n", a.WordCount)
	fmt.Fprintf(w, "   Provider:  %s (%s)\n", rec.Provider, rec.Model)
	fmt.Fprintf(w, "   Images:    %d\n", len(a.Images))
	fmt.Fprintf(w, "   Duration:  %s\n", res.Duration.Round(100*time.Millisecond))

	if len(res.ImageFailures) > 0 {
		fmt.Fprintf(w, "\n⚠️  %d image(s) failed:\n", len(res.ImageFailures))
		for _, f := range res.ImageFailures {
			fmt.Fprintf(w, "   • %v\n", f)
		}
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintln(w, "\n⚠️  Quality warnings:")
		for _, warning := range res.Warnings {
			fmt.Fprintf(w, "   • %s\n", warning)
		}
	}
}

func printEstimate(w io.Writer, est cost.Estimate) {
	fmt.Fprintln(w, "💰 Cost estimate (research and competitor content not included)")
	fmt.Fprintf(w, "   Model:          %s\n", est.Model)
	fmt.Fprintf(w, "   Input tokens:   ~%d\n", est.InputTokens)
	fmt.Fprintf(w, "   Output tokens:  ~%d\n", est.OutputTokens)
	if est.Images > 0 {
		fmt.Fprintf(w, "   Images:         %d (%s)\n", est.Images, est.ImageModel)
	}
	if est.PriceKnown {
		fmt.Fprintf(w, "   Estimated cost: $%.4f\n", est.TotalCost)
	} else {
		fmt.Fprintln(w, "   Estimated cost: unknown (model not in pricing table)")
	}
	if est.ExceedsMaxTokens {
		fmt.Fprintln(w, "\n⚠️  The article may not fit the configured max_tokens; raise it or lower --words.")
	}
}

func exportRecord(rec *core.ArticleRecord, format, outputDir, fallbackDir string) (string, error) {
	f, err := render.ParseFormat(format)
	if err != nil {
		return "", err
	}
	data, err := render.Export(rec, f)
	if err != nil {
		return "", err
	}
	if outputDir == "" {
		outputDir = fallbackDir
	}
	return render.WriteArticleToFile(data, outputDir, render.Filename(rec, f))
}
