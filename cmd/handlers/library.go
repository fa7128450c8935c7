package handlers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"contentforge/internal/core"
	"contentforge/internal/render"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// NewLibraryCmd creates the library command
func NewLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Browse, export and delete generated articles",
		Long: `Manage the local article library.

Articles are addressed by ID; any unique prefix of six or more characters
is accepted.

Subcommands:
  list     List articles, newest first
  show     Render an article in the terminal
  export   Write an article as markdown, HTML or JSON
  delete   Remove an article
  stats    Show library statistics`,
	}

	cmd.AddCommand(newLibraryListCmd())
	cmd.AddCommand(newLibraryShowCmd())
	cmd.AddCommand(newLibraryExportCmd())
	cmd.AddCommand(newLibraryDeleteCmd())
	cmd.AddCommand(newLibraryStatsCmd())

	return cmd
}

func newLibraryListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				records, err := a.store.ListArticles(cmd.Context(), limit)
				if err != nil {
					return err
				}
				printArticleTable(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of articles (0 for all)")
	return cmd
}

func printArticleTable(out io.Writer, records []core.ArticleRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No articles yet. Run 'contentforge generate' to create one.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTitle\tWords\tStatus\tCreated\n")
	fmt.Fprintf(w, "━━━━━━━━\t━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\t━━━━━\t━━━━━━━━━\t━━━━━━━━━━━━━━━━\n")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s %s\t%s\n",
			shortID(rec.ID),
			truncate(rec.Article.Title, 40),
			rec.Article.WordCount,
			statusIcon(rec.Status), rec.Status,
			rec.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
	fmt.Fprintf(out, "\n%d article(s)\n", len(records))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusIcon(status core.ArticleStatus) string {
	if status == core.StatusPublished {
		return "✓"
	}
	return "•"
}

func newLibraryShowCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Render an article in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				rec, err := a.store.GetArticle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return showArticle(cmd.OutOrStdout(), rec, raw)
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")
	return cmd
}

func showArticle(out io.Writer, rec *core.ArticleRecord, raw bool) error {
	a := rec.Article
	body, err := render.ContentMarkdown(&rec.Article, rec.Settings.OutputFormat)
	if err != nil {
		return err
	}

	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s\n\n", a.Title)
	fmt.Fprintf(&doc, "> **Meta title:** %s  \n", a.MetaTitle)
	fmt.Fprintf(&doc, "> **Meta description:** %s  \n", a.MetaDescription)
	fmt.Fprintf(&doc, "> **Slug:** `%s` · **Words:** %d · **Status:** %s\n\n", a.Slug, a.WordCount, rec.Status)
	if len(a.SEOKeywords) > 0 {
		fmt.Fprintf(&doc, "**Keywords:** %s\n\n", strings.Join(a.SEOKeywords, ", "))
	}
	doc.WriteString(body)
	if len(a.ExternalLinks) > 0 {
		doc.WriteString("\n\n## Sources\n\n")
		for _, l := range a.ExternalLinks {
			fmt.Fprintf(&doc, "- [%s](%s)\n", l.AnchorText, l.URL)
		}
	}

	if raw {
		_, err := io.WriteString(out, doc.String()+"\n")
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	styled, err := renderer.Render(doc.String())
	if err != nil {
		return fmt.Errorf("failed to render article: %w", err)
	}
	_, err = io.WriteString(out, styled)
	return err
}

func newLibraryExportCmd() *cobra.Command {
	var (
		format    string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export an article to a file",
		Long: `Export an article as markdown (with YAML front matter), a standalone
HTML page or the raw JSON record.

Examples:
  contentforge library export 3f2a9c --format html
  contentforge library export 3f2a9c --format json --output ./out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				rec, err := a.store.GetArticle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if format == "" {
					format = a.cfg.Output.Format
				}
				path, err := exportRecord(rec, format, outputDir, a.cfg.Output.Directory)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "📄 Exported to %s\n", path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "markdown, html or json (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	return cmd
}

func newLibraryDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				rec, err := a.store.GetArticle(ctx, args[0])
				if err != nil {
					return err
				}
				if !force && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %q?", rec.Article.Title)) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				if err := a.store.DeleteArticle(ctx, rec.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted %s\n", shortID(rec.ID))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "y", false, "skip confirmation")
	return cmd
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func newLibraryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				stats, err := a.store.GetStats()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "📚 Library: %s\n", a.store.Path())
				fmt.Fprintf(out, "   Articles:       %d (%d published)\n", stats.ArticleCount, stats.PublishedCount)
				fmt.Fprintf(out, "   Brand voices:   %d\n", stats.BrandVoiceCount)
				fmt.Fprintf(out, "   Internal links: %d\n", stats.InternalLinkCount)
				fmt.Fprintf(out, "   Size:           %.1f KB\n", float64(stats.DatabaseSize)/1024)
				if !stats.LastUpdated.IsZero() {
					fmt.Fprintf(out, "   Last updated:   %s\n", stats.LastUpdated.Local().Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}
