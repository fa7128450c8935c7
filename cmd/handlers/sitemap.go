package handlers

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewSitemapCmd creates the sitemap command
func NewSitemapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Import sitemaps as internal link candidates",
		Long: `Import a site's sitemap so generation can suggest internal links.

Examples:
  contentforge sitemap import https://blog.example.com/sitemap_index.xml
  contentforge sitemap search "espresso" --limit 5`,
	}
	cmd.AddCommand(newSitemapImportCmd())
	cmd.AddCommand(newSitemapSearchCmd())
	return cmd
}

func newSitemapImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import URL",
		Short: "Fetch a sitemap and store its pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				fmt.Fprintf(cmd.ErrOrStderr(), "🔍 Importing %s...\n", args[0])
				res, err := a.articles.ImportSitemap(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Found %d page(s), %d new\n", res.Found, res.Added)
				return nil
			})
		},
	}
}

func newSitemapSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Rank imported links against a keyword",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return withApp(func(a *app) error {
				links, err := a.articles.SearchLinks(cmd.Context(), query, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(links) == 0 {
					fmt.Fprintln(out, "No matching links.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "Title\tURL\n")
				fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\t━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
				for _, l := range links {
					fmt.Fprintf(w, "%s\t%s\n", truncate(l.Title, 30), l.URL)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of links")
	return cmd
}
