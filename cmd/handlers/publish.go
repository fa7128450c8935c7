package handlers

import (
	"fmt"

	"contentforge/internal/services"
	"contentforge/internal/wordpress"

	"github.com/spf13/cobra"
)

// NewPublishCmd creates the publish command
func NewPublishCmd() *cobra.Command {
	var (
		site       wordpress.Site
		status     string
		categories []int
		tags       []int
		noImages   bool
	)

	cmd := &cobra.Command{
		Use:   "publish ID",
		Short: "Publish an article to WordPress",
		Long: `Create a WordPress post from a library article.

Content is sent as HTML. Embedded images are uploaded to the media library
and the cover becomes the featured image. Meta title, meta description and
the first SEO keyword are written to the Yoast SEO fields.

The site comes from flags, then saved settings, then config
(wordpress.url, wordpress.username, wordpress.app_password).

Examples:
  contentforge publish 3f2a9c
  contentforge publish 3f2a9c --status publish --category 4 --tag 12 --tag 15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				req := services.PublishRequest{
					ID:         args[0],
					Site:       site,
					Status:     status,
					Categories: categories,
					Tags:       tags,
				}
				if cmd.Flags().Changed("no-images") {
					upload := !noImages
					req.UploadImages = &upload
				}

				rec, res, err := a.articles.Publish(cmd.Context(), req)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "🚀 Published %q as %s\n", rec.Article.Title, res.Post.Status)
				fmt.Fprintf(out, "   Post ID: %d\n", res.Post.ID)
				fmt.Fprintf(out, "   URL:     %s\n", res.Post.Link)
				if res.UploadedImages > 0 {
					fmt.Fprintf(out, "   Images:  %d uploaded\n", res.UploadedImages)
				}
				for _, f := range res.FailedImages {
					fmt.Fprintf(out, "   ⚠️  %v\n", f)
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&site.URL, "url", "", "WordPress site URL")
	f.StringVar(&site.Username, "user", "", "WordPress username")
	f.StringVar(&site.AppPassword, "app-password", "", "WordPress application password")
	f.StringVar(&status, "status", "", "post status: draft, publish or pending (default from config)")
	f.IntSliceVar(&categories, "category", nil, "category ID (repeatable)")
	f.IntSliceVar(&tags, "tag", nil, "tag ID (repeatable)")
	f.BoolVar(&noImages, "no-images", false, "do not upload images")

	return cmd
}
