package wordpress

import (
	"context"
	"fmt"
	"html"
	"path"
	"strings"

	"contentforge/internal/core"
	"contentforge/internal/render"
	"contentforge/internal/visual"
)

// ImageLoader reads image bytes for upload.
type ImageLoader interface {
	Load(ctx context.Context, src string) ([]byte, string, error)
}

// PublishOptions controls how an article is published.
type PublishOptions struct {
	Status     string
	Categories []int
	Tags       []int

	// UploadImages uploads generated images to the media library, rewrites
	// their URLs in the content and sets the cover as the featured image.
	UploadImages bool
	Loader       ImageLoader
}

// PublishResult describes a published article.
type PublishResult struct {
	Post           *PostResponse
	UploadedImages int
	FailedImages   []*core.PartialResourceFailure
}

// Publish renders rec to HTML and creates a post for it. Image uploads that
// fail are recorded and the original URL is kept.
func (c *Client) Publish(ctx context.Context, rec *core.ArticleRecord, opts PublishOptions) (*PublishResult, error) {
	a := &rec.Article

	content, err := render.ContentHTML(a, rec.Settings.OutputFormat)
	if err != nil {
		return nil, err
	}

	result := &PublishResult{}
	featured := 0

	if opts.UploadImages && len(a.Images) > 0 {
		loader := opts.Loader
		if loader == nil {
			loader = visual.NewLoader(c.httpClient)
		}

		for i, img := range a.Images {
			media, err := c.uploadImage(ctx, loader, a.Slug, i, img)
			if err != nil {
				result.FailedImages = append(result.FailedImages, &core.PartialResourceFailure{Resource: "image upload", Index: i, Err: err})
				c.log.Warn().Err(err).Int("index", i).Msg("image upload skipped")
				continue
			}
			result.UploadedImages++
			content = strings.ReplaceAll(content, html.EscapeString(img.URL), media.SourceURL)
			if img.Type == core.ImageTypeCover && featured == 0 {
				featured = media.ID
			}
		}
	}

	post := Post{
		Title:         a.Title,
		Content:       content,
		Status:        opts.Status,
		Excerpt:       a.MetaDescription,
		Slug:          a.Slug,
		Categories:    opts.Categories,
		Tags:          opts.Tags,
		FeaturedMedia: featured,
	}
	if a.MetaTitle != "" || a.MetaDescription != "" || rec.Settings.TargetKeyword != "" {
		post.Meta = &YoastMeta{
			Title:        a.MetaTitle,
			MetaDesc:     a.MetaDescription,
			FocusKeyword: rec.Settings.TargetKeyword,
		}
	}

	resp, err := c.CreatePost(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to publish to WordPress: %w", err)
	}
	result.Post = resp
	return result, nil
}

func (c *Client) uploadImage(ctx context.Context, loader ImageLoader, slug string, index int, img core.GeneratedImage) (*Media, error) {
	data, mimeType, err := loader.Load(ctx, img.URL)
	if err != nil {
		return nil, err
	}

	name := slug
	if name == "" {
		name = "article"
	}
	if img.Type == core.ImageTypeCover {
		name += "-cover"
	} else {
		name = fmt.Sprintf("%s-%d", name, index)
	}
	if !strings.HasPrefix(img.URL, "data:") {
		if base := path.Base(img.URL); base != "." && base != "/" && strings.Contains(base, ".") {
			name = strings.TrimSuffix(base, path.Ext(base))
		}
	}

	return c.UploadMedia(ctx, name+visual.ExtensionFor(mimeType), data, mimeType, img.AltText)
}
