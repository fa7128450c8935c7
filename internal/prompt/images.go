package prompt

import (
	"fmt"

	"contentforge/internal/core"
)

// ImageRequest is one image the pipeline should try to generate.
type ImageRequest struct {
	Prompt  string
	AltText string
	Type    core.ImageType
}

// ImagePlan decides which images to request for an article. Prompts the
// model returned are used first; defaults derived from the topic fill in
// when it returned none. The cover, when enabled, takes the first prompt.
func ImagePlan(article *core.GeneratedArticle, s core.GenerationSettings) []ImageRequest {
	if !s.GenerateImages {
		return nil
	}

	prompts := article.ImagePrompts
	if len(prompts) == 0 {
		prompts = DefaultImagePrompts(s)
	}

	var plan []ImageRequest
	next := 0

	if s.GenerateCoverImage && len(prompts) > 0 {
		plan = append(plan, ImageRequest{
			Prompt:  prompts[0],
			AltText: fmt.Sprintf("Cover image for %s", article.Title),
			Type:    core.ImageTypeCover,
		})
		next = 1
	}

	for i := 0; i < s.NumContentImages && next < len(prompts); i++ {
		plan = append(plan, ImageRequest{
			Prompt:  prompts[next],
			AltText: fmt.Sprintf("Illustration %d for %s", i+1, s.Topic),
			Type:    core.ImageTypeContent,
		})
		next++
	}

	return plan
}

// DefaultImagePrompts returns a cover prompt (when enabled) followed by one
// prompt per requested content image.
func DefaultImagePrompts(s core.GenerationSettings) []string {
	var prompts []string

	if s.GenerateCoverImage {
		prompts = append(prompts, fmt.Sprintf(
			"A professional, modern cover image for an article about %q. "+
				"Clean and eye-catching, with visual elements that represent the topic. "+
				"No text overlays. 16:9 aspect ratio, suitable as a blog hero image.", s.Topic))
	}

	for i := 0; i < s.NumContentImages; i++ {
		prompts = append(prompts, fmt.Sprintf(
			"An informative illustration for section %d of an article about %q. "+
				"Clean, professional and modern, complementing the written content. No text.", i+1, s.Topic))
	}

	return prompts
}
