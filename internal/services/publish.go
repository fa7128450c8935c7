package services

import (
	"context"

	"contentforge/internal/core"
	"contentforge/internal/store"
	"contentforge/internal/wordpress"
)

// Site resolves the WordPress target. Non-empty fields of override win,
// then saved settings, then configuration.
func (s *ArticleService) Site(ctx context.Context, override wordpress.Site) wordpress.Site {
	site := wordpress.Site{
		URL:         s.cfg.WordPress.URL,
		Username:    s.cfg.WordPress.Username,
		AppPassword: s.cfg.WordPress.AppPassword,
	}
	pick := func(dst *string, key, explicit string) {
		if v := s.setting(ctx, key); v != "" {
			*dst = v
		}
		if explicit != "" {
			*dst = explicit
		}
	}
	pick(&site.URL, store.SettingWordPressURL, override.URL)
	pick(&site.Username, store.SettingWordPressUser, override.Username)
	pick(&site.AppPassword, store.SettingWordPressPassword, override.AppPassword)
	return site
}

// WordPress returns a client for the resolved site.
func (s *ArticleService) WordPress(ctx context.Context, override wordpress.Site) (*wordpress.Client, error) {
	client, err := wordpress.NewClient(s.Site(ctx, override), s.httpClient, s.log)
	if err != nil {
		return nil, core.NewConfigurationError("WordPress is not configured", err)
	}
	return client, nil
}

// PublishRequest selects an article and a target.
type PublishRequest struct {
	ID         string
	Site       wordpress.Site
	Status     string
	Categories []int
	Tags       []int
	// UploadImages overrides the configured default when set.
	UploadImages *bool
}

// Publish sends a library article to WordPress and marks it published.
func (s *ArticleService) Publish(ctx context.Context, req PublishRequest) (*core.ArticleRecord, *wordpress.PublishResult, error) {
	rec, err := s.lib.GetArticle(ctx, req.ID)
	if err != nil {
		return nil, nil, err
	}

	client, err := s.WordPress(ctx, req.Site)
	if err != nil {
		return nil, nil, err
	}

	status := req.Status
	if status == "" {
		status = s.cfg.WordPress.DefaultStatus
	}
	if err := wordpress.ValidateStatus(status); err != nil {
		return nil, nil, core.NewAppError(core.ErrCodeValidation, err.Error(), err)
	}
	upload := s.cfg.WordPress.UploadImages
	if req.UploadImages != nil {
		upload = *req.UploadImages
	}

	res, err := client.Publish(ctx, rec, wordpress.PublishOptions{
		Status:       status,
		Categories:   req.Categories,
		Tags:         req.Tags,
		UploadImages: upload,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.lib.MarkPublished(ctx, rec.ID, res.Post.Link); err != nil {
		return nil, res, err
	}
	rec.Status = core.StatusPublished
	rec.WordPressURL = res.Post.Link

	s.log.Info().Str("id", rec.ID).Str("url", res.Post.Link).Int("images", res.UploadedImages).Msg("article published")
	return rec, res, nil
}
