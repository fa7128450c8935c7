// Package services composes configuration, the local library and the
// generation pipeline into the operations the CLI and HTTP API expose.
package services

import (
	"context"

	"contentforge/internal/core"
)

// Library is the persistence the services need. store.Store satisfies it.
type Library interface {
	SaveArticle(ctx context.Context, rec *core.ArticleRecord) error
	GetArticle(ctx context.Context, id string) (*core.ArticleRecord, error)
	ListArticles(ctx context.Context, limit int) ([]core.ArticleRecord, error)
	DeleteArticle(ctx context.Context, id string) error
	MarkPublished(ctx context.Context, id, wordpressURL string) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) (map[string]string, error)

	GetBrandVoice(ctx context.Context, idOrName string) (*core.BrandVoice, error)

	SaveInternalLinks(ctx context.Context, links []core.InternalLink) (int, error)
	ListInternalLinks(ctx context.Context) ([]core.InternalLink, error)
}
