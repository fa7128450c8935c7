package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"contentforge/internal/core"
	"contentforge/internal/llm"
	"contentforge/internal/pipeline"
	"contentforge/internal/services"
	"contentforge/internal/wordpress"

	"github.com/go-chi/chi/v5"
)

const defaultListLimit = 50

// apiKeys lets a request supply its own backend keys.
type apiKeys struct {
	Gemini     string `json:"gemini"`
	OpenRouter string `json:"openRouter"`
	Preferred  string `json:"preferred"`
}

func (k apiKeys) toKeys() (llm.Keys, error) {
	keys := llm.Keys{Gemini: k.Gemini, OpenRouter: k.OpenRouter}
	if k.Preferred != "" {
		kind, err := llm.ParseKind(k.Preferred)
		if err != nil {
			return keys, core.NewValidationError("apiKeys.preferred", err.Error())
		}
		keys.Preferred = kind
	}
	return keys, nil
}

// GenerateRequest is the body of POST /api/articles/generate. Settings
// fields left out keep their defaults.
type GenerateRequest struct {
	Settings core.GenerationSettings `json:"settings"`
	APIKeys  apiKeys                 `json:"apiKeys"`
}

// GenerateResponse is the outcome of a generation.
type GenerateResponse struct {
	Article       *core.ArticleRecord `json:"article"`
	Warnings      []string            `json:"warnings,omitempty"`
	ImageFailures []string            `json:"imageFailures,omitempty"`
	DurationMS    int64               `json:"durationMs"`
}

func newGenerateResponse(rec *core.ArticleRecord, res *pipeline.Result) GenerateResponse {
	resp := GenerateResponse{
		Article:    rec,
		Warnings:   res.Warnings,
		DurationMS: res.Duration.Milliseconds(),
	}
	for _, f := range res.ImageFailures {
		resp.ImageFailures = append(resp.ImageFailures, f.Error())
	}
	return resp
}

// handleGenerate runs a generation and saves the article. With
// "Accept: text/event-stream" progress is streamed as server-sent events.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req := GenerateRequest{Settings: core.DefaultSettings()}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	keys, err := req.APIKeys.toKeys()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := req.Settings.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	run, settings, err := s.articles.Start(ctx, req.Settings, services.GenerateOptions{Keys: keys})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	flusher, canStream := w.(http.Flusher)
	if !canStream || !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		for range run.Events() {
		}
		res, err := run.Wait()
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		rec, err := s.articles.Save(ctx, settings, res)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, newGenerateResponse(rec, res))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, data any) {
		payload, err := json.Marshal(data)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to encode event")
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
		flusher.Flush()
	}

	for ev := range run.Events() {
		send("progress", ev)
	}
	res, err := run.Wait()
	if err == nil {
		var rec *core.ArticleRecord
		if rec, err = s.articles.Save(ctx, settings, res); err == nil {
			send("done", newGenerateResponse(rec, res))
			return
		}
	}
	send("error", errorDetail{Status: core.HTTPStatusCode(err), Message: err.Error()})
}

// ArticleSummary is a library entry without its content.
type ArticleSummary struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Slug         string             `json:"slug"`
	Topic        string             `json:"topic"`
	Status       core.ArticleStatus `json:"status"`
	Provider     string             `json:"provider"`
	WordCount    int                `json:"wordCount"`
	WordPressURL string             `json:"wordpressUrl,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// handleEstimate predicts tokens and cost for a generate request without
// calling the model.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	req := GenerateRequest{Settings: core.DefaultSettings()}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	keys, err := req.APIKeys.toKeys()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	est, err := s.articles.Estimate(r.Context(), req.Settings, services.GenerateOptions{Keys: keys})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, est)
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultListLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	records, err := s.articles.Library().ListArticles(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	summaries := make([]ArticleSummary, len(records))
	for i, rec := range records {
		summaries[i] = ArticleSummary{
			ID:           rec.ID,
			Title:        rec.Article.Title,
			Slug:         rec.Article.Slug,
			Topic:        rec.Settings.Topic,
			Status:       rec.Status,
			Provider:     rec.Provider,
			WordCount:    rec.Article.WordCount,
			WordPressURL: rec.WordPressURL,
			CreatedAt:    rec.CreatedAt,
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"articles": summaries,
		"count":    len(summaries),
	})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	rec, err := s.articles.Library().GetArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := s.articles.Library().DeleteArticle(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublishRequest is the body of POST /api/articles/{id}/publish. Every
// field is optional.
type PublishRequest struct {
	Status       string `json:"status"`
	Categories   []int  `json:"categories"`
	Tags         []int  `json:"tags"`
	UploadImages *bool  `json:"uploadImages"`
	Site         struct {
		URL         string `json:"url"`
		Username    string `json:"username"`
		AppPassword string `json:"appPassword"`
	} `json:"site"`
}

// PublishResponse reports the created post.
type PublishResponse struct {
	Article        *core.ArticleRecord `json:"article"`
	PostID         int                 `json:"postId"`
	Link           string              `json:"link"`
	UploadedImages int                 `json:"uploadedImages"`
	FailedImages   []string            `json:"failedImages,omitempty"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	rec, res, err := s.articles.Publish(r.Context(), services.PublishRequest{
		ID: chi.URLParam(r, "id"),
		Site: wordpress.Site{
			URL:         req.Site.URL,
			Username:    req.Site.Username,
			AppPassword: req.Site.AppPassword,
		},
		Status:       req.Status,
		Categories:   req.Categories,
		Tags:         req.Tags,
		UploadImages: req.UploadImages,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := PublishResponse{
		Article:        rec,
		PostID:         res.Post.ID,
		Link:           res.Post.Link,
		UploadedImages: res.UploadedImages,
	}
	for _, f := range res.FailedImages {
		resp.FailedImages = append(resp.FailedImages, f.Error())
	}
	s.respondJSON(w, http.StatusOK, resp)
}
